package orders

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
)

// LoadStats summarizes one file load. Entity counts are distinct
// entities seen in the file; Skipped counts are orders and order lines
// that already existed in the store and were left unchanged. Latencies
// cover individual persist statements inside the load transaction.
type LoadStats struct {
	RunID             string        `json:"run_id"`
	Lines             int           `json:"lines"`
	Users             int           `json:"users"`
	Products          int           `json:"products"`
	Orders            int           `json:"orders"`
	OrderLines        int           `json:"order_lines"`
	SkippedOrders     int           `json:"skipped_orders"`
	SkippedOrderLines int           `json:"skipped_order_lines"`
	TotalTime         time.Duration `json:"total_time"`
	Throughput        float64       `json:"lines_per_second"`
	AverageLatency    time.Duration `json:"average_latency"`
	P95Latency        time.Duration `json:"p95_latency"`
	P99Latency        time.Duration `json:"p99_latency"`
}

// loadRecorder collects counters and statement latencies while a load
// runs and produces the final LoadStats.
type loadRecorder struct {
	stats     LoadStats
	start     time.Time
	histogram *hdrhistogram.Histogram
}

func newLoadRecorder() *loadRecorder {
	return &loadRecorder{
		stats: LoadStats{RunID: uuid.New().String()},
		start: time.Now(),
		// Max latency of 10 seconds, significant figures of 3
		histogram: hdrhistogram.New(1, 10000000000, 3),
	}
}

func (r *loadRecorder) record(latency time.Duration) {
	r.histogram.RecordValue(latency.Microseconds())
}

func (r *loadRecorder) finish() *LoadStats {
	r.stats.TotalTime = time.Since(r.start)
	if seconds := r.stats.TotalTime.Seconds(); seconds > 0 {
		r.stats.Throughput = float64(r.stats.Lines) / seconds
	}
	r.stats.AverageLatency = time.Duration(r.histogram.Mean()) * time.Microsecond
	r.stats.P95Latency = time.Duration(r.histogram.ValueAtQuantile(95)) * time.Microsecond
	r.stats.P99Latency = time.Duration(r.histogram.ValueAtQuantile(99)) * time.Microsecond
	return &r.stats
}
