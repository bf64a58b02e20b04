package orders

import (
	"encoding/json"
	"time"
)

// TimeFormat is the timestamp layout used by the input file and by the
// CLI. Timestamps are interpreted as UTC.
const TimeFormat = "2006-01-02 15:04:05"

// Record is one validated, denormalized order-line record from the
// input file. Nothing downstream of ParseRecord sees raw JSON.
type Record struct {
	OrderID        int64
	OrderTimestamp time.Time
	UserID         int64
	UserName       string
	UserCity       string
	ProductID      int64
	ProductName    string
	ProductPrice   float64
	Quantity       int
}

// rawRecord shadows Record with pointer fields so that missing keys are
// distinguishable from zero values.
type rawRecord struct {
	OrderID        *int64   `json:"order_id"`
	OrderTimestamp *string  `json:"order_timestamp"`
	UserID         *int64   `json:"user_id"`
	UserName       *string  `json:"user_name"`
	UserCity       *string  `json:"user_city"`
	ProductID      *int64   `json:"product_id"`
	ProductName    *string  `json:"product_name"`
	ProductPrice   *float64 `json:"product_price"`
	Quantity       *int     `json:"quantity"`
}

// ParseRecord parses and validates a single ndjson line. line is the
// 1-based line number used in error reports. The quantity field is
// optional and defaults to 1.
func ParseRecord(data []byte, line int) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, &ValidationError{Line: line, Reason: "invalid JSON: " + err.Error()}
	}

	missing := ""
	switch {
	case raw.OrderID == nil:
		missing = "order_id"
	case raw.OrderTimestamp == nil:
		missing = "order_timestamp"
	case raw.UserID == nil:
		missing = "user_id"
	case raw.UserName == nil:
		missing = "user_name"
	case raw.UserCity == nil:
		missing = "user_city"
	case raw.ProductID == nil:
		missing = "product_id"
	case raw.ProductName == nil:
		missing = "product_name"
	case raw.ProductPrice == nil:
		missing = "product_price"
	}
	if missing != "" {
		return Record{}, &ValidationError{Line: line, Field: missing, Reason: "missing"}
	}

	ts, err := time.ParseInLocation(TimeFormat, *raw.OrderTimestamp, time.UTC)
	if err != nil {
		return Record{}, &ValidationError{Line: line, Field: "order_timestamp", Reason: "unparsable timestamp: " + err.Error()}
	}

	quantity := 1
	if raw.Quantity != nil {
		if *raw.Quantity < 1 {
			return Record{}, &ValidationError{Line: line, Field: "quantity", Reason: "must be >= 1"}
		}
		quantity = *raw.Quantity
	}

	return Record{
		OrderID:        *raw.OrderID,
		OrderTimestamp: ts,
		UserID:         *raw.UserID,
		UserName:       *raw.UserName,
		UserCity:       *raw.UserCity,
		ProductID:      *raw.ProductID,
		ProductName:    *raw.ProductName,
		ProductPrice:   *raw.ProductPrice,
		Quantity:       quantity,
	}, nil
}
