package orders

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

// OrdersService loads denormalized order records into the store and
// answers the two analytical queries. The store is injected, so tests
// can run against MemoryStore.
type OrdersService struct {
	store  Store
	logger *log.Logger
}

// NewOrdersService builds a service on the given store and creates the
// schema if it does not exist. A nil logger falls back to log.Default.
func NewOrdersService(ctx context.Context, store Store, logger *log.Logger) (*OrdersService, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &OrdersService{store: store, logger: logger}, nil
}

// staging is the normalized form of one input file, built before any
// row is written. Slices keep first-appearance order so inserts are
// deterministic.
type staging struct {
	users      map[int64]User
	userIDs    []int64
	products   map[int64]Product
	productIDs []int64
	orders     map[int64]Order
	orderIDs   []int64
	lines      map[lineKey]int
	lineKeys   []lineKey
}

// LoadDataFromFile reads an ndjson file of denormalized order-line
// records and persists the normalized entities in one transaction.
//
// The whole file is parsed and validated before anything is written:
// the first malformed line aborts the load with a ValidationError and
// the store is left untouched. Blank lines are ignored. Duplicate ids
// are resolved first-occurrence-wins; a line whose (order, product)
// pair repeats within the file accumulates its quantity into a single
// order line, while pairs already present in the store from an earlier
// load are left unchanged, so reloading a file is a no-op.
func (s *OrdersService) LoadDataFromFile(ctx context.Context, path string) (*LoadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	rec := newLoadRecorder()
	s.logger.Printf("load %s: reading %s", rec.stats.RunID, path)

	st := &staging{
		users:    map[int64]User{},
		products: map[int64]Product{},
		orders:   map[int64]Order{},
		lines:    map[lineKey]int{},
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		record, err := ParseRecord(line, lineNo)
		if err != nil {
			return nil, err
		}
		s.stage(st, record)
		rec.stats.Lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	rec.stats.Users = len(st.users)
	rec.stats.Products = len(st.products)
	rec.stats.Orders = len(st.orders)
	rec.stats.OrderLines = len(st.lines)

	if err := s.persist(ctx, st, rec); err != nil {
		return nil, err
	}

	stats := rec.finish()
	s.logger.Printf("load %s: %d lines, %d users, %d products, %d orders, %d order lines in %s",
		stats.RunID, stats.Lines, stats.Users, stats.Products, stats.Orders, stats.OrderLines, stats.TotalTime)
	return stats, nil
}

// stage folds one record into the normalized staging maps. User and
// Product attributes are immutable across a file, so the first
// occurrence of an id is kept without re-validating later ones.
func (s *OrdersService) stage(st *staging, r Record) {
	if _, ok := st.users[r.UserID]; !ok {
		st.users[r.UserID] = User{ID: r.UserID, Name: r.UserName, City: r.UserCity}
		st.userIDs = append(st.userIDs, r.UserID)
	}
	if _, ok := st.products[r.ProductID]; !ok {
		st.products[r.ProductID] = Product{ID: r.ProductID, Name: r.ProductName, Price: r.ProductPrice}
		st.productIDs = append(st.productIDs, r.ProductID)
	}
	if _, ok := st.orders[r.OrderID]; !ok {
		st.orders[r.OrderID] = Order{ID: r.OrderID, UserID: r.UserID, CreatedAt: r.OrderTimestamp}
		st.orderIDs = append(st.orderIDs, r.OrderID)
	}
	k := lineKey{orderID: r.OrderID, productID: r.ProductID}
	if _, ok := st.lines[k]; !ok {
		st.lineKeys = append(st.lineKeys, k)
	}
	st.lines[k] += r.Quantity
}

func (s *OrdersService) persist(ctx context.Context, st *staging, rec *loadRecorder) error {
	return s.store.ExecuteTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, id := range st.userIDs {
			start := time.Now()
			if err := tx.UpsertUser(ctx, st.users[id]); err != nil {
				return err
			}
			rec.record(time.Since(start))
		}
		for _, id := range st.productIDs {
			start := time.Now()
			if err := tx.UpsertProduct(ctx, st.products[id]); err != nil {
				return err
			}
			rec.record(time.Since(start))
		}
		for _, id := range st.orderIDs {
			start := time.Now()
			inserted, err := tx.InsertOrder(ctx, st.orders[id])
			if err != nil {
				return err
			}
			rec.record(time.Since(start))
			if !inserted {
				rec.stats.SkippedOrders++
			}
		}
		for _, k := range st.lineKeys {
			start := time.Now()
			line := OrderLine{OrderID: k.orderID, ProductID: k.productID, Quantity: st.lines[k]}
			inserted, err := tx.InsertOrderLine(ctx, line)
			if err != nil {
				return err
			}
			rec.record(time.Since(start))
			if !inserted {
				rec.stats.SkippedOrderLines++
			}
		}
		return nil
	})
}

// GetOrdersInTimeRange returns the orders with start <= timestamp <=
// end, ordered by timestamp then id, each joined with its user and
// line items. An empty result is not an error.
func (s *OrdersService) GetOrdersInTimeRange(ctx context.Context, start, end time.Time) ([]OrderSummary, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return s.store.OrdersInRange(ctx, start, end)
}

// GetTopUsersByProductPurchaseCount returns the n users with the
// largest total purchased quantity over all their order lines,
// descending, ties broken by user id. When fewer than n users have
// purchases, all of them are returned.
func (s *OrdersService) GetTopUsersByProductPurchaseCount(ctx context.Context, n int) ([]UserPurchases, error) {
	if n < 1 {
		return nil, &InvalidArgumentError{Name: "n", Reason: "must be >= 1"}
	}
	return s.store.TopUsersByPurchaseCount(ctx, n)
}
