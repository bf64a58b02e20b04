package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"orders-service/internal/database"
)

// These tests run against live databases and are skipped unless the
// corresponding URL is set.

func newSQLStore(t *testing.T, driver database.Driver, env string) *SQLStore {
	t.Helper()
	dsn := os.Getenv(env)
	if dsn == "" {
		t.Skipf("%s not set", env)
	}
	if err := driver.Connect(dsn); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { driver.Close() })

	store := NewSQLStore(driver)
	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("failed to reset schema: %v", err)
	}
	return store
}

func TestSQLStorePostgres(t *testing.T) {
	store := newSQLStore(t, &database.PostgresDriver{}, "ORDERS_TEST_POSTGRES_URL")
	testStoreRoundTrip(t, store)
}

func TestSQLStoreMySQL(t *testing.T) {
	store := newSQLStore(t, &database.MySQLDriver{}, "ORDERS_TEST_MYSQL_URL")
	testStoreRoundTrip(t, store)
}

// testStoreRoundTrip drives a full load and both queries through the
// service against the given store.
func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	service, err := NewOrdersService(ctx, store, nil)
	if err != nil {
		t.Fatalf("NewOrdersService failed: %v", err)
	}

	path := writeDataFile(t,
		recordLine(1, "2018-10-20 17:30:00", 10, "Alice", 100, "Keyboard", 2),
		recordLine(1, "2018-10-20 17:30:00", 10, "Alice", 101, "Mouse", 1),
		recordLine(2, "2018-10-21 09:15:00", 11, "Bob", 100, "Keyboard", 1),
	)
	if _, err := service.LoadDataFromFile(ctx, path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Reload must not duplicate anything.
	stats, err := service.LoadDataFromFile(ctx, path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stats.SkippedOrders != 2 || stats.SkippedOrderLines != 3 {
		t.Fatalf("skipped = (%d orders, %d lines), want (2, 3)", stats.SkippedOrders, stats.SkippedOrderLines)
	}

	start := time.Date(2018, 10, 20, 0, 0, 0, 0, time.UTC)
	result, err := service.GetOrdersInTimeRange(ctx, start, start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(result) != 2 || result[0].ID != 1 || result[1].ID != 2 {
		t.Fatalf("result = %+v, want orders 1 then 2", result)
	}
	if len(result[0].Lines) != 2 {
		t.Fatalf("order 1 lines = %+v, want 2 lines", result[0].Lines)
	}

	top, err := service.GetTopUsersByProductPurchaseCount(ctx, 10)
	if err != nil {
		t.Fatalf("top query failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d users, want 2", len(top))
	}
	if top[0].User.ID != 10 || top[0].PurchaseCount != 3 {
		t.Fatalf("first = %+v, want user 10 with 3", top[0])
	}
	if top[1].User.ID != 11 || top[1].PurchaseCount != 1 {
		t.Fatalf("second = %+v, want user 11 with 1", top[1])
	}
}
