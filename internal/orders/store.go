package orders

import (
	"context"
	"time"
)

// User is a purchaser. ID is the stable external identifier from the
// input file; name and city are immutable across a file.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Product is a purchasable item, keyed by its external id.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Order is a purchase event owned by exactly one user.
type Order struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderLine is one product within an order with its total quantity.
type OrderLine struct {
	OrderID   int64 `json:"order_id,omitempty"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderSummary is a range-query result row: the order joined with its
// user and line items, complete enough to print standalone.
type OrderSummary struct {
	ID        int64       `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	User      User        `json:"user"`
	Lines     []OrderLine `json:"lines"`
}

// UserPurchases is a top-purchasers result row: a user and the sum of
// quantities over every order line of every order they own.
type UserPurchases struct {
	User          User  `json:"user"`
	PurchaseCount int64 `json:"purchase_count"`
}

// Tx is the write surface available inside a load transaction.
type Tx interface {
	// UpsertUser inserts the user if absent and leaves an existing row
	// unchanged.
	UpsertUser(ctx context.Context, u User) error
	// UpsertProduct inserts the product if absent and leaves an
	// existing row unchanged.
	UpsertProduct(ctx context.Context, p Product) error
	// InsertOrder inserts the order if absent. It reports false when an
	// order with the same id already exists, in which case the row is
	// left unchanged.
	InsertOrder(ctx context.Context, o Order) (bool, error)
	// InsertOrderLine inserts the line if no line with the same
	// (order_id, product_id) exists, and leaves an existing line
	// unchanged. It reports whether a row was inserted.
	InsertOrderLine(ctx context.Context, l OrderLine) (bool, error)
}

// Store is the relational store behind the service. Implementations:
// SQLStore (Postgres/MySQL through a database.Driver) and MemoryStore.
type Store interface {
	// Init creates the schema if it does not exist.
	Init(ctx context.Context) error
	// Reset drops all rows and tables.
	Reset(ctx context.Context) error
	// ExecuteTx runs fn inside a transaction; any error rolls every
	// write back. fn must use the context it is given, which carries
	// the transaction.
	ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// OrdersInRange returns orders with start <= created_at <= end,
	// ordered by created_at ascending then id ascending.
	OrdersInRange(ctx context.Context, start, end time.Time) ([]OrderSummary, error)
	// TopUsersByPurchaseCount returns up to n users ordered by total
	// purchased quantity descending, ties broken by user id ascending.
	TopUsersByPurchaseCount(ctx context.Context, n int) ([]UserPurchases, error)
	Close() error
}
