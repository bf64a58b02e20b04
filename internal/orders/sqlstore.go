package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"orders-service/internal/database"
)

// noRows reports the drivers' respective empty-result sentinels.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

var _ Store = (*SQLStore)(nil)

// SQLStore implements Store on top of a relational database.Driver.
// Statements are written for Postgres and switched to the MySQL form
// when the driver is a MySQLDriver.
type SQLStore struct {
	db database.Driver
}

func NewSQLStore(db database.Driver) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) mysql() bool {
	_, ok := s.db.(*database.MySQLDriver)
	return ok
}

func (s *SQLStore) Init(ctx context.Context) error {
	for _, schema := range []string{
		GetUsersSchema(),
		GetProductsSchema(),
		GetOrdersSchema(),
		GetOrderLinesSchema(),
	} {
		if err := s.db.ExecContext(ctx, schema); err != nil {
			return storageErr("create schema", err)
		}
	}
	return nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	// Drop order matters: children before parents.
	for _, table := range []string{"order_lines", "orders", "products", "users"} {
		if err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return storageErr("drop "+table, err)
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := s.db.ExecuteTx(ctx, func(ctx context.Context) error {
		return fn(ctx, sqlTx{s})
	})
	var se *StorageError
	if err != nil && !errors.As(err, &se) {
		return storageErr("transaction", err)
	}
	return err
}

// sqlTx issues writes through the store's driver; the transaction
// handle travels in the context.
type sqlTx struct {
	s *SQLStore
}

func (t sqlTx) UpsertUser(ctx context.Context, u User) error {
	query := "INSERT INTO users (id, name, city) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING"
	if t.s.mysql() {
		query = "INSERT IGNORE INTO users (id, name, city) VALUES (?, ?, ?)"
	}
	return storageErr("upsert user", t.s.db.ExecContext(ctx, query, u.ID, u.Name, u.City))
}

func (t sqlTx) UpsertProduct(ctx context.Context, p Product) error {
	query := "INSERT INTO products (id, name, price) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING"
	if t.s.mysql() {
		query = "INSERT IGNORE INTO products (id, name, price) VALUES (?, ?, ?)"
	}
	return storageErr("upsert product", t.s.db.ExecContext(ctx, query, p.ID, p.Name, p.Price))
}

func (t sqlTx) InsertOrder(ctx context.Context, o Order) (bool, error) {
	exists, err := t.exists(ctx, "SELECT 1 FROM orders WHERE id = $1", "SELECT 1 FROM orders WHERE id = ?", o.ID)
	if err != nil {
		return false, storageErr("insert order", err)
	}
	if exists {
		return false, nil
	}

	query := "INSERT INTO orders (id, user_id, created_at) VALUES ($1, $2, $3)"
	if t.s.mysql() {
		query = "INSERT INTO orders (id, user_id, created_at) VALUES (?, ?, ?)"
	}
	if err := t.s.db.ExecContext(ctx, query, o.ID, o.UserID, o.CreatedAt); err != nil {
		return false, storageErr("insert order", err)
	}
	return true, nil
}

func (t sqlTx) InsertOrderLine(ctx context.Context, l OrderLine) (bool, error) {
	exists, err := t.exists(ctx,
		"SELECT 1 FROM order_lines WHERE order_id = $1 AND product_id = $2",
		"SELECT 1 FROM order_lines WHERE order_id = ? AND product_id = ?",
		l.OrderID, l.ProductID)
	if err != nil {
		return false, storageErr("insert order line", err)
	}
	if exists {
		return false, nil
	}

	query := "INSERT INTO order_lines (order_id, product_id, quantity) VALUES ($1, $2, $3)"
	if t.s.mysql() {
		query = "INSERT INTO order_lines (order_id, product_id, quantity) VALUES (?, ?, ?)"
	}
	if err := t.s.db.ExecContext(ctx, query, l.OrderID, l.ProductID, l.Quantity); err != nil {
		return false, storageErr("insert order line", err)
	}
	return true, nil
}

func (t sqlTx) exists(ctx context.Context, pgQuery, myQuery string, args ...interface{}) (bool, error) {
	query := pgQuery
	if t.s.mysql() {
		query = myQuery
	}
	var one int
	err := t.s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == nil {
		return true, nil
	}
	if noRows(err) {
		return false, nil
	}
	return false, err
}

func (s *SQLStore) OrdersInRange(ctx context.Context, start, end time.Time) ([]OrderSummary, error) {
	query := `
		SELECT o.id, o.created_at, u.id, u.name, u.city
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.created_at >= $1 AND o.created_at <= $2
		ORDER BY o.created_at ASC, o.id ASC
	`
	if s.mysql() {
		query = `
			SELECT o.id, o.created_at, u.id, u.name, u.city
			FROM orders o
			JOIN users u ON u.id = o.user_id
			WHERE o.created_at >= ? AND o.created_at <= ?
			ORDER BY o.created_at ASC, o.id ASC
		`
	}

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, storageErr("query orders in range", err)
	}
	defer rows.Close()

	summaries := []OrderSummary{}
	for rows.Next() {
		var sum OrderSummary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.User.ID, &sum.User.Name, &sum.User.City); err != nil {
			return nil, storageErr("scan order", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query orders in range", err)
	}

	for i := range summaries {
		lines, err := s.orderLines(ctx, summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].Lines = lines
	}
	return summaries, nil
}

func (s *SQLStore) orderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	query := "SELECT product_id, quantity FROM order_lines WHERE order_id = $1 ORDER BY product_id ASC"
	if s.mysql() {
		query = "SELECT product_id, quantity FROM order_lines WHERE order_id = ? ORDER BY product_id ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, storageErr("query order lines", err)
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		line := OrderLine{OrderID: orderID}
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, storageErr("scan order line", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query order lines", err)
	}
	return lines, nil
}

func (s *SQLStore) TopUsersByPurchaseCount(ctx context.Context, n int) ([]UserPurchases, error) {
	query := `
		SELECT u.id, u.name, u.city, SUM(l.quantity) AS purchase_count
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		JOIN users u ON u.id = o.user_id
		GROUP BY u.id, u.name, u.city
		ORDER BY purchase_count DESC, u.id ASC
		LIMIT $1
	`
	if s.mysql() {
		query = `
			SELECT u.id, u.name, u.city, SUM(l.quantity) AS purchase_count
			FROM order_lines l
			JOIN orders o ON o.id = l.order_id
			JOIN users u ON u.id = o.user_id
			GROUP BY u.id, u.name, u.city
			ORDER BY purchase_count DESC, u.id ASC
			LIMIT ?
		`
	}

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, storageErr("query top users", err)
	}
	defer rows.Close()

	top := []UserPurchases{}
	for rows.Next() {
		var up UserPurchases
		if err := rows.Scan(&up.User.ID, &up.User.Name, &up.User.City, &up.PurchaseCount); err != nil {
			return nil, storageErr("scan top user", err)
		}
		top = append(top, up)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query top users", err)
	}
	return top, nil
}
