package database

import (
	"context"
)

// Row is a single result row, satisfied by pgx.Row and *sql.Row alike.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is a result set. pgx.Rows satisfies it directly; *sql.Rows is
// wrapped by the mysql driver to drop the error return from Close.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Driver is a minimal relational database abstraction. Statements
// issued from inside ExecuteTx run on that transaction: the handle is
// carried in the context under the "tx" key and picked up again by the
// Exec/Query methods.
type Driver interface {
	Connect(dsn string) error
	Close() error
	ExecuteTx(ctx context.Context, txFunc func(ctx context.Context) error) error
	ExecContext(ctx context.Context, query string, args ...interface{}) error
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) Row
}
