package database

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLDriver struct {
	db *sql.DB
}

func (md *MySQLDriver) Connect(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	md.db = db
	return nil
}

func (md *MySQLDriver) Close() error {
	return md.db.Close()
}

func (md *MySQLDriver) ExecuteTx(ctx context.Context, txFunc func(ctx context.Context) error) error {
	tx, err := md.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := txFunc(context.WithValue(ctx, "tx", tx)); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (md *MySQLDriver) ExecContext(ctx context.Context, query string, args ...interface{}) error {
	if tx, ok := ctx.Value("tx").(*sql.Tx); ok {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}
	_, err := md.db.ExecContext(ctx, query, args...)
	return err
}

func (md *MySQLDriver) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	var rows *sql.Rows
	var err error
	if tx, ok := ctx.Value("tx").(*sql.Tx); ok {
		rows, err = tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = md.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (md *MySQLDriver) QueryRowContext(ctx context.Context, query string, args ...interface{}) Row {
	if tx, ok := ctx.Value("tx").(*sql.Tx); ok {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return md.db.QueryRowContext(ctx, query, args...)
}

// sqlRows adapts *sql.Rows to the Rows interface, which has a
// no-return Close to match pgx.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}
