package db

import (
	"context"
	"database/sql"
)

// DBTX is what repositories run queries against: the database itself for
// plain reads, or the *sql.Tx of a UnitOfWork for batched writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
