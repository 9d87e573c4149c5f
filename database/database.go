// Package database abstracts the drivers statements run against.
package database

import (
	"context"
)

// Row is one result row keyed by column name.
type Row = map[string]any

type Database interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	PingContext(ctx context.Context) error
	Close() error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Columns() ([]string, error)
	Err() error
}

type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// valuesRows is implemented by drivers that hand back decoded values directly.
type valuesRows interface {
	Values() ([]any, error)
}
