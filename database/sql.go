package database

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/sqlmap/cache"
	"github.com/Konsultn-Engineering/sqlmap/utils"
)

// SqlDatabase implements Database for *sql.DB.
type SqlDatabase struct {
	db    *sql.DB
	stmts *cache.StatementCache
}

type SqlOption func(*SqlDatabase)

// WithStatementCache routes queries through prepared statements kept in c.
func WithStatementCache(c *cache.StatementCache) SqlOption {
	return func(s *SqlDatabase) { s.stmts = c }
}

// NewSqlDatabase creates a new SqlDatabase.
func NewSqlDatabase(db *sql.DB, opts ...SqlOption) *SqlDatabase {
	s := &SqlDatabase{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying pool.
func (s *SqlDatabase) DB() *sql.DB { return s.db }

// QueryContext executes a query that returns rows.
func (s *SqlDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	if s.stmts != nil {
		stmt, err := s.stmts.GetOrPrepare(ctx, utils.FingerprintString(query), s.db, query)
		if err != nil {
			return nil, err
		}
		return stmt.QueryContext(ctx, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a query without returning rows.
func (s *SqlDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	if s.stmts != nil {
		stmt, err := s.stmts.GetOrPrepare(ctx, utils.FingerprintString(query), s.db, query)
		if err != nil {
			return nil, err
		}
		return stmt.ExecContext(ctx, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

// PingContext verifies the connection to the database is alive.
func (s *SqlDatabase) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases cached statements, then the pool.
func (s *SqlDatabase) Close() error {
	if s.stmts != nil {
		_ = s.stmts.Close()
	}
	return s.db.Close()
}

// Assert that SqlDatabase implements the Database interface.
var _ Database = (*SqlDatabase)(nil)
