package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNoLastInsertID = errors.New("database: postgres has no last insert id, use RETURNING")

// PgxDatabase runs statements on a pgx pool. pgx prepares and caches statements per
// connection itself, so no StatementCache sits in front of it.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

func (p *PgxDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (p *PgxDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxResult(tag), nil
}

func (p *PgxDatabase) PingContext(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// pgxRows adapts pgx.Rows. Values hands Fetch natively decoded values, so uuid,
// numeric and timestamp columns skip the database/sql conversion path.
type pgxRows struct {
	rows    pgx.Rows
	columns []string
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error             { return r.rows.Err() }
func (r *pgxRows) Values() ([]any, error) { return r.rows.Values() }

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}

func (r *pgxRows) Columns() ([]string, error) {
	if r.columns == nil {
		fields := r.rows.FieldDescriptions()
		r.columns = make([]string, len(fields))
		for i, f := range fields {
			r.columns[i] = f.Name
		}
	}
	return r.columns, nil
}

type pgxResult pgconn.CommandTag

func (pgxResult) LastInsertId() (int64, error) { return 0, errNoLastInsertID }

func (r pgxResult) RowsAffected() (int64, error) {
	return pgconn.CommandTag(r).RowsAffected(), nil
}

var (
	_ Database   = (*PgxDatabase)(nil)
	_ valuesRows = (*pgxRows)(nil)
)
