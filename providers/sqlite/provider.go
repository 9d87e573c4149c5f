// Package sqlite registers the "sqlite" provider, backed by the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/sqlmap/cache"
	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
)

const memory = ":memory:"

type Provider struct{}

func init() {
	connector.Register("sqlite", &Provider{})
	connector.Register("sqlite3", &Provider{})
}

// BuildDSN returns the database file path followed by Params as a query string.
// An empty Database opens an in-memory database.
func BuildDSN(cfg connector.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	path := cfg.Database
	if path == "" {
		path = memory
	}
	if len(cfg.Params) == 0 {
		return path
	}
	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := make([]string, 0, len(keys))
	for _, k := range keys {
		q = append(q, url.QueryEscape(k)+"="+url.QueryEscape(cfg.Params[k]))
	}
	return path + "?" + strings.Join(q, "&")
}

func (p *Provider) Connect(_ context.Context, cfg connector.Config) (database.Database, error) {
	dsn := BuildDSN(cfg)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is its own database
	if strings.HasPrefix(dsn, memory) {
		cfg.Pool.MaxOpen, cfg.Pool.MaxIdle = 1, 1
	}
	connector.ConfigurePool(db, cfg.Pool)

	var opts []database.SqlOption
	if cfg.StatementCache > 0 {
		stmts, err := cache.NewStatementCache(cfg.StatementCache)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		opts = append(opts, database.WithStatementCache(stmts))
	}
	return database.NewSqlDatabase(db, opts...), nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewSQLiteDialect()
}
