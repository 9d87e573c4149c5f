// Package postgres registers the "postgres" provider, backed by a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
)

const defaultPort = 5432

type Provider struct{}

func init() {
	connector.Register("postgres", &Provider{})
	connector.Register("postgresql", &Provider{})
}

// BuildDSN creates a PostgreSQL connection URL.
func BuildDSN(cfg connector.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	b := connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Defaults(map[string]string{"sslmode": "prefer", "connect_timeout": "10"})
	if err := b.Validate(); err != nil {
		return "", fmt.Errorf("postgres dsn %s: %w", b.Redacted(), err)
	}
	return b.Build(), nil
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (database.Database, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	return database.NewPgxDatabase(pool), nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}
