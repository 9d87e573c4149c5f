// Package connector opens databases through registered driver providers.
package connector

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
)

// Provider opens databases for one driver. Providers register themselves from init,
// so importing a providers package makes its driver available to Open.
type Provider interface {
	Connect(ctx context.Context, config Config) (database.Database, error)
	Dialect() dialect.Dialect
}

// Connection is an open database and the dialect its statements render in.
type Connection struct {
	Driver   string
	Database database.Database
	Dialect  dialect.Dialect
}

// Health pings the database.
func (c *Connection) Health(ctx context.Context) error {
	return c.Database.PingContext(ctx)
}

// Stats reports pool statistics for the adapters that expose them.
func (c *Connection) Stats() ConnectionStats {
	switch db := c.Database.(type) {
	case *database.PgxDatabase:
		s := db.Pool().Stat()
		return ConnectionStats{
			OpenConnections: int(s.TotalConns()),
			InUse:           int(s.AcquiredConns()),
			Idle:            int(s.IdleConns()),
		}
	case *database.SqlDatabase:
		return sqlStats(db.DB())
	}
	return ConnectionStats{}
}

func (c *Connection) Close() error {
	return c.Database.Close()
}

// ConfigurePool applies pool settings to a database/sql pool.
func ConfigurePool(db *sql.DB, p PoolConfig) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}
