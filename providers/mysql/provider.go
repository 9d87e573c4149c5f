// Package mysql registers the "mysql" and "tidb" providers, backed by
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/Konsultn-Engineering/sqlmap/cache"
	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
)

const defaultPort = 3306

type Provider struct {
	dialect dialect.Dialect
}

func init() {
	connector.Register("mysql", &Provider{dialect: dialect.NewMySQLDialect()})
	connector.Register("tidb", &Provider{dialect: dialect.NewTiDBDialect()})
}

// BuildDSN creates a go-sql-driver DSN. parseTime is always on so DATETIME columns
// arrive as time.Time.
func BuildDSN(cfg connector.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func (p *Provider) Connect(_ context.Context, cfg connector.Config) (database.Database, error) {
	db, err := sql.Open("mysql", BuildDSN(cfg))
	if err != nil {
		return nil, err
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
	if p.dialect == nil {
		return dialect.NewMySQLDialect()
	}
	return p.dialect
}
