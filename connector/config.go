package connector

import (
	"time"
)

// Config represents database connection configuration. DSN, when set, is passed to
// the driver verbatim and the discrete fields are ignored.
type Config struct {
	DSN            string            `json:"dsn" yaml:"dsn" koanf:"dsn"`
	Host           string            `json:"host" yaml:"host" koanf:"host"`
	Port           int               `json:"port" yaml:"port" koanf:"port"`
	Database       string            `json:"database" yaml:"database" koanf:"database"`
	Username       string            `json:"username" yaml:"username" koanf:"username"`
	Password       string            `json:"password" yaml:"password" koanf:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode" koanf:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params" koanf:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool" koanf:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout" koanf:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout" koanf:"query_timeout"`
	// StatementCache is the number of prepared statements kept per database/sql pool.
	// Zero disables statement caching.
	StatementCache int          `json:"statement_cache" yaml:"statement_cache" koanf:"statement_cache"`
	Retry          *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty" koanf:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open" koanf:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle" koanf:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime" koanf:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time" koanf:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries" koanf:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay" koanf:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay" koanf:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff" koanf:"backoff"`
}

// WithPoolDefaults fills unset pool settings.
func (c Config) WithPoolDefaults() Config {
	if c.Pool.MaxOpen <= 0 {
		c.Pool.MaxOpen = 10
	}
	if c.Pool.MaxIdle <= 0 {
		c.Pool.MaxIdle = 5
	}
	if c.Pool.MaxIdle > c.Pool.MaxOpen {
		c.Pool.MaxIdle = c.Pool.MaxOpen
	}
	if c.Pool.MaxLifetime == 0 {
		c.Pool.MaxLifetime = time.Hour
	}
	if c.Pool.MaxIdleTime == 0 {
		c.Pool.MaxIdleTime = 30 * time.Minute
	}
	return c
}
