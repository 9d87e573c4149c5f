package mysql

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Konsultn-Engineering/sqlmap/connector"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(connector.Config{
		Host:           "127.0.0.1",
		Database:       "app",
		Username:       "root",
		Password:       "secret",
		ConnectTimeout: 5 * time.Second,
	})
	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(127.0.0.1:3306)/app?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "timeout=5s")

	assert.Equal(t, "user@/db", BuildDSN(connector.Config{DSN: "user@/db"}))
}

func TestRegistered(t *testing.T) {
	names := connector.Providers()
	assert.Contains(t, names, "mysql")
	assert.Contains(t, names, "tidb")
	assert.Equal(t, "mysql", (&Provider{}).Dialect().Name())
}
