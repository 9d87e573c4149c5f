package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/database"
)

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", BuildDSN(connector.Config{}))
	assert.Equal(t, "app.db?_pragma=foreign_keys%281%29&_txlock=immediate", BuildDSN(connector.Config{
		Database: "app.db",
		Params:   map[string]string{"_txlock": "immediate", "_pragma": "foreign_keys(1)"},
	}))
}

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	conn, err := connector.Open(ctx, "sqlite", connector.Config{StatementCache: 8})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "sqlite", conn.Dialect.Name())

	_, err = conn.Database.ExecContext(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	res, err := conn.Database.ExecContext(ctx, "INSERT INTO users (name) VALUES (?), (?)", "ada", "grace")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := database.Fetch(ctx, conn.Database, "SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "grace", rows[1]["name"])
	assert.Equal(t, 1, conn.Stats().OpenConnections)
}
