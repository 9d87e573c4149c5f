package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/utils"
)

func TestPlanCache(t *testing.T) {
	c, err := NewPlanCache(2)
	require.NoError(t, err)

	q := &CachedQuery{
		SQL:          "SELECT * FROM users WHERE id = ?",
		ArgsOrder:    []string{"id"},
		Placeholders: []*ast.Placeholder{ast.Param("id")},
	}
	c.SetSQL(1, q)
	got, ok := c.GetSQL(1)
	require.True(t, ok)
	assert.Same(t, q, got)

	c.SetSQL(2, &CachedQuery{SQL: "b"})
	c.SetSQL(3, &CachedQuery{SQL: "c"})
	_, ok = c.GetSQL(1)
	assert.False(t, ok, "least recently used entry is evicted")
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestStatementCachePreparesOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := "SELECT name FROM users WHERE id = ?"
	mock.ExpectPrepare("SELECT name FROM users").WillBeClosed()

	c, err := NewStatementCache(4)
	require.NoError(t, err)
	key := utils.FingerprintString(query)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stmt, err := c.GetOrPrepare(context.Background(), key, db, query)
			assert.NoError(t, err)
			assert.NotNil(t, stmt)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementCacheEvictionCloses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("SELECT 1").WillBeClosed()
	mock.ExpectPrepare("SELECT 2")

	c, err := NewStatementCache(1)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.GetOrPrepare(ctx, 1, db, "SELECT 1")
	require.NoError(t, err)
	_, err = c.GetOrPrepare(ctx, 2, db, "SELECT 2")
	require.NoError(t, err)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementCachePrepareError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("BROKEN").WillReturnError(assert.AnError)

	c, err := NewStatementCache(1)
	require.NoError(t, err)
	_, err = c.GetOrPrepare(context.Background(), 9, db, "BROKEN")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, c.Len())
}
