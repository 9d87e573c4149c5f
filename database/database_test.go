package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/cache"
)

func TestFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM users WHERE age > ?").
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "ada").
			AddRow(int64(2), nil))

	rows, err := Fetch(context.Background(), NewSqlDatabase(db), "SELECT id, name FROM users WHERE age > ?", 30)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"id": int64(1), "name": "ada"}, rows[0])
	assert.Nil(t, rows[1]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := Fetch(context.Background(), NewSqlDatabase(db), "SELECT id FROM users")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFetchRowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).
		AddRow(1).
		RowError(0, assert.AnError))

	_, err = Fetch(context.Background(), NewSqlDatabase(db), "SELECT id FROM users")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET name").WithArgs("ada", 1).WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := NewSqlDatabase(db).ExecContext(context.Background(), "UPDATE users SET name = ? WHERE id = ?", "ada", 1)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStatementCacheReusesPrepared(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	stmts, err := cache.NewStatementCache(4)
	require.NoError(t, err)
	sdb := NewSqlDatabase(db, WithStatementCache(stmts))

	prep := mock.ExpectPrepare("SELECT id FROM users WHERE id = ?")
	prep.ExpectQuery().WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	prep.ExpectQuery().WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	prep.WillBeClosed()
	mock.ExpectClose()

	for _, id := range []int{1, 2} {
		rows, err := Fetch(context.Background(), sdb, "SELECT id FROM users WHERE id = ?", id)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}
	assert.Equal(t, 1, stmts.Len())

	require.NoError(t, sdb.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
