package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/page"
	"github.com/Konsultn-Engineering/sqlmap/schema"
	"github.com/Konsultn-Engineering/sqlmap/value"
	"github.com/Konsultn-Engineering/sqlmap/visitor"
)

const (
	countSQL = "SELECT COUNT(1) FROM users WHERE status = ?"
	dataSQL  = "SELECT id, name FROM users WHERE status = ? ORDER BY id LIMIT ? OFFSET ?"
)

func TestSelectPage(t *testing.T) {
	tests := []struct {
		name        string
		req         page.Request
		total       int64
		expectData  bool
		offset      int64
		rows        *sqlmock.Rows
		wantRecords int
		wantHasNext bool
	}{
		{name: "first page", req: page.New(1, 5), total: 12, expectData: true, offset: 0, rows: userRows(1, 5), wantRecords: 5, wantHasNext: true},
		{name: "last partial page", req: page.New(3, 5), total: 12, expectData: true, offset: 10, rows: userRows(11, 12), wantRecords: 2},
		{name: "totals only", req: page.New(1, 0), total: 12},
		{name: "empty result skips data", req: page.New(1, 5), total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
			mock.ExpectQuery(countSQL).WithArgs("ACTIVE").
				WillReturnRows(sqlmock.NewRows([]string{"COUNT(1)"}).AddRow(tt.total))
			if tt.expectData {
				mock.ExpectQuery(dataSQL).WithArgs("ACTIVE", tt.req.Size, tt.offset).WillReturnRows(tt.rows)
			}

			res, err := SelectPage[User](context.Background(), e, "users", "list", map[string]any{"status": "ACTIVE"}, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.total, res.Total)
			assert.Equal(t, tt.req.Size, res.Size)
			assert.Equal(t, tt.req.Current, res.Current)
			assert.NotNil(t, res.Records)
			assert.Len(t, res.Records, tt.wantRecords)
			assert.Equal(t, tt.wantHasNext, res.HasNext())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSelectPageNumberedMarkers(t *testing.T) {
	e, mock := newTestEngine(t, dialect.NewPostgresDialect())
	mock.ExpectQuery("SELECT COUNT(1) FROM users WHERE status = $1").WithArgs("ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT id, name FROM users WHERE status = $1 ORDER BY id LIMIT $2 OFFSET $3").
		WithArgs("ACTIVE", int64(5), int64(5)).
		WillReturnRows(userRows(6, 7))

	res, err := SelectPage[*User](context.Background(), e, "users", "list", value.Object(map[string]value.Value{
		"status": value.String("ACTIVE"),
	}), page.New(2, 5))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, int64(7), res.Records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectPageMySQLLimit(t *testing.T) {
	e, mock := newTestEngine(t, dialect.NewMySQLDialect())
	mock.ExpectQuery("SELECT COUNT(1) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow([]byte("3")))
	mock.ExpectQuery("SELECT id, name FROM users ORDER BY id LIMIT ?, ?").
		WithArgs(int64(2), int64(2)).
		WillReturnRows(userRows(3, 3))

	res, err := SelectPage[User](context.Background(), e, "users", "list", nil, page.New(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Records, 1)
}

func TestSelectPageErrors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		e, _ := newTestEngine(t, dialect.NewSQLiteDialect())
		_, err := SelectPage[User](context.Background(), e, "users", "list", nil, page.New(0, 5))
		assert.ErrorIs(t, err, page.ErrInvalidRequest)
	})

	t.Run("count failure", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT COUNT(1) FROM users").WillReturnError(assert.AnError)

		_, err := SelectPage[User](context.Background(), e, "users", "list", nil, page.New(1, 5))
		var pe *page.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, page.StageCount, pe.Stage)
		var de *DriverError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "SELECT COUNT(1) FROM users", de.SQL)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("data failure", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT COUNT(1) FROM users").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(int64(4)))
		mock.ExpectQuery("SELECT id, name FROM users ORDER BY id LIMIT ? OFFSET ?").WillReturnError(assert.AnError)

		_, err := SelectPage[User](context.Background(), e, "users", "list", nil, page.New(1, 5))
		var pe *page.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, page.StageData, pe.Stage)
	})

	t.Run("decode failure", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT COUNT(1) FROM users").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT id, name FROM users ORDER BY id LIMIT ? OFFSET ?").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("abc", "x"))

		_, err := SelectPage[User](context.Background(), e, "users", "list", nil, page.New(1, 5))
		var pe *page.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, page.StageData, pe.Stage)
		assert.ErrorIs(t, err, schema.ErrTypeMismatch)
	})
}

func TestEvalTyped(t *testing.T) {
	ctx := context.Background()

	t.Run("slice receives every row", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT id, name FROM users ORDER BY id").WillReturnRows(userRows(1, 3))
		users, err := EvalTyped[[]User](ctx, e, "users", "list", nil)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})

	t.Run("empty slice", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT id, name FROM users ORDER BY id").WillReturnRows(userRows(1, 0))
		users, err := EvalTyped[[]User](ctx, e, "users", "list", nil)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})

	t.Run("single row", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?").WithArgs(int64(2)).WillReturnRows(userRows(2, 2))
		u, err := EvalTyped[User](ctx, e, "users", "get", map[string]any{"id": 2})
		require.NoError(t, err)
		assert.Equal(t, int64(2), u.ID)
	})

	t.Run("no row gives zero value", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?").WillReturnRows(userRows(1, 0))
		u, err := EvalTyped[*User](ctx, e, "users", "get", map[string]any{"id": 9})
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("several rows for a single target", func(t *testing.T) {
		e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
		mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?").WillReturnRows(userRows(1, 2))
		_, err := EvalTyped[User](ctx, e, "users", "get", map[string]any{"id": 1})
		assert.ErrorIs(t, err, schema.ErrShapeMismatch)
	})

	t.Run("missing parameter", func(t *testing.T) {
		e, _ := newTestEngine(t, dialect.NewSQLiteDialect())
		_, err := EvalTyped[User](ctx, e, "users", "get", map[string]any{})
		assert.ErrorIs(t, err, visitor.ErrMissingParameter)
	})

	t.Run("unknown statement", func(t *testing.T) {
		e, _ := newTestEngine(t, dialect.NewSQLiteDialect())
		_, err := EvalTyped[User](ctx, e, "users", "nope", nil)
		assert.ErrorIs(t, err, ErrStatementNotFound)
	})
}

func TestExec(t *testing.T) {
	e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
	mock.ExpectExec("UPDATE users SET name = ? WHERE id = ?").
		WithArgs("ada", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := e.Exec(context.Background(), "users", "rename", map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("UPDATE users WHERE id = ?").WillReturnError(assert.AnError)
	_, err = e.Exec(context.Background(), "users", "rename", map[string]any{"id": 1})
	var de *DriverError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRenderUsesPlanCache(t *testing.T) {
	e, _ := newTestEngine(t, dialect.NewPostgresDialect())
	for _, id := range []int{1, 2} {
		sql, args, err := e.Render("users", "get", map[string]any{"id": id})
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, name FROM users WHERE id = $1", sql)
		assert.Equal(t, []any{int64(id)}, args)
	}
	assert.Equal(t, 1, e.plans.Len())

	sql, _, err := e.Render("users", "list", map[string]any{"status": "x"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE status = $1 ORDER BY id", sql)
	assert.Equal(t, 1, e.plans.Len())

	sql, _, err = e.RenderCount("users", "list", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(1) FROM users", sql)
}

func TestRenderWithoutPlanCache(t *testing.T) {
	e, _ := newTestEngine(t, dialect.NewPostgresDialect(), WithPlanCache(0))
	sql, _, err := e.Render("users", "get", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE id = $1", sql)
	assert.Nil(t, e.plans)
}

func TestQueryRaw(t *testing.T) {
	e, mock := newTestEngine(t, dialect.NewSQLiteDialect())
	mock.ExpectQuery("SELECT COUNT(*) FROM users").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(12)))

	n, err := QueryRaw[int64](context.Background(), e, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestQueryLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, mock := newTestEngine(t, dialect.NewSQLiteDialect(), WithLogger(logger))
	mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?").WillReturnRows(userRows(1, 1))

	_, err := EvalTyped[User](context.Background(), e, "users", "get", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"query"`)
	assert.Contains(t, buf.String(), `"rows":1`)
}

func TestRenderOnlyEngine(t *testing.T) {
	e, err := New(testRegistry(t), nil, WithDialect(dialect.NewSQLiteDialect()))
	require.NoError(t, err)
	sql, _, err := e.Render("users", "get", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE id = ?", sql)

	_, err = e.Exec(context.Background(), "users", "rename", map[string]any{"id": 1})
	var de *DriverError
	assert.ErrorAs(t, err, &de)
}
