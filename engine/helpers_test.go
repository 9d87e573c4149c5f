package engine

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/registry"
)

type User struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// testLogger routes debug records to t.Log.
func testLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func text(s string) ast.Node { return ast.NewStatic(s) }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	statements := []registry.Statement{
		{Namespace: "users", ID: "list", Kind: registry.KindSelect, Root: ast.NewFragment(&ast.Select{
			Projection: []ast.Node{text("id, name")},
			Children: []ast.Node{
				text("FROM users"),
				&ast.Where{Children: []ast.Node{
					&ast.If{Test: "status != null", Children: []ast.Node{text("AND status ="), ast.Param("status")}},
				}},
				&ast.OrderBy{Children: []ast.Node{text("id")}},
			},
		})},
		{Namespace: "users", ID: "get", Kind: registry.KindSelect, Root: ast.NewFragment(&ast.Select{
			Projection: []ast.Node{text("id, name")},
			Children:   []ast.Node{text("FROM users WHERE id ="), ast.Param("id")},
		})},
		{Namespace: "users", ID: "rename", Kind: registry.KindUpdate, Root: ast.NewFragment(
			text("UPDATE users"),
			&ast.Set{Children: []ast.Node{
				&ast.If{Test: "name != null", Children: []ast.Node{text("name ="), ast.Param("name"), text(",")}},
			}},
			text("WHERE id ="), ast.Param("id"),
		)},
	}
	for _, s := range statements {
		require.NoError(t, b.Add(s))
	}
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func newTestEngine(t *testing.T, d dialect.Dialect, opts ...Option) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]Option{WithDialect(d), WithLogger(testLogger(t))}, opts...)
	e, err := New(testRegistry(t), database.NewSqlDatabase(db), opts...)
	require.NoError(t, err)
	return e, mock
}

func userRows(from, to int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name"})
	for i := from; i <= to; i++ {
		rows.AddRow(int64(i), "user")
	}
	return rows
}
