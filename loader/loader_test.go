package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/registry"
	"github.com/Konsultn-Engineering/sqlmap/value"
	"github.com/Konsultn-Engineering/sqlmap/visitor"
)

func loadTestdata(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	n, err := LoadGlob(b, filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func render(t *testing.T, reg *registry.Registry, ns, id string, params map[string]any) visitor.Result {
	t.Helper()
	stmt, ok := reg.Lookup(ns, id)
	require.True(t, ok, "%s.%s", ns, id)
	env, err := value.FromAny(params)
	require.NoError(t, err)
	res, err := visitor.New(reg, visitor.WithDialect(dialect.NewMySQLDialect())).Evaluate(ns, stmt.Root, env)
	require.NoError(t, err)
	return res
}

func TestLoadRenders(t *testing.T) {
	reg := loadTestdata(t)
	assert.Equal(t, []string{"orders", "users"}, reg.Namespaces())

	res := render(t, reg, "users", "search", map[string]any{"name": "a%", "ids": []int{1, 2}, "sort": "name"})
	assert.Equal(t, "SELECT id, name, email FROM users WHERE name LIKE ? AND id IN (?,?) ORDER BY name", res.SQL)
	assert.Equal(t, []any{"a%", int64(1), int64(2)}, res.Args())

	res = render(t, reg, "users", "search", map[string]any{"ids": []int{}})
	assert.Equal(t, "SELECT id, name, email FROM users ORDER BY id", res.SQL)

	res = render(t, reg, "users", "rename", map[string]any{"id": 3, "email": "a@b.c"})
	assert.Equal(t, "UPDATE users SET email = ? WHERE id = ?", res.SQL)

	res = render(t, reg, "users", "byStatus", map[string]any{"status": "act"})
	assert.Equal(t, "SELECT * FROM users WHERE status LIKE ? LIMIT ?", res.SQL)
	assert.Equal(t, []any{"%act%", int64(20)}, res.Args())

	res = render(t, reg, "orders", "byUser", map[string]any{"userId": 9})
	assert.Equal(t, "SELECT id, name, email FROM orders WHERE user_id = ?", res.SQL)
}

func TestLoadKinds(t *testing.T) {
	reg := loadTestdata(t)
	cols, ok := reg.Lookup("users", "columns")
	require.True(t, ok)
	assert.Equal(t, registry.KindSQL, cols.Kind)

	rename, ok := reg.Lookup("users", "rename")
	require.True(t, ok)
	assert.Equal(t, registry.KindUpdate, rename.Kind)

	byStatus, ok := reg.Lookup("users", "byStatus")
	require.True(t, ok)
	assert.Equal(t, registry.KindSelect, byStatus.Kind)

	var jdbc string
	ast.Walk(rename.Root, func(n ast.Node) bool {
		if p, ok := n.(*ast.Placeholder); ok && p.JDBCType != "" {
			jdbc = p.JDBCType
		}
		return true
	})
	assert.Equal(t, "VARCHAR", jdbc)
}

func TestLoadErrorsCarryLine(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
		msg  string
	}{
		{
			name: "unknown node",
			doc:  "namespace: a\nstatements:\n  - id: x\n    nodes:\n      - loop: [x]\n",
			line: 5,
			msg:  `unknown node "loop"`,
		},
		{
			name: "unclosed parameter",
			doc:  "namespace: a\nstatements:\n  - id: x\n    nodes:\n      - SELECT #{id\n",
			line: 5,
			msg:  "unclosed #{",
		},
		{
			name: "bad kind",
			doc:  "namespace: a\nstatements:\n  - id: x\n    kind: merge\n    nodes: [SELECT 1]\n",
			line: 5,
			msg:  "unknown statement kind",
		},
		{
			name: "if without test",
			doc:  "namespace: a\nstatements:\n  - id: x\n    nodes:\n      - if: {nodes: [x]}\n",
			line: 5,
			msg:  "if needs a test",
		},
		{
			name: "missing namespace",
			doc:  "statements: []\n",
			line: 1,
			msg:  "namespace is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Load(registry.NewBuilder(), strings.NewReader(tt.doc))
			require.Error(t, err)
			var le *Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.line, le.Line)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadDuplicateAcrossFiles(t *testing.T) {
	b := registry.NewBuilder()
	doc := "namespace: a\nstatements:\n  - id: x\n    nodes: [SELECT 1]\n"
	require.NoError(t, Load(b, strings.NewReader(doc)))
	err := Load(b, strings.NewReader(doc))
	assert.ErrorIs(t, err, registry.ErrDuplicate)
}

func TestLoadGlobNoMatch(t *testing.T) {
	_, err := LoadGlob(registry.NewBuilder(), filepath.Join("testdata", "*.xml"))
	assert.Error(t, err)
}
