package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/expr"
	"github.com/Konsultn-Engineering/sqlmap/visitor"
)

func stmt(ns, id string, kind Kind, nodes ...ast.Node) Statement {
	return Statement{Namespace: ns, ID: id, Kind: kind, Root: ast.NewFragment(nodes...)}
}

func TestBuildAndLookup(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("user", "cols", KindSQL, ast.NewStatic("id, name"))))
	require.NoError(t, b.Add(stmt("user", "findAll", KindSelect,
		ast.NewStatic("SELECT"), &ast.Include{RefID: "cols"}, ast.NewStatic("FROM users"))))
	require.NoError(t, b.Add(stmt("order", "byUser", KindSelect,
		ast.NewStatic("SELECT"), &ast.Include{RefID: "user.cols"}, ast.NewStatic("FROM orders"))))

	r, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"order", "user"}, r.Namespaces())

	s, ok := r.Lookup("user", "findAll")
	require.True(t, ok)
	assert.Equal(t, KindSelect, s.Kind)
	assert.Equal(t, "user.findAll", s.Key())

	_, ok = r.Lookup("user", "missing")
	assert.False(t, ok)

	frag, ok := r.Fragment("order", "user.cols")
	require.True(t, ok)
	assert.Equal(t, "user", frag.Namespace)

	ids := []string{}
	for _, s := range r.Statements("user") {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"cols", "findAll"}, ids)

	res, err := visitor.New(r).Evaluate("order", mustLookup(t, r, "order", "byUser").Root, nullValue())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM orders", res.SQL)
}

func TestDuplicate(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("user", "find", KindSelect, ast.NewStatic("SELECT 1"))))
	err := b.Add(stmt("user", "find", KindSelect, ast.NewStatic("SELECT 2")))
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, b.Add(stmt("other", "find", KindSelect, ast.NewStatic("SELECT 3"))))
}

func TestAddRejectsIncomplete(t *testing.T) {
	b := NewBuilder()
	assert.Error(t, b.Add(Statement{Namespace: "user", Root: ast.NewStatic("x")}))
	assert.Error(t, b.Add(Statement{Namespace: "user", ID: "x"}))
}

func TestBuildValidation(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("user", "badInclude", KindSelect, &ast.Include{RefID: "nope"})))
	require.NoError(t, b.Add(stmt("user", "badTest", KindSelect, &ast.If{Test: "a =="})))
	require.NoError(t, b.Add(stmt("user", "badWhen", KindSelect, &ast.Choose{Whens: []ast.When{{Test: "(x"}}})))
	require.NoError(t, b.Add(stmt("user", "badBind", KindSelect, &ast.Bind{Name: "x", Expr: "1 +"})))
	require.NoError(t, b.Add(stmt("user", "badForeach", KindSelect, &ast.Foreach{Collection: "a..b"})))

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, visitor.ErrUnresolvedInclude)
	assert.ErrorIs(t, err, expr.ErrSyntax)
	for _, k := range []string{"user.badInclude", "user.badTest", "user.badWhen", "user.badBind", "user.badForeach"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestBuildDetectsCycles(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("m", "a", KindSQL, &ast.Include{RefID: "b"})))
	require.NoError(t, b.Add(stmt("m", "b", KindSQL, &ast.If{Test: "x", Children: []ast.Node{&ast.Include{RefID: "a"}}})))
	require.NoError(t, b.Add(stmt("m", "ok", KindSelect, &ast.Include{RefID: "leaf"}, &ast.Include{RefID: "leaf"})))
	require.NoError(t, b.Add(stmt("m", "leaf", KindSQL, ast.NewStatic("1"))))

	_, err := b.Build()
	require.ErrorIs(t, err, ErrCycle)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"m.a", "m.b", "m.a"}, cycle.Chain)
}

func TestBuildOnce(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("m", "a", KindSelect, ast.NewStatic("SELECT 1"))))
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilt)
	assert.ErrorIs(t, b.Add(stmt("m", "b", KindSelect, ast.NewStatic("x"))), ErrBuilt)
}

func TestConcurrentReads(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(stmt("m", "a", KindSelect, ast.NewStatic("SELECT 1"))))
	r, err := b.Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.Lookup("m", "a")
			assert.True(t, ok)
			assert.Equal(t, []string{"m"}, r.Namespaces())
		}()
	}
	wg.Wait()
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("UPDATE")
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, k)
	assert.Equal(t, "sql", KindSQL.String())

	_, err = ParseKind("merge")
	assert.Error(t, err)
}
