package visitor

import (
	"regexp"
	"strings"

	"github.com/Konsultn-Engineering/sqlmap/ast"
)

var (
	distinctPrefix = regexp.MustCompile(`(?i)^\s*DISTINCT\b`)
	aggregateCall  = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT|STRING_AGG|ARRAY_AGG|JSON_AGG|JSON_ARRAYAGG|BOOL_AND|BOOL_OR)\s*\(`)
	groupingClause = regexp.MustCompile(`(?i)\b(GROUP\s+BY|HAVING|UNION|INTERSECT|EXCEPT)\b`)
)

// countsInPlace reports whether root can be counted by replacing the projection of its
// single outermost Select with COUNT(1). Statements whose projection or body reduces the
// row set (DISTINCT, aggregates, grouping, set operations) are wrapped instead.
func (v *SQLVisitor) countsInPlace(root ast.Node) bool {
	var (
		selects []*ast.Select
		outside strings.Builder
	)
	v.walkText(v.namespace, root, v.includes, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Select:
			selects = append(selects, n)
			return false
		case *ast.Static:
			outside.WriteString(n.Text)
			outside.WriteByte(' ')
		}
		return true
	})
	if len(selects) != 1 || groupingClause.MatchString(outside.String()) {
		return false
	}

	s := selects[0]
	proj := v.staticText(s.Projection)
	if distinctPrefix.MatchString(proj) || aggregateCall.MatchString(proj) {
		return false
	}
	return !groupingClause.MatchString(v.staticText(s.Children))
}

// staticText joins the literal text under nodes, every branch included. Nested Selects
// are subqueries and are skipped.
func (v *SQLVisitor) staticText(nodes []ast.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		v.walkText(v.namespace, n, v.includes, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Select:
				return false
			case *ast.Static:
				b.WriteString(n.Text)
				b.WriteByte(' ')
			}
			return true
		})
	}
	return b.String()
}

// walkText is ast.Walk that also descends into resolvable includes.
func (v *SQLVisitor) walkText(namespace string, n ast.Node, depth int, fn func(ast.Node) bool) {
	ast.Walk(n, func(n ast.Node) bool {
		inc, ok := n.(*ast.Include)
		if !ok {
			return fn(n)
		}
		if v.e.fragments == nil || depth >= MaxIncludeDepth {
			return false
		}
		if ns, frag, ok := v.e.fragments.ResolveFragment(namespace, inc.RefID); ok {
			v.walkText(ns, frag, depth+1, fn)
		}
		return false
	})
}
