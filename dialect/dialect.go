// Package dialect describes how rendered statements differ between databases:
// placeholder markers, limit clauses and literal rendering.
package dialect

import (
	"fmt"
	"sort"
	"strings"
)

type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	// Placeholder returns the marker for the n-th positional parameter, counting from 1.
	Placeholder(n int) string
	// LimitClause renders a bound limit/offset clause whose first marker is parameter
	// number first. The returned args follow the marker order.
	LimitClause(first int, limit, offset int64) (string, []any)
	// RenderValue renders v as an SQL literal. It is used for debugging output only;
	// statements sent to a driver always bind parameters.
	RenderValue(v any) string
}

var dialects = map[string]func() Dialect{
	"postgres":   NewPostgresDialect,
	"postgresql": NewPostgresDialect,
	"pgx":        NewPostgresDialect,
	"mysql":      NewMySQLDialect,
	"tidb":       NewTiDBDialect,
	"sqlite":     NewSQLiteDialect,
	"sqlite3":    NewSQLiteDialect,
}

// Lookup returns the dialect registered under name (case-insensitive).
func Lookup(name string) (Dialect, error) {
	ctor, ok := dialects[strings.ToLower(name)]
	if !ok {
		known := make([]string, 0, len(dialects))
		for k := range dialects {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("dialect: unknown dialect %q (known: %s)", name, strings.Join(known, ", "))
	}
	return ctor(), nil
}
