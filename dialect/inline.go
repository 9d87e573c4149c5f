package dialect

import (
	"strconv"
	"strings"
)

// Inline substitutes rendered literals for the markers in query, for logs and the
// CLI. Markers inside single-quoted literals are left alone.
func Inline(d Dialect, query string, args []any) string {
	numbered := d.Placeholder(1) != d.Placeholder(2)
	var b strings.Builder
	b.Grow(len(query) + 8*len(args))

	next := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case !numbered && c == '?':
			if next < len(args) {
				b.WriteString(d.RenderValue(args[next]))
				next++
				continue
			}
		case numbered && c == '$':
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if n, err := strconv.Atoi(query[i+1 : j]); err == nil && n >= 1 && n <= len(args) {
				b.WriteString(d.RenderValue(args[n-1]))
				i = j - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
