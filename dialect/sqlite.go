package dialect

import (
	"fmt"
	"strings"
)

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) LimitClause(_ int, limit, offset int64) (string, []any) {
	return "LIMIT ? OFFSET ?", []any{limit, offset}
}

func (SQLite) RenderValue(v any) string {
	switch val := v.(type) {
	case []byte:
		return fmt.Sprintf("X'%x'", val)
	case bool:
		// SQLite has no boolean storage class
		if val {
			return "1"
		}
		return "0"
	}
	if s, ok := renderLiteral(v); ok {
		return s
	}
	return quoteString(fmt.Sprint(v))
}
