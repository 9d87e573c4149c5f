package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p Postgres) LimitClause(first int, limit, offset int64) (string, []any) {
	return "LIMIT " + p.Placeholder(first) + " OFFSET " + p.Placeholder(first+1), []any{limit, offset}
}

func (Postgres) RenderValue(v any) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("'\\x%x'::bytea", b)
	}
	if s, ok := renderLiteral(v); ok {
		return s
	}
	return quoteString(fmt.Sprint(v))
}
