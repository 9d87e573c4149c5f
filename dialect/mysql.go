package dialect

import (
	"fmt"
	"strings"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string {
	return "?"
}

// LimitClause uses the LIMIT offset, count form, so the offset is bound first.
func (MySQL) LimitClause(_ int, limit, offset int64) (string, []any) {
	return "LIMIT ?, ?", []any{offset, limit}
}

func (MySQL) RenderValue(v any) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("X'%x'", b)
	}
	if s, ok := renderLiteral(v); ok {
		return s
	}
	return quoteString(fmt.Sprint(v))
}
