package schema

import (
	"strings"
	"unicode"
)

// ColumnNamingStrategy converts a Go field name to the column name it is expected to
// arrive under.
type ColumnNamingStrategy interface {
	ColumnName(fieldName string) string
}

type ColumnNamingType int

const (
	ColumnSnakeCase  ColumnNamingType = iota // user_id, first_name, created_at
	ColumnCamelCase                          // userId, firstName, createdAt
	ColumnPascalCase                         // UserId, FirstName, CreatedAt
)

// namingFunc adapts a plain function to ColumnNamingStrategy.
type namingFunc func(string) string

func (f namingFunc) ColumnName(fieldName string) string { return f(fieldName) }

func NewColumnNamingStrategy(namingType ColumnNamingType) ColumnNamingStrategy {
	switch namingType {
	case ColumnCamelCase:
		return namingFunc(toCamelCase)
	case ColumnPascalCase:
		return namingFunc(toPascalCase)
	default:
		return namingFunc(toSnakeCase)
	}
}

// ParseColumnNaming maps "snake", "camel" and "pascal" to a strategy.
func ParseColumnNaming(name string) (ColumnNamingStrategy, bool) {
	switch strings.ToLower(name) {
	case "", "snake", "snake_case":
		return NewColumnNamingStrategy(ColumnSnakeCase), true
	case "camel", "camelcase":
		return NewColumnNamingStrategy(ColumnCamelCase), true
	case "pascal", "pascalcase":
		return NewColumnNamingStrategy(ColumnPascalCase), true
	}
	return nil, false
}

// words splits an identifier at separators and case changes, keeping runs of
// capitals together: HTTPServer -> [HTTP Server], Oauth2Token -> [Oauth2 Token].
func words(name string) []string {
	var (
		out   []string
		start = -1
	)
	runes := []rune(name)
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start >= 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush(i)
			}
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(runes))
	return out
}

func toSnakeCase(name string) string {
	parts := words(name)
	for i, w := range parts {
		parts[i] = strings.ToLower(w)
	}
	return strings.Join(parts, "_")
}

func toPascalCase(name string) string {
	var b strings.Builder
	for _, w := range words(name) {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func toCamelCase(name string) string {
	r := []rune(toPascalCase(name))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
