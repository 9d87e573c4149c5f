package visitor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// joinParts trims every part and joins the non-empty ones with one space.
func joinParts(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(parts[0])
	}
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// collapseSpace replaces every whitespace run outside single-quoted literals with one
// space and trims the result. Doubled quotes inside a literal are an escaped quote.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inQuote := false
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			b.WriteByte(c)
			if c == '\'' {
				inQuote = false
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		if c == '\'' {
			inQuote = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// trimPrefixWord removes the first override that prefixes s case-insensitively. An
// override ending in a word character only matches at a word boundary, so "AND" does
// not strip the start of "ANDROID = 1".
func trimPrefixWord(s string, overrides []string) string {
	for _, o := range overrides {
		o = strings.TrimSpace(o)
		if o == "" || len(s) < len(o) || !strings.EqualFold(s[:len(o)], o) {
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(o)
		if isWordRune(last) && len(s) > len(o) {
			next, _ := utf8.DecodeRuneInString(s[len(o):])
			if isWordRune(next) {
				continue
			}
		}
		return strings.TrimSpace(s[len(o):])
	}
	return s
}

func trimSuffixWord(s string, overrides []string) string {
	for _, o := range overrides {
		o = strings.TrimSpace(o)
		if o == "" || len(s) < len(o) || !strings.EqualFold(s[len(s)-len(o):], o) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(o)
		rest := s[:len(s)-len(o)]
		if isWordRune(first) && rest != "" {
			prev, _ := utf8.DecodeLastRuneInString(rest)
			if isWordRune(prev) {
				continue
			}
		}
		return strings.TrimSpace(rest)
	}
	return s
}
