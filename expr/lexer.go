package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokNull
	tokTrue
	tokFalse
	tokAnd
	tokOr
	tokNot
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokDot
	tokComma
)

var tokenNames = map[tokenKind]string{
	tokEOF: "end of expression", tokIdent: "name", tokNumber: "number", tokString: "string",
	tokNull: "null", tokTrue: "true", tokFalse: "false", tokAnd: "and", tokOr: "or",
	tokNot: "not", tokEq: "==", tokNe: "!=", tokLt: "<", tokLe: "<=", tokGt: ">", tokGe: ">=",
	tokPlus: "+", tokMinus: "-", tokStar: "*", tokSlash: "/", tokPercent: "%",
	tokLParen: "(", tokRParen: ")", tokLBracket: "[", tokRBracket: "]", tokDot: ".",
	tokComma: ",",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]tokenKind{
	"null":  tokNull,
	"nil":   tokNull,
	"true":  tokTrue,
	"false": tokFalse,
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
}

// lex splits src into tokens. Keywords are case-insensitive so `AND`/`OR` from
// SQL-minded authors work.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		start := i
		switch {
		case isIdentStart(c) || c >= utf8.RuneSelf:
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
					break
				}
				i += size
			}
			word := src[start:i]
			if word == "" {
				return nil, syntaxErrorf(src, start, "unexpected character %q", src[start])
			}
			if k, ok := keywords[strings.ToLower(word)]; ok {
				toks = append(toks, token{kind: k, text: word, pos: start})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word, pos: start})
			}
			continue
		case c >= '0' && c <= '9':
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if i+1 < len(src) && src[i] == '.' && src[i+1] >= '0' && src[i+1] <= '9' {
				i++
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					i++
				}
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && src[j] >= '0' && src[j] <= '9' {
					i = j
					for i < len(src) && src[i] >= '0' && src[i] <= '9' {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
			continue
		case c == '\'' || c == '"':
			s, n, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: start})
			i += n
			continue
		}

		two := ""
		if i+1 < len(src) {
			two = src[i : i+2]
		}
		switch two {
		case "==":
			toks = append(toks, token{kind: tokEq, text: two, pos: start})
			i += 2
			continue
		case "!=", "<>":
			toks = append(toks, token{kind: tokNe, text: two, pos: start})
			i += 2
			continue
		case "<=":
			toks = append(toks, token{kind: tokLe, text: two, pos: start})
			i += 2
			continue
		case ">=":
			toks = append(toks, token{kind: tokGe, text: two, pos: start})
			i += 2
			continue
		case "&&":
			toks = append(toks, token{kind: tokAnd, text: two, pos: start})
			i += 2
			continue
		case "||":
			toks = append(toks, token{kind: tokOr, text: two, pos: start})
			i += 2
			continue
		}

		var k tokenKind
		switch c {
		case '=':
			// a lone '=' is accepted as equality, as in SQL
			k = tokEq
		case '<':
			k = tokLt
		case '>':
			k = tokGt
		case '!':
			k = tokNot
		case '+':
			k = tokPlus
		case '-':
			k = tokMinus
		case '*':
			k = tokStar
		case '/':
			k = tokSlash
		case '%':
			k = tokPercent
		case '(':
			k = tokLParen
		case ')':
			k = tokRParen
		case '[':
			k = tokLBracket
		case ']':
			k = tokRBracket
		case '.':
			k = tokDot
		case ',':
			k = tokComma
		default:
			return nil, syntaxErrorf(src, start, "unexpected character %q", c)
		}
		toks = append(toks, token{kind: k, text: string(c), pos: start})
		i++
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// scanString reads a quoted literal starting at src[i], returning the unescaped text and
// the number of bytes consumed. Doubled quotes and backslash escapes are both accepted.
func scanString(src string, i int) (string, int, error) {
	quote := src[i]
	var b strings.Builder
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == '\\' && j+1 < len(src):
			switch n := src[j+1]; n {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(n)
			}
			j += 2
		case c == quote:
			if j+1 < len(src) && src[j+1] == quote {
				b.WriteByte(quote)
				j += 2
				continue
			}
			return b.String(), j - i + 1, nil
		default:
			b.WriteByte(c)
			j++
		}
	}
	return "", 0, syntaxErrorf(src, i, "unterminated string")
}
