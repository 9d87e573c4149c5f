package expr

import (
	"strconv"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

// node is a compiled expression tree.
type node interface {
	pos() int
}

type (
	literalNode struct {
		at  int
		val value.Value
	}
	pathNode struct {
		at   int
		path value.Path
	}
	unaryNode struct {
		at      int
		op      tokenKind
		operand node
	}
	binaryNode struct {
		at          int
		op          tokenKind
		left, right node
	}
	callNode struct {
		at   int
		name string
		args []node
	}
)

func (n *literalNode) pos() int { return n.at }
func (n *pathNode) pos() int    { return n.at }
func (n *unaryNode) pos() int   { return n.at }
func (n *binaryNode) pos() int  { return n.at }
func (n *callNode) pos() int    { return n.at }

// Precedence, lowest first: or, and, comparison, additive, multiplicative, unary.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precAdditive
	precMultiplicative
)

func infixPrecedence(k tokenKind) int {
	switch k {
	case tokOr:
		return precOr
	case tokAnd:
		return precAnd
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		return precCompare
	case tokPlus, tokMinus:
		return precAdditive
	case tokStar, tokSlash, tokPercent:
		return precMultiplicative
	}
	return precLowest
}

func isComparison(k tokenKind) bool {
	return infixPrecedence(k) == precCompare
}

type parser struct {
	src  string
	toks []token
	i    int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, syntaxErrorf(src, 0, "empty expression")
	}
	n, err := p.expression(precLowest)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErrorf(src, t.pos, "unexpected %s", describe(t))
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, syntaxErrorf(p.src, t.pos, "expected %s, found %s", k, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return strconv.Quote(t.text)
}

func (p *parser) expression(minPrec int) (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		prec := infixPrecedence(op.kind)
		if prec == precLowest || prec <= minPrec {
			return left, nil
		}
		p.next()
		right, err := p.expression(prec)
		if err != nil {
			return nil, err
		}
		if isComparison(op.kind) && isComparison(p.peek().kind) {
			t := p.peek()
			return nil, syntaxErrorf(p.src, t.pos, "comparison operators do not chain; use parentheses")
		}
		left = &binaryNode{at: op.pos, op: op.kind, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokNot, tokMinus:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{at: t.pos, op: t.kind, operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, syntaxErrorf(p.src, t.pos, "invalid number %q", t.text)
		}
		return &literalNode{at: t.pos, val: v}, nil
	case tokString:
		return &literalNode{at: t.pos, val: value.String(t.text)}, nil
	case tokNull:
		return &literalNode{at: t.pos, val: value.Null()}, nil
	case tokTrue:
		return &literalNode{at: t.pos, val: value.Bool(true)}, nil
	case tokFalse:
		return &literalNode{at: t.pos, val: value.Bool(false)}, nil
	case tokLParen:
		n, err := p.expression(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		return p.path(t)
	}
	return nil, syntaxErrorf(p.src, t.pos, "unexpected %s", describe(t))
}

func (p *parser) path(head token) (node, error) {
	path := value.Path{{Key: head.text}}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			t := p.next()
			// keywords are valid member names: `filter.null`, `page.size`
			if t.kind != tokIdent && (t.kind < tokNull || t.kind > tokNot) {
				return nil, syntaxErrorf(p.src, t.pos, "expected name after '.', found %s", describe(t))
			}
			path = append(path, value.Segment{Key: t.text})
		case tokLBracket:
			p.next()
			t := p.next()
			switch t.kind {
			case tokNumber:
				idx, err := strconv.Atoi(t.text)
				if err != nil || idx < 0 {
					return nil, syntaxErrorf(p.src, t.pos, "invalid index %q", t.text)
				}
				path = append(path, value.Segment{Index: idx, IsIndex: true})
			case tokString:
				path = append(path, value.Segment{Key: t.text})
			default:
				return nil, syntaxErrorf(p.src, t.pos, "expected index, found %s", describe(t))
			}
			if _, err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
		default:
			return &pathNode{at: head.pos, path: path}, nil
		}
	}
}

func (p *parser) call(name token) (node, error) {
	if _, ok := builtins[name.text]; !ok {
		return nil, syntaxErrorf(p.src, name.pos, "unknown function %q", name.text)
	}
	p.next() // (
	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.expression(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if want := builtins[name.text].arity; len(args) != want {
		return nil, syntaxErrorf(p.src, name.pos, "%s expects %d argument(s), got %d", name.text, want, len(args))
	}
	return &callNode{at: name.pos, name: name.text, args: args}, nil
}

func parseNumber(text string) (value.Value, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return value.Int(i), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(f), nil
}
