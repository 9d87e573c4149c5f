// Package expr compiles and evaluates the small expression language used by conditional
// template nodes.
//
//	name != null and name != ''
//	len(ids) > 0 && status == 'ACTIVE'
//	not (age < 18) or role == "admin"
//
// Expressions are evaluated against a value.Resolver. Undefined paths evaluate to null.
package expr

import (
	"math"
	"strings"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

// Program is a compiled expression. It is immutable and safe for concurrent use.
type Program struct {
	src  string
	root node
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{src: src, root: root}, nil
}

func (p *Program) Source() string { return p.src }

// Eval evaluates the program as a value expression.
func (p *Program) Eval(env value.Resolver) (value.Value, error) {
	e := evaluator{src: p.src, env: env}
	return e.eval(p.root)
}

// EvalBool evaluates the program and reports its truthiness.
func (p *Program) EvalBool(env value.Resolver) (bool, error) {
	v, err := p.Eval(env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// Evaluate compiles and evaluates src as a value expression.
func Evaluate(src string, env value.Resolver) (value.Value, error) {
	p, err := Compile(src)
	if err != nil {
		return value.Value{}, err
	}
	return p.Eval(env)
}

// EvaluateBoolean compiles and evaluates src as a test.
func EvaluateBoolean(src string, env value.Resolver) (bool, error) {
	p, err := Compile(src)
	if err != nil {
		return false, err
	}
	return p.EvalBool(env)
}

type builtin struct {
	arity int
	fn    func(e *evaluator, at int, args []value.Value) (value.Value, error)
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"len": {arity: 1, fn: builtinLen},
	}
}

func builtinLen(e *evaluator, at int, args []value.Value) (value.Value, error) {
	switch v := args[0]; v.Kind() {
	case value.KindNull:
		return value.Int(0), nil
	case value.KindString, value.KindArray, value.KindObject:
		return value.Int(int64(v.Len())), nil
	default:
		return value.Value{}, typeErrorf(e.src, at, "len of %s", v.Kind())
	}
}

type evaluator struct {
	src string
	env value.Resolver
}

func (e *evaluator) eval(n node) (value.Value, error) {
	switch n := n.(type) {
	case *literalNode:
		return n.val, nil
	case *pathNode:
		if e.env == nil {
			return value.Null(), nil
		}
		v, ok := e.env.Resolve(n.path)
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	case *unaryNode:
		return e.unary(n)
	case *binaryNode:
		return e.binary(n)
	case *callNode:
		args := make([]value.Value, len(n.args))
		for i, a := range n.args {
			v, err := e.eval(a)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return builtins[n.name].fn(e, n.at, args)
	}
	return value.Value{}, typeErrorf(e.src, n.pos(), "unsupported expression")
}

func (e *evaluator) unary(n *unaryNode) (value.Value, error) {
	v, err := e.eval(n.operand)
	if err != nil {
		return value.Value{}, err
	}
	if n.op == tokNot {
		return value.Bool(!v.Truthy()), nil
	}
	num, ok := numeric(v)
	if !ok {
		return value.Value{}, typeErrorf(e.src, n.at, "cannot negate %s", v.Kind())
	}
	if num.IsInteger() {
		i, _ := num.Int()
		if i != math.MinInt64 {
			return value.Int(-i), nil
		}
	}
	f, _ := num.Float()
	return value.Float(-f), nil
}

func (e *evaluator) binary(n *binaryNode) (value.Value, error) {
	left, err := e.eval(n.left)
	if err != nil {
		return value.Value{}, err
	}
	switch n.op {
	case tokAnd:
		if !left.Truthy() {
			return value.Bool(false), nil
		}
		right, err := e.eval(n.right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.Truthy()), nil
	case tokOr:
		if left.Truthy() {
			return value.Bool(true), nil
		}
		right, err := e.eval(n.right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.Truthy()), nil
	}

	right, err := e.eval(n.right)
	if err != nil {
		return value.Value{}, err
	}
	if isComparison(n.op) {
		return e.compare(n, left, right)
	}
	return e.arithmetic(n, left, right)
}

func composite(v value.Value) bool {
	return v.Kind() == value.KindArray || v.Kind() == value.KindObject
}

// numeric returns v as a Number when it is one or is text that parses as one.
func numeric(v value.Value) (value.Value, bool) {
	switch v.Kind() {
	case value.KindNumber:
		return v, true
	case value.KindString:
		s, _ := v.Str()
		f, ok := value.NumericText(s)
		if !ok {
			return value.Value{}, false
		}
		if parsed, err := parseNumber(strings.TrimSpace(s)); err == nil {
			return parsed, true
		}
		return value.Float(f), true
	}
	return value.Value{}, false
}

func (e *evaluator) compare(n *binaryNode, left, right value.Value) (value.Value, error) {
	eq := n.op == tokEq || n.op == tokNe

	if composite(left) || composite(right) {
		if eq && (left.IsNull() || right.IsNull()) {
			same := left.IsNull() && right.IsNull()
			return value.Bool(same == (n.op == tokEq)), nil
		}
		return value.Value{}, typeErrorf(e.src, n.at, "cannot compare %s with %s", left.Kind(), right.Kind())
	}

	if left.IsNull() || right.IsNull() {
		if !eq {
			return value.Bool(false), nil
		}
		same := left.IsNull() && right.IsNull()
		return value.Bool(same == (n.op == tokEq)), nil
	}

	var c int
	ln, lok := numeric(left)
	rn, rok := numeric(right)
	if lok && rok {
		c = compareNumbers(ln, rn)
	} else {
		c = strings.Compare(left.Text(), right.Text())
	}

	var out bool
	switch n.op {
	case tokEq:
		out = c == 0
	case tokNe:
		out = c != 0
	case tokLt:
		out = c < 0
	case tokLe:
		out = c <= 0
	case tokGt:
		out = c > 0
	case tokGe:
		out = c >= 0
	}
	return value.Bool(out), nil
}

func compareNumbers(a, b value.Value) int {
	if a.IsInteger() && b.IsInteger() {
		x, _ := a.Int()
		y, _ := b.Int()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	x, _ := a.Float()
	y, _ := b.Float()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (e *evaluator) arithmetic(n *binaryNode, left, right value.Value) (value.Value, error) {
	if composite(left) || composite(right) {
		return value.Value{}, typeErrorf(e.src, n.at, "arithmetic on %s and %s", left.Kind(), right.Kind())
	}
	if n.op == tokPlus && (left.Kind() == value.KindString || right.Kind() == value.KindString) {
		if left.IsNull() || right.IsNull() {
			return value.Value{}, typeErrorf(e.src, n.at, "cannot concatenate null")
		}
		return value.String(left.Text() + right.Text()), nil
	}

	a, aok := numeric(left)
	b, bok := numeric(right)
	if !aok || !bok {
		return value.Value{}, typeErrorf(e.src, n.at, "arithmetic on %s and %s", left.Kind(), right.Kind())
	}

	if a.IsInteger() && b.IsInteger() {
		x, _ := a.Int()
		y, _ := b.Int()
		switch n.op {
		case tokPlus:
			return value.Int(x + y), nil
		case tokMinus:
			return value.Int(x - y), nil
		case tokStar:
			return value.Int(x * y), nil
		case tokSlash:
			if y == 0 {
				return value.Value{}, typeErrorf(e.src, n.at, "division by zero")
			}
			if x%y == 0 {
				return value.Int(x / y), nil
			}
			return value.Float(float64(x) / float64(y)), nil
		case tokPercent:
			if y == 0 {
				return value.Value{}, typeErrorf(e.src, n.at, "division by zero")
			}
			return value.Int(x % y), nil
		}
	}

	x, _ := a.Float()
	y, _ := b.Float()
	switch n.op {
	case tokPlus:
		return value.Float(x + y), nil
	case tokMinus:
		return value.Float(x - y), nil
	case tokStar:
		return value.Float(x * y), nil
	case tokSlash:
		if y == 0 {
			return value.Value{}, typeErrorf(e.src, n.at, "division by zero")
		}
		return value.Float(x / y), nil
	case tokPercent:
		if y == 0 {
			return value.Value{}, typeErrorf(e.src, n.at, "division by zero")
		}
		return value.Float(math.Mod(x, y)), nil
	}
	return value.Value{}, typeErrorf(e.src, n.at, "unsupported operator %s", n.op)
}
