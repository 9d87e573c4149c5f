package expr

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	Syntax ErrorKind = iota
	TypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "unknown"
	}
}

var (
	// ErrSyntax matches every *Error of kind Syntax.
	ErrSyntax = errors.New("expr: syntax error")
	// ErrTypeMismatch matches every *Error of kind TypeMismatch.
	ErrTypeMismatch = errors.New("expr: type mismatch")
)

// Error reports a failure to parse or evaluate an expression. Pos is the byte offset of
// the offending token in Expr.
type Error struct {
	Kind ErrorKind
	Expr string
	Pos  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("expr %s at %d in %q: %s", e.Kind, e.Pos, e.Expr, e.Msg)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == Syntax
	case ErrTypeMismatch:
		return e.Kind == TypeMismatch
	}
	return false
}

func syntaxErrorf(src string, pos int, format string, args ...any) *Error {
	return &Error{Kind: Syntax, Expr: src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(src string, pos int, format string, args ...any) *Error {
	return &Error{Kind: TypeMismatch, Expr: src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
