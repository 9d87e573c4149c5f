package schema

import (
	"errors"
	"fmt"
)

type DecodeErrorKind int

const (
	TypeMismatch DecodeErrorKind = iota
	ShapeMismatch
)

func (k DecodeErrorKind) String() string {
	if k == ShapeMismatch {
		return "shape mismatch"
	}
	return "type mismatch"
}

var (
	ErrTypeMismatch  = errors.New("decode: type mismatch")
	ErrShapeMismatch = errors.New("decode: shape mismatch")
)

// DecodeError reports a row that could not be decoded into the target. Column is empty
// for shape errors that concern the row as a whole.
type DecodeError struct {
	Kind   DecodeErrorKind
	Column string
	Type   string
	Cause  error
}

func (e *DecodeError) Error() string {
	msg := "decode " + e.Kind.String()
	if e.Column != "" {
		msg += fmt.Sprintf(" in column %q", e.Column)
	}
	if e.Type != "" {
		msg += " for " + e.Type
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrTypeMismatch:
		return e.Kind == TypeMismatch
	case ErrShapeMismatch:
		return e.Kind == ShapeMismatch
	}
	return false
}
