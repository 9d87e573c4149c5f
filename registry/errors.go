package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicate = errors.New("duplicate statement")
	ErrCycle     = errors.New("include cycle")
	ErrBuilt     = errors.New("builder already built")
)

type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("duplicate statement %q", e.Key) }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// CycleError lists the fragments of an include cycle, starting and ending with the same
// key.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "include cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// StatementError attributes a validation failure to a statement.
type StatementError struct {
	Key string
	Err error
}

func (e *StatementError) Error() string { return e.Key + ": " + e.Err.Error() }

func (e *StatementError) Unwrap() error { return e.Err }
