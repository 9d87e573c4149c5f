package engine

import (
	"errors"
	"fmt"
)

var (
	ErrStatementNotFound = errors.New("engine: statement not found")
	ErrUnknownDatabase   = errors.New("engine: unknown database")
)

// DriverError wraps a failure reported by the database driver together with the
// statement that was sent.
type DriverError struct {
	SQL string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver: %v", e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

var errNoDatabase = errors.New("engine has no database")
