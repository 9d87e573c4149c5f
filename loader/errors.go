package loader

import "fmt"

// Error locates a problem in a mapper document.
type Error struct {
	File string
	Line int
	Err  error
}

func (e *Error) Error() string {
	file := e.File
	if file == "" {
		file = "<mapper>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", file, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", file, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
