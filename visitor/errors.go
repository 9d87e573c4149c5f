package visitor

import (
	"errors"
	"fmt"
)

// MaxIncludeDepth bounds nested includes. Deeper nesting is reported as a cycle.
const MaxIncludeDepth = 32

var (
	ErrMissingParameter  = errors.New("missing parameter")
	ErrUnresolvedInclude = errors.New("unresolved include")
	ErrIncludeDepth      = errors.New("include depth exceeded")
)

// MissingParameterError reports a placeholder whose path did not resolve and that has
// no default.
type MissingParameterError struct {
	Path string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter #{%s}", e.Path)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingParameter }

type UnresolvedIncludeError struct {
	Namespace string
	Ref       string
}

func (e *UnresolvedIncludeError) Error() string {
	if e.Namespace == "" {
		return fmt.Sprintf("unresolved include %q", e.Ref)
	}
	return fmt.Sprintf("unresolved include %q in namespace %q", e.Ref, e.Namespace)
}

func (e *UnresolvedIncludeError) Is(target error) bool { return target == ErrUnresolvedInclude }

type IncludeDepthError struct {
	Ref   string
	Depth int
}

func (e *IncludeDepthError) Error() string {
	return fmt.Sprintf("include %q nested deeper than %d (cycle?)", e.Ref, e.Depth)
}

func (e *IncludeDepthError) Is(target error) bool { return target == ErrIncludeDepth }
