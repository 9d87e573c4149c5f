// Package page holds the request and result types of paginated selects.
package page

import (
	"errors"
	"fmt"
)

var ErrInvalidRequest = errors.New("page: invalid request")

// Request asks for page Current (1-based) of Size records. Size 0 asks for the total only.
type Request struct {
	Current int64 `json:"current"`
	Size    int64 `json:"size"`
}

func New(current, size int64) Request {
	return Request{Current: current, Size: size}
}

func (r Request) Validate() error {
	if r.Current < 1 {
		return fmt.Errorf("%w: current page %d is below 1", ErrInvalidRequest, r.Current)
	}
	if r.Size < 0 {
		return fmt.Errorf("%w: negative page size %d", ErrInvalidRequest, r.Size)
	}
	return nil
}

// Offset is the number of records skipped before this page.
func (r Request) Offset() int64 {
	if r.Current < 1 {
		return 0
	}
	return (r.Current - 1) * r.Size
}

// Result is one page of records plus the unpaged total.
type Result[T any] struct {
	Total   int64 `json:"total"`
	Size    int64 `json:"size"`
	Current int64 `json:"current"`
	Records []T   `json:"records"`
}

// NewResult returns an empty page for req with Records initialised to a non-nil slice.
func NewResult[T any](req Request, total int64) *Result[T] {
	return &Result[T]{Total: total, Size: req.Size, Current: req.Current, Records: []T{}}
}

// Pages is the number of pages needed to hold Total records.
func (r *Result[T]) Pages() int64 {
	if r.Size <= 0 {
		return 0
	}
	return (r.Total + r.Size - 1) / r.Size
}

func (r *Result[T]) HasNext() bool {
	return r.Current < r.Pages()
}

type Stage string

const (
	StageCount Stage = "count"
	StageData  Stage = "data"
)

// Error reports which query of a paginated select failed.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("page %s query: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
