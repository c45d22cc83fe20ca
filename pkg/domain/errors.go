package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an identifier is absent from its arena.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// MalformedLineError reports a line that does not have the
// `level [@xref@] tag [payload]` shape, or a pointer missing its delimiters.
// It aborts the whole load.
type MalformedLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// UnsupportedQueryError rejects a query before any traversal starts.
type UnsupportedQueryError struct {
	Query  string
	Reason string
}

func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("unsupported %s query: %s", e.Query, e.Reason)
}

// CycleError is returned when a traversal reaches a person already on its
// current path. Well-formed files never produce it.
type CycleError struct {
	ID PersonID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected at person %s", e.ID)
}

// ErrDepthExceeded is returned when a traversal goes deeper than its bound.
var ErrDepthExceeded = errors.New("traversal depth limit exceeded")

// IsNotFound reports whether err wraps an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// IsMalformedLine reports whether err wraps a MalformedLineError.
func IsMalformedLine(err error) bool {
	var ml *MalformedLineError
	return errors.As(err, &ml)
}

// IsUnsupportedQuery reports whether err wraps an UnsupportedQueryError.
func IsUnsupportedQuery(err error) bool {
	var uq *UnsupportedQueryError
	return errors.As(err, &uq)
}
