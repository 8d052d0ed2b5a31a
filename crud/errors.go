package crud

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by read operations when no record matches
	// the given identity. Update and Delete do not return it; they report
	// a missing record as a false result instead.
	ErrNotFound = errors.New("strata: item not found")

	// ErrInvalidID is returned when an id string cannot be parsed into
	// the store's native identity type.
	ErrInvalidID = errors.New("strata: invalid identifier")
)

// ValidationError reports a raw record that failed to parse into the
// declared read shape. It is distinct from ErrNotFound: the record exists
// but does not match the shape.
type ValidationError struct {
	Collection string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("strata: invalid record in %q: %v", e.Collection, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
