package pages

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when no page numbers were entered at all.
// It is informational: the user simply has not typed anything yet.
var ErrEmptyInput = errors.New("no page numbers entered")

// ErrInvalid matches every hard validation failure (ValueError, OrderError).
var ErrInvalid = errors.New("invalid page selection")

// ValueError represents a malformed, missing or non-positive page number.
type ValueError struct {
	Field  int
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("field %d: invalid page number %q: %s", e.Field+1, e.Value, e.Reason)
}

func (e *ValueError) Unwrap() error { return ErrInvalid }

// OrderError represents a range whose start page lies after its end page.
type OrderError struct {
	Start int
	End   int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("start page %d is greater than end page %d", e.Start, e.End)
}

func (e *OrderError) Unwrap() error { return ErrInvalid }
