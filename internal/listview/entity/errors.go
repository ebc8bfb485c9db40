package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when a key is no longer part of the data
	// source. It is resolved inside the control and never returned from the
	// public API.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDisposed is returned by every operation on a disposed control.
	ErrDisposed = errors.New("list view disposed")

	// ErrInvalidEdit marks a change notification that does not fit the
	// current item count.
	ErrInvalidEdit = errors.New("invalid edit")
)

// InvalidIndexError is returned when an index-addressed operation receives an
// index outside of [0, Count).
type InvalidIndexError struct {
	Op    string
	Index int
	Count int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("%s: invalid index %d (count %d)", e.Op, e.Index, e.Count)
}

// NewInvalidIndex builds an InvalidIndexError.
func NewInvalidIndex(op string, index, count int) error {
	return &InvalidIndexError{Op: op, Index: index, Count: count}
}

// IsInvalidIndex checks whether err is, or wraps, an InvalidIndexError.
func IsInvalidIndex(err error) bool {
	var target *InvalidIndexError
	return errors.As(err, &target)
}

// CheckIndex validates index against count.
func CheckIndex(op string, index, count int) error {
	if index < 0 || index >= count {
		return NewInvalidIndex(op, index, count)
	}
	return nil
}
