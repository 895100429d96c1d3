package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown table, menu item or bill.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState reports an operation the current state does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict reports a concurrent write that kept colliding after retries.
	ErrConflict = errors.New("concurrent modification")
	// ErrFatal reports a partial commit that needs reconciliation.
	ErrFatal = errors.New("partial commit")
)

// PostingError is returned when a bill was persisted but its revenue posting
// failed. The bill stays the source of truth; a reconciliation pass replays it.
type PostingError struct {
	BillNumber string
	Err        error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("bill %s persisted but revenue posting failed: %v", e.BillNumber, e.Err)
}

// Unwrap exposes both ErrFatal and the underlying cause to errors.Is.
func (e *PostingError) Unwrap() []error {
	return []error{ErrFatal, e.Err}
}
