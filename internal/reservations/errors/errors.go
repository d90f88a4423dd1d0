package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrStatusGuard means a conditional status update matched the id but
	// not the expected source status.
	ErrStatusGuard = errors.New("reservation status guard failed")

	ErrLockHeld = errors.New("lodging booking lock is held")
)
