package errors

import "errors"

var (
	ErrNotFound         = errors.New("payment not found")
	ErrInvalidID        = errors.New("invalid payment ID")
	ErrDuplicatePayment = errors.New("payment already exists for reservation")
	ErrStatusGuard      = errors.New("payment status guard did not match")
)
