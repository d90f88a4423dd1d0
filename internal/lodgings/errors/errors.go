package errors

import "errors"

var (
	ErrNotFound  = errors.New("lodging not found")
	ErrInvalidID = errors.New("invalid lodging ID")
)
