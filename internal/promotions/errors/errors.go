package errors

import "errors"

var (
	ErrNotFound  = errors.New("promotion not found")
	ErrInvalidID = errors.New("invalid promotion ID")
)
