package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	CodeNotFound                 = "NOT_FOUND"
	CodeValidation               = "VALIDATION_ERROR"
	CodeConflict                 = "CONFLICT"
	CodeInvalidTransition        = "INVALID_TRANSITION"
	CodeInvalidPromoCode         = "INVALID_PROMO_CODE"
	CodeAmountMismatch           = "AMOUNT_MISMATCH"
	CodeInvalidPaymentTransition = "INVALID_PAYMENT_TRANSITION"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInternal                 = "INTERNAL_ERROR"
)

// AppError is the error shape every engine operation reports. Code is a
// stable machine-readable kind; Message is the human-readable reason.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// BookingConflict reports a date-range overlap with existing reservations.
func BookingConflict(message string, conflictingIDs []string) *AppError {
	e := &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
	if len(conflictingIDs) > 0 {
		e.Details = map[string]any{
			"conflicting_reservations": strings.Join(conflictingIDs, ","),
		}
	}
	return e
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("illegal reservation transition from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func InvalidPromoCode(code string) *AppError {
	return &AppError{
		Code:       CodeInvalidPromoCode,
		Message:    fmt.Sprintf("promotion code %q is not valid for this lodging and date", code),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func AmountMismatch(expected, got int64) *AppError {
	return &AppError{
		Code:       CodeAmountMismatch,
		Message:    "payment amount does not match reservation total",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"expected_cents": expected,
			"got_cents":      got,
		},
	}
}

func InvalidPaymentTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidPaymentTransition,
		Message:    fmt.Sprintf("illegal payment transition from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
