package entities

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrPersistence       = errors.New("persistence failure")

	ErrProductValidationFailed = errors.New("product validation failed")
	// ErrProductNotFound and ErrValidationUnavailable are both product
	// validation failures, only the latter is worth retrying.
	ErrProductNotFound       = fmt.Errorf("%w: product not found", ErrProductValidationFailed)
	ErrValidationUnavailable = fmt.Errorf("%w: product service unavailable", ErrProductValidationFailed)
)

// Error is returned by the order service. Kind is one of the sentinel errors
// above, Code is the suggested response status.
type Error struct {
	Kind    error
	Message string
	Code    int

	cause error
}

func NewError(kind error, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Code:    codeOf(kind),
		cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// StatusCode maps any error to a response status.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codeOf(err)
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func codeOf(err error) int {
	switch {
	case errors.Is(err, ErrValidationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrProductValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPagination), errors.Is(err, ErrInvalidOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
