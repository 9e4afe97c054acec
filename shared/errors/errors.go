package errors

import (
	"errors"
	"net/http"
)

// Error kinds. Every error returned by the core wraps exactly one of them,
// so callers can branch with errors.Is regardless of the message.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrValidationFailed    = errors.New("validation failed")
	ErrDoublePost          = errors.New("double post")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrThreadClosed        = errors.New("thread closed")
	ErrQueryTooShort       = errors.New("query too short")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Kind       error
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Kind
}

var statusByKind = map[error]int{
	ErrNotFound:            http.StatusNotFound,
	ErrConstraintViolation: http.StatusConflict,
	ErrValidationFailed:    http.StatusBadRequest,
	ErrDoublePost:          http.StatusConflict,
	ErrPermissionDenied:    http.StatusForbidden,
	ErrThreadClosed:        http.StatusConflict,
	ErrQueryTooShort:       http.StatusBadRequest,
	ErrStorageUnavailable:  http.StatusServiceUnavailable,
}

// New builds an error of the given kind with a human readable message.
func New(kind error, message string) *ErrorWithStatusCode {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &ErrorWithStatusCode{Message: message, StatusCode: status, Kind: kind}
}

func NotFound(message string) error            { return New(ErrNotFound, message) }
func ConstraintViolation(message string) error { return New(ErrConstraintViolation, message) }
func ValidationFailed(message string) error    { return New(ErrValidationFailed, message) }
func PermissionDenied(message string) error    { return New(ErrPermissionDenied, message) }

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
