package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error with HTTP awareness. Field is populated for
// INVALID_FIELD errors so callers can tell which input was rejected.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so predefined instances work with errors.Is even
// after Clone or InvalidField rebuilt them with a different message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && t != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Failure taxonomy of the enrollment engine.
var (
	ErrNotFound              = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrDuplicateKey          = New("DUPLICATE_KEY", http.StatusConflict, "business key already in use")
	ErrDuplicateRegistration = New("DUPLICATE_REGISTRATION", http.StatusConflict, "student already has an active registration for this course")
	ErrReferentialConflict   = New("REFERENTIAL_CONFLICT", http.StatusConflict, "entity is still referenced by registrations")
	ErrInvalidTransition     = New("INVALID_TRANSITION", http.StatusConflict, "illegal registration status transition")
	ErrInvalidField          = New("INVALID_FIELD", http.StatusBadRequest, "field value violates a constraint")
	ErrTimeout               = New("TIMEOUT", http.StatusGatewayTimeout, "operation did not complete within the allowed time")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// InvalidField builds an INVALID_FIELD error carrying the offending field
// name and the reason it was rejected.
func InvalidField(field, reason string) *Error {
	return &Error{
		Code:    ErrInvalidField.Code,
		Status:  ErrInvalidField.Status,
		Message: fmt.Sprintf("%s: %s", field, reason),
		Field:   field,
	}
}

// FromError normalises any error into an *Error. Context deadline expiry maps
// to the TIMEOUT condition so callers see a specific, inspectable reason.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Status, ErrTimeout.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
