package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error that crosses a repository or auth boundary is
// classified as exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrStoreFault   = errors.New("store fault")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error represents a classified error
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error kind so that errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Validation creates a validation error for a single field
func Validation(field, reason string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: reason}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// StoreFault wraps a backend error
func StoreFault(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrStoreFault, Message: message, Err: err}
}

// Unauthorized wraps a credential failure
func Unauthorized(err error, message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message, Err: err}
}

// Forbidden creates an error for an identity lacking privileges
func Forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Classified reports whether err already carries one of the kinds above
func Classified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// FieldOf returns the offending field of a validation error
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// GetMessage returns the error message without the wrapped cause
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStoreFault returns true if the error is a store fault
func IsStoreFault(err error) bool {
	return errors.Is(err, ErrStoreFault)
}

// IsUnauthorized returns true if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden returns true if the error is a forbidden error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
