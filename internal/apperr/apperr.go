// Package apperr classifies handler failures so callers can tell a bad request
// from a broken dependency.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is an error class
type Kind string

// Error kinds
const (
	Validation Kind = "VALIDATION"
	NotFound   Kind = "NOT_FOUND"
	Forbidden  Kind = "FORBIDDEN"
	Conflict   Kind = "CONFLICT"
	Internal   Kind = "INTERNAL"
)

// Error is a classified error
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an error of kind k
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind k
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Invalid is a validation error
func Invalid(format string, args ...interface{}) *Error {
	return New(Validation, format, args...)
}

// Missing is a not found error
func Missing(format string, args ...interface{}) *Error {
	return New(NotFound, format, args...)
}

// Denied is a forbidden error
func Denied(format string, args ...interface{}) *Error {
	return New(Forbidden, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain,
// Internal when there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries kind k
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
