// Package types holds shared domain types used across services and handlers.
package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so handlers can map it to a status code.
type ErrorKind string

// Error kinds surfaced to API callers.
const (
	// KindNotFound indicates the referenced quote, invitation, or job is unknown
	KindNotFound ErrorKind = "not_found"
	// KindConflict indicates a duplicate active quote or a lost race on a state transition
	KindConflict ErrorKind = "conflict"
	// KindInvalidState indicates a transition attempted from a terminal or mismatched state
	KindInvalidState ErrorKind = "invalid_state"
	// KindBadRequest indicates invalid input, an expired validity window, or a missing location
	KindBadRequest ErrorKind = "bad_request"
	// KindServiceUnavailable indicates a dependency failed or timed out
	KindServiceUnavailable ErrorKind = "service_unavailable"
	// KindForbidden indicates the actor does not own the resource being acted on
	KindForbidden ErrorKind = "forbidden"
	// KindInternal is the fallback for unclassified errors
	KindInternal ErrorKind = "internal"
)

// Error is a domain error with a caller-safe message. Internal details stay
// in the wrapped error and are logged, never returned to API callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a domain error with the given kind and message
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorf creates a domain error with a formatted message
func NewErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a domain error that wraps an underlying cause
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, returning KindInternal for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// MessageOf extracts the caller-safe message from err. Unclassified errors
// yield a generic message so internals never leak.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal server error"
}
