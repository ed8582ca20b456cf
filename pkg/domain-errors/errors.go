// Package domainerrors provides the error type used across service and
// handler layers. Every error carries a Code that transports can map to a
// status without string matching, plus an optional list of violated fields
// for validation failures.
//
// Stores do not return these; they return sentinel errors from
// pkg/platform/sentinel, which services translate at the call site.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	// CodeValidation covers missing or malformed required fields. The error's
	// Fields list names every violation so callers can report them all at once.
	CodeValidation Code = "validation"
	// CodeInvalidInput covers malformed identifiers and other single-value
	// trust boundary failures.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest covers unparseable request bodies.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound indicates a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict indicates a uniqueness or state conflict.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation indicates a domain invariant would be broken.
	// Services usually translate these to CodeValidation or CodeConflict
	// before they reach a transport.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable indicates storage or a dependency is temporarily down;
	// the request may succeed on retry.
	CodeUnavailable Code = "unavailable"
	// CodeInternal covers unexpected failures. Transports must not leak the
	// underlying message.
	CodeInternal Code = "internal"
)

// Error is a code-carrying domain error.
type Error struct {
	code    Code
	message string
	fields  []string
	cause   error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As chains.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// NewValidation creates a CodeValidation error naming every violated field.
func NewValidation(message string, fields ...string) *Error {
	return &Error{code: CodeValidation, message: message, fields: fields}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error's classification code.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human-readable message without the cause chain.
func (e *Error) Message() string {
	return e.message
}

// Fields returns the violated field names for CodeValidation errors.
func (e *Error) Fields() []string {
	return e.fields
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.code
	}
	return CodeInternal
}
