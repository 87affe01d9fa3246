// Package errors defines the error kinds a search can fail with. Every kind is
// terminal for the invocation that raised it.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies a failure mode.
type Kind string

const (
	// Validation indicates missing or malformed caller input.
	Validation Kind = "VALIDATION"
	// Configuration indicates no active source could be resolved.
	Configuration Kind = "CONFIGURATION"
	// Retrieval indicates a transport failure or an unusable response envelope.
	Retrieval Kind = "RETRIEVAL"
	// Formatting indicates the currency formatter rejected an amount.
	Formatting Kind = "FORMATTING"
)

// Error is a search failure with a stable kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Error returns the message. Callers report it verbatim.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Required reports a missing input, e.g. "Latitude is required".
func Required(label string) *Error {
	return New(Validation, fmt.Sprintf("%s is required", label), nil)
}

// Invalid reports a malformed input.
func Invalid(message string) *Error {
	return New(Validation, message, nil)
}

// NoSource reports that the active source has no registered location.
func NoSource(name string) *Error {
	return New(Configuration, "No source selected", fmt.Errorf("source %q is not registered", name))
}

// Retrieve wraps a transport failure. The message is the transport's own.
func Retrieve(cause error) *Error {
	return New(Retrieval, cause.Error(), cause)
}

// NoData reports an unsuccessful or malformed response envelope.
func NoData() *Error {
	return New(Retrieval, "No data found", nil)
}

// Format wraps a currency formatter failure.
func Format(cause error) *Error {
	return New(Formatting, "Formatter error", cause)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
