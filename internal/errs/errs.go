// Package errs provides the structured error type shared by the deck
// pipeline, the upload flow and the HTTP transport.
//
// Every error carries a Kind so the transport can map it to a status code,
// and the image reference that caused it when one is known.
//
//	err := errs.Wrap(errs.FetchFailed, ref, cause, "HTTP %d", code)
//	if errs.Is(err, errs.FetchFailed) {
//	    slog.Error("Fetch failed", "ref", errs.RefOf(err))
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	InvalidRequest      Kind = "InvalidRequest"
	FetchFailed         Kind = "FetchFailed"
	DecodeFailed        Kind = "DecodeFailed"
	EmbedFailed         Kind = "EmbedFailed"
	SerializationFailed Kind = "SerializationFailed"

	// Upload flow
	Unauthorized Kind = "Unauthorized"
	UploadFailed Kind = "UploadFailed"
)

// Error is a categorized error with an optional image reference and cause.
type Error struct {
	Kind    Kind
	Ref     string // image reference, empty when not tied to one card
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Ref != "" {
		msg += fmt.Sprintf(" [%s]", e.Ref)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given kind, reference and formatted message.
func New(kind Kind, ref, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(kind Kind, ref string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the outermost *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// RefOf returns the first non-empty image reference found in err's chain.
func RefOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Ref != "" {
			return e.Ref
		}
		err = e.Cause
	}
	return ""
}

// Message returns the message of the outermost *Error, or err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Message == "" {
			return e.Cause.Error()
		}
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}
