// Package apperr classifies errors so the HTTP surface can map one to a
// response status without string matching on the error message.
package apperr

import "errors"

// Kind is one of the error classes the domain distinguishes.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindDriver          Kind = "driver"
	KindResolution      Kind = "resolution"
	KindCapability      Kind = "capability"
	KindActionRuntime   Kind = "action_runtime"
	KindAssertionFailed Kind = "assertion_failed"
	KindPersistence     Kind = "persistence"
)

// Error wraps an underlying error with a Kind so callers can branch on
// the taxonomy rather than the message text.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind. A nil err still yields a non-nil *Error whose
// message is the kind name, so callers always get a describable error.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind carried by err, or "" if err isn't an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
