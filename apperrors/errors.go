package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a classified error carrying an optional remediation hint that is
// shown to the user verbatim.
type Error struct {
	Kind        Kind
	Message     string
	Remediation string

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(e.Message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports kind equality so callers can write errors.Is(err, apperrors.New(apperrors.Setup, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithCause sets the wrapped root cause.
func (e *Error) WithCause(cause error) *Error {
	if e == nil {
		return nil
	}
	e.cause = cause
	return e
}

// WithRemediation sets the action the user should take to resolve the error.
func (e *Error) WithRemediation(remediation string) *Error {
	if e == nil {
		return nil
	}
	e.Remediation = remediation
	return e
}

// New constructs a new classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs a formatted classified error.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap constructs a classified error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return New(kind, message).WithCause(cause)
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// RemediationOf returns the remediation hint attached to err, if any.
func RemediationOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Remediation
	}
	return ""
}
