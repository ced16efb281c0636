package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. Callers branch on the kind, never on the message.
type Kind string

const (
	KindValidation             Kind = "VALIDATION_ERROR"
	KindMissingReason          Kind = "MISSING_REASON"
	KindInvalidTransition      Kind = "INVALID_TRANSITION"
	KindNotFound               Kind = "NOT_FOUND"
	KindAlreadyConverted       Kind = "ALREADY_CONVERTED"
	KindAlreadyPaid            Kind = "ALREADY_PAID"
	KindConcurrentModification Kind = "CONCURRENT_MODIFICATION"
	KindAuditWriteFailure      Kind = "AUDIT_WRITE_FAILURE"
)

// parents lists the broader kind a refined kind also satisfies under errors.Is.
var parents = map[Kind]Kind{
	KindMissingReason:    KindValidation,
	KindAlreadyConverted: KindInvalidTransition,
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, or of the parent kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return parents[e.Kind] == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrMissingReason          = &Error{Kind: KindMissingReason}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrAlreadyConverted       = &Error{Kind: KindAlreadyConverted}
	ErrAlreadyPaid            = &Error{Kind: KindAlreadyPaid}
	ErrConcurrentModification = &Error{Kind: KindConcurrentModification}
	ErrAuditWriteFailure      = &Error{Kind: KindAuditWriteFailure}
)

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

func InvalidTransitionf(format string, args ...any) *Error {
	return Newf(KindInvalidTransition, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
