// Package apperr defines the error taxonomy shared by the engine and its
// adapters. Every error produced by the engine unwraps to exactly one of the
// sentinel kinds below, so callers branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrValidation marks input that violates a field constraint. Nothing was written.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced post, account, comment or notification that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an attempt to violate a uniqueness invariant through a
	// non-idempotent path (e.g. registering a taken handle).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks a mutation attempted by someone other than the owner.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTimeout marks a store call that did not complete within its bound.
	ErrTimeout = errors.New("store timeout")
	// ErrUnavailable marks any other store failure.
	ErrUnavailable = errors.New("store unavailable")
)

// Error carries the kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation returns an ErrValidation for op.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(op, entity, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf("%s %q not found", entity, id)}
}

// Conflict returns an ErrConflict for op.
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized returns an ErrUnauthorized for op.
func Unauthorized(op, format string, args ...any) error {
	return &Error{Kind: ErrUnauthorized, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind. A nil cause yields nil.
func Wrap(kind error, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf reports which taxonomy kind err belongs to, or nil when it is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized, ErrTimeout, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Retryable reports whether err is a transient store failure. Only read-only
// operations or idempotent mutations should be retried on it.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
