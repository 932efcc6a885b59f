package scoring

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies engine failures so the transport layer can map them.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindUnknownCriterion    Kind = "unknown_criterion"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindSchemaViolation     Kind = "schema_violation"
	KindCancelled           Kind = "cancelled"
)

// Error is the structured failure returned by the engine and its evaluators.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrUnknownCriterion    = &Error{Kind: KindUnknownCriterion}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrSchemaViolation     = &Error{Kind: KindSchemaViolation}
	ErrCancelled           = &Error{Kind: KindCancelled}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any error of the same kind, so errors.Is(err, ErrSchemaViolation)
// holds for every schema violation regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind carried by err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Cancelled wraps a context error as a cancellation outcome.
func Cancelled(err error) *Error {
	if err == nil {
		err = context.Canceled
	}
	return NewError(KindCancelled, "request cancelled", err)
}

// checkContext returns a cancellation error when ctx is already done.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Cancelled(err)
	}
	return nil
}
