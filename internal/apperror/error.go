// Package apperror carries the machine-readable kind of a failure across
// service boundaries so transports can map it without string matching.
package apperror

import (
	"errors"
	"fmt"
)

// Kind sentinels. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation_error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
	ErrUpstream     = errors.New("upstream_error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a tagged failure with a human message safe to return to callers.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(op, message string) error {
	return &Error{Kind: ErrValidation, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Kind: ErrConflict, Op: op, Message: message}
}

func NotFound(op, message string) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: message}
}

// Upstream wraps a storage or collaborator failure.
func Upstream(op, message string, err error) error {
	return &Error{Kind: ErrUpstream, Op: op, Message: message, Err: err}
}

func Unauthorized(op, message string) error {
	return &Error{Kind: ErrUnauthorized, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Kind: ErrForbidden, Op: op, Message: message}
}

// Message returns the caller-facing message of err, or "" when err is not
// an *Error.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Message
	}
	return ""
}

// KindOf reports the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrUnauthorized, ErrForbidden, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
