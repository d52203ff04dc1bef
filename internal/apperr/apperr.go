// Package apperr holds the error kinds shared by every service layer.
//
// Domain packages declare their own sentinels on top of a kind, so callers can match either
// the precise condition (errors.Is(err, order.ErrOrderNotFound)) or the broad class
// (errors.Is(err, apperr.ErrNotFound)).
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrInternal     = errors.New("internal error")
)

// Error is a message tagged with one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func InvalidInput(format string, args ...any) error {
	return New(ErrInvalidInput, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) error {
	return New(ErrInvalidState, fmt.Sprintf(format, args...))
}

func Internal(format string, args ...any) error {
	return New(ErrInternal, fmt.Sprintf(format, args...))
}

// KindOf reports the kind carried by err, or ErrInternal for anything unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidInput, ErrInvalidState, ErrInternal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// Message returns the client-safe text of err. Unclassified errors never leak their text.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
