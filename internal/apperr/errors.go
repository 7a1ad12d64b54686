// Package apperr defines the caller-visible error kinds shared by the booking
// components. Anything that is not an *Error is treated as an internal fault.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an expected, caller-recoverable failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotVerified     Kind = "not_verified"
	KindSlotUnavailable Kind = "slot_unavailable"
	KindCodeMismatch    Kind = "code_mismatch"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindInternal        Kind = "internal"
)

// Error is a typed failure carrying a Kind and a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same kind, so that
// errors.Is(err, ErrSlotUnavailable) matches any slot_unavailable error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotVerified     = &Error{Kind: KindNotVerified}
	ErrSlotUnavailable = &Error{Kind: KindSlotUnavailable}
	ErrCodeMismatch    = &Error{Kind: KindCodeMismatch}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotVerified(message string) *Error {
	return &Error{Kind: KindNotVerified, Message: message}
}

func SlotUnavailable(message string) *Error {
	return &Error{Kind: KindSlotUnavailable, Message: message}
}

func CodeMismatch(message string) *Error {
	return &Error{Kind: KindCodeMismatch, Message: message}
}

// NotFound builds a not_found error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err. Internal faults get a
// generic message so store or driver detail never reaches the caller.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
