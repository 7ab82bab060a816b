// Package apperr defines the error kinds returned by the marketplace core.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindInternal        Kind = "internal"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidInput    Kind = "invalid_input"
	KindOutOfStock      Kind = "out_of_stock"
	KindInvalidState    Kind = "invalid_state"
	KindInvalidMerchant Kind = "invalid_merchant"
)

// Error is a domain failure carrying a Kind and a human-readable message.
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

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrOutOfStock      = &Error{Kind: KindOutOfStock}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrInvalidMerchant = &Error{Kind: KindInvalidMerchant}
)

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

func InvalidInput(format string, args ...interface{}) *Error {
	return newf(KindInvalidInput, format, args...)
}

func OutOfStock(format string, args ...interface{}) *Error {
	return newf(KindOutOfStock, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

func InvalidMerchant(format string, args ...interface{}) *Error {
	return newf(KindInvalidMerchant, format, args...)
}

// KindOf reports the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the domain message of err, or an empty string for internal errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
