// Package apierr defines the error kinds shared by repositories, storage and
// the HTTP boundary. Handlers classify failures with errors.Is against the
// sentinels; only the boundary translates kinds into status codes.
package apierr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrNotFound covers both a missing record and a record owned by someone
	// else. The two cases are deliberately indistinguishable so the API never
	// confirms a resource's existence to non-owners.
	ErrNotFound = errors.New("not found")
	// ErrExpired is distinct from ErrNotFound: an expired share link once
	// worked, a bad token never did.
	ErrExpired  = errors.New("expired")
	ErrConflict = errors.New("conflict")
	// ErrStorage marks backend I/O failures. The boundary surfaces these as a
	// generic server error without backend detail.
	ErrStorage = errors.New("storage failure")
)

// Error pairs a kind sentinel with a client-facing message. Unwrap makes
// errors.Is(err, kind) work across wrapping layers.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// New builds an Error of the given kind with a formatted message.
func New(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return New(ErrValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return New(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return New(ErrForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return New(ErrNotFound, format, args...)
}

func Expired(format string, args ...interface{}) error {
	return New(ErrExpired, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return New(ErrConflict, format, args...)
}

// Storage wraps a backend failure. The cause is kept for logs via the message
// chain but the boundary never echoes it to the client.
func Storage(err error) error {
	return &Error{kind: ErrStorage, msg: fmt.Sprintf("storage failure: %v", err)}
}
