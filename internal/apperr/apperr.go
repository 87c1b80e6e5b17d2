// Package apperr defines the application error taxonomy shared by the
// domain services and mapped to HTTP statuses at the transport edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindInternal covers everything not classified below. It is surfaced
	// to callers as an opaque server error.
	KindInternal Kind = iota
	KindNotFound
	KindUnauthenticated
	// KindPrincipalNotFound means the token was valid but the subject no
	// longer maps to a stored user. Kept distinct from Unauthenticated.
	KindPrincipalNotFound
	KindForbidden
	KindConflict
	KindInvalidCredentials
	KindInvalidArgument
)

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

// Is makes errors.Is match on kind, so services and tests can compare
// against the sentinel constructors without equal messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

func PrincipalNotFound(message string) *Error {
	return New(KindPrincipalNotFound, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func InvalidCredentials(message string) *Error {
	return New(KindInvalidCredentials, message)
}

func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, message)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status the REST surface reports.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated, KindPrincipalNotFound, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal error detail from callers.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
