// Package apperr defines the error kinds surfaced to HTTP clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fixed client-facing messages for generic failures.
const (
	MsgTooManyRequests = "Too many requests, please try again later!"
	MsgNotFound        = "Page not found!"
	MsgUnauthorized    = "You are not authorized to access this page!"
	MsgBadRequest      = "Bad request!"
	MsgInternal        = "Internal server error!"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindUpstream
	KindRateLimited
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// DefaultMessage is the fixed message for k.
func (k Kind) DefaultMessage() string {
	switch k {
	case KindValidation:
		return MsgBadRequest
	case KindUnauthorized:
		return MsgUnauthorized
	case KindNotFound:
		return MsgNotFound
	case KindRateLimited:
		return MsgTooManyRequests
	}
	return MsgInternal
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindRateLimited:
		return "rate_limited"
	}
	return "internal"
}

// Error carries a client-safe Message and an optional internal cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// MissingFields reports required fields that were not supplied.
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "The following fields are required: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// Upstream wraps a failure of an external collaborator (CDN, OAuth, classifier, SMTP).
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
