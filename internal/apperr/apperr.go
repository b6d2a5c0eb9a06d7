package apperr

import (
	"errors"
	"net/http"
)

// Error is the failure signal services hand back to the transport layer.
// Status drives the HTTP code; Msg is what the caller sees. Err carries the
// underlying cause for logs only and is never serialized.
type Error struct {
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &Error{Status: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Status: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Status: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &Error{Status: http.StatusNotFound, Msg: msg} }

// Conflict covers uniqueness violations. Surfaced as 400 with the message,
// matching the API contract (a duplicate email is a caller error).
func Conflict(msg string) error { return &Error{Status: http.StatusBadRequest, Msg: msg} }

func Internal(msg string, err error) error {
	return &Error{Status: http.StatusInternalServerError, Msg: msg, Err: err}
}

// From extracts an *Error when err carries one.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
