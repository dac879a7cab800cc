package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error with an HTTP status attached. Handlers and
// middlewares construct these at the point of detection; the error
// middleware renders them exactly once at the response boundary.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func BadRequest(code, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message}
}

func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Message: message, Err: err}
}

// From extracts the typed error from an arbitrary error chain, wrapping
// anything unrecognized as a 500 so no raw error ever reaches a client.
func From(err error) *Error {
	var appErr *Error

	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal("Internal server error", err)
}
