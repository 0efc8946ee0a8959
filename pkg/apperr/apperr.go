package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string][]string // only for validation failures
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, msg string, err error) *Error {
	return &Error{Status: status, Code: code, Message: msg, Err: err}
}

// Validation reports field-level input problems.
func Validation(fields map[string][]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Validation failed", Fields: fields}
}

// Field is a shortcut for a single-field validation failure.
func Field(name, msg string) *Error {
	return Validation(map[string][]string{name: {msg}})
}

// NotFound reports a missing record of the given kind.
func NotFound(kind string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: kind + " not found"}
}

// Conflict reports a uniqueness violation with a user-readable message.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: msg}
}

// Upstream wraps a storage or dependency failure. The cause is never shown to callers.
func Upstream(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal Server Error", Err: err}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFound application error.
func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Status == http.StatusNotFound
}

// IsConflict reports whether err is a Conflict application error.
func IsConflict(err error) bool {
	e, ok := As(err)
	return ok && e.Status == http.StatusConflict
}

// Wrap passes application errors through and wraps anything else as Upstream.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Upstream(err)
}
