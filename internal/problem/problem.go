// Package problem defines the error kinds that are reported back to API callers.
//
// A problem carries a category and a human-readable hint; both end up in the response body as
//
//	{"error": {"<category>": "<hint>"}}
//
// Handlers convert any error with errors.As into *Error and pick the HTTP status from its Code.
package problem

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeUpstream   Code = "upstream"
	CodeInternal   Code = "internal"
)

func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code     Code
	Category string
	Hint     string
	cause    error
}

func (e *Error) Error() string {
	msg := e.Category + ": " + e.Hint
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Category: e.Category, Hint: e.Hint, cause: err}
}

var (
	ErrValidation = &Error{Code: CodeValidation, Category: "Validation", Hint: "invalid request"}
	ErrNotFound   = &Error{Code: CodeNotFound, Category: "Not found", Hint: "no such record"}
	ErrConflict   = &Error{Code: CodeConflict, Category: "Conflict", Hint: "record already exists"}
	ErrUpstream   = &Error{Code: CodeUpstream, Category: "Upstream failure", Hint: "metadata provider failed"}
)

func Validation(category, hint string) *Error {
	return &Error{Code: CodeValidation, Category: category, Hint: hint}
}

func NotFound(category, hint string) *Error {
	return &Error{Code: CodeNotFound, Category: category, Hint: hint}
}

func Conflict(category, hint string) *Error {
	return &Error{Code: CodeConflict, Category: category, Hint: hint}
}

func Upstream(hint string, cause error) *Error {
	return &Error{Code: CodeUpstream, Category: "Upstream failure", Hint: hint, cause: cause}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var p *Error
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}
