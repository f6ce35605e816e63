// Package apperr defines the error taxonomy shared across the service.
// Callers branch on codes, not messages.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for propagation decisions.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"      // 400
	CodeUnauthorized   Code = "UNAUTHORIZED"         // 401
	CodeForbidden      Code = "FORBIDDEN"            // 403
	CodeNotFound       Code = "NOT_FOUND"            // 404
	CodeProvider       Code = "PROVIDER_UNAVAILABLE" // 502
	CodeStore          Code = "STORE_FAILURE"        // 500
)

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Code    Code
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InvalidRequest creates a 400 error for bad input shape or bounds.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Status: 400, Message: msg}
}

// Unauthorized creates a 401 error for missing identity.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Status: 401, Message: msg}
}

// Forbidden creates a 403 error for ownership mismatches.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: 403, Message: msg}
}

// NotFound creates a 404 error for a missing bookmark or cache entry.
func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Status: 404, Message: what + " not found"}
}

// Provider creates a 502 error for an unreachable or malformed embedding
// service response.
func Provider(msg string, cause error) *Error {
	return &Error{Code: CodeProvider, Status: 502, Message: msg, Cause: cause}
}

// Store creates a 500 error for a datastore read/write failure.
func Store(msg string, cause error) *Error {
	return &Error{Code: CodeStore, Status: 500, Message: msg, Cause: cause}
}

// HasCode reports whether err is (or wraps) an Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StatusOf returns the HTTP-equivalent status for err, defaulting to 500
// for unclassified errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 500
}
