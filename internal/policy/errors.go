package policy

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeBadRequest      = "bad_request"
	CodeUnauthenticated = "unauthenticated"
	CodeTooManyRequests = "too_many_requests"
	CodeUpstream        = "upstream"
)

var httpStatusMap = map[string]int{
	CodeNotFound:        http.StatusNotFound,
	CodeForbidden:       http.StatusForbidden,
	CodeBadRequest:      http.StatusBadRequest,
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeTooManyRequests: http.StatusTooManyRequests,
	CodeUpstream:        http.StatusBadGateway,
}

// Error is a classified failure that the HTTP layer surfaces verbatim.
type Error struct {
	Code    string
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: httpStatusMap[code]}
}

func ErrNotFound(message string) *Error { return newError(CodeNotFound, message) }

func ErrForbidden(message string) *Error { return newError(CodeForbidden, message) }

func ErrBadRequest(message string) *Error { return newError(CodeBadRequest, message) }

func ErrUnauthenticated(message string) *Error { return newError(CodeUnauthenticated, message) }

func ErrTooManyRequests(message string) *Error { return newError(CodeTooManyRequests, message) }

// ErrUpstream wraps a failure of an external service (LLM, vector index, speech-to-text).
func ErrUpstream(message string, cause error) *Error {
	e := newError(CodeUpstream, message)
	e.cause = cause
	return e
}

// StatusOf maps any error to an HTTP status; unclassified errors are 500.
func StatusOf(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the classification code, or "" for unclassified errors.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// MessageOf returns the client-safe message of a classified error.
func MessageOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "internal server error"
}
