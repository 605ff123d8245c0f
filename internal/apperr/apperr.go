// Package apperr is the boundary error model: every failure that reaches a
// client is converted to an *Error with a stable kind, reason and message.
package apperr

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindUnavailable
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindInternal:
		return "internal"
	}
	return "internal"
}

// FieldError is one failed input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a client-safe error. Cause is logged, never serialized.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func Wrap(kind Kind, reason, message string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, Cause: cause}
}

func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Reason: "invalid_input", Message: "request validation failed", Fields: fields}
}

// Internal hides cause details from the client.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Reason: "internal_error", Message: "an unexpected error occurred", Cause: cause}
}

// As extracts an *Error from err, or wraps err as internal.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Response is the JSON body for every error response.
type Response struct {
	StatusCode int          `json:"status_code"`
	Error      string       `json:"error"`
	Reason     string       `json:"reason"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

func (e *Error) Response(now time.Time) Response {
	status := e.Kind.Status()
	return Response{
		StatusCode: status,
		Error:      http.StatusText(status),
		Reason:     e.Reason,
		Message:    e.Message,
		Fields:     e.Fields,
		Timestamp:  now.UTC(),
	}
}

// Abort writes e as the response and stops the gin chain.
func Abort(c *gin.Context, e *Error) {
	if e.Cause != nil {
		_ = c.Error(e.Cause)
	}
	c.AbortWithStatusJSON(e.Kind.Status(), e.Response(time.Now()))
}
