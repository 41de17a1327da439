// Package apierr implements the typed error taxonomy of spec.md §7:
// Validation, NotFound, Conflict, Auth, Cascade-blocked, Upstream-transient,
// Upstream-permanent, and Internal, each carrying the HTTP status and error
// code its envelope exposes to callers.
package apierr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier returned in the HTTP
// error envelope's `error.code` field.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeLimitReached      Code = "limit_reached"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeCascadeBlocked    Code = "cascade_blocked"
	CodeUpstreamTransient Code = "upstream_transient"
	CodeUpstreamPermanent Code = "upstream_permanent"
	CodeRateLimited       Code = "rate_limited"
	CodeInternal          Code = "internal"
)

// Error is the typed error every handler ultimately produces (or wraps a
// plain error into, via Internal) so the HTTP layer can render a consistent
// envelope without inspecting error strings.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(code Code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func Validation(message string) *Error { return newErr(CodeValidation, 400, message) }

func NotFound(message string) *Error { return newErr(CodeNotFound, 404, message) }

func Conflict(message string) *Error { return newErr(CodeConflict, 409, message) }

func LimitReached(message string) *Error { return newErr(CodeLimitReached, 400, message) }

func Unauthorized(message string) *Error { return newErr(CodeUnauthorized, 401, message) }

func Forbidden(message string) *Error { return newErr(CodeForbidden, 403, message) }

func CascadeBlocked(message string) *Error { return newErr(CodeCascadeBlocked, 409, message) }

// RateLimited signals a per-user AI-provider rate limit was exceeded (spec
// §5: rate limits to AI providers are tracked per user per minute).
func RateLimited(message string) *Error { return newErr(CodeRateLimited, 429, message) }

// Internal wraps an unexpected error; its message to the client is always
// generic (spec §7: "the client sees a generic 500 with the request id"),
// the cause is logged server-side only.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Status: 500, Message: "internal server error", cause: cause}
}

// As extracts an *Error from err if it already carries one, otherwise wraps
// it as Internal. Every handler path funnels through this before writing a
// response, so a forgotten error type never leaks a raw 500 with no code.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}
