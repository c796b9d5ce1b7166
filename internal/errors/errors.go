// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Every failure of the guarded query path is an *E, so
// callers can branch on the kind (retry, HTTP status, gRPC code) without parsing text.
//
// The wrapped Err is kept for logs only; Message is the only part that may be shown
// to a caller.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// WriteOperation indicates a blocklisted write/DDL keyword in the query.
	WriteOperation Kind = "write_operation"
	// MultipleStatements indicates more than one statement was submitted.
	MultipleStatements Kind = "multiple_statements"
	// NotASelect indicates the statement does not start with SELECT.
	NotASelect Kind = "not_a_select"
	// DangerousPattern indicates a known injection shape (UNION SELECT, EXEC, sp_/xp_).
	DangerousPattern Kind = "dangerous_pattern"
	// InputTooLong indicates the raw query exceeded the size ceiling.
	InputTooLong Kind = "input_too_long"
	// BackendExecutionFailure indicates the storage engine rejected or failed the query.
	BackendExecutionFailure Kind = "backend_execution_failure"
	// ResourceExhausted indicates no pooled connection became free in time.
	ResourceExhausted Kind = "resource_exhausted"
	// QueryTimeout indicates the query did not finish within its deadline.
	QueryTimeout Kind = "query_timeout"
)

// CallerPrefix starts every caller-visible error string. CLI and LLM tool callers
// match on it to tell tool failures from tool results on plain-text channels.
const CallerPrefix = "ERROR: "

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRejection reports whether the kind is produced before execution, from the
// input alone. Rejections never reach the storage engine.
func IsRejection(kind Kind) bool {
	switch kind {
	case WriteOperation, MultipleStatements, NotASelect, DangerousPattern, InputTooLong:
		return true
	}
	return false
}

// Retryable reports whether retrying the same input may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case ResourceExhausted, QueryTimeout:
		return true
	}
	return false
}

// HTTPStatus maps an error kind to the status code the HTTP API answers with.
// Caller input faults are 4xx, resource faults are 5xx. A backend rejection
// (unknown table, bad column, syntax) is 422: the query is at fault and only
// the caller can fix it, so retrying the same request cannot succeed.
func HTTPStatus(kind Kind) int {
	switch kind {
	case WriteOperation, MultipleStatements, NotASelect, DangerousPattern:
		return http.StatusBadRequest
	case InputTooLong:
		return http.StatusRequestEntityTooLarge
	case BackendExecutionFailure:
		return http.StatusUnprocessableEntity
	case ResourceExhausted:
		return http.StatusServiceUnavailable
	case QueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Caller renders err for a caller: the "ERROR: " prefix followed by the
// human-readable message. Wrapped driver errors are never included.
func Caller(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return CallerPrefix + e.Message
	}
	return CallerPrefix + "unexpected internal error"
}
