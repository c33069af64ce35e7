// Package apperr defines the errors that abort a request and the HTTP
// status each maps to.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidJSON        Code = "INVALID_JSON"
	CodeInvalidAnalysis    Code = "INVALID_ANALYSIS"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeAnalysisFailed     Code = "ANALYSIS_FAILED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is a fatal request error. Err, when set, is the underlying cause and
// is logged but never shown to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error code.
func (e *Error) Status() int {
	switch e.Code {
	case CodeValidation, CodeInvalidJSON, CodeInvalidAnalysis:
		return http.StatusBadRequest
	case CodeServiceUnavailable, CodeAnalysisFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func InvalidJSON(err error) *Error {
	return &Error{Code: CodeInvalidJSON, Message: "request body is not valid JSON", Err: err}
}

func InvalidAnalysis(msg string) *Error {
	return &Error{Code: CodeInvalidAnalysis, Message: msg}
}

func ServiceUnavailable(msg string) *Error {
	return &Error{Code: CodeServiceUnavailable, Message: msg}
}

func AnalysisFailed(err error) *Error {
	return &Error{Code: CodeAnalysisFailed, Message: "thought analysis failed", Err: err}
}

// As extracts an *Error from err, wrapping anything else as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "internal server error", Err: err}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
