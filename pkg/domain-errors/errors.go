// Package domainerrors provides coded, recoverable errors for the funding
// engine. Every failure a caller can act on carries a Code; transport layers
// translate codes into status codes, and services use HasCode to branch
// without string matching.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure. Codes are part of the API surface:
// callers are expected to surface them verbatim.
type Code string

const (
	// Generic codes.
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeInternal     Code = "internal"

	// Governance codes. Each stems from a precondition, not a transient
	// fault; none requires a retry by the engine itself.
	CodeAlreadyVoted       Code = "already_voted"
	CodeVotingClosed       Code = "voting_closed"
	CodeNotAcceptingFunds  Code = "not_accepting_funds"
	CodeEmptyPlan          Code = "empty_plan"
	CodePercentageMismatch Code = "percentage_mismatch"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
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

// New builds a domain error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is reports whether err is a domain error.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors so transport layers never leak internals.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to an HTTP status for the transport edge.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeEmptyPlan, CodePercentageMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyVoted, CodeInvalidState, CodeVotingClosed, CodeNotAcceptingFunds:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
