// Package errors provides structured error types for pyrite.
//
// Every fallible operation in the reconciliation pipeline surfaces one of
// a small set of machine-readable codes so callers can branch on the
// condition rather than the message. The most important distinction is
// the NOT_FOUND_* family: several operations treat a missing resource as
// a recoverable state (removing a dependency when no environment exists
// succeeds), while others treat it as fatal (running a command requires
// an environment).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "invalid requirement: %s", text)
//	if errors.IsCode(err, errors.ErrCodeEnvironmentNotFound) {
//	    // Recover: the environment is simply absent.
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Resource not found errors. Each names the resource so callers can
	// recover from exactly the condition they expect.
	ErrCodeProjectNotFound        Code = "NOT_FOUND_PROJECT"
	ErrCodeMetadataNotFound       Code = "NOT_FOUND_METADATA"
	ErrCodePythonNotFound         Code = "NOT_FOUND_PYTHON"
	ErrCodeEnvironmentNotFound    Code = "NOT_FOUND_ENVIRONMENT"
	ErrCodePackageVersionNotFound Code = "NOT_FOUND_PACKAGE_VERSION"

	// Initialization conflicts. Fatal for init-style operations; an
	// existing project must never be silently overwritten.
	ErrCodeAlreadyExists Code = "ALREADY_EXISTS"

	// Input validation errors.
	ErrCodeParse Code = "PARSE_ERROR"

	// External process failures (installer, interpreter, git).
	ErrCodeProcess Code = "PROCESS_ERROR"

	// Filesystem read/write failures.
	ErrCodeIO Code = "IO_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsCode reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err carries any of the NOT_FOUND_* codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeProjectNotFound, ErrCodeMetadataNotFound, ErrCodePythonNotFound,
		ErrCodeEnvironmentNotFound, ErrCodePackageVersionNotFound:
		return true
	}
	return false
}
