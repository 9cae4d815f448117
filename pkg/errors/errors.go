// Package errors provides structured error types for the pulsegen compiler.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed trees, documents, columns)
//   - LAYOUT_*: Failures raised by the Measure/Arrange passes
//   - UNKNOWN_*: References to entities that are not configured
//   - INTERNAL_*: Unexpected internal errors
//
// Every compilation is all-or-nothing: a coded error aborts that compilation and
// no partial instruction list is returned.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidColumnSpec, "invalid grid length %q", token)
//	if errors.Is(err, errors.ErrCodeInvalidColumnSpec) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput              Code = "INVALID_INPUT"
	ErrCodeInvalidFormat             Code = "INVALID_FORMAT"
	ErrCodeInvalidElement            Code = "INVALID_ELEMENT"
	ErrCodeInvalidColumnSpec         Code = "INVALID_COLUMN_SPEC"
	ErrCodeInvalidChannel            Code = "INVALID_CHANNEL"
	ErrCodeInvalidPath               Code = "INVALID_PATH"
	ErrCodeConflictingDurationBounds Code = "CONFLICTING_DURATION_BOUNDS"

	// Layout errors
	ErrCodeLayoutOverflow Code = "LAYOUT_OVERFLOW"

	// Reference errors
	ErrCodeUnknownChannel Code = "UNKNOWN_CHANNEL_REFERENCE"
	ErrCodeUnknownShape   Code = "UNKNOWN_SHAPE_REFERENCE"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsClientError reports whether err was caused by the caller's input rather
// than by the compiler itself. The HTTP API maps these to 4xx responses.
func IsClientError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidElement,
		ErrCodeInvalidColumnSpec, ErrCodeInvalidChannel, ErrCodeInvalidPath,
		ErrCodeConflictingDurationBounds, ErrCodeLayoutOverflow,
		ErrCodeUnknownChannel, ErrCodeUnknownShape:
		return true
	}
	return false
}
