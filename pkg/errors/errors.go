// Package errors provides structured error types for zap.
//
// Every failure that leaves the build engine is an [*Error] carrying a
// machine-readable [Code], a human-readable message and an optional cause.
// Detailed failure information travels as the cause:
//
//   - [*CycleError] holds the offending dependency path
//   - [*SubprocessError] holds the command line, exit code and captured output
//
// # Error Codes
//
//   - RESOLUTION_ERROR: a label could not be found in a registry
//   - CYCLE: a label is reachable from itself
//   - IO_ERROR: copy, read or directory creation failed
//   - CHECKSUM_MISMATCH: a downloaded archive does not match its declared digest
//   - SUBPROCESS_ERROR: a fetch, extract or compile tool exited non-zero
//
// # Usage
//
//	err := errors.New(errors.ErrCodeResolution, "unknown dependency %s", dep)
//	if errors.Is(err, errors.ErrCodeResolution) {
//	    // report missing rule
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "copy %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine errors
	ErrCodeResolution       Code = "RESOLUTION_ERROR"
	ErrCodeCycle            Code = "CYCLE"
	ErrCodeIO               Code = "IO_ERROR"
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"
	ErrCodeSubprocess       Code = "SUBPROCESS_ERROR"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidLabel  Code = "INVALID_LABEL"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeDuplicate     Code = "DUPLICATE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

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
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// CycleError describes a dependency cycle. Path starts and ends with the
// same label, e.g. [A B A].
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// Code returns the error code for this error type.
func (e *CycleError) Code() Code {
	return ErrCodeCycle
}

// Cycle wraps a cycle path in a coded Error.
func Cycle(path []string) *Error {
	ce := &CycleError{Path: path}
	return &Error{Code: ErrCodeCycle, Message: ce.Error(), Cause: ce}
}

// SubprocessError carries the diagnostics of an external tool that exited non-zero.
type SubprocessError struct {
	Command  string // Command line as executed
	Dir      string // Working directory
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Error implements the error interface.
func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(string(e.Stderr)); out != "" {
		msg += "\n" + out
	} else if out := strings.TrimSpace(string(e.Stdout)); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Code returns the error code for this error type.
func (e *SubprocessError) Code() Code {
	return ErrCodeSubprocess
}

// AsSubprocess extracts a *SubprocessError from the error chain.
func AsSubprocess(err error) (*SubprocessError, bool) {
	var se *SubprocessError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsCycle extracts a *CycleError from the error chain.
func AsCycle(err error) (*CycleError, bool) {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
