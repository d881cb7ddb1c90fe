// Package errors provides structured error types for pkgrun.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - BACKUP_*, WRITE_*, RESTORE_*, NO_BACKUP, SWAP_*: manifest swap failures
//   - EXECUTION_*: external package manager failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDependency, "invalid dependency: %q", dep)
//	if errors.Is(err, errors.ErrCodeInvalidDependency) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeBackup, origErr, "back up %s", path)
//
// Process failures are reported as [*ExecutionError], which carries the exit
// code and the captured output of the failed command.
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
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidDependency Code = "INVALID_DEPENDENCY"
	ErrCodeInvalidPackage    Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Manifest swap errors
	ErrCodeBackup         Code = "BACKUP_FAILED"
	ErrCodeWrite          Code = "WRITE_FAILED"
	ErrCodeRestore        Code = "RESTORE_FAILED"
	ErrCodeNoBackup       Code = "NO_BACKUP"
	ErrCodeSwapInProgress Code = "SWAP_IN_PROGRESS"

	// External process errors
	ErrCodeExecution Code = "EXECUTION_FAILED"
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
// It checks the outermost *Error or *ExecutionError in the chain.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is neither an *Error nor an *ExecutionError.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var x *ExecutionError
	if errors.As(err, &x) {
		return x.Code()
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
	var x *ExecutionError
	if errors.As(err, &x) {
		return x.Summary()
	}
	return err.Error()
}

// ExecutionError reports an external process that exited nonzero or could
// not be started. ExitCode is -1 when the process never ran.
type ExecutionError struct {
	Command  string
	Args     []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Cause    error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrCodeExecution, e.Summary())
	if out := strings.TrimSpace(e.Stderr); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Summary returns the one-line description of the failure without captured output.
func (e *ExecutionError) Summary() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.ExitCode < 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: failed to start: %v", cmdline, e.Cause)
		}
		return fmt.Sprintf("%s: failed to start", cmdline)
	}
	return fmt.Sprintf("%s: exited with code %d", cmdline, e.ExitCode)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Code returns the error code for this error type.
func (e *ExecutionError) Code() Code {
	return ErrCodeExecution
}

// Output returns the captured stdout and stderr joined by a newline.
func (e *ExecutionError) Output() string {
	switch {
	case e.Stdout == "":
		return e.Stderr
	case e.Stderr == "":
		return e.Stdout
	}
	return e.Stdout + "\n" + e.Stderr
}
