// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown = "UNKNOWN_ERROR"

	// CodeSchemaError covers duplicate keys, unsupported kinds, default/kind
	// mismatches and reducer/kind incompatibilities detected at driver
	// construction.
	CodeSchemaError = "SCHEMA_ERROR"
	// CodeBoundsError covers vertex id, bit index or queue index access
	// outside [0, N).
	CodeBoundsError = "BOUNDS_ERROR"
	// CodeTypeMismatch covers access of a property with the wrong value kind.
	CodeTypeMismatch = "TYPE_MISMATCH"
	// CodeComputeError wraps a user compute function panic or error return,
	// tagged with the superstep that failed.
	CodeComputeError = "COMPUTE_ERROR"
	// CodeResourceError covers allocation failures in paged arrays or queues.
	CodeResourceError = "RESOURCE_ERROR"
	// CodeCancelled is returned when the driver observes cancellation at a
	// superstep boundary.
	CodeCancelled = "CANCELLED"
	// CodeConfigError covers invalid driver configuration.
	CodeConfigError = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrSchemaError   = New(CodeSchemaError, "schema error")
	ErrBoundsError   = New(CodeBoundsError, "bounds error")
	ErrTypeMismatch  = New(CodeTypeMismatch, "type mismatch")
	ErrComputeError  = New(CodeComputeError, "compute error")
	ErrResourceError = New(CodeResourceError, "resource error")
	ErrCancelled     = New(CodeCancelled, "run cancelled")
	ErrConfigError   = New(CodeConfigError, "configuration error")
)

// IsSchemaError checks if the error is a schema error.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaError)
}

// IsBoundsError checks if the error is a bounds error.
func IsBoundsError(err error) bool {
	return errors.Is(err, ErrBoundsError)
}

// IsTypeMismatch checks if the error is a type-mismatch error.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsComputeError checks if the error is a compute error.
func IsComputeError(err error) bool {
	return errors.Is(err, ErrComputeError)
}

// IsResourceError checks if the error is a resource error.
func IsResourceError(err error) bool {
	return errors.Is(err, ErrResourceError)
}

// IsCancelled checks if the error represents a cancelled run.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo provides a name -> code mapping for the BSP error kinds.
var ErrorInfo = map[string]string{
	"SchemaError":   CodeSchemaError,
	"BoundsError":   CodeBoundsError,
	"TypeMismatch":  CodeTypeMismatch,
	"ComputeError":  CodeComputeError,
	"ResourceError": CodeResourceError,
	"Cancelled":     CodeCancelled,
	"ConfigError":   CodeConfigError,
}
