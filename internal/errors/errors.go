// Package apperrors defines the error classes of picalc (configuration,
// validation, calculation, server) and the process exit code each maps to.
// Every type that carries a cause implements Unwrap, so errors.Is and
// errors.As see through it.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitErrorGeneric  = 1
	ExitErrorTimeout  = 2
	ExitErrorMismatch = 3 // calculators disagree on the digits
	ExitErrorConfig   = 4
	ExitErrorCanceled = 130
)

// ConfigError reports unusable flags, environment values or profiles.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError returns a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError is a failed π computation, annotated with what was being
// computed.
type CalculationError struct {
	Algorithm string
	Digits    int64
	Cause     error
}

func (e CalculationError) Error() string {
	if e.Algorithm == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s (%d digits): %v", e.Algorithm, e.Digits, e.Cause)
}

func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps cause. A nil cause yields nil.
func NewCalculationError(algorithm string, digits int64, cause error) error {
	if cause == nil {
		return nil
	}
	return CalculationError{Algorithm: algorithm, Digits: digits, Cause: cause}
}

// MismatchError reports calculators that produced different digits.
type MismatchError struct {
	Digits int64
	// FirstDiff is the index of the first differing decimal digit after the
	// leading 3, or -1 when only the lengths differ.
	FirstDiff int64
	Algorithms []string
}

func (e MismatchError) Error() string {
	if e.FirstDiff < 0 {
		return fmt.Sprintf("results differ in length for %d digits between %v", e.Digits, e.Algorithms)
	}
	return fmt.Sprintf("results differ at digit %d of %d between %v", e.FirstDiff, e.Digits, e.Algorithms)
}

// ServerError is a failure of the HTTP server.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError returns a ServerError; cause may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError is a rejected input value, such as a query parameter.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// WrapError prefixes err with a formatted message; it returns nil for a nil
// err.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a cancellation or a deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	var (
		cfg      ConfigError
		valid    ValidationError
		mismatch MismatchError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &mismatch):
		return ExitErrorMismatch
	case errors.As(err, &cfg), errors.As(err, &valid):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
