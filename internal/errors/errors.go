// Package errors contains helper functions for wrapping errors with stack traces and recovering from panics.
package errors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// New creates a new error from the given value and wraps it in an Error type that contains the stack trace.
// If the given value is already an error with a stack trace, that trace is kept.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok {
		return goerrors.Wrap(err, 1)
	}

	return goerrors.Wrap(fmt.Errorf("%v", val), 1)
}

// Errorf creates a new error with a formatted message and wraps it in an Error type that contains the stack trace.
func Errorf(message string, args ...any) error {
	err := fmt.Errorf(message, args...)
	return goerrors.Wrap(err, 1)
}

// WithStackTrace wraps the given error in an Error type that contains the stack trace. If the given error is nil,
// returns nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}

// Is reports whether any error in err's chain matches target. Exposed here so callers don't have to import both
// this package and the standard library errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if available.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// ErrorStack returns a string that contains both the error message and the callstack, if the error carries one.
func ErrorStack(err error) string {
	if err == nil {
		return ""
	}

	goerr := new(goerrors.Error)
	if errors.As(err, &goerr) {
		return goerr.ErrorStack()
	}

	return ""
}

// Recover tries to recover from panics, and if it succeeds, calls the given onPanic function with an error that
// explains the cause of the panic. This function should only be called from a defer statement.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, isError := rec.(error)
		if !isError {
			err = fmt.Errorf("%v", rec)
		}

		onPanic(WithStackTrace(err))
	}
}
