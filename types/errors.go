package types

import (
	"errors"
	"fmt"
)

// AssertionError is the expected failure raised by a failed check
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

// Fail creates a new AssertionError
func Fail(message string) *AssertionError {
	return &AssertionError{Message: message}
}

// Failf creates a new AssertionError from a format string
func Failf(format string, args ...any) *AssertionError {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// AsAssertion returns the AssertionError wrapped by err, if any
func AsAssertion(err error) (*AssertionError, bool) {
	var assertionErr *AssertionError
	if err != nil && errors.As(err, &assertionErr) {
		return assertionErr, true
	}
	return nil, false
}

// AfterExampleError wraps an assertion failure raised by a teardown hook
// after the example body had completed successfully
type AfterExampleError struct {
	Err *AssertionError
}

func (e *AfterExampleError) Error() string {
	return e.Err.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *AfterExampleError) Unwrap() error {
	return e.Err
}

// ExitSignal terminates the isolation unit of an example abnormally
type ExitSignal struct {
	Reason string
}

func (e *ExitSignal) Error() string {
	return fmt.Sprintf("exit: %s", e.Reason)
}

// Exit creates an ExitSignal with the given reason
func Exit(reason string) *ExitSignal {
	return &ExitSignal{Reason: reason}
}

// AsExitSignal returns the ExitSignal wrapped by err, if any
func AsExitSignal(err error) (*ExitSignal, bool) {
	var exitErr *ExitSignal
	if err != nil && errors.As(err, &exitErr) {
		return exitErr, true
	}
	return nil, false
}
