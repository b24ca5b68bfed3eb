package bdd

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-bdd/exitcodes"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, invalid manifests, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// ExampleFailureError reports failed examples (exit code 1)
type ExampleFailureError struct {
	Message string
}

func (e *ExampleFailureError) Error() string {
	return fmt.Sprintf("example failure: %s", e.Message)
}

// NewExampleFailureError creates a new ExampleFailureError
func NewExampleFailureError(message string) *ExampleFailureError {
	return &ExampleFailureError{Message: message}
}

// IsExampleFailureError checks if the error is or wraps an ExampleFailureError
func IsExampleFailureError(err error) bool {
	var failureErr *ExampleFailureError
	return err != nil && errors.As(err, &failureErr)
}

// ExitCode maps an error returned by the application to its exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case IsRuntimeError(err):
		return exitcodes.RuntimeErr
	default:
		return exitcodes.ExampleFailure
	}
}
