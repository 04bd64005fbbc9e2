package cli

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a scenario failed, a design is invalid, a path did not resolve
	ExitCommandError = 2 // the command could not do its job: flags, files, database
)

// ExitError carries the process exit status for a failed command. main
// prints it and exits with Code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the status carried by err, or ExitFailure for
// errors that carry none.
func GetExitCode(err error) int {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code
	}
	return ExitFailure
}

// exitf is NewExitError with formatting.
func exitf(code int, format string, args ...any) *ExitError {
	return NewExitError(code, fmt.Sprintf(format, args...))
}
