package gpi

import (
	"errors"
	"fmt"
)

// Error represents a failure surfaced by the object model.
//
// Lookups report "not found" by returning nil handles; Error is used where a
// caller needs the reason, such as host path lookup, value access and
// callback arming.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the object or path involved, if any.
	Name string

	// Backend names the native interface that reported the failure.
	Backend string

	// Err is the underlying native error, if any.
	Err error
}

// ErrorCode categorizes object model errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a name or index did not resolve.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotIndexable indicates an index lookup on a kind that has no elements.
	ErrCodeNotIndexable ErrorCode = "NOT_INDEXABLE"

	// ErrCodeOutOfRange indicates an index outside the declared range.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeNative indicates the native interface rejected a call.
	ErrCodeNative ErrorCode = "NATIVE_ERROR"

	// ErrCodeAlreadyPrimed indicates an attempt to arm a primed callback.
	ErrCodeAlreadyPrimed ErrorCode = "ALREADY_PRIMED"

	// ErrCodeReadOnly indicates a write to a constant object.
	ErrCodeReadOnly ErrorCode = "READ_ONLY"

	// ErrCodeNoValue indicates value access on an object that carries no value.
	ErrCodeNoValue ErrorCode = "NO_VALUE"

	// ErrCodeClosed indicates use of a session after Close.
	ErrCodeClosed ErrorCode = "SESSION_CLOSED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Name != "" {
		msg = fmt.Sprintf("%s (name=%s)", msg, e.Name)
	}
	if e.Backend != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Backend)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsNotFound returns true if the error reports a missing object.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsNative returns true if the error came from a native interface call.
func IsNative(err error) bool {
	return hasCode(err, ErrCodeNative)
}

// IsAlreadyPrimed returns true if the error reports a double arm.
func IsAlreadyPrimed(err error) bool {
	return hasCode(err, ErrCodeAlreadyPrimed)
}

// IsReadOnly returns true if the error reports a write to a constant.
func IsReadOnly(err error) bool {
	return hasCode(err, ErrCodeReadOnly)
}

// NewNotFoundError creates an Error for a path that did not resolve.
func NewNotFoundError(name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "no such object",
		Name:    name,
	}
}

// NewNativeError wraps a failure reported by a backend.
func NewNativeError(backend, op string, err error) *Error {
	return &Error{
		Code:    ErrCodeNative,
		Message: op + " failed",
		Backend: backend,
		Err:     err,
	}
}
