// Package errors provides structured error handling for the library.
//
// It defines a standard AppError type carrying a closed error Code, a
// human-readable Message, and an optional wrapped cause. The CRDT core
// (package crdt) returns only errors constructed here; it never panics on
// well-formed input and never logs.
package errors

import "fmt"

// Code is one of a closed set of failure kinds.
type Code string

const (
	// CodeCapacityExceeded is returned when an insert or merge would
	// exceed a container's configured element capacity.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// CodeInvalidNodeID is returned when a node id passed to a constructor
	// or other call falls outside [0, MaxNodes). Node ids held in a peer's
	// state are not checked at merge time.
	CodeInvalidNodeID Code = "INVALID_NODE_ID"

	// CodeInvalidTimestamp is returned on a per-node timestamp regression.
	CodeInvalidTimestamp Code = "INVALID_TIMESTAMP"

	// CodeOverflow is returned when a counter would exceed its integer width.
	CodeOverflow Code = "OVERFLOW"

	// CodeInvalidOperation is a catch-all for misuse, including merges
	// between CRDTs of differing capacity configuration.
	CodeInvalidOperation Code = "INVALID_OPERATION"
)

// AppError is the structured error type returned from every fallible
// operation in this module.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code Code) bool {
	ae, ok := err.(*AppError)
	if !ok {
		return false
	}
	return ae.Code == code
}

// CapacityExceeded constructs a CodeCapacityExceeded error.
func CapacityExceeded(message string, err error) *AppError {
	return &AppError{Code: CodeCapacityExceeded, Message: message, Err: err}
}

// InvalidNodeID constructs a CodeInvalidNodeID error.
func InvalidNodeID(message string, err error) *AppError {
	return &AppError{Code: CodeInvalidNodeID, Message: message, Err: err}
}

// InvalidTimestamp constructs a CodeInvalidTimestamp error.
func InvalidTimestamp(message string, err error) *AppError {
	return &AppError{Code: CodeInvalidTimestamp, Message: message, Err: err}
}

// Overflow constructs a CodeOverflow error.
func Overflow(message string, err error) *AppError {
	return &AppError{Code: CodeOverflow, Message: message, Err: err}
}

// InvalidOperation constructs a CodeInvalidOperation error.
func InvalidOperation(message string, err error) *AppError {
	return &AppError{Code: CodeInvalidOperation, Message: message, Err: err}
}

// Wrap attaches additional context to err without changing its code, or
// wraps it as a plain error if err is not an *AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return &AppError{Code: ae.Code, Message: message + ": " + ae.Message, Err: ae.Err}
	}
	return fmt.Errorf("%s: %w", message, err)
}
