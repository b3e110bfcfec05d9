// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrDomain marks inputs for which the pricing formulas are undefined
	// (up == down, rate <= -1).
	ErrDomain          = errors.New("domain error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrDatabaseError   = errors.New("database error")
	ErrParse           = errors.New("parse error")
)

// ParameterError describes a rejected input. Kind is one of the sentinel
// errors above and is what errors.Is matches against.
type ParameterError struct {
	Field   string
	Value   interface{}
	Message string
	Kind    error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s (%v): %s", e.Kind, e.Field, e.Value, e.Message)
}

func (e *ParameterError) Unwrap() error {
	return e.Kind
}

// NewDomainError creates a ParameterError of kind ErrDomain.
func NewDomainError(field string, value interface{}, message string) *ParameterError {
	return &ParameterError{
		Field:   field,
		Value:   value,
		Message: message,
		Kind:    ErrDomain,
	}
}

// NewInvalidArgument creates a ParameterError of kind ErrInvalidArgument.
func NewInvalidArgument(field string, value interface{}, message string) *ParameterError {
	return &ParameterError{
		Field:   field,
		Value:   value,
		Message: message,
		Kind:    ErrInvalidArgument,
	}
}

// ParseError represents a malformed position expression.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d in %q: %s", e.Offset, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(input string, offset int, reason string) *ParseError {
	return &ParseError{
		Input:  input,
		Offset: offset,
		Reason: reason,
	}
}

// StoreError represents an error from the position library.
type StoreError struct {
	Operation string
	Name      string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.Name, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, name string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Name:      name,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
