// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConvergenceFailure = errors.New("convergence failure")
	ErrEmptyResult        = errors.New("no result")
	ErrNotFound           = errors.New("not found")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrDatabaseError      = errors.New("database error")
	ErrRiskBlocked        = errors.New("blocked by risk check")
)

// ValidationError represents a validation error. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConvergenceError is returned when an iterative solver cannot establish
// or close its search interval.
type ConvergenceError struct {
	Operation string
	Attempts  int
	Message   string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("convergence failure [%s] after %d attempts: %s", e.Operation, e.Attempts, e.Message)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergenceFailure
}

// NewConvergenceError creates a new ConvergenceError.
func NewConvergenceError(operation string, attempts int, message string) *ConvergenceError {
	return &ConvergenceError{
		Operation: operation,
		Attempts:  attempts,
		Message:   message,
	}
}

// RiskError represents a risk management violation.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Message string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s (current: %.2f, limit: %.2f)", e.Rule, e.Message, e.Current, e.Limit)
}

func (e *RiskError) Unwrap() error {
	return ErrRiskBlocked
}

// NewRiskError creates a new RiskError.
func NewRiskError(rule string, current, limit float64, message string) *RiskError {
	return &RiskError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Message: message,
	}
}

// DataError represents a storage-related error.
type DataError struct {
	DataType string
	ID       int64
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %d: %s: %v", e.DataType, e.ID, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %d: %s", e.DataType, e.ID, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType string, id int64, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		ID:       id,
		Message:  message,
		Err:      err,
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
