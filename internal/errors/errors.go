// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidRisk      = errors.New("invalid risk parameters")
	ErrMalformedSeries  = errors.New("malformed price series")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
)

// InsufficientDataError reports that a computation was given fewer bars
// than its window requires.
type InsufficientDataError struct {
	Indicator string
	Required  int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d bars, got %d", e.Indicator, e.Required, e.Got)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(indicator string, required, got int) *InsufficientDataError {
	return &InsufficientDataError{
		Indicator: indicator,
		Required:  required,
		Got:       got,
	}
}

// MalformedSeriesError reports the first offending bar of an invalid series.
type MalformedSeriesError struct {
	Index  int
	Field  string
	Reason string
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series at bar %d [%s]: %s", e.Index, e.Field, e.Reason)
}

func (e *MalformedSeriesError) Unwrap() error {
	return ErrMalformedSeries
}

// NewMalformedSeriesError creates a new MalformedSeriesError.
func NewMalformedSeriesError(index int, field, reason string) *MalformedSeriesError {
	return &MalformedSeriesError{
		Index:  index,
		Field:  field,
		Reason: reason,
	}
}

// InvalidRiskError reports a trade setup whose risk per share is not positive.
type InvalidRiskError struct {
	Entry  float64
	Stop   float64
	Reason string
}

func (e *InvalidRiskError) Error() string {
	return fmt.Sprintf("invalid risk: %s (entry: %.2f, stop: %.2f)", e.Reason, e.Entry, e.Stop)
}

func (e *InvalidRiskError) Unwrap() error {
	return ErrInvalidRisk
}

// NewInvalidRiskError creates a new InvalidRiskError.
func NewInvalidRiskError(entry, stop float64, reason string) *InvalidRiskError {
	return &InvalidRiskError{
		Entry:  entry,
		Stop:   stop,
		Reason: reason,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
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
