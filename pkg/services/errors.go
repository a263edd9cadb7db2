// Package services provides the aggregation and write services behind the metadata API.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRuns is returned when a flow that must have a latest run has none (404).
	ErrNoRuns = errors.New("flow has no runs")

	// ErrInvalidTimestamp is returned for a negative or malformed epoch timestamp (400).
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidPayload is returned when a rich run body does not match its schema (400).
	ErrInvalidPayload = errors.New("invalid rich run payload")
)

// ServiceError is a rejected request input: the operation that rejected it,
// what was wrong and the sentinel it classifies as.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrInvalidPayload)
}

// NewValidationError classifies an input problem under one of the validation sentinels.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
