// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrRunNotFound indicates no run exists for the given flow and run number.
	ErrRunNotFound = errors.New("run not found")

	// ErrRichRunNotFound indicates no rich run exists for the given flow and run number.
	ErrRichRunNotFound = errors.New("rich run not found")

	// ErrInvalidRecord indicates a record failed validation before being written.
	ErrInvalidRecord = errors.New("invalid record")
)

// RunError wraps run and rich run errors with the key they were raised for.
type RunError struct {
	Op        string // Operation being performed (e.g., "GetByKey", "Upsert")
	FlowID    string
	RunNumber int64
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s/%d: %v", e.Op, e.FlowID, e.RunNumber, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for run errors.
func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, flowID string, runNumber int64, err error) *RunError {
	return &RunError{
		Op:        op,
		FlowID:    flowID,
		RunNumber: runNumber,
		Err:       err,
	}
}

// FlowError wraps flow-level errors.
type FlowError struct {
	Op     string
	FlowID string
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsRichRunNotFound checks if an error indicates a rich run was not found.
func IsRichRunNotFound(err error) bool {
	return errors.Is(err, ErrRichRunNotFound)
}

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	return IsFlowNotFound(err) || IsRunNotFound(err) || IsRichRunNotFound(err)
}

// IsInvalidRecord checks if an error indicates an invalid record.
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}
