package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	err := NewValidationError("RunsSince", "-1 is before the epoch", ErrInvalidTimestamp)

	assert.Equal(t, "RunsSince: invalid timestamp: -1 is before the epoch", err.Error())
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.NotErrorIs(t, err, ErrInvalidPayload)

	bare := &ServiceError{Op: "UpsertRichRun", Err: ErrInvalidPayload}
	assert.Equal(t, "UpsertRichRun: invalid rich run payload", bare.Error())
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"timestamp", NewValidationError("op", "", ErrInvalidTimestamp), true},
		{"payload wrapped twice", fmt.Errorf("handler: %w", NewValidationError("op", "", ErrInvalidPayload)), true},
		{"no runs", ErrNoRuns, false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidationError(tt.err))
		})
	}
}
