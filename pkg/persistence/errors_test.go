package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		runErr := persistence.NewRunError("GetByKey", "F1", 2, persistence.ErrRunNotFound)
		flowErr := persistence.NewFlowError("Save", "F1", persistence.ErrFlowNotFound)

		assert.True(t, persistence.IsRunNotFound(runErr))
		assert.True(t, persistence.IsFlowNotFound(flowErr))
		assert.False(t, persistence.IsRichRunNotFound(runErr))
		assert.True(t, persistence.IsNotFound(runErr))
		assert.True(t, errors.Is(runErr, persistence.ErrRunNotFound))
	})

	t.Run("run error contains context", func(t *testing.T) {
		err := persistence.NewRunError("Upsert", "F1", 7, persistence.ErrRunNotFound)

		assert.Contains(t, err.Error(), "Upsert")
		assert.Contains(t, err.Error(), "F1/7")
		assert.Contains(t, err.Error(), "run not found")
	})

	t.Run("wrapped errors are still detected", func(t *testing.T) {
		err := fmt.Errorf("accessor: %w", persistence.NewRunError("GetByKey", "F1", 1, persistence.ErrRichRunNotFound))

		assert.True(t, persistence.IsRichRunNotFound(err))
	})
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"flow not found", persistence.ErrFlowNotFound, http.StatusNotFound},
		{"run not found", persistence.NewRunError("GetByKey", "F1", 1, persistence.ErrRunNotFound), http.StatusNotFound},
		{"rich run not found", persistence.ErrRichRunNotFound, http.StatusNotFound},
		{"invalid record", persistence.ErrInvalidRecord, http.StatusBadRequest},
		{"canceled", context.Canceled, http.StatusServiceUnavailable},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, persistence.StatusCode(tt.err))
		})
	}
}

func TestEnvelope(t *testing.T) {
	t.Parallel()

	ok := persistence.Wrap("body", nil, http.StatusCreated)
	assert.True(t, ok.OK())
	assert.Equal(t, http.StatusCreated, ok.StatusCode)
	assert.Equal(t, "body", ok.Body)

	failed := persistence.Wrap("", persistence.ErrRunNotFound, http.StatusOK)
	assert.False(t, failed.OK())
	assert.Equal(t, http.StatusNotFound, failed.StatusCode)

	forwarded := persistence.Forward[int](failed)
	assert.Equal(t, http.StatusNotFound, forwarded.StatusCode)
	assert.ErrorIs(t, forwarded.Err, persistence.ErrRunNotFound)
}
