// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"testing"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestFlow creates a test Flow with default values that can be overridden.
func CreateTestFlow(overrides ...func(*models.Flow)) *models.Flow {
	flow := &models.Flow{
		FlowID:   "flow-" + uuid.New().String()[:8],
		UserName: "alice",
		TsEpoch:  1000,
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// CreateTestRun creates a run of flowID whose creation time is runNumber*1000.
func CreateTestRun(flowID string, runNumber int64, overrides ...func(*models.Run)) *models.Run {
	run := &models.Run{
		FlowID:    flowID,
		RunNumber: runNumber,
		UserName:  "alice",
		TsEpoch:   runNumber * 1000,
	}

	for _, override := range overrides {
		override(run)
	}

	return run
}

// CreateTestRichRunRow creates a finished outcome for a run.
func CreateTestRichRunRow(flowID string, runNumber int64, success bool) *models.RichRunRow {
	finished := true

	return &models.RichRunRow{
		FlowID:    flowID,
		RunNumber: runNumber,
		Success:   &success,
		Finished:  &finished,
	}
}

// WithUser sets the user that started the run.
func WithUser(userName string) func(*models.Run) {
	return func(r *models.Run) {
		r.UserName = userName
	}
}

// WithTsEpoch sets the creation time of the run.
func WithTsEpoch(tsEpoch int64) func(*models.Run) {
	return func(r *models.Run) {
		r.TsEpoch = tsEpoch
	}
}

// SeedFlow saves a flow and one run per run number.
func SeedFlow(ctx context.Context, t *testing.T, p persistence.Persistence, flow *models.Flow, runs ...*models.Run) {
	t.Helper()

	require.NoError(t, p.FlowRepository().Save(ctx, flow))

	for _, run := range runs {
		require.NoError(t, p.RunRepository().Save(ctx, run))
	}
}

// SeedRichRuns upserts the given rows.
func SeedRichRuns(ctx context.Context, t *testing.T, p persistence.Persistence, rows ...*models.RichRunRow) {
	t.Helper()

	for _, row := range rows {
		_, err := p.RichRunRepository().Upsert(ctx, row)
		require.NoError(t, err)
	}
}
