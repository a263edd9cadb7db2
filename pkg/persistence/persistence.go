// Package persistence provides the storage abstraction for flows, runs and rich runs.
package persistence

import (
	"context"

	"github.com/dukex/flowmeta/pkg/models"
)

// Persistence groups the repositories of a storage backend.
type Persistence interface {
	FlowRepository() FlowRepository
	RunRepository() RunRepository
	RichRunRepository() RichRunRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository reads flows. Flows are registered by the run-registration
// path; Save exists for that path and for seeding.
type FlowRepository interface {
	GetAll(ctx context.Context) ([]*models.Flow, error)
	Save(ctx context.Context, flow *models.Flow) error
}

// RunRepository reads runs. GetAllByFlow returns runs ordered by run number ascending.
type RunRepository interface {
	GetAllByFlow(ctx context.Context, flowID string) ([]*models.Run, error)
	GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.Run, error)
	Save(ctx context.Context, run *models.Run) error
}

// RichRunRepository reads and upserts rich runs.
type RichRunRepository interface {
	// GetAllByFlow returns rich runs ordered by run number ascending.
	GetAllByFlow(ctx context.Context, flowID string) ([]*models.RichRun, error)
	GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.RichRun, error)
	// GetSince returns rich runs with ts_epoch >= since (epoch millis), oldest first.
	GetSince(ctx context.Context, flowID string, since int64) ([]*models.RichRun, error)
	// Upsert creates or updates the rich run of an existing run. The creation
	// time of an existing rich run is preserved.
	Upsert(ctx context.Context, row *models.RichRunRow) (*models.RichRun, error)
}
