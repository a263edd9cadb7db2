package persistence

import (
	"context"
	"net/http"

	"github.com/dukex/flowmeta/pkg/models"
)

// Accessor exposes the repositories of a Persistence as envelope-returning
// entity accessors, the contract the aggregation services are written against.
type Accessor struct {
	persistence Persistence
}

// NewAccessor creates an accessor over the given persistence.
func NewAccessor(persistence Persistence) *Accessor {
	return &Accessor{persistence: persistence}
}

// HealthCheck checks the underlying persistence.
func (a *Accessor) HealthCheck(ctx context.Context) error {
	return a.persistence.HealthCheck(ctx)
}

func (a *Accessor) GetAllFlows(ctx context.Context) Envelope[[]*models.Flow] {
	flows, err := a.persistence.FlowRepository().GetAll(ctx)

	return Wrap(flows, err, http.StatusOK)
}

// GetAllRuns returns the runs of a flow ordered by run number ascending.
func (a *Accessor) GetAllRuns(ctx context.Context, flowID string) Envelope[[]*models.Run] {
	runs, err := a.persistence.RunRepository().GetAllByFlow(ctx, flowID)

	return Wrap(runs, err, http.StatusOK)
}

func (a *Accessor) GetRun(ctx context.Context, flowID string, runNumber int64) Envelope[*models.Run] {
	run, err := a.persistence.RunRepository().GetByKey(ctx, flowID, runNumber)

	return Wrap(run, err, http.StatusOK)
}

func (a *Accessor) GetRichRun(ctx context.Context, flowID string, runNumber int64) Envelope[*models.RichRun] {
	richRun, err := a.persistence.RichRunRepository().GetByKey(ctx, flowID, runNumber)

	return Wrap(richRun, err, http.StatusOK)
}

func (a *Accessor) GetAllRichRuns(ctx context.Context, flowID string) Envelope[[]*models.RichRun] {
	richRuns, err := a.persistence.RichRunRepository().GetAllByFlow(ctx, flowID)

	return Wrap(richRuns, err, http.StatusOK)
}

// GetRichRunSince returns the rich runs created at or after threshold (epoch millis).
func (a *Accessor) GetRichRunSince(ctx context.Context, flowID string, threshold int64) Envelope[[]*models.RichRun] {
	richRuns, err := a.persistence.RichRunRepository().GetSince(ctx, flowID, threshold)

	return Wrap(richRuns, err, http.StatusOK)
}

// AddRichRun upserts a rich run and reports 201 on success.
func (a *Accessor) AddRichRun(ctx context.Context, row *models.RichRunRow) Envelope[*models.RichRun] {
	richRun, err := a.persistence.RichRunRepository().Upsert(ctx, row)

	return Wrap(richRun, err, http.StatusCreated)
}
