package services

import (
	"context"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
)

// Store is the envelope-returning entity accessor the services are written against.
// persistence.Accessor implements it.
type Store interface {
	HealthCheck(ctx context.Context) error
	GetAllFlows(ctx context.Context) persistence.Envelope[[]*models.Flow]
	GetAllRuns(ctx context.Context, flowID string) persistence.Envelope[[]*models.Run]
	GetRun(ctx context.Context, flowID string, runNumber int64) persistence.Envelope[*models.Run]
	GetRichRun(ctx context.Context, flowID string, runNumber int64) persistence.Envelope[*models.RichRun]
	GetAllRichRuns(ctx context.Context, flowID string) persistence.Envelope[[]*models.RichRun]
	GetRichRunSince(ctx context.Context, flowID string, threshold int64) persistence.Envelope[[]*models.RichRun]
	AddRichRun(ctx context.Context, row *models.RichRunRow) persistence.Envelope[*models.RichRun]
}

var _ Store = (*persistence.Accessor)(nil)
