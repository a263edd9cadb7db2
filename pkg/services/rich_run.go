package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowmeta/pkg/eventbus"
	"github.com/dukex/flowmeta/pkg/events"
	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/otelhelper"
	"github.com/dukex/flowmeta/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RichRuns serves raw rich run records and records run outcomes.
type RichRuns struct {
	store     Store
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewRichRuns creates the rich run service. publisher may be nil, in which
// case upserts are not announced.
func NewRichRuns(store Store, publisher eventbus.EventPublisher, logger *slog.Logger, tracer trace.Tracer) *RichRuns {
	if tracer == nil {
		tracer = otelhelper.NewNoopTracer()
	}

	return &RichRuns{
		store:     store,
		publisher: publisher,
		logger:    logger.With("module", "rich_runs"),
		tracer:    tracer,
	}
}

func (r *RichRuns) List(ctx context.Context, flowID string) persistence.Envelope[[]*models.RichRun] {
	return r.store.GetAllRichRuns(ctx, flowID)
}

func (r *RichRuns) Get(ctx context.Context, flowID string, runNumber int64) persistence.Envelope[*models.RichRun] {
	return r.store.GetRichRun(ctx, flowID, runNumber)
}

// Since returns the rich runs of a flow created at or after since (epoch millis).
func (r *RichRuns) Since(ctx context.Context, flowID string, since int64) persistence.Envelope[[]*models.RichRun] {
	return r.store.GetRichRunSince(ctx, flowID, since)
}

// Upsert records the outcome of a run and publishes a rich_run.updated event.
// A failed publish is logged and does not fail the write.
func (r *RichRuns) Upsert(ctx context.Context, row *models.RichRunRow) (result persistence.Envelope[*models.RichRun]) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "rich_runs.upsert",
		attribute.String(otelhelper.FlowIDKey, row.FlowID),
		attribute.Int64(otelhelper.RunNumberKey, row.RunNumber),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	result = r.store.AddRichRun(ctx, row)
	if !result.OK() || r.publisher == nil {
		return result
	}

	richRun := result.Body
	event := &events.RichRunUpdated{
		BaseEvent:       events.NewBaseEvent(events.RichRunUpdatedEvent, richRun.FlowID),
		RunNumber:       richRun.RunNumber,
		Success:         richRun.Success,
		Finished:        richRun.Finished,
		FinishedAt:      richRun.FinishedAt,
		ExecutionLength: richRun.ExecutionLength,
		CreatedAt:       richRun.TsEpoch,
	}

	err := r.publisher.Publish(ctx, richRun.FlowID+":"+strconv.FormatInt(richRun.RunNumber, 10), event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish rich run update",
			"flow_id", richRun.FlowID,
			"run_number", richRun.RunNumber,
			"error", err,
		)
	}

	return result
}
