package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/otelhelper"
	"github.com/dukex/flowmeta/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLastRuns is the number of runs returned by LastRuns from the HTTP layer.
const DefaultLastRuns = 5

// Dashboard joins flows, runs and rich runs into run summaries.
//
// Accessor calls are made one after another. The first call that does not
// succeed ends the operation and its envelope is returned as is; otherwise the
// result carries the status code of the last call made.
type Dashboard struct {
	store    Store
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	location *time.Location
}

type DashboardOption func(*Dashboard)

// WithClock overrides the clock used for the activity window.
func WithClock(now func() time.Time) DashboardOption {
	return func(d *Dashboard) {
		d.now = now
	}
}

// WithLocation sets the time zone in which activity is bucketed by day.
func WithLocation(location *time.Location) DashboardOption {
	return func(d *Dashboard) {
		if location != nil {
			d.location = location
		}
	}
}

func WithTracer(tracer trace.Tracer) DashboardOption {
	return func(d *Dashboard) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// NewDashboard creates a dashboard service.
func NewDashboard(store Store, logger *slog.Logger, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		store:    store,
		logger:   logger.With("module", "dashboard"),
		tracer:   otelhelper.NewNoopTracer(),
		now:      time.Now,
		location: time.Local,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// HealthCheck checks the health of the persistence layer.
func (d *Dashboard) HealthCheck(ctx context.Context) (string, bool) {
	if d.store == nil {
		return "Persistence layer not initialized", false
	}

	err := d.store.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// LatestRuns returns the summary of the last run of every flow, in flow listing order.
// Flows without runs are left out.
func (d *Dashboard) LatestRuns(ctx context.Context) (result persistence.Envelope[[]models.RunSummary]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.latest_runs")
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	flows := d.store.GetAllFlows(ctx)
	if !flows.OK() {
		return persistence.Forward[[]models.RunSummary](flows)
	}

	span.SetAttributes(attribute.Int(otelhelper.FlowCountKey, len(flows.Body)))

	status := flows.StatusCode
	summaries := make([]models.RunSummary, 0, len(flows.Body))

	for _, flow := range flows.Body {
		runs := d.store.GetAllRuns(ctx, flow.FlowID)
		if !runs.OK() {
			return persistence.Forward[[]models.RunSummary](runs)
		}

		status = runs.StatusCode

		if len(runs.Body) == 0 {
			d.logger.DebugContext(ctx, "Skipping flow without runs", "flow_id", flow.FlowID)

			continue
		}

		summary := d.join(ctx, flow.FlowID, runs.Body[len(runs.Body)-1])
		if !summary.OK() {
			return persistence.Forward[[]models.RunSummary](summary)
		}

		status = summary.StatusCode
		summaries = append(summaries, summary.Body)
	}

	return persistence.Respond(status, summaries)
}

// RunSummary returns the summary of one run. Either record missing yields a 404.
func (d *Dashboard) RunSummary(ctx context.Context, flowID string, runNumber int64) (result persistence.Envelope[models.RunSummary]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.run_summary",
		attribute.String(otelhelper.FlowIDKey, flowID),
		attribute.Int64(otelhelper.RunNumberKey, runNumber),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	richRun := d.store.GetRichRun(ctx, flowID, runNumber)
	if !richRun.OK() {
		return persistence.Forward[models.RunSummary](richRun)
	}

	run := d.store.GetRun(ctx, flowID, runNumber)
	if !run.OK() {
		return persistence.Forward[models.RunSummary](run)
	}

	return persistence.Respond(run.StatusCode, models.NewRunSummary(flowID, run.Body, richRun.Body))
}

// RecentRun returns the summary of the last run of a flow.
func (d *Dashboard) RecentRun(ctx context.Context, flowID string) (result persistence.Envelope[models.RunSummary]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.recent_run",
		attribute.String(otelhelper.FlowIDKey, flowID),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	runs := d.store.GetAllRuns(ctx, flowID)
	if !runs.OK() {
		return persistence.Forward[models.RunSummary](runs)
	}

	if len(runs.Body) == 0 {
		return persistence.Envelope[models.RunSummary]{
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("flow %s: %w", flowID, ErrNoRuns),
		}
	}

	return d.join(ctx, flowID, runs.Body[len(runs.Body)-1])
}

// LastRuns returns the summaries of the last n runs of a flow, oldest first.
func (d *Dashboard) LastRuns(ctx context.Context, flowID string, n int) (result persistence.Envelope[[]models.RunSummary]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.last_runs",
		attribute.String(otelhelper.FlowIDKey, flowID),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	runs := d.store.GetAllRuns(ctx, flowID)
	if !runs.OK() {
		return persistence.Forward[[]models.RunSummary](runs)
	}

	tail := runs.Body[max(len(runs.Body)-max(n, 0), 0):]
	status := runs.StatusCode
	summaries := make([]models.RunSummary, 0, len(tail))

	for _, run := range tail {
		summary := d.join(ctx, flowID, run)
		if !summary.OK() {
			return persistence.Forward[[]models.RunSummary](summary)
		}

		status = summary.StatusCode
		summaries = append(summaries, summary.Body)
	}

	span.SetAttributes(attribute.Int(otelhelper.ResultSizeKey, len(summaries)))

	return persistence.Respond(status, summaries)
}

// RunsSince returns the summaries of every rich run created at or after since
// (epoch millis), flow by flow and oldest first within a flow. flowID may be
// models.AllFlows.
func (d *Dashboard) RunsSince(ctx context.Context, flowID string, since int64) (result persistence.Envelope[[]models.RunSummary]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.runs_since",
		attribute.String(otelhelper.FlowIDKey, flowID),
		attribute.Int64(otelhelper.SinceKey, since),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	if since < 0 {
		return persistence.Envelope[[]models.RunSummary]{
			StatusCode: http.StatusBadRequest,
			Err:        NewValidationError("RunsSince", fmt.Sprintf("%d is before the epoch", since), ErrInvalidTimestamp),
		}
	}

	flows := d.resolveFlows(ctx, flowID)
	if !flows.OK() {
		return persistence.Forward[[]models.RunSummary](flows)
	}

	status := flows.StatusCode
	summaries := make([]models.RunSummary, 0)

	for _, id := range flows.Body {
		richRuns := d.store.GetRichRunSince(ctx, id, since)
		if !richRuns.OK() {
			return persistence.Forward[[]models.RunSummary](richRuns)
		}

		status = richRuns.StatusCode

		for _, richRun := range richRuns.Body {
			run := d.store.GetRun(ctx, id, richRun.RunNumber)
			if !run.OK() {
				return persistence.Forward[[]models.RunSummary](run)
			}

			status = run.StatusCode
			summaries = append(summaries, models.NewRunSummary(id, run.Body, richRun))
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.ResultSizeKey, len(summaries)))

	return persistence.Respond(status, summaries)
}

// join pairs a run with its rich run.
func (d *Dashboard) join(ctx context.Context, flowID string, run *models.Run) persistence.Envelope[models.RunSummary] {
	richRun := d.store.GetRichRun(ctx, run.FlowID, run.RunNumber)
	if !richRun.OK() {
		return persistence.Forward[models.RunSummary](richRun)
	}

	return persistence.Respond(richRun.StatusCode, models.NewRunSummary(flowID, run, richRun.Body))
}

// resolveFlows expands models.AllFlows to every known flow id in listing order.
// Any other value is taken as a single flow id without a lookup, with status 200.
func (d *Dashboard) resolveFlows(ctx context.Context, flowID string) persistence.Envelope[[]string] {
	if flowID != models.AllFlows {
		return persistence.Respond(http.StatusOK, []string{flowID})
	}

	flows := d.store.GetAllFlows(ctx)
	if !flows.OK() {
		return persistence.Forward[[]string](flows)
	}

	ids := make([]string, len(flows.Body))
	for i, flow := range flows.Body {
		ids[i] = flow.FlowID
	}

	return persistence.Respond(flows.StatusCode, ids)
}
