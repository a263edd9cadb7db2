package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/otelhelper"
	"github.com/dukex/flowmeta/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

const activityDays = 7

// windowStart is the start of the oldest bucketed day, in epoch millis.
func windowStart(now time.Time) int64 {
	year, month, day := now.Date()

	return time.Date(year, month, day-(activityDays-1), 0, 0, 0, 0, now.Location()).UnixMilli()
}

// bucketKey formats a day as "<month>/<day>" without zero padding.
func bucketKey(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// WeeklyActivity counts rich runs created per day over the last seven days,
// today first. flowID may be models.AllFlows. Only records created since the
// start of the oldest day are fetched; a record dated after today is not counted.
func (d *Dashboard) WeeklyActivity(ctx context.Context, flowID string) (result persistence.Envelope[[]models.DailyCount]) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.weekly_activity",
		attribute.String(otelhelper.FlowIDKey, flowID),
	)
	defer func() { otelhelper.EndWithStatus(span, result.StatusCode, result.Err) }()

	now := d.now().In(d.location)

	buckets := make([]models.DailyCount, activityDays)
	index := make(map[string]int, activityDays)

	for i := range activityDays {
		key := bucketKey(now.AddDate(0, 0, -i))
		buckets[i] = models.DailyCount{Time: key}
		index[key] = i
	}

	flows := d.resolveFlows(ctx, flowID)
	if !flows.OK() {
		return persistence.Forward[[]models.DailyCount](flows)
	}

	status := flows.StatusCode
	threshold := windowStart(now)

	for _, id := range flows.Body {
		richRuns := d.store.GetRichRunSince(ctx, id, threshold)
		if !richRuns.OK() {
			return persistence.Forward[[]models.DailyCount](richRuns)
		}

		status = richRuns.StatusCode

		for _, richRun := range richRuns.Body {
			key := bucketKey(time.UnixMilli(richRun.TsEpoch).In(d.location))

			i, ok := index[key]
			if !ok {
				d.logger.WarnContext(ctx, "Rich run outside the activity window",
					"flow_id", id,
					"run_number", richRun.RunNumber,
					"ts_epoch", richRun.TsEpoch,
					"day", key,
				)

				continue
			}

			buckets[i].Count++
		}
	}

	return persistence.Respond(status, buckets)
}
