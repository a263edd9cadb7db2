package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// maxUpsertAttempts bounds optimistic-lock retries when the rich run key
// changes between WATCH and EXEC.
const maxUpsertAttempts = 5

// RichRunRepository handles rich run records in Redis.
type RichRunRepository struct {
	client *goredis.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewRichRunRepository(client *goredis.Client, logger *slog.Logger) *RichRunRepository {
	return &RichRunRepository{client: client, logger: logger, now: time.Now}
}

// GetAllByFlow returns the rich runs of a flow ordered by run number.
func (rrr *RichRunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.RichRun, error) {
	richRuns, err := rrr.load(ctx, flowID, "-inf")
	if err != nil {
		return nil, err
	}

	sort.Slice(richRuns, func(i, j int) bool {
		return richRuns[i].RunNumber < richRuns[j].RunNumber
	})

	return richRuns, nil
}

func (rrr *RichRunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.RichRun, error) {
	richRun, err := getJSON[models.RichRun](ctx, rrr.client, richRunKey(flowID, runNumber))
	if err != nil {
		return nil, err
	}

	if richRun == nil {
		return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRichRunNotFound)
	}

	return richRun, nil
}

// GetSince returns the rich runs of a flow created at or after since, oldest first.
func (rrr *RichRunRepository) GetSince(ctx context.Context, flowID string, since int64) ([]*models.RichRun, error) {
	richRuns, err := rrr.load(ctx, flowID, strconv.FormatInt(since, 10))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(richRuns, func(i, j int) bool {
		if richRuns[i].TsEpoch != richRuns[j].TsEpoch {
			return richRuns[i].TsEpoch < richRuns[j].TsEpoch
		}

		return richRuns[i].RunNumber < richRuns[j].RunNumber
	})

	return richRuns, nil
}

// Upsert creates or updates the rich run of an existing run inside a WATCH
// transaction so the creation time of an existing record is preserved.
func (rrr *RichRunRepository) Upsert(ctx context.Context, row *models.RichRunRow) (*models.RichRun, error) {
	exists, err := rrr.client.Exists(ctx, runKey(row.FlowID, row.RunNumber)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check run: %w", err)
	}

	if exists == 0 {
		return nil, persistence.NewRunError("Upsert", row.FlowID, row.RunNumber, persistence.ErrRunNotFound)
	}

	key := richRunKey(row.FlowID, row.RunNumber)

	var richRun *models.RichRun

	upsert := func(tx *goredis.Tx) error {
		existing, err := getJSON[models.RichRun](ctx, tx, key)
		if err != nil {
			return err
		}

		richRun = row.Apply(existing, rrr.now().UnixMilli())

		data, err := json.Marshal(richRun)
		if err != nil {
			return fmt.Errorf("failed to marshal rich run: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, richRunsKey(row.FlowID), goredis.Z{
				Score:  float64(richRun.TsEpoch),
				Member: strconv.FormatInt(row.RunNumber, 10),
			})

			return nil
		})

		return err
	}

	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		err = rrr.client.Watch(ctx, upsert, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}

		rrr.logger.DebugContext(ctx, "Rich run changed during upsert, retrying",
			"flow_id", row.FlowID, "run_number", row.RunNumber, "attempt", attempt)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to upsert rich run: %w", err)
	}

	return richRun, nil
}

func (rrr *RichRunRepository) load(ctx context.Context, flowID, minScore string) ([]*models.RichRun, error) {
	members, err := rrr.client.ZRangeByScore(ctx, richRunsKey(flowID), &goredis.ZRangeBy{
		Min: minScore,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rich runs of flow %s: %w", flowID, err)
	}

	keys, err := memberKeys(flowID, members, richRunKey)
	if err != nil {
		return nil, err
	}

	return mgetJSON[models.RichRun](ctx, rrr.client, keys)
}
