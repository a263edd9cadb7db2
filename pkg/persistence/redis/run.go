package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// RunRepository handles run records in Redis.
type RunRepository struct {
	client *goredis.Client
}

func NewRunRepository(client *goredis.Client) *RunRepository {
	return &RunRepository{client: client}
}

// GetAllByFlow returns the runs of a flow ordered by run number.
func (rr *RunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.Run, error) {
	members, err := rr.client.ZRange(ctx, runsKey(flowID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs of flow %s: %w", flowID, err)
	}

	keys, err := memberKeys(flowID, members, runKey)
	if err != nil {
		return nil, err
	}

	return mgetJSON[models.Run](ctx, rr.client, keys)
}

func (rr *RunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.Run, error) {
	run, err := getJSON[models.Run](ctx, rr.client, runKey(flowID, runNumber))
	if err != nil {
		return nil, err
	}

	if run == nil {
		return nil, persistence.NewRunError("GetByKey", flowID, runNumber, persistence.ErrRunNotFound)
	}

	return run, nil
}

// Save writes a run. The flow must exist.
func (rr *RunRepository) Save(ctx context.Context, run *models.Run) error {
	if run.FlowID == "" || run.RunNumber < 0 {
		return persistence.NewRunError("Save", run.FlowID, run.RunNumber, persistence.ErrInvalidRecord)
	}

	exists, err := rr.client.Exists(ctx, flowKey(run.FlowID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check flow %s: %w", run.FlowID, err)
	}

	if exists == 0 {
		return persistence.NewFlowError("Save", run.FlowID, persistence.ErrFlowNotFound)
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = rr.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, runKey(run.FlowID, run.RunNumber), data, 0)
		pipe.ZAdd(ctx, runsKey(run.FlowID), goredis.Z{
			Score:  float64(run.RunNumber),
			Member: strconv.FormatInt(run.RunNumber, 10),
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// memberKeys turns run-number members of an index into record keys.
func memberKeys(flowID string, members []string, key func(string, int64) string) ([]string, error) {
	keys := make([]string, len(members))

	for i, member := range members {
		runNumber, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt run index entry %q for flow %s: %w", member, flowID, err)
		}

		keys[i] = key(flowID, runNumber)
	}

	return keys, nil
}
