package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// FlowRepository handles flow records in Redis.
type FlowRepository struct {
	client *goredis.Client
}

func NewFlowRepository(client *goredis.Client) *FlowRepository {
	return &FlowRepository{client: client}
}

// GetAll returns every flow ordered by creation time, then flow id.
func (fr *FlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	flowIDs, err := fr.client.ZRange(ctx, flowsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	keys := make([]string, len(flowIDs))
	for i, flowID := range flowIDs {
		keys[i] = flowKey(flowID)
	}

	return mgetJSON[models.Flow](ctx, fr.client, keys)
}

func (fr *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	if flow.FlowID == "" {
		return persistence.NewFlowError("Save", flow.FlowID, persistence.ErrInvalidRecord)
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	_, err = fr.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, flowKey(flow.FlowID), data, 0)
		pipe.ZAdd(ctx, flowsKey(), goredis.Z{Score: float64(flow.TsEpoch), Member: flow.FlowID})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}

	return nil
}
