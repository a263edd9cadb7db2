// Package redis provides a Redis persistence implementation for flows, runs and rich runs.
//
// Records are stored as JSON strings and indexed by sorted sets:
//
//	flowmeta:flows                       zset  flow_id      scored by ts_epoch
//	flowmeta:flow:<flow_id>              json  models.Flow
//	flowmeta:runs:<flow_id>              zset  run_number   scored by run_number
//	flowmeta:run:<flow_id>:<n>           json  models.Run
//	flowmeta:rich_runs:<flow_id>         zset  run_number   scored by ts_epoch
//	flowmeta:rich_run:<flow_id>:<n>      json  models.RichRun
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukex/flowmeta/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "flowmeta:"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client      *goredis.Client
	logger      *slog.Logger
	flowRepo    *FlowRepository
	runRepo     *RunRepository
	richRunRepo *RichRunRepository
}

// NewPersistence connects to the Redis server at redisURL (redis://host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceFromClient(logger, client), nil
}

// NewPersistenceFromClient builds the persistence layer over an existing client.
func NewPersistenceFromClient(logger *slog.Logger, client *goredis.Client) *Persistence {
	runRepo := NewRunRepository(client)

	return &Persistence{
		client:      client,
		logger:      logger,
		flowRepo:    NewFlowRepository(client),
		runRepo:     runRepo,
		richRunRepo: NewRichRunRepository(client, logger),
	}
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) FlowRepository() persistence.FlowRepository {
	return p.flowRepo
}

func (p *Persistence) RunRepository() persistence.RunRepository {
	return p.runRepo
}

func (p *Persistence) RichRunRepository() persistence.RichRunRepository {
	return p.richRunRepo
}

func flowsKey() string {
	return keyPrefix + "flows"
}

func flowKey(flowID string) string {
	return keyPrefix + "flow:" + flowID
}

func runsKey(flowID string) string {
	return keyPrefix + "runs:" + flowID
}

func runKey(flowID string, runNumber int64) string {
	return keyPrefix + "run:" + flowID + ":" + strconv.FormatInt(runNumber, 10)
}

func richRunsKey(flowID string) string {
	return keyPrefix + "rich_runs:" + flowID
}

func richRunKey(flowID string, runNumber int64) string {
	return keyPrefix + "rich_run:" + flowID + ":" + strconv.FormatInt(runNumber, 10)
}

// getJSON loads one record. A missing key yields (nil, nil).
func getJSON[T any](ctx context.Context, cmd goredis.Cmdable, key string) (*T, error) {
	body, err := cmd.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return &record, nil
}

// mgetJSON loads the records stored at keys, skipping keys that vanished.
func mgetJSON[T any](ctx context.Context, cmd goredis.Cmdable, keys []string) ([]*T, error) {
	records := make([]*T, 0, len(keys))
	if len(keys) == 0 {
		return records, nil
	}

	values, err := cmd.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var record T

		err := json.Unmarshal([]byte(raw), &record)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}

		records = append(records, &record)
	}

	return records, nil
}
