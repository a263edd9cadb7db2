package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/dukex/flowmeta/pkg/persistence/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) (*redis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redis.NewPersistence(ctx, logger, "redis://"+endpoint+"/0")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		require.NoError(t, testcontainers.TerminateContainer(container))
		cancel()
	})

	return p, ctx
}

func TestRedisPersistence(t *testing.T) {
	p, ctx := setupTestRedis(t)

	require.NoError(t, p.HealthCheck(ctx))

	t.Run("flows are ordered by creation time", func(t *testing.T) {
		require.NoError(t, p.FlowRepository().Save(ctx, &models.Flow{FlowID: "F2", UserName: "bob", TsEpoch: 200}))
		require.NoError(t, p.FlowRepository().Save(ctx, &models.Flow{FlowID: "F1", UserName: "alice", TsEpoch: 100}))

		flows, err := p.FlowRepository().GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, flows, 2)
		assert.Equal(t, "F1", flows[0].FlowID)
		assert.Equal(t, "F2", flows[1].FlowID)
	})

	t.Run("runs are ordered by run number", func(t *testing.T) {
		for _, n := range []int64{10, 2, 1} {
			require.NoError(t, p.RunRepository().Save(ctx, &models.Run{FlowID: "F1", RunNumber: n, TsEpoch: n * 1000}))
		}

		runs, err := p.RunRepository().GetAllByFlow(ctx, "F1")
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, []int64{1, 2, 10}, []int64{runs[0].RunNumber, runs[1].RunNumber, runs[2].RunNumber})

		err = p.RunRepository().Save(ctx, &models.Run{FlowID: "missing", RunNumber: 1})
		assert.True(t, persistence.IsFlowNotFound(err))

		_, err = p.RunRepository().GetByKey(ctx, "F1", 99)
		assert.True(t, persistence.IsRunNotFound(err))
	})

	t.Run("upsert preserves creation time", func(t *testing.T) {
		success := true
		finished := true

		created, err := p.RichRunRepository().Upsert(ctx, &models.RichRunRow{FlowID: "F1", RunNumber: 1})
		require.NoError(t, err)
		assert.Nil(t, created.Success)
		assert.False(t, created.Finished)

		updated, err := p.RichRunRepository().Upsert(ctx, &models.RichRunRow{
			FlowID: "F1", RunNumber: 1, Success: &success, Finished: &finished,
		})
		require.NoError(t, err)
		assert.Equal(t, created.TsEpoch, updated.TsEpoch)
		require.NotNil(t, updated.Success)
		assert.True(t, *updated.Success)
		assert.True(t, updated.Finished)

		stored, err := p.RichRunRepository().GetByKey(ctx, "F1", 1)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)

		_, err = p.RichRunRepository().Upsert(ctx, &models.RichRunRow{FlowID: "F1", RunNumber: 42})
		assert.True(t, persistence.IsRunNotFound(err))
	})

	t.Run("since filters by creation time", func(t *testing.T) {
		first, err := p.RichRunRepository().GetByKey(ctx, "F1", 1)
		require.NoError(t, err)

		_, err = p.RichRunRepository().Upsert(ctx, &models.RichRunRow{FlowID: "F1", RunNumber: 2})
		require.NoError(t, err)

		since, err := p.RichRunRepository().GetSince(ctx, "F1", first.TsEpoch)
		require.NoError(t, err)
		require.Len(t, since, 2)
		assert.Equal(t, int64(1), since[0].RunNumber)

		none, err := p.RichRunRepository().GetSince(ctx, "F1", time.Now().Add(time.Hour).UnixMilli())
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := p.RichRunRepository().GetAllByFlow(ctx, "F1")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
