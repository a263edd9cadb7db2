package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/dukex/flowmeta/pkg/persistence/file"
	"github.com/dukex/flowmeta/pkg/services"
	"github.com/dukex/flowmeta/pkg/testutil"
	"github.com/dukex/flowmeta/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := file.NewPersistence(t.TempDir())
	store := persistence.NewAccessor(p)

	handlers := web.NewAPIHandlers(
		services.NewDashboard(store, logger),
		services.NewRichRuns(store, nil, logger, nil),
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New()

	d := app.Group("/dashboard/flows")
	d.Get("/", handlers.GetLatestRuns)
	d.Get("/:flow_id/count", handlers.GetWeeklyActivity)
	d.Get("/:flow_id/recent", handlers.GetRecentRun)
	d.Get("/:flow_id/last", handlers.GetLastRuns)
	d.Get("/:flow_id/runs/:run_number", handlers.GetRunSummary)
	d.Get("/:flow_id/:timestamp", handlers.GetRunsSince)

	r := app.Group("/rich/flows")
	r.Get("/:flow_id/runs", handlers.ListRichRuns)
	r.Get("/:flow_id/runs/since/:since_ts", handlers.GetRichRunsSince)
	r.Get("/:flow_id/runs/:run_number", handlers.GetRichRun)
	r.Post("/:flow_id/run/:run_number", handlers.UpsertRichRun)

	app.Get("/health", handlers.HealthCheck)

	ctx := context.Background()
	testutil.SeedFlow(ctx, t, p,
		&models.Flow{FlowID: "F1", TsEpoch: 10},
		testutil.CreateTestRun("F1", 1),
		testutil.CreateTestRun("F1", 2),
	)
	testutil.SeedRichRuns(ctx, t, p,
		testutil.CreateTestRichRunRow("F1", 1, true),
		testutil.CreateTestRichRunRow("F1", 2, false),
	)

	return app, p
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func TestAPIHandlers_GetRecentRun(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/recent", "")
	require.Equal(t, http.StatusOK, status)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(body, &summary))

	assert.InDelta(t, 2, summary["run_id"], 0)
	assert.Equal(t, false, summary["success"])
	assert.Equal(t, true, summary["finished"])
	assert.InDelta(t, 2000, summary["created_at"], 0)
	assert.Equal(t, "F1", summary["flow"])
	assert.Equal(t, "alice", summary["user"])
	assert.Contains(t, summary, "finished_at")
}

func TestAPIHandlers_GetLastRuns(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/last", "")
	require.Equal(t, http.StatusOK, status)

	var summaries []models.RunSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1), summaries[0].RunID)
	assert.Equal(t, int64(2), summaries[1].RunID)
}

func TestAPIHandlers_GetLatestRuns(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows", "")
	require.Equal(t, http.StatusOK, status)

	var summaries []models.RunSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].RunID)

	_, again := doRequest(t, app, http.MethodGet, "/dashboard/flows", "")
	assert.Equal(t, body, again)
}

func TestAPIHandlers_GetWeeklyActivity(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows/all/count", "")
	require.Equal(t, http.StatusOK, status)

	var counts []models.DailyCount
	require.NoError(t, json.Unmarshal(body, &counts))
	require.Len(t, counts, 7)
	assert.Equal(t, 2, counts[0].Count)
}

func TestAPIHandlers_GetRunsSince(t *testing.T) {
	app, _ := setupTestApp(t)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedRuns   int
	}{
		{"all flows", "/dashboard/flows/all/0", http.StatusOK, 2},
		{"one flow", "/dashboard/flows/F1/0", http.StatusOK, 2},
		{"future", "/dashboard/flows/F1/9999999999999", http.StatusOK, 0},
		{"non numeric", "/dashboard/flows/F1/yesterday", http.StatusBadRequest, -1},
		{"negative", "/dashboard/flows/F1/-5", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodGet, tt.target, "")
			require.Equal(t, tt.expectedStatus, status)

			if tt.expectedRuns < 0 {
				assert.Contains(t, string(body), "validation_error")

				return
			}

			var summaries []models.RunSummary
			require.NoError(t, json.Unmarshal(body, &summaries))
			assert.Len(t, summaries, tt.expectedRuns)
		})
	}
}

func TestAPIHandlers_GetRunSummary(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/runs/1", "")
	require.Equal(t, http.StatusOK, status)

	var summary models.RunSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, int64(1), summary.RunID)
	assert.True(t, *summary.Success)

	status, body = doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/runs/42", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "not_found")

	status, _ = doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/runs/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/dashboard/flows/F1/runs/-1", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_RecentRunWithoutRuns(t *testing.T) {
	app, p := setupTestApp(t)
	testutil.SeedFlow(context.Background(), t, p, &models.Flow{FlowID: "empty"})

	status, body := doRequest(t, app, http.MethodGet, "/dashboard/flows/empty/recent", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), services.ErrNoRuns.Error())
}

func TestAPIHandlers_RichRuns(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/rich/flows/F1/runs", "")
	require.Equal(t, http.StatusOK, status)

	var richRuns []models.RichRun
	require.NoError(t, json.Unmarshal(body, &richRuns))
	require.Len(t, richRuns, 2)

	status, body = doRequest(t, app, http.MethodGet, "/rich/flows/F1/runs/2", "")
	require.Equal(t, http.StatusOK, status)

	var richRun models.RichRun
	require.NoError(t, json.Unmarshal(body, &richRun))
	assert.False(t, *richRun.Success)

	status, body = doRequest(t, app, http.MethodGet, "/rich/flows/F1/runs/since/0", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &richRuns))
	assert.Len(t, richRuns, 2)

	status, _ = doRequest(t, app, http.MethodGet, "/rich/flows/F1/runs/7", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_UpsertRichRun(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           string
		expectedStatus int
		validateResult func(t *testing.T, richRun models.RichRun)
	}{
		{
			name:           "full body",
			target:         "/rich/flows/F1/run/1",
			body:           `{"success": false, "finished": true, "finished_at": 5000, "execution_length": 4000}`,
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, richRun models.RichRun) {
				t.Helper()
				assert.False(t, *richRun.Success)
				assert.True(t, richRun.Finished)
				assert.Equal(t, int64(5000), *richRun.FinishedAt)
				assert.Equal(t, int64(4000), *richRun.ExecutionLength)
			},
		},
		{
			name:           "empty body",
			target:         "/rich/flows/F1/run/2",
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, richRun models.RichRun) {
				t.Helper()
				assert.Nil(t, richRun.Success)
				assert.False(t, richRun.Finished)
				assert.Nil(t, richRun.FinishedAt)
			},
		},
		{
			name:           "unknown fields ignored",
			target:         "/rich/flows/F1/run/2",
			body:           `{"success": true, "comment": "retry"}`,
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, richRun models.RichRun) {
				t.Helper()
				assert.True(t, *richRun.Success)
			},
		},
		{
			name:           "wrong field type",
			target:         "/rich/flows/F1/run/1",
			body:           `{"success": "yes"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			target:         "/rich/flows/F1/run/1",
			body:           `{"success": tru`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown run",
			target:         "/rich/flows/F1/run/9",
			body:           `{"success": true}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "non numeric run number",
			target:         "/rich/flows/F1/run/first",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)

			status, body := doRequest(t, app, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if tt.validateResult == nil {
				return
			}

			var richRun models.RichRun
			require.NoError(t, json.Unmarshal(body, &richRun))
			tt.validateResult(t, richRun)
		})
	}
}

func TestAPIHandlers_UpsertKeepsCreationTime(t *testing.T) {
	app, p := setupTestApp(t)

	before, err := p.RichRunRepository().GetByKey(context.Background(), "F1", 1)
	require.NoError(t, err)

	status, body := doRequest(t, app, http.MethodPost, "/rich/flows/F1/run/1", `{"finished": true, "success": false}`)
	require.Equal(t, http.StatusCreated, status)

	var richRun models.RichRun
	require.NoError(t, json.Unmarshal(body, &richRun))
	assert.Equal(t, before.TsEpoch, richRun.TsEpoch)
	assert.False(t, *richRun.Success)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"healthy"`)
}
