// Package web provides the HTTP handlers of the metadata API.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/dukex/flowmeta/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	richRuns  *services.RichRuns
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	dashboard *services.Dashboard,
	richRuns *services.RichRuns,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		richRuns:  richRuns,
		validator: validator,
		logger:    logger,
	}
}

// respond writes the body of a successful envelope with its status code, or a
// problem document for a failed one.
func respond[T any](c fiber.Ctx, logger *slog.Logger, result persistence.Envelope[T]) error {
	if !result.OK() {
		if result.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(c.Context(), "Request failed", "path", c.Path(), "status", result.StatusCode, "error", result.Err)
		}

		return failure(c, result.StatusCode, result.Err)
	}

	return c.Status(result.StatusCode).JSON(result.Body)
}

// runKey reads and validates the flow_id and run_number path parameters.
func (h *APIHandlers) runKey(c fiber.Ctx) (models.RunKey, error) {
	runNumber, err := strconv.ParseInt(c.Params("run_number"), 10, 64)
	if err != nil {
		return models.RunKey{}, err
	}

	key := models.RunKey{FlowID: c.Params("flow_id"), RunNumber: runNumber}

	err = h.validator.Struct(key)
	if err != nil {
		return models.RunKey{}, err
	}

	return key, nil
}

// parseTimestamp reads an epoch millisecond path parameter. Failures wrap
// services.ErrInvalidTimestamp.
func parseTimestamp(op, value string) (int64, error) {
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, services.NewValidationError(op, fmt.Sprintf("%q is not an epoch timestamp", value), services.ErrInvalidTimestamp)
	}

	if ts < 0 {
		return 0, services.NewValidationError(op, fmt.Sprintf("%d is before the epoch", ts), services.ErrInvalidTimestamp)
	}

	return ts, nil
}

func (h *APIHandlers) GetLatestRuns(c fiber.Ctx) error {
	return respond(c, h.logger, h.dashboard.LatestRuns(c.Context()))
}

func (h *APIHandlers) GetWeeklyActivity(c fiber.Ctx) error {
	return respond(c, h.logger, h.dashboard.WeeklyActivity(c.Context(), c.Params("flow_id")))
}

func (h *APIHandlers) GetRecentRun(c fiber.Ctx) error {
	return respond(c, h.logger, h.dashboard.RecentRun(c.Context(), c.Params("flow_id")))
}

func (h *APIHandlers) GetLastRuns(c fiber.Ctx) error {
	return respond(c, h.logger, h.dashboard.LastRuns(c.Context(), c.Params("flow_id"), services.DefaultLastRuns))
}

func (h *APIHandlers) GetRunSummary(c fiber.Ctx) error {
	key, err := h.runKey(c)
	if err != nil {
		return badRequest(c, "Invalid run number: "+err.Error())
	}

	return respond(c, h.logger, h.dashboard.RunSummary(c.Context(), key.FlowID, key.RunNumber))
}

func (h *APIHandlers) GetRunsSince(c fiber.Ctx) error {
	since, err := parseTimestamp("GetRunsSince", c.Params("timestamp"))
	if err != nil {
		return rejectInput(c, err)
	}

	return respond(c, h.logger, h.dashboard.RunsSince(c.Context(), c.Params("flow_id"), since))
}

func (h *APIHandlers) ListRichRuns(c fiber.Ctx) error {
	return respond(c, h.logger, h.richRuns.List(c.Context(), c.Params("flow_id")))
}

func (h *APIHandlers) GetRichRun(c fiber.Ctx) error {
	key, err := h.runKey(c)
	if err != nil {
		return badRequest(c, "Invalid run number: "+err.Error())
	}

	return respond(c, h.logger, h.richRuns.Get(c.Context(), key.FlowID, key.RunNumber))
}

func (h *APIHandlers) GetRichRunsSince(c fiber.Ctx) error {
	since, err := parseTimestamp("GetRichRunsSince", c.Params("since_ts"))
	if err != nil {
		return rejectInput(c, err)
	}

	return respond(c, h.logger, h.richRuns.Since(c.Context(), c.Params("flow_id"), since))
}

func (h *APIHandlers) UpsertRichRun(c fiber.Ctx) error {
	key, err := h.runKey(c)
	if err != nil {
		return badRequest(c, "Invalid run number: "+err.Error())
	}

	body := c.Body()

	err = validateRichRunBody(body)
	if err != nil {
		return rejectInput(c, err)
	}

	var req RichRunRequest

	if len(strings.TrimSpace(string(body))) > 0 {
		err = json.Unmarshal(body, &req)
		if err != nil {
			return rejectInput(c, services.NewValidationError("UpsertRichRun", err.Error(), services.ErrInvalidPayload))
		}
	}

	return respond(c, h.logger, h.richRuns.Upsert(c.Context(), req.ToRow(key.FlowID, key.RunNumber)))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.dashboard.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowmeta API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Flowmeta API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
	})
}
