// Package main provides the Flowmeta API server.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/flowmeta/pkg/eventbus"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/dukex/flowmeta/pkg/services"
	"github.com/dukex/flowmeta/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	location    *time.Location
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(*API)

func WithLocation(location *time.Location) Option {
	return func(a *API) {
		a.location = location
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *API) {
		a.tracer = tracer
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	opts ...Option,
) *API {
	a := &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		location:    time.Local,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *API) App() *fiber.App {
	store := persistence.NewAccessor(a.persistence)

	dashboard := services.NewDashboard(store, a.logger,
		services.WithLocation(a.location),
		services.WithTracer(a.tracer),
		services.WithClock(a.now),
	)

	var publisher eventbus.EventPublisher
	if a.eventBus != nil {
		publisher = a.eventBus
	}

	richRuns := services.NewRichRuns(store, publisher, a.logger, a.tracer)

	handlers := web.NewAPIHandlers(dashboard, richRuns, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowmeta API")
	})

	// Fixed segments are registered before the /:flow_id/:timestamp catch-all.
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

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
