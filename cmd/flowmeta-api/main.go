package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/flowmeta/pkg/cmd"
	"github.com/dukex/flowmeta/pkg/config"
	"github.com/dukex/flowmeta/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8083

func main() {
	app := &cli.Command{
		Name:                  "flowmeta-api",
		Usage:                 "Serve flow, run and rich run metadata",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with settings; flags that are set take precedence",
				Sources: cli.EnvVars("FLOWMETA_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (postgres://, redis:// or a directory)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers, used with --event-bus=kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "Time zone used to group activity by day",
				Value:   "Local",
				Sources: cli.EnvVars("TZ_NAME"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			settings, err := loadSettings(command)
			if err != nil {
				return err
			}

			log.Setup(settings.LogLevel)

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Flowmeta API")

			location, err := settings.Location()
			if err != nil {
				return err
			}

			tracer, shutdownTracer, err := cmd.NewTracer(ctx, settings.Tracing)
			if err != nil {
				return err
			}

			defer func() {
				err := shutdownTracer(context.WithoutCancel(ctx))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, settings.DatabaseURL)
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(settings.EventBus, settings.KafkaBrokers, logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				WithLocation(location),
				WithTracer(tracer),
			)

			err = api.Start(settings.Port)
			if err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("Flowmeta API failed", "error", err)
		os.Exit(1)
	}
}

// loadSettings merges the flags with the optional config file and validates the result.
func loadSettings(command *cli.Command) (config.APIConfig, error) {
	settings := config.APIConfig{
		Port:         int(command.Int("port")),
		DatabaseURL:  command.String("database-url"),
		EventBus:     command.String("event-bus"),
		KafkaBrokers: command.String("kafka-brokers"),
		Timezone:     command.String("timezone"),
		Tracing:      command.Bool("tracing"),
		LogLevel:     command.String("log-level"),
	}

	if path := command.String("config"); path != "" {
		file, err := config.LoadAPIConfig(path)
		if err != nil {
			return config.APIConfig{}, err
		}

		settings = settings.Overlay(file, command.IsSet)
	}

	err := settings.Validate()
	if err != nil {
		return config.APIConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return settings, nil
}
