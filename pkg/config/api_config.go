// Package config provides configuration file loading for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// APIConfig holds the API server settings. It is read from command-line flags
// and optionally from a YAML file.
type APIConfig struct {
	Port         int    `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	EventBus     string `yaml:"event_bus"`
	KafkaBrokers string `yaml:"kafka_brokers"`
	Timezone     string `yaml:"timezone"`
	Tracing      bool   `yaml:"tracing"`
	LogLevel     string `yaml:"log_level"`
}

var (
	supportedEventBuses = []string{"gochannel", "kafka"}
	supportedLogLevels  = []string{"debug", "info", "warn", "error"}
)

// LoadAPIConfig loads settings from a YAML file.
func LoadAPIConfig(filepath string) (APIConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return APIConfig{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var config APIConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return APIConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return config, nil
}

// Overlay fills c with the non-zero values of file, except for the settings
// whose flag was set explicitly.
func (c APIConfig) Overlay(file APIConfig, isSet func(flag string) bool) APIConfig {
	if file.Port != 0 && !isSet("port") {
		c.Port = file.Port
	}

	if file.DatabaseURL != "" && !isSet("database-url") {
		c.DatabaseURL = file.DatabaseURL
	}

	if file.EventBus != "" && !isSet("event-bus") {
		c.EventBus = file.EventBus
	}

	if file.KafkaBrokers != "" && !isSet("kafka-brokers") {
		c.KafkaBrokers = file.KafkaBrokers
	}

	if file.Timezone != "" && !isSet("timezone") {
		c.Timezone = file.Timezone
	}

	if file.Tracing && !isSet("tracing") {
		c.Tracing = true
	}

	if file.LogLevel != "" && !isSet("log-level") {
		c.LogLevel = file.LogLevel
	}

	return c
}

// Location resolves the configured time zone.
func (c APIConfig) Location() (*time.Location, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return location, nil
}

// Validate checks the merged settings.
func (c APIConfig) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	if !slices.Contains(supportedEventBuses, c.EventBus) {
		return fmt.Errorf("unknown event bus %q", c.EventBus)
	}

	if c.EventBus == "kafka" && c.KafkaBrokers == "" {
		return errors.New("kafka event bus requires kafka_brokers")
	}

	if c.LogLevel != "" && !slices.Contains(supportedLogLevels, c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	_, err := c.Location()

	return err
}
