// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

// Config holds all service settings.
type Config struct {
	Port     string
	Env      string
	LogLevel zerolog.Level

	OTelEnabled  bool
	OTLPEndpoint string

	Pollen PollenConfig
}

// PollenConfig holds settings for the upstream provider and the pipeline.
type PollenConfig struct {
	BaseURL             string
	Timeout             time.Duration
	MaxRetries          int
	RateLimitRPS        float64
	RateLimitBurst      int
	RequireFullForecast bool
}

// Load reads a .env file if one exists and then the environment, applying
// defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("POLLEN_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid POLLEN_TIMEOUT")
	}

	retries, err := strconv.Atoi(getEnvOrDefault("POLLEN_MAX_RETRIES", "3"))
	if err != nil || retries < 0 {
		return nil, errors.New("invalid POLLEN_MAX_RETRIES")
	}

	rps, err := strconv.ParseFloat(getEnvOrDefault("POLLEN_RATE_LIMIT_RPS", "5"), 64)
	if err != nil || rps < 0 {
		return nil, errors.New("invalid POLLEN_RATE_LIMIT_RPS")
	}

	burst, err := strconv.Atoi(getEnvOrDefault("POLLEN_RATE_LIMIT_BURST", "5"))
	if err != nil || burst < 1 {
		return nil, errors.New("invalid POLLEN_RATE_LIMIT_BURST")
	}

	return &Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Env:          getEnvOrDefault("APP_ENV", "development"),
		LogLevel:     level,
		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Pollen: PollenConfig{
			BaseURL:             os.Getenv("POLLEN_BASE_URL"),
			Timeout:             timeout,
			MaxRetries:          retries,
			RateLimitRPS:        rps,
			RateLimitBurst:      burst,
			RequireFullForecast: os.Getenv("POLLEN_REQUIRE_FULL_FORECAST") == "true",
		},
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ClientConfig turns the provider settings into a resilient client config.
func (p PollenConfig) ClientConfig(name string, registry *resilience.Registry, logger zerolog.Logger) resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Timeout = p.Timeout
	cfg.MaxRetries = uint64(p.MaxRetries) //nolint:gosec // validated non-negative in FromEnv
	if p.MaxRetries == 0 {
		cfg.MaxRetries = resilience.NoRetries
	}
	cfg.RateLimit = p.RateLimitRPS
	cfg.RateBurst = p.RateLimitBurst
	cfg.Registry = registry
	cfg.Logger = logger
	return cfg
}
