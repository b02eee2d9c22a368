// Package main provides the entrypoint for the PollenPal API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/pollenpal/pollenpal/internal/api"
	"github.com/pollenpal/pollenpal/internal/api/middleware"
	"github.com/pollenpal/pollenpal/internal/config"
	"github.com/pollenpal/pollenpal/internal/metrics"
	"github.com/pollenpal/pollenpal/internal/pollen"
	"github.com/pollenpal/pollenpal/internal/pollen/kleenex"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
	"github.com/pollenpal/pollenpal/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pollenpal-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting PollenPal API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// HTTP server metrics go through otel; pipeline metrics are scraped
	// from /metrics.
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.New(promRegistry)

	// Provider client
	providers := resilience.NewRegistry()
	httpClient := resilience.NewClient(cfg.Pollen.ClientConfig(kleenex.ProviderName, providers, log))

	provider := kleenex.NewClient(kleenex.ClientConfig{
		BaseURL:    cfg.Pollen.BaseURL,
		HTTPClient: httpClient,
		Metrics:    pipelineMetrics,
		Logger:     log,
	})
	log.Info().
		Str("provider", provider.Name()).
		Dur("timeout", cfg.Pollen.Timeout).
		Int("max_retries", cfg.Pollen.MaxRetries).
		Msg("pollen provider initialized")

	pollenService := pollen.NewService(pollen.ServiceConfig{
		Index:               provider,
		Source:              provider,
		Logger:              log,
		Metrics:             pipelineMetrics,
		RequireFullForecast: cfg.Pollen.RequireFullForecast,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		Metrics:       httpMetrics,
		Gatherer:      promRegistry,
		Registry:      providers,
		PollenService: pollenService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Pollen.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
