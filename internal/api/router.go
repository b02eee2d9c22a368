// Package api provides the HTTP API for PollenPal.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pollenpal/pollenpal/internal/api/handler"
	"github.com/pollenpal/pollenpal/internal/api/middleware"
	"github.com/pollenpal/pollenpal/internal/api/response"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// Metrics records otel HTTP server metrics (optional).
	Metrics *middleware.Metrics

	// Gatherer backs GET /metrics (optional, the endpoint is omitted when nil).
	Gatherer prometheus.Gatherer

	// Registry reports provider circuit state to GET /ready (optional).
	Registry *resilience.Registry

	// PollenService runs the pollen pipeline.
	PollenService handler.ReportService

	// PollenRateLimit overrides middleware.PollenRateLimit (optional).
	PollenRateLimit *middleware.RateLimitConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	pollenHandler := handler.NewPollenHandler(cfg.PollenService, cfg.Logger)

	rateLimit := middleware.PollenRateLimit
	if cfg.PollenRateLimit != nil {
		rateLimit = *cfg.PollenRateLimit
	}

	r.Get("/", opsHandler.Info)
	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/ready", opsHandler.ReadinessCheck)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/pollen/{city}", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimit))
		r.Get("/", pollenHandler.GetReport)
		r.Get("/current", pollenHandler.GetCurrent)
		r.Get("/forecast", pollenHandler.GetForecast)
		r.Get("/advice", pollenHandler.GetAdvice)
		r.Get("/detailed", pollenHandler.GetDetailed)
	})

	return r
}
