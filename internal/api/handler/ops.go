// Package handler provides HTTP handlers for the PollenPal API.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pollenpal/pollenpal/internal/api/models"
	"github.com/pollenpal/pollenpal/internal/api/response"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

// Endpoints lists the public routes reported by the info endpoint.
var Endpoints = []string{
	"GET /pollen/{city}",
	"GET /pollen/{city}/current",
	"GET /pollen/{city}/forecast",
	"GET /pollen/{city}/advice",
	"GET /pollen/{city}/detailed",
	"GET /health",
	"GET /ready",
	"GET /metrics",
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. registry may be nil, in which
// case readiness has no providers to check.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		now:       time.Now,
	}
}

// Info handles GET / - API name, version and endpoints.
func (h *OpsHandler) Info(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Info{
		Name:      "PollenPal API",
		Version:   h.version,
		BuildTime: h.buildTime,
		Endpoints: Endpoints,
	})
}

// HealthCheck handles GET /health - liveness check. It never touches the
// provider.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  models.HealthStatusOK,
		Time:    h.now().UTC(),
		Version: h.version,
	})
}

// ReadinessCheck handles GET /ready. It reports 503 while any provider
// circuit is open and DEGRADED while one is probing in half-open state.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:    models.HealthStatusOK,
		Time:      h.now().UTC(),
		Version:   h.version,
		Providers: []models.ProviderStatus{},
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			status := providerStatus(ph)
			health.Providers = append(health.Providers, status)

			switch status.Status {
			case models.HealthStatusFail:
				health.Status = models.HealthStatusFail
			case models.HealthStatusDegraded:
				if health.Status == models.HealthStatusOK {
					health.Status = models.HealthStatusDegraded
				}
			}
		}
	}

	code := http.StatusOK
	if health.Status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	status := models.HealthStatusOK
	switch ph.CircuitState {
	case gobreaker.StateOpen:
		status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		status = models.HealthStatusDegraded
	}

	return models.ProviderStatus{
		Provider:      ph.Name,
		Status:        status,
		CircuitState:  ph.CircuitState.String(),
		LastSuccessAt: ph.LastSuccessAt,
		LastFailureAt: ph.LastFailureAt,
		LastError:     ph.LastError,
	}
}
