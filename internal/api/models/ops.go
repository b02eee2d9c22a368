// Package models provides response models for the PollenPal API.
package models

import "time"

// HealthStatus represents the health status of the service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Health is the body of the liveness and readiness endpoints.
type Health struct {
	Status    HealthStatus     `json:"status"`
	Time      time.Time        `json:"time"`
	Version   string           `json:"version,omitempty"`
	Providers []ProviderStatus `json:"providers,omitempty"`
}

// ProviderStatus represents the status of an upstream provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}

// Info describes the API at its root.
type Info struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	BuildTime string   `json:"buildTime,omitempty"`
	Endpoints []string `json:"endpoints"`
}
