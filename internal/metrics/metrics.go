// Package metrics holds the Prometheus instruments for the pollen pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the pipeline counters and histograms.
type Metrics struct {
	// UpstreamRequests counts provider calls. labels: operation={lookup,fetch}, outcome
	UpstreamRequests *prometheus.CounterVec
	// UpstreamDuration observes provider call latency. labels: operation
	UpstreamDuration *prometheus.HistogramVec
	// Reports counts pipeline runs. labels: outcome
	Reports *prometheus.CounterVec
	// ParseWarnings counts recovered parse problems.
	ParseWarnings prometheus.Counter
	// IncompleteForecasts counts reports returned with fewer than five days.
	IncompleteForecasts prometheus.Counter
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollenpal",
			Name:      "upstream_requests_total",
			Help:      "Total pollen provider requests.",
		}, []string{"operation", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pollenpal",
			Name:      "upstream_request_duration_seconds",
			Help:      "Pollen provider request latency in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollenpal",
			Name:      "reports_total",
			Help:      "Total pollen report pipeline runs.",
		}, []string{"outcome"}),
		ParseWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pollenpal",
			Name:      "parse_warnings_total",
			Help:      "Dropped days, dropped species and zeroed counts while parsing payloads.",
		}),
		IncompleteForecasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pollenpal",
			Name:      "incomplete_forecasts_total",
			Help:      "Reports assembled with fewer than five forecast days.",
		}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.Reports,
		m.ParseWarnings,
		m.IncompleteForecasts,
	)

	return m
}

// ObserveUpstream records one provider call.
func (m *Metrics) ObserveUpstream(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveReport records one pipeline run.
func (m *Metrics) ObserveReport(outcome string, warnings int, incomplete bool) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(outcome).Inc()
	if warnings > 0 {
		m.ParseWarnings.Add(float64(warnings))
	}
	if incomplete {
		m.IncompleteForecasts.Inc()
	}
}
