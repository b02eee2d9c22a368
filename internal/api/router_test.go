package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpal/pollenpal/internal/api"
	"github.com/pollenpal/pollenpal/internal/api/middleware"
	"github.com/pollenpal/pollenpal/internal/api/models"
	"github.com/pollenpal/pollenpal/internal/pollen"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

// stubService returns a fixed report and records the queries it was given.
type stubService struct {
	mu      sync.Mutex
	queries []string
	report  *pollen.PollenReport
	err     error
}

func (s *stubService) GetPollenReport(_ context.Context, query string) (*pollen.PollenReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubService) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

func londonReport() *pollen.PollenReport {
	today := pollen.DayForecast{
		DayName:   "Today",
		DayNumber: "15",
		Categories: map[pollen.Category]pollen.CategoryLevel{
			pollen.CategoryGrass: {
				Category: pollen.CategoryGrass,
				Level:    pollen.SeverityHigh,
				Count:    45,
				Species:  []pollen.SpeciesEntry{{Name: "Timothy", Count: 45, Severity: pollen.SeverityHigh}},
			},
		},
	}
	return &pollen.PollenReport{
		Location:          pollen.Location{Name: "London, UK", Latitude: "51.5074", Longitude: "-0.1278"},
		CurrentDay:        today,
		Forecast:          []pollen.DayForecast{today},
		DetailedBreakdown: pollen.DetailedBreakdown(today),
		FetchedAt:         time.Date(2026, 5, 15, 8, 30, 0, 0, time.UTC),
	}
}

func testRouter(svc *stubService, opts ...func(*api.RouterConfig)) http.Handler {
	cfg := api.RouterConfig{
		Version:       "1.0.0-test",
		BuildTime:     "2026-05-15T00:00:00Z",
		Logger:        zerolog.Nop(),
		PollenService: svc,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return api.NewRouter(cfg)
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Info(t *testing.T) {
	rec := serve(t, testRouter(&stubService{}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var info models.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "PollenPal API", info.Name)
	assert.Equal(t, "1.0.0-test", info.Version)
	assert.Contains(t, info.Endpoints, "GET /pollen/{city}/advice")
}

func TestRouter_Health(t *testing.T) {
	svc := &stubService{}
	rec := serve(t, testRouter(svc), "/health")

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Empty(t, svc.queries, "liveness must not run the pipeline")
}

func TestRouter_ReadyWithRegistry(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("kleenex")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	rec := serve(t, testRouter(&stubService{}, func(c *api.RouterConfig) {
		c.Registry = registry
	}), "/ready")

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Len(t, health.Providers, 1)
	assert.Equal(t, "kleenex", health.Providers[0].Provider)
	assert.Equal(t, "closed", health.Providers[0].CircuitState)
}

func TestRouter_PollenRoutes(t *testing.T) {
	tests := []struct {
		path string
		key  string
	}{
		{"/pollen/london", "forecast"},
		{"/pollen/london/current", "current_day"},
		{"/pollen/london/forecast", "warnings"},
		{"/pollen/london/advice", "alert_level"},
		{"/pollen/london/detailed", "detailed_breakdown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := &stubService{report: londonReport()}
			rec := serve(t, testRouter(svc), tt.path)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "london", svc.lastQuery())

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Contains(t, body, tt.key)
		})
	}
}

func TestRouter_EscapedPostcode(t *testing.T) {
	svc := &stubService{report: londonReport()}
	rec := serve(t, testRouter(svc), "/pollen/SW1A%201AA/current")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SW1A 1AA", svc.lastQuery())
}

func TestRouter_LocationNotFound(t *testing.T) {
	svc := &stubService{err: pollen.ErrLocationNotFound}
	rec := serve(t, testRouter(svc), "/pollen/atlantis")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	assert.Equal(t, models.ProblemTypeLocationNotFound, problem.Type)
	assert.Equal(t, "/pollen/atlantis", problem.Instance)
	assert.NotEmpty(t, problem.TraceID)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), problem.TraceID)
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := serve(t, testRouter(&stubService{}), "/nowhere")

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	assert.Equal(t, models.ProblemTypeNotFound, problem.Type)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	rec := serve(t, testRouter(&stubService{}), "/health")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pollenpal_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	withGatherer := testRouter(&stubService{}, func(c *api.RouterConfig) { c.Gatherer = reg })
	rec := serve(t, withGatherer, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pollenpal_test_total 1")

	without := serve(t, testRouter(&stubService{}), "/metrics")
	assert.Equal(t, http.StatusNotFound, without.Code)
}

func TestRouter_PollenRateLimit(t *testing.T) {
	svc := &stubService{report: londonReport()}
	router := testRouter(svc, func(c *api.RouterConfig) {
		c.PollenRateLimit = &middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}
	})

	for i := 0; i < 2; i++ {
		rec := serve(t, router, "/pollen/london")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(t, router, "/pollen/london")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Ops endpoints sit outside the limiter.
	assert.Equal(t, http.StatusOK, serve(t, router, "/health").Code)
}
