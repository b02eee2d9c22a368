package pollen

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pollenpal/pollenpal/internal/metrics"
)

const tracerName = "github.com/pollenpal/pollenpal/internal/pollen"

// Source fetches the raw provider payload for a resolved location.
type Source interface {
	// Fetch returns the provider's response body for loc.
	Fetch(ctx context.Context, loc Location) (string, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the pollen service.
type ServiceConfig struct {
	// Index resolves free-text input into locations.
	Index LocationIndex

	// Source fetches raw payloads.
	Source Source

	// Logger for pipeline operations.
	Logger zerolog.Logger

	// Metrics records pipeline outcomes (optional).
	Metrics *metrics.Metrics

	// Clock stamps FetchedAt. Defaults to the real clock.
	Clock clockwork.Clock

	// RequireFullForecast rejects reports with fewer than ForecastDays days
	// instead of returning them with a warning.
	RequireFullForecast bool
}

// Service runs the resolve, fetch, parse, assemble pipeline. It keeps no
// per-request state and is safe for concurrent use.
type Service struct {
	resolver            *Resolver
	source              Source
	logger              zerolog.Logger
	metrics             *metrics.Metrics
	clock               clockwork.Clock
	tracer              trace.Tracer
	requireFullForecast bool
}

// NewService creates a new pollen service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		resolver:            NewResolver(cfg.Index),
		source:              cfg.Source,
		logger:              cfg.Logger,
		metrics:             cfg.Metrics,
		clock:               clock,
		tracer:              otel.Tracer(tracerName),
		requireFullForecast: cfg.RequireFullForecast,
	}
}

// GetPollenReport resolves query, fetches and parses the provider payload and
// assembles a fresh report. Nothing is cached between calls.
func (s *Service) GetPollenReport(ctx context.Context, query string) (*PollenReport, error) {
	ctx, span := s.tracer.Start(ctx, "pollen.GetPollenReport",
		trace.WithAttributes(attribute.String("pollen.query", query)),
	)
	defer span.End()

	report, warnings, err := s.buildReport(ctx, query)

	var incomplete *IncompleteForecastError
	isIncomplete := errors.As(err, &incomplete) || (report != nil && len(report.Forecast) < ForecastDays)
	s.metrics.ObserveReport(ErrorOutcome(err), warnings, isIncomplete)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("pollen.location", report.Location.Name),
		attribute.Int("pollen.forecast_days", len(report.Forecast)),
		attribute.Int("pollen.warnings", len(report.Warnings)),
	)
	return report, nil
}

func (s *Service) buildReport(ctx context.Context, query string) (*PollenReport, int, error) {
	loc, err := s.resolve(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	raw, err := s.fetch(ctx, loc)
	if err != nil {
		return nil, 0, err
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("location", loc.Name).Msg("failed to parse pollen payload")
		return nil, 0, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	for _, w := range payload.Warnings {
		s.logger.Warn().
			Str("location", loc.Name).
			Str("provider", s.source.Name()).
			Str("warning", w).
			Msg("recovered malformed pollen record")
	}
	warnings := append([]string(nil), payload.Warnings...)

	forecast, err := AssembleForecast(payload.Days)
	if err != nil {
		if len(forecast) == 0 {
			s.logger.Error().Err(err).Str("location", loc.Name).Msg("no parsable pollen days")
			return nil, len(payload.Warnings), fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		if s.requireFullForecast {
			return nil, len(payload.Warnings), err
		}
		s.logger.Warn().Err(err).Str("location", loc.Name).Msg("returning partial pollen forecast")
		warnings = append(warnings, err.Error())
	}

	report := &PollenReport{
		Location:          mergeLocation(loc, payload.Location),
		CurrentDay:        forecast[0],
		Forecast:          forecast,
		DetailedBreakdown: DetailedBreakdown(forecast[0]),
		Warnings:          warnings,
		FetchedAt:         s.clock.Now().UTC(),
	}

	return report, len(payload.Warnings), nil
}

func (s *Service) resolve(ctx context.Context, query string) (Location, error) {
	ctx, span := s.tracer.Start(ctx, "pollen.Resolve")
	defer span.End()

	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrLocationNotFound) {
			s.logger.Debug().Str("query", query).Msg("location not found")
		} else {
			s.logger.Error().Err(err).Str("query", query).Msg("failed to resolve location")
		}
		return Location{}, err
	}

	span.SetAttributes(attribute.String("pollen.location", loc.Name))
	return loc, nil
}

func (s *Service) fetch(ctx context.Context, loc Location) (string, error) {
	ctx, span := s.tracer.Start(ctx, "pollen.Fetch",
		trace.WithAttributes(attribute.String("pollen.provider", s.source.Name())),
	)
	defer span.End()

	s.logger.Debug().
		Str("location", loc.Name).
		Str("provider", s.source.Name()).
		Msg("fetching pollen data from provider")

	raw, err := s.source.Fetch(ctx, loc)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).
			Str("location", loc.Name).
			Str("provider", s.source.Name()).
			Msg("failed to fetch pollen data")
		if !isPipelineError(err) {
			err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		return "", err
	}

	span.SetAttributes(attribute.Int("pollen.payload_bytes", len(raw)))
	return raw, nil
}

// mergeLocation keeps the resolved name and fills coordinates the resolver
// did not know from the payload.
func mergeLocation(resolved, fromPayload Location) Location {
	if resolved.Latitude == "" {
		resolved.Latitude = fromPayload.Latitude
	}
	if resolved.Longitude == "" {
		resolved.Longitude = fromPayload.Longitude
	}
	return resolved
}

func isPipelineError(err error) bool {
	return errors.Is(err, ErrLocationNotFound) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamRejected)
}

// ErrorOutcome maps a pipeline error to a metrics outcome label.
func ErrorOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrLocationNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrUpstreamRejected):
		return metrics.OutcomeRejected
	case errors.Is(err, ErrUpstreamUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
