package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pollenpal/pollenpal/internal/api/middleware"
	"github.com/pollenpal/pollenpal/internal/api/models"
	"github.com/pollenpal/pollenpal/internal/api/response"
	"github.com/pollenpal/pollenpal/internal/pollen"
)

// ReportService produces pollen reports. *pollen.Service implements it.
type ReportService interface {
	GetPollenReport(ctx context.Context, query string) (*pollen.PollenReport, error)
}

// PollenHandler handles the pollen endpoints. Every request runs the full
// pipeline; nothing is cached between requests.
type PollenHandler struct {
	service ReportService
	logger  zerolog.Logger
}

// NewPollenHandler creates a new PollenHandler.
func NewPollenHandler(service ReportService, logger zerolog.Logger) *PollenHandler {
	return &PollenHandler{
		service: service,
		logger:  logger,
	}
}

// GetReport handles GET /pollen/{city} - the full report.
func (h *PollenHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, report)
}

// GetCurrent handles GET /pollen/{city}/current - today's levels.
func (h *PollenHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.CurrentResponse{
		Location:   report.Location,
		CurrentDay: report.CurrentDay,
	})
}

// GetForecast handles GET /pollen/{city}/forecast - the multi-day forecast.
func (h *PollenHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	warnings := report.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	response.JSON(w, r, http.StatusOK, models.ForecastResponse{
		Location: report.Location,
		Forecast: report.Forecast,
		Warnings: warnings,
	})
}

// GetAdvice handles GET /pollen/{city}/advice - health advice for today.
func (h *PollenHandler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, pollen.Advise(report.CurrentDay))
}

// GetDetailed handles GET /pollen/{city}/detailed - today's species.
func (h *PollenHandler) GetDetailed(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.DetailedResponse{
		Location:          report.Location,
		DetailedBreakdown: report.DetailedBreakdown,
	})
}

// report runs the pipeline for the {city} path parameter and writes the
// problem response itself when it fails.
func (h *PollenHandler) report(w http.ResponseWriter, r *http.Request) (*pollen.PollenReport, bool) {
	city := cityParam(r)

	report, err := h.service.GetPollenReport(r.Context(), city)
	if err != nil {
		h.writeError(w, r, city, err)
		return nil, false
	}
	return report, true
}

func (h *PollenHandler) writeError(w http.ResponseWriter, r *http.Request, city string, err error) {
	log := h.logger.With().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("city", city).
		Err(err).
		Logger()

	switch {
	case errors.Is(err, pollen.ErrLocationNotFound):
		log.Debug().Msg("location not found")
		response.LocationNotFound(w, r, "no UK location matches "+strconv.Quote(city))
	case errors.Is(err, pollen.ErrUpstreamRejected):
		log.Warn().Msg("pollen provider rejected request")
		response.BadGateway(w, r, "the pollen provider rejected the request")
	case errors.Is(err, pollen.ErrUpstreamUnavailable), errors.Is(err, pollen.ErrIncompleteForecast):
		log.Error().Msg("pollen provider unavailable")
		response.UpstreamUnavailable(w, r, "pollen data is unavailable, try again later")
	default:
		log.Error().Msg("pollen report failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// cityParam returns the decoded {city} path parameter. chi matches on the
// raw path when one is present, so postcodes with spaces arrive escaped.
func cityParam(r *http.Request) string {
	raw := chi.URLParam(r, "city")
	if city, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(city)
	}
	return strings.TrimSpace(raw)
}
