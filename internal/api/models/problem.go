package models

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC7807 error response.
// This is used for all API error responses with Content-Type: application/problem+json.
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request trace identifier for debugging.
	TraceID string `json:"traceId"`
}

// ProblemType constants for the error types the API returns.
const (
	ProblemTypeLocationNotFound = "https://pollenpal.dev/problems/location-not-found"
	ProblemTypeNotFound         = "https://pollenpal.dev/problems/not-found"
	ProblemTypeTooManyRequests  = "https://pollenpal.dev/problems/too-many-requests"
	ProblemTypeInternal         = "https://pollenpal.dev/problems/internal-error"
	ProblemTypeUpstream         = "https://pollenpal.dev/problems/upstream-unavailable"
	ProblemTypeUpstreamRejected = "https://pollenpal.dev/problems/upstream-rejected"
	ProblemTypeUnavailable      = "https://pollenpal.dev/problems/service-unavailable"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail adds a detail message to the Problem.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance adds the request instance URI to the Problem.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewLocationNotFound creates a 404 problem for a place the provider does
// not know.
func NewLocationNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeLocationNotFound, "Location not found", http.StatusNotFound, traceID).
		WithDetail(detail)
}

// NewNotFound creates a 404 Not Found problem for unknown routes.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).
		WithDetail(detail)
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).
		WithDetail(detail)
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).
		WithDetail(detail)
}

// NewUpstreamUnavailable creates a 500 problem for a provider that could not
// be reached or returned nothing usable.
func NewUpstreamUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUpstream, "Pollen data unavailable", http.StatusInternalServerError, traceID).
		WithDetail(detail)
}

// NewBadGateway creates a 502 problem for a provider that refused the
// request.
func NewBadGateway(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUpstreamRejected, "Upstream rejected request", http.StatusBadGateway, traceID).
		WithDetail(detail)
}

// NewServiceUnavailable creates a 503 Service Unavailable problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).
		WithDetail(detail)
}
