// Package kleenex fetches pollen payloads from the Kleenex UK pollen endpoint.
package kleenex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollenpal/pollenpal/internal/metrics"
	"github.com/pollenpal/pollenpal/internal/pollen"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

const (
	// ProviderName identifies this pollen provider.
	ProviderName = "kleenex"

	// DefaultBaseURL is the Kleenex UK site.
	DefaultBaseURL = "https://www.kleenex.co.uk"

	// PollenPath is the endpoint returning the pollen HTML fragment.
	PollenPath = "/api/sitecore/Pollen/GetPollenContentCountryCity"

	// DefaultCountry is the only country the endpoint is queried for.
	DefaultCountry = "UK"

	// maxPayloadBytes bounds how much of a response body is read.
	maxPayloadBytes = 2 << 20
)

// Operation labels for metrics.
const (
	opLookup = "lookup"
	opFetch  = "fetch"
)

// ClientConfig holds configuration for the Kleenex client.
type ClientConfig struct {
	// BaseURL is the site base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// Country is the country parameter (optional, defaults to UK).
	Country string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Metrics records provider calls (optional).
	Metrics *metrics.Metrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Kleenex pollen endpoint client. It implements both
// pollen.LocationIndex and pollen.Source.
type Client struct {
	baseURL    string
	country    string
	httpClient *resilience.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

var (
	_ pollen.LocationIndex = (*Client)(nil)
	_ pollen.Source        = (*Client)(nil)
)

// NewClient creates a new Kleenex client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	country := cfg.Country
	if country == "" {
		country = DefaultCountry
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		country:    country,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// LookupLocation asks the provider for query and reads back the place it
// matched. The provider answers unknown places with an empty body or a
// fragment without a city name.
func (c *Client) LookupLocation(ctx context.Context, query string) (pollen.Location, error) {
	body, err := c.get(ctx, opLookup, url.Values{"city": {query}})
	if err != nil {
		return pollen.Location{}, err
	}

	if strings.TrimSpace(body) == "" {
		return pollen.Location{}, fmt.Errorf("%w: %q", pollen.ErrLocationNotFound, query)
	}

	payload, err := pollen.ParsePayload(body)
	if err != nil {
		return pollen.Location{}, fmt.Errorf("%w: %w", pollen.ErrUpstreamUnavailable, err)
	}

	loc := payload.Location
	if loc.Name == "" {
		return pollen.Location{}, fmt.Errorf("%w: %q", pollen.ErrLocationNotFound, query)
	}
	loc.Query = loc.Name

	c.logger.Debug().
		Str("query", query).
		Str("match", loc.Name).
		Str("lat", loc.Latitude).
		Str("lng", loc.Longitude).
		Msg("resolved location")

	return loc, nil
}

// Fetch returns the pollen fragment for a resolved location.
func (c *Client) Fetch(ctx context.Context, loc pollen.Location) (string, error) {
	city := loc.Query
	if city == "" {
		city = strings.TrimSuffix(loc.Name, pollen.CountrySuffix)
	}

	params := url.Values{"city": {city}}
	if loc.Latitude != "" && loc.Longitude != "" {
		params.Set("lat", loc.Latitude)
		params.Set("lng", loc.Longitude)
	}

	return c.get(ctx, opFetch, params)
}

func (c *Client) get(ctx context.Context, operation string, params url.Values) (body string, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(operation, pollen.ErrorOutcome(err), time.Since(start))
	}()

	params.Set("country", c.country)
	endpoint := c.baseURL + PollenPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	setBrowserHeaders(req, c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s request: %w", pollen.ErrUpstreamUnavailable, operation, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return "", fmt.Errorf("%s request: %w", operation, err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s response: %w", pollen.ErrUpstreamUnavailable, operation, err)
	}

	return string(data), nil
}

// classifyStatus maps a final response status to a pipeline error. 5xx only
// reaches here once the resilient client has given up retrying.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", pollen.ErrLocationNotFound, status)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: status %d", pollen.ErrUpstreamRejected, status)
	default:
		return fmt.Errorf("%w: status %d", pollen.ErrUpstreamUnavailable, status)
	}
}

// setBrowserHeaders mirrors what the site's own pollen widget sends; the
// endpoint refuses requests that do not look like its XHR calls.
func setBrowserHeaders(req *http.Request, origin string) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.7")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/pollen-count")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}
