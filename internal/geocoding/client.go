// Package geocoding resolves free-text addresses to coordinates through an external
// Google-compatible geocoding HTTP API.
package geocoding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Google Geocoding JSON endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrGeocodeFailure wraps every provider error, non-match and timeout.
var ErrGeocodeFailure = eris.New("geocoding: geocode failure")

// Result holds the provider's answer for one address.
type Result struct {
	Latitude  float64
	Longitude float64
	PlaceID   string
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		PlaceID string `json:"place_id"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at a different provider endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sets the provider API key sent as the "key" query parameter.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each Geocode call, including time spent waiting on the rate limiter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// Client calls the geocoding provider, one request per address.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a geocoding client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(10, 10),
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves one raw address. Every failure, including a timeout, is reported as ErrGeocodeFailure.
func (c *Client) Geocode(ctx context.Context, rawAddress string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: rate limit wait: %v", err)
	}

	params := url.Values{"address": {rawAddress}}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: build request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: read body: %v", err)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: parse response: %v", err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return nil, eris.Wrapf(ErrGeocodeFailure, "geocoding: provider status %s %s", parsed.Status, parsed.ErrorMessage)
	}

	first := parsed.Results[0]
	return &Result{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
		PlaceID:   first.PlaceID,
	}, nil
}
