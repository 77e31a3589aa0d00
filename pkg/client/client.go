// Package client is a typed Go client for the analytics and health
// endpoints, the access pattern the dashboard uses: poll, retry
// transient failures with exponential backoff, give up fast on client
// errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-telemetry/backend/internal/domain"
)

const (
	defaultAttempts     = 3
	defaultInitialDelay = time.Second
)

// HTTPError is a non-2xx response. Responses below 500 are never
// retried.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	attempts     int
	initialDelay time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the attempt count and the delay before the first
// retry. Each subsequent delay doubles.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if initialDelay > 0 {
			c.initialDelay = initialDelay
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		attempts:     defaultAttempts,
		initialDelay: defaultInitialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Params are the query parameters shared by the analytics endpoints.
// Zero values are omitted.
type Params struct {
	FleetID           string
	TimeWindow        float64
	InactiveThreshold float64
	Resolved          *bool
}

func (p Params) values() url.Values {
	v := url.Values{}
	if p.FleetID != "" {
		v.Set("fleetId", p.FleetID)
	}
	if p.TimeWindow > 0 {
		v.Set("timeWindow", strconv.FormatFloat(p.TimeWindow, 'f', -1, 64))
	}
	if p.InactiveThreshold > 0 {
		v.Set("inactiveThreshold", strconv.FormatFloat(p.InactiveThreshold, 'f', -1, 64))
	}
	if p.Resolved != nil {
		v.Set("resolved", strconv.FormatBool(*p.Resolved))
	}
	return v
}

func (c *Client) FleetAnalytics(ctx context.Context, p Params) (domain.FleetAnalytics, error) {
	var out domain.FleetAnalytics
	err := c.getData(ctx, "/analytics/fleet", p.values(), &out)
	return out, err
}

func (c *Client) ActivityStatus(ctx context.Context, p Params) (domain.ActivityStatus, error) {
	var out domain.ActivityStatus
	err := c.getData(ctx, "/analytics/activity", p.values(), &out)
	return out, err
}

func (c *Client) FuelAnalytics(ctx context.Context, p Params) (domain.FuelAnalytics, error) {
	var out domain.FuelAnalytics
	err := c.getData(ctx, "/analytics/fuel", p.values(), &out)
	return out, err
}

func (c *Client) DistanceAnalytics(ctx context.Context, p Params) (domain.DistanceAnalytics, error) {
	var out domain.DistanceAnalytics
	err := c.getData(ctx, "/analytics/distance", p.values(), &out)
	return out, err
}

func (c *Client) AlertSummary(ctx context.Context, p Params) (domain.AlertSummary, error) {
	var out domain.AlertSummary
	err := c.getData(ctx, "/analytics/alerts/summary", p.values(), &out)
	return out, err
}

func (c *Client) VehicleActivity(ctx context.Context, p Params) ([]domain.VehicleActivity, error) {
	var out []domain.VehicleActivity
	err := c.getData(ctx, "/analytics/vehicles/activity", p.values(), &out)
	return out, err
}

func (c *Client) VehicleDistances(ctx context.Context, p Params) ([]domain.VehicleDistance, error) {
	var out []domain.VehicleDistance
	err := c.getData(ctx, "/analytics/vehicles/distances", p.values(), &out)
	return out, err
}

func (c *Client) VehicleFuel(ctx context.Context) ([]domain.VehicleFuelStatus, error) {
	var out []domain.VehicleFuelStatus
	err := c.getData(ctx, "/analytics/vehicles/fuel", nil, &out)
	return out, err
}

// RefreshCache asks the server to invalidate and rewarm the analytics
// cache, optionally scoped to one fleet.
func (c *Client) RefreshCache(ctx context.Context, fleetID string) error {
	body, _ := json.Marshal(map[string]string{"fleetId": fleetID})
	return c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, "/analytics/cache/refresh", nil, body, nil)
	})
}

// Health hits /analytics/health, which answers with the bare health
// document rather than the envelope.
func (c *Client) Health(ctx context.Context) (domain.AnalyticsHealth, error) {
	var out domain.AnalyticsHealth
	err := c.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analytics/health", nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	return out, err
}

func (c *Client) getData(ctx context.Context, path string, params url.Values, out any) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, params, nil, out)
	})
}

// withRetry runs fn up to c.attempts times. The delay before retry n is
// initialDelay doubled n-1 times. Client errors (4xx) fail immediately.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := c.initialDelay

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && he.Status < 500 {
			return err
		}
	}
	return lastErr
}

// do performs one request and decodes the envelope, unmarshalling its
// data field into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return fmt.Errorf("request failed: %s", env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
