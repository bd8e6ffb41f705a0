// Package apiclient talks to a running weather-city-jobs server over HTTP.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "weather-city-jobs-cli"
)

// APIError is returned for any non-2xx response. Body is the raw response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Client wraps the city job and report endpoints.
type Client struct {
	client *resty.Client
}

// New creates a client for the server at baseURL, e.g. "http://127.0.0.1:8000".
func New(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout)

	return &Client{client: client}
}

// SetTimeout configures the HTTP client timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.SetTimeout(timeout)
}

// Health calls GET /.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.do(c.client.R().SetContext(ctx), resty.MethodGet, "/")
}

// AddJob registers a city. A nil intervalHours leaves the server default.
func (c *Client) AddJob(ctx context.Context, name, countryCode string, intervalHours *float64) (json.RawMessage, error) {
	body := map[string]any{
		"name":         name,
		"country_code": countryCode,
	}
	if intervalHours != nil {
		body["interval_hours"] = *intervalHours
	}
	return c.do(c.client.R().SetContext(ctx).SetBody(body), resty.MethodPost, "/job/")
}

// GetJob fetches one city.
func (c *Client) GetJob(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.do(c.jobRequest(ctx, id), resty.MethodGet, "/job/{id}")
}

// UpdateJob changes the polling interval of a city.
func (c *Client) UpdateJob(ctx context.Context, id int64, intervalHours float64) (json.RawMessage, error) {
	req := c.jobRequest(ctx, id).SetBody(map[string]any{"interval_hours": intervalHours})
	return c.do(req, resty.MethodPut, "/job/{id}")
}

// DeleteJob removes a city.
func (c *Client) DeleteJob(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.do(c.jobRequest(ctx, id), resty.MethodDelete, "/job/{id}")
}

// ListJobs returns every city.
func (c *Client) ListJobs(ctx context.Context) (json.RawMessage, error) {
	return c.do(c.client.R().SetContext(ctx), resty.MethodGet, "/jobs/")
}

// Report fetches the observations of a city. Empty unit or timezone use the
// server defaults.
func (c *Client) Report(ctx context.Context, cityID int64, unit, timezone string) (json.RawMessage, error) {
	body := map[string]any{"city_id": cityID}
	if unit != "" {
		body["temperature_unit"] = unit
	}
	if timezone != "" {
		body["timezone"] = timezone
	}
	return c.do(c.client.R().SetContext(ctx).SetBody(body), resty.MethodPost, "/reports/")
}

func (c *Client) jobRequest(ctx context.Context, id int64) *resty.Request {
	return c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10))
}

func (c *Client) do(req *resty.Request, method, path string) (json.RawMessage, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return json.RawMessage(resp.Body()), nil
}
