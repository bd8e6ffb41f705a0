package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %s", data)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestAddJob(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id":3,"name":"HELSINGBORG"}`)
	c := New(srv.URL)

	hours := 0.3
	out, err := c.AddJob(context.Background(), "Helsingborg", "SE", &hours)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if string(out) != `{"id":3,"name":"HELSINGBORG"}` {
		t.Errorf("AddJob() = %s", out)
	}
	if rec.method != http.MethodPost || rec.path != "/job/" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}
	if rec.body["name"] != "Helsingborg" || rec.body["country_code"] != "SE" || rec.body["interval_hours"] != 0.3 {
		t.Errorf("body = %v", rec.body)
	}
}

func TestAddJobDefaultInterval(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)

	if _, err := New(srv.URL).AddJob(context.Background(), "Malmo", "SE", nil); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if _, ok := rec.body["interval_hours"]; ok {
		t.Errorf("interval_hours sent without being set: %v", rec.body)
	}
}

func TestJobRequests(t *testing.T) {
	tests := []struct {
		name       string
		call       func(*Client) error
		wantMethod string
		wantPath   string
	}{
		{"get", func(c *Client) error { _, err := c.GetJob(context.Background(), 7); return err }, http.MethodGet, "/job/7"},
		{"update", func(c *Client) error { _, err := c.UpdateJob(context.Background(), 7, 1.5); return err }, http.MethodPut, "/job/7"},
		{"delete", func(c *Client) error { _, err := c.DeleteJob(context.Background(), 7); return err }, http.MethodDelete, "/job/7"},
		{"list", func(c *Client) error { _, err := c.ListJobs(context.Background()); return err }, http.MethodGet, "/jobs/"},
		{"health", func(c *Client) error { _, err := c.Health(context.Background()); return err }, http.MethodGet, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newTestServer(t, http.StatusOK, `{}`)
			if err := tt.call(New(srv.URL)); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if rec.method != tt.wantMethod || rec.path != tt.wantPath {
				t.Errorf("request = %s %s, want %s %s", rec.method, rec.path, tt.wantMethod, tt.wantPath)
			}
		})
	}
}

func TestReport(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[]`)

	if _, err := New(srv.URL).Report(context.Background(), 1, "f", "Europe/Stockholm"); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if rec.path != "/reports/" || rec.body["city_id"] != float64(1) {
		t.Errorf("request = %s %v", rec.path, rec.body)
	}
	if rec.body["temperature_unit"] != "f" || rec.body["timezone"] != "Europe/Stockholm" {
		t.Errorf("body = %v", rec.body)
	}
}

func TestAPIError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, `{"detail":"Not found"}`)

	_, err := New(srv.URL).GetJob(context.Background(), 999999)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetJob() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || string(apiErr.Body) != `{"detail":"Not found"}` {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestTransportError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	_, err := New(url).ListJobs(context.Background())
	var apiErr *APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Errorf("ListJobs() error = %v, want a transport error", err)
	}
}
