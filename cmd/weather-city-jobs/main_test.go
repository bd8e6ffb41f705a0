package main

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// startServer returns --host/--port flags for a stub API and the last request it saw.
func startServer(t *testing.T, status int, body string) ([]string, *http.Request, *string) {
	t.Helper()

	last := &http.Request{}
	var lastBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = *r
		data, _ := io.ReadAll(r.Body)
		lastBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	return []string{"--host", host, "--port", port}, last, &lastBody
}

func TestRunCommands(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{"add", []string{"add", "Helsingborg", "SE", "--interval", "0.3"}, http.MethodPost, "/job/", `"interval_hours":0.3`},
		{"add flag first", []string{"add", "--interval", "1", "Malmo", "SE"}, http.MethodPost, "/job/", `"name":"Malmo"`},
		{"get", []string{"get", "3"}, http.MethodGet, "/job/3", ""},
		{"update", []string{"update", "3", "1.5"}, http.MethodPut, "/job/3", `"interval_hours":1.5`},
		{"delete", []string{"delete", "3"}, http.MethodDelete, "/job/3", ""},
		{"list", []string{"list"}, http.MethodGet, "/jobs/", ""},
		{"temps", []string{"temps", "1", "--tz", "Europe/Stockholm", "--unit", "f"}, http.MethodPost, "/reports/", `"timezone":"Europe/Stockholm"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, last, lastBody := startServer(t, http.StatusOK, `{"status":"ok"}`)

			var stdout, stderr bytes.Buffer
			if code := run(append(flags, tt.args...), &stdout, &stderr); code != 0 {
				t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
			}
			if last.Method != tt.wantMethod || last.URL.Path != tt.wantPath {
				t.Errorf("request = %s %s, want %s %s", last.Method, last.URL.Path, tt.wantMethod, tt.wantPath)
			}
			if !strings.Contains(*lastBody, tt.wantBody) {
				t.Errorf("body %s does not contain %s", *lastBody, tt.wantBody)
			}
			if stdout.String() != "{\n  \"status\": \"ok\"\n}\n" {
				t.Errorf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestRunAPIError(t *testing.T) {
	flags, _, _ := startServer(t, http.StatusNotFound, `{"detail":"Not found"}`)

	var stdout, stderr bytes.Buffer
	if code := run(append(flags, "get", "999999"), &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Error 404") || !strings.Contains(stderr.String(), "Not found") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunUsage(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"bogus"},
		{"get"},
		{"add", "OnlyName"},
		{"update", "1"},
	} {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 2 {
			t.Errorf("run(%v) = %d, want 2", args, code)
		}
		if !strings.Contains(stderr.String(), "Usage:") {
			t.Errorf("run(%v) did not print usage", args)
		}
	}
}

func TestRunInvalidID(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"get", "abc"}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `invalid city id "abc"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
