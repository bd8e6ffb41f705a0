package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOST", "PORT", "DATABASE_DRIVER", "DATABASE_URL", "LOG_LEVEL",
		"HTTP_TIMEOUT", "SHUTDOWN_TIMEOUT", "WEATHER_PROVIDER", "OPENWEATHER_API_KEY",
		"WEATHERAPI_API_KEY", "GEOCODING_URL", "WEATHER_URL", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
	// LOG_FILE is looked up, so an empty value would disable the file sink.
	t.Setenv("LOG_FILE", "")
	os.Unsetenv("LOG_FILE")

	// Load looks for .env in the working directory.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.DatabaseDriver != "sqlite3" || cfg.DatabaseURL != "data/weather_data.db" {
		t.Errorf("database = %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.LogFile != "logs/logs.txt" || cfg.LogLevel != "info" {
		t.Errorf("log = %q %q", cfg.LogFile, cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeouts = %v %v", cfg.HTTPTimeout, cfg.ShutdownTimeout)
	}
	if cfg.WeatherProvider != "openmeteo" {
		t.Errorf("WeatherProvider = %q", cfg.WeatherProvider)
	}
	if cfg.DotEnvLoaded {
		t.Error("DotEnvLoaded = true without a .env file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/weather?sslmode=disable")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("LOG_FILE", "")
	t.Setenv("WEATHER_PROVIDER", "weatherapi")
	t.Setenv("WEATHERAPI_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.DatabaseDriver != "postgres" || cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogFile != "" {
		t.Errorf("LogFile = %q, want disabled", cfg.LogFile)
	}
	if cfg.WeatherProvider != "weatherapi" || cfg.WeatherAPIKey != "secret" {
		t.Errorf("weather = %q %q", cfg.WeatherProvider, cfg.WeatherAPIKey)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to "".
	os.Unsetenv("PORT")
	if err := os.WriteFile(".env", []byte("PORT=8123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.DotEnvLoaded || cfg.Port != 8123 {
		t.Errorf("DotEnvLoaded = %v, Port = %d", cfg.DotEnvLoaded, cfg.Port)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 8500
  shutdown_timeout: 3s
database:
  url: /tmp/weather.db
log:
  level: warn
  file: ""
weather:
  http_timeout: 12s
  geocoding_url: http://geo.local/search
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "8600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8600 {
		t.Errorf("Port = %d, env should win over the file", cfg.Port)
	}
	if cfg.ShutdownTimeout != 3*time.Second || cfg.HTTPTimeout != 12*time.Second {
		t.Errorf("timeouts = %v %v", cfg.ShutdownTimeout, cfg.HTTPTimeout)
	}
	if cfg.DatabaseURL != "/tmp/weather.db" || cfg.LogLevel != "warn" || cfg.LogFile != "" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.GeocodingURL != "http://geo.local/search" {
		t.Errorf("GeocodingURL = %q", cfg.GeocodingURL)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "PORT", "eighty"},
		{"port out of range", "PORT", "70000"},
		{"bad http timeout", "HTTP_TIMEOUT", "soon"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"unknown provider", "WEATHER_PROVIDER", "metoffice"},
		{"missing config file", "CONFIG_FILE", "/nonexistent/config.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q: expected error", tt.key, tt.val)
			}
		})
	}
}
