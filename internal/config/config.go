package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported values for DATABASE_DRIVER and WEATHER_PROVIDER.
var (
	databaseDrivers  = []string{"sqlite3", "postgres"}
	weatherProviders = []string{"openmeteo", "openweathermap", "weatherapi"}
)

type AppConfig struct {
	Host string
	Port int

	DatabaseDriver string
	DatabaseURL    string

	LogLevel string
	// LogFile receives WARN and above. Empty disables the file sink.
	LogFile string

	// HTTPTimeout bounds every outbound geocoding/weather call.
	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration

	WeatherProvider   string
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocodingURL      string
	WeatherURL        string

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool
}

// Addr returns host:port for the HTTP listener.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`

	Log struct {
		Level string  `yaml:"level"`
		File  *string `yaml:"file"`
	} `yaml:"log"`

	Weather struct {
		Provider          string `yaml:"provider"`
		HTTPTimeout       string `yaml:"http_timeout"`
		GeocodingURL      string `yaml:"geocoding_url"`
		WeatherURL        string `yaml:"weather_url"`
		OpenWeatherAPIKey string `yaml:"openweather_api_key"`
		WeatherAPIKey     string `yaml:"weatherapi_api_key"`
	} `yaml:"weather"`
}

func defaults() *AppConfig {
	return &AppConfig{
		Host:            "127.0.0.1",
		Port:            8000,
		DatabaseDriver:  "sqlite3",
		DatabaseURL:     "data/weather_data.db",
		LogLevel:        "info",
		LogFile:         "logs/logs.txt",
		HTTPTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		WeatherProvider: "openmeteo",
	}
}

// Load reads configuration from a .env file (optional), the YAML file named by
// CONFIG_FILE (optional) and the environment, in increasing precedence.
func Load() (*AppConfig, error) {
	cfg := defaults()
	cfg.DotEnvLoaded = godotenv.Load() == nil

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Host, fc.Server.Host)
	if fc.Server.Port != 0 {
		c.Port = fc.Server.Port
	}
	if err := setDuration(&c.ShutdownTimeout, "server.shutdown_timeout", fc.Server.ShutdownTimeout); err != nil {
		return err
	}

	setString(&c.DatabaseDriver, fc.Database.Driver)
	setString(&c.DatabaseURL, fc.Database.URL)

	setString(&c.LogLevel, fc.Log.Level)
	if fc.Log.File != nil {
		c.LogFile = *fc.Log.File
	}

	setString(&c.WeatherProvider, fc.Weather.Provider)
	setString(&c.GeocodingURL, fc.Weather.GeocodingURL)
	setString(&c.WeatherURL, fc.Weather.WeatherURL)
	setString(&c.OpenWeatherAPIKey, fc.Weather.OpenWeatherAPIKey)
	setString(&c.WeatherAPIKey, fc.Weather.WeatherAPIKey)
	return setDuration(&c.HTTPTimeout, "weather.http_timeout", fc.Weather.HTTPTimeout)
}

func (c *AppConfig) applyEnv() error {
	setString(&c.Host, os.Getenv("HOST"))
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}

	setString(&c.DatabaseDriver, os.Getenv("DATABASE_DRIVER"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		c.LogFile = v
	}

	if err := setDuration(&c.HTTPTimeout, "HTTP_TIMEOUT", os.Getenv("HTTP_TIMEOUT")); err != nil {
		return err
	}
	if err := setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT", os.Getenv("SHUTDOWN_TIMEOUT")); err != nil {
		return err
	}

	setString(&c.WeatherProvider, os.Getenv("WEATHER_PROVIDER"))
	setString(&c.OpenWeatherAPIKey, os.Getenv("OPENWEATHER_API_KEY"))
	setString(&c.WeatherAPIKey, os.Getenv("WEATHERAPI_API_KEY"))
	setString(&c.GeocodingURL, os.Getenv("GEOCODING_URL"))
	setString(&c.WeatherURL, os.Getenv("WEATHER_URL"))
	return nil
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if !contains(databaseDrivers, c.DatabaseDriver) {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want one of %s)", c.DatabaseDriver, strings.Join(databaseDrivers, ", "))
	}
	if !contains(weatherProviders, c.WeatherProvider) {
		return fmt.Errorf("unsupported WEATHER_PROVIDER %q (want one of %s)", c.WeatherProvider, strings.Join(weatherProviders, ", "))
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
