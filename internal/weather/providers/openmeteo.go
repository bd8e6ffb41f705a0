package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-city-jobs/internal/common"
	"github.com/i474232898/weather-city-jobs/internal/weather"
)

const (
	DefaultOpenMeteoURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodingURL  = "https://geocoding-api.open-meteo.com/v1/search"
	openMeteoName        = "openmeteo"
	openMeteoGeocodeName = "geocoding"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    openMeteoName,
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker(openMeteoName),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Current asks for current conditions with times normalized to UTC.
func (p *OpenMeteoProvider) Current(ctx context.Context, coords weather.Coordinates) (weather.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", formatCoord(coords.Latitude))
		values.Set("longitude", formatCoord(coords.Longitude))
		values.Set("current_weather", "true")
		values.Set("timezone", "UTC")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	var payload struct {
		CurrentWeather *struct {
			Temperature *float64 `json:"temperature"`
			Time        string   `json:"time"`
		} `json:"current_weather"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.name, buildRequest, &payload); err != nil {
		return weather.Reading{}, err
	}

	if payload.CurrentWeather == nil {
		return weather.Reading{}, weather.ErrNoCurrentWeather
	}
	if payload.CurrentWeather.Temperature == nil {
		return weather.Reading{}, fmt.Errorf("openmeteo: current_weather has no temperature")
	}

	// The API returns a naive timestamp; timezone=UTC makes it UTC.
	ts, err := common.ParseNaiveUTC(payload.CurrentWeather.Time)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("openmeteo: %w", err)
	}

	return weather.Reading{
		Timestamp:    ts,
		TemperatureC: *payload.CurrentWeather.Temperature,
	}, nil
}

// OpenMeteoGeocoder resolves city names with the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(client *http.Client, baseURL string) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &OpenMeteoGeocoder{
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker(openMeteoGeocodeName),
	}
}

// Geocode returns the coordinates of the first match.
func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, loc weather.Location) (weather.Coordinates, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", loc.Name)
		values.Set("countryCode", loc.CountryCode)

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	}

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := getJSON(ctx, g.client, g.circuit, openMeteoGeocodeName, buildRequest, &payload); err != nil {
		return weather.Coordinates{}, err
	}

	if len(payload.Results) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%s: %w", loc.Key(), weather.ErrLocationNotFound)
	}

	first := payload.Results[0]
	return weather.Coordinates{Latitude: first.Latitude, Longitude: first.Longitude}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
