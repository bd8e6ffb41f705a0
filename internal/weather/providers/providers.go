package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-city-jobs/internal/weather"
)

// Names accepted by NewProvider.
const (
	ProviderOpenMeteo   = "openmeteo"
	ProviderOpenWeather = "openweathermap"
	ProviderWeatherAPI  = "weatherapi"
)

// Config selects and configures the current-weather source.
type Config struct {
	Provider          string
	WeatherURL        string
	OpenWeatherAPIKey string
	WeatherAPIKey     string
}

// NewProvider builds the current-weather source named by cfg.Provider.
func NewProvider(client *http.Client, cfg Config) (weather.Provider, error) {
	switch cfg.Provider {
	case "", ProviderOpenMeteo:
		return NewOpenMeteoProvider(client, cfg.WeatherURL), nil
	case ProviderOpenWeather:
		if cfg.OpenWeatherAPIKey == "" {
			return nil, fmt.Errorf("OPENWEATHER_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewOpenWeatherProvider(client, cfg.WeatherURL, cfg.OpenWeatherAPIKey), nil
	case ProviderWeatherAPI:
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewWeatherAPIProvider(client, cfg.WeatherURL, cfg.WeatherAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.Provider)
	}
}
