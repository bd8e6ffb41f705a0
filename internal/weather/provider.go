package weather

import (
	"context"
	"time"
)

// Reading is a single current-conditions sample from a weather source.
type Reading struct {
	Timestamp    time.Time // UTC
	TemperatureC float64
}

// Provider abstracts a current-weather source (Open-Meteo, OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	Current(ctx context.Context, coords Coordinates) (Reading, error)
}

// Geocoder resolves a city to coordinates. It returns ErrLocationNotFound
// when the lookup succeeds but has no match.
type Geocoder interface {
	Geocode(ctx context.Context, loc Location) (Coordinates, error)
}

// Store is the persistence contract for cities and observations.
type Store interface {
	CreateCity(ctx context.Context, city *City) error
	GetCity(ctx context.Context, id int64) (City, error)
	FindCity(ctx context.Context, loc Location) (City, error)
	ListCities(ctx context.Context) ([]City, error)
	UpdateCityInterval(ctx context.Context, id int64, intervalHours float64) (City, error)
	DeleteCity(ctx context.Context, id int64) error

	AddObservation(ctx context.Context, obs *Observation) error
	ListObservations(ctx context.Context, cityID int64) ([]Observation, error)
}

// Scheduler keeps one recurring task per city id.
type Scheduler interface {
	Add(jobID int64, intervalHours float64, task func(int64)) error
	Remove(jobID int64)
	UpdateInterval(jobID int64, intervalHours float64, task func(int64)) error
}
