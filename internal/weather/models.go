package weather

import (
	"strings"
)

// Interval bounds for a city's polling cadence, in hours.
const (
	MinIntervalHours     = 0.25
	MaxIntervalHours     = 2.0
	DefaultIntervalHours = 2.0
)

// TemperatureUnit selects how report temperatures are expressed.
type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "C"
	UnitFahrenheit TemperatureUnit = "F"
)

// DefaultTimezone is used by reports when the caller does not pick a zone.
const DefaultTimezone = "UTC"

// Location identifies a city by name and ISO country code.
type Location struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

// Normalize trims both fields and upper-cases them.
func (l Location) Normalize() Location {
	return Location{
		Name:        strings.ToUpper(strings.TrimSpace(l.Name)),
		CountryCode: strings.ToUpper(strings.TrimSpace(l.CountryCode)),
	}
}

// Key returns a canonical string key for logging and indexing.
func (l Location) Key() string {
	return l.Name + ":" + l.CountryCode
}

// Coordinates are resolved once by geocoding and never change afterwards.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// City is a registered polling job.
type City struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	CountryCode   string  `json:"country_code" db:"country_code"`
	IntervalHours float64 `json:"interval_hours" db:"interval_hours"`
	Latitude      float64 `json:"latitude" db:"latitude"`
	Longitude     float64 `json:"longitude" db:"longitude"`
}

// Location returns the (name, country code) pair of the city.
func (c City) Location() Location {
	return Location{Name: c.Name, CountryCode: c.CountryCode}
}

// Coordinates returns the stored latitude/longitude.
func (c City) Coordinates() Coordinates {
	return Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Observation is one stored reading. UTCISOTime is always UTC-tagged.
type Observation struct {
	ID           int64   `db:"id"`
	CityID       int64   `db:"city_id"`
	UTCISOTime   string  `db:"utc_iso_time"`
	TemperatureC float64 `db:"temperature_c"`
}

// ReportRequest selects the observations of a city and how to present them.
type ReportRequest struct {
	CityID   int64
	Unit     TemperatureUnit
	Timezone string
}

// ReportEntry is one observation converted for the requested unit and zone.
// Timestamp is nil when the stored instant could not be converted.
type ReportEntry struct {
	ID              int64           `json:"id"`
	CityID          int64           `json:"city_id"`
	TemperatureUnit TemperatureUnit `json:"temperature_unit"`
	Temperature     float64         `json:"temperature"`
	Timezone        string          `json:"timezone"`
	Timestamp       *string         `json:"timestamp"`
}
