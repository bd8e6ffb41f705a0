package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a city or its observations do not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when (name, country code) is already registered.
	ErrAlreadyExists = errors.New("job already exists")

	// ErrLocationNotFound is returned when geocoding yields no result.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoCurrentWeather is returned when the weather source omits current conditions.
	ErrNoCurrentWeather = errors.New("no current weather data")

	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
)

// UpstreamError wraps any failure talking to a remote geocoding or weather API.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err carries an *UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
