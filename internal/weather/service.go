package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/weather-city-jobs/internal/common"
	"github.com/i474232898/weather-city-jobs/internal/logging"
	"github.com/i474232898/weather-city-jobs/internal/metrics"
)

// Service owns city jobs: it persists cities, keeps the scheduler in step
// with them, runs the fetch job and builds reports.
type Service struct {
	store    Store
	geocoder Geocoder
	provider Provider
	jobs     Scheduler
	logger   *zap.Logger
}

// NewService creates a new Service.
func NewService(store Store, geocoder Geocoder, provider Provider, jobs Scheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		geocoder: geocoder,
		provider: provider,
		jobs:     jobs,
		logger:   logger,
	}
}

// ScheduleAll registers a fetch job for every stored city. Called once at boot.
func (s *Service) ScheduleAll(ctx context.Context) (int, error) {
	cities, err := s.store.ListCities(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cities: %w", err)
	}
	for _, c := range cities {
		if err := s.jobs.Add(c.ID, c.IntervalHours, s.FetchJob); err != nil {
			return 0, fmt.Errorf("schedule city %d: %w", c.ID, err)
		}
	}
	return len(cities), nil
}

// CreateCity geocodes loc, stores the city and schedules its fetch job.
func (s *Service) CreateCity(ctx context.Context, loc Location, intervalHours float64) (City, error) {
	loc = loc.Normalize()
	if loc.Name == "" || loc.CountryCode == "" {
		return City{}, fmt.Errorf("%w: name and country_code are required", ErrValidation)
	}
	if err := validateInterval(intervalHours); err != nil {
		return City{}, err
	}

	switch _, err := s.store.FindCity(ctx, loc); {
	case err == nil:
		return City{}, ErrAlreadyExists
	case !errors.Is(err, ErrNotFound):
		return City{}, err
	}

	coords, err := s.geocoder.Geocode(ctx, loc)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return City{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return City{}, err
	}

	city := City{
		Name:          loc.Name,
		CountryCode:   loc.CountryCode,
		IntervalHours: intervalHours,
		Latitude:      coords.Latitude,
		Longitude:     coords.Longitude,
	}
	if err := s.store.CreateCity(ctx, &city); err != nil {
		return City{}, err
	}

	if err := s.jobs.Add(city.ID, city.IntervalHours, s.FetchJob); err != nil {
		return City{}, fmt.Errorf("schedule city %d: %w", city.ID, err)
	}
	return city, nil
}

// GetCity returns the city with the given id.
func (s *Service) GetCity(ctx context.Context, id int64) (City, error) {
	return s.store.GetCity(ctx, id)
}

// ListCities returns every registered city.
func (s *Service) ListCities(ctx context.Context) ([]City, error) {
	return s.store.ListCities(ctx)
}

// UpdateInterval changes a city's polling cadence and reschedules it.
func (s *Service) UpdateInterval(ctx context.Context, id int64, intervalHours float64) (City, error) {
	if err := validateInterval(intervalHours); err != nil {
		return City{}, err
	}

	city, err := s.store.UpdateCityInterval(ctx, id, intervalHours)
	if err != nil {
		return City{}, err
	}

	if err := s.jobs.UpdateInterval(city.ID, city.IntervalHours, s.FetchJob); err != nil {
		return City{}, fmt.Errorf("reschedule city %d: %w", city.ID, err)
	}
	return city, nil
}

// DeleteCity removes the city with its observations and cancels its job.
func (s *Service) DeleteCity(ctx context.Context, id int64) error {
	if err := s.store.DeleteCity(ctx, id); err != nil {
		return err
	}
	s.jobs.Remove(id)
	return nil
}

// Report returns every observation of a city with the temperature in the
// requested unit and the timestamp in the requested zone.
func (s *Service) Report(ctx context.Context, req ReportRequest) ([]ReportEntry, error) {
	unit := TemperatureUnit(strings.ToUpper(string(req.Unit)))
	if unit == "" {
		unit = UnitCelsius
	}
	if unit != UnitCelsius && unit != UnitFahrenheit {
		return nil, fmt.Errorf("%w: temperature_unit must be C or F", ErrValidation)
	}

	zone := req.Timezone
	if zone == "" {
		zone = DefaultTimezone
	}
	if _, err := common.LoadZone(zone); err != nil {
		return nil, fmt.Errorf("%w: '%s' is not a valid IANA timezone", ErrValidation, zone)
	}

	observations, err := s.store.ListObservations(ctx, req.CityID)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, ErrNotFound
	}

	entries := make([]ReportEntry, 0, len(observations))
	for _, o := range observations {
		temp := o.TemperatureC
		if unit == UnitFahrenheit {
			temp = common.CelsiusToFahrenheit(temp)
		}

		var ts *string
		if t, ok := common.ConvertUTCToZone(o.UTCISOTime, zone); ok {
			formatted := common.FormatISO(t)
			ts = &formatted
		}

		entries = append(entries, ReportEntry{
			ID:              o.ID,
			CityID:          req.CityID,
			TemperatureUnit: unit,
			Temperature:     temp,
			Timezone:        zone,
			Timestamp:       ts,
		})
	}
	return entries, nil
}

// FetchAndStore reads current conditions for a city and appends an observation.
func (s *Service) FetchAndStore(ctx context.Context, cityID int64) (Observation, error) {
	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		return Observation{}, err
	}

	reading, err := s.provider.Current(ctx, city.Coordinates())
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{
		CityID:       city.ID,
		UTCISOTime:   common.FormatISO(reading.Timestamp.UTC()),
		TemperatureC: reading.TemperatureC,
	}
	if err := s.store.AddObservation(ctx, &obs); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// FetchJob is the scheduler callback. It never panics or returns an error;
// every failure ends up as a log record.
func (s *Service) FetchJob(cityID int64) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordFetch(metrics.OutcomeUnexpectedError)
			logging.Critical(s.logger, fmt.Sprintf("Unexpected error for city ID '%d': '%v'", cityID, r),
				zap.Int64("city_id", cityID))
		}
	}()

	_, err := s.FetchAndStore(context.Background(), cityID)
	switch {
	case err == nil:
		metrics.RecordFetch(metrics.OutcomeStored)
		s.logger.Info(fmt.Sprintf("Updated weather for city ID '%d'", cityID), zap.Int64("city_id", cityID))
	case errors.Is(err, ErrNotFound):
		metrics.RecordFetch(metrics.OutcomeCityMissing)
		s.logger.Error(fmt.Sprintf("City ID '%d' not found", cityID), zap.Int64("city_id", cityID))
	case errors.Is(err, ErrNoCurrentWeather):
		metrics.RecordFetch(metrics.OutcomeNoData)
		s.logger.Error(fmt.Sprintf("No current weather data for city ID '%d'", cityID), zap.Int64("city_id", cityID))
	case IsUpstream(err):
		metrics.RecordFetch(metrics.OutcomeUpstreamError)
		s.logger.Error(fmt.Sprintf("Error fetching weather for city ID '%d': '%v'", cityID, err), zap.Int64("city_id", cityID))
	default:
		metrics.RecordFetch(metrics.OutcomeUnexpectedError)
		logging.Critical(s.logger, fmt.Sprintf("Unexpected error for city ID '%d': '%v'", cityID, err),
			zap.Int64("city_id", cityID))
	}
}

func validateInterval(hours float64) error {
	if hours < MinIntervalHours || hours > MaxIntervalHours {
		return fmt.Errorf("%w: interval_hours must be between %v and %v", ErrValidation, MinIntervalHours, MaxIntervalHours)
	}
	return nil
}
