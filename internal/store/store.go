package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-city-jobs/internal/weather"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// LogEntry is one row of the append-only logs table.
type LogEntry struct {
	ID        int64     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	Level     string    `db:"level"`
	Message   string    `db:"message"`
}

// Store is a sqlx-backed implementation of weather.Store. It also serves as
// the database sink for the logger.
type Store struct {
	db *sqlx.DB
}

const citySelect = `SELECT id, name, country_code, interval_hours, latitude, longitude FROM cities`

// Open connects to dsn with driver and creates the schema if missing.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		dsn = withSQLiteParams(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps :memory: databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sqlx.DB instance.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// CreateCity inserts city and sets its generated ID.
func (s *Store) CreateCity(ctx context.Context, city *weather.City) error {
	query := s.db.Rebind(`
		INSERT INTO cities (name, country_code, interval_hours, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.GetContext(ctx, &city.ID, query,
		city.Name,
		city.CountryCode,
		city.IntervalHours,
		city.Latitude,
		city.Longitude,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("city %s: %w", city.Location().Key(), weather.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create city: %w", err)
	}
	return nil
}

// GetCity returns the city with id or weather.ErrNotFound.
func (s *Store) GetCity(ctx context.Context, id int64) (weather.City, error) {
	var city weather.City
	err := s.db.GetContext(ctx, &city, s.db.Rebind(citySelect+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.City{}, fmt.Errorf("city %d: %w", id, weather.ErrNotFound)
	}
	if err != nil {
		return weather.City{}, fmt.Errorf("failed to get city: %w", err)
	}
	return city, nil
}

// FindCity looks a city up by its normalized (name, country code).
func (s *Store) FindCity(ctx context.Context, loc weather.Location) (weather.City, error) {
	var city weather.City
	err := s.db.GetContext(ctx, &city, s.db.Rebind(citySelect+` WHERE name = ? AND country_code = ?`),
		loc.Name, loc.CountryCode)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.City{}, fmt.Errorf("city %s: %w", loc.Key(), weather.ErrNotFound)
	}
	if err != nil {
		return weather.City{}, fmt.Errorf("failed to find city: %w", err)
	}
	return city, nil
}

// ListCities returns every city ordered by id.
func (s *Store) ListCities(ctx context.Context) ([]weather.City, error) {
	cities := []weather.City{}
	if err := s.db.SelectContext(ctx, &cities, citySelect+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

// UpdateCityInterval sets a new cadence and returns the updated row.
func (s *Store) UpdateCityInterval(ctx context.Context, id int64, intervalHours float64) (weather.City, error) {
	query := s.db.Rebind(`
		UPDATE cities SET interval_hours = ?
		WHERE id = ?
		RETURNING id, name, country_code, interval_hours, latitude, longitude`)

	var city weather.City
	err := s.db.GetContext(ctx, &city, query, intervalHours, id)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.City{}, fmt.Errorf("city %d: %w", id, weather.ErrNotFound)
	}
	if err != nil {
		return weather.City{}, fmt.Errorf("failed to update city: %w", err)
	}
	return city, nil
}

// DeleteCity removes the city and its observations in one transaction.
func (s *Store) DeleteCity(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM weather_observations WHERE city_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete observations: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cities WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete city: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete city: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("city %d: %w", id, weather.ErrNotFound)
		}
		return nil
	})
}

// AddObservation appends an observation and sets its generated ID.
func (s *Store) AddObservation(ctx context.Context, obs *weather.Observation) error {
	query := s.db.Rebind(`
		INSERT INTO weather_observations (city_id, utc_iso_time, temperature_c)
		VALUES (?, ?, ?)
		RETURNING id`)

	if err := s.db.GetContext(ctx, &obs.ID, query, obs.CityID, obs.UTCISOTime, obs.TemperatureC); err != nil {
		return fmt.Errorf("failed to add observation: %w", err)
	}
	return nil
}

// ListObservations returns the observations of a city ordered by id. An
// unknown city yields an empty slice.
func (s *Store) ListObservations(ctx context.Context, cityID int64) ([]weather.Observation, error) {
	query := s.db.Rebind(`
		SELECT id, city_id, utc_iso_time, temperature_c
		FROM weather_observations
		WHERE city_id = ?
		ORDER BY id`)

	observations := []weather.Observation{}
	if err := s.db.SelectContext(ctx, &observations, query, cityID); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return observations, nil
}

// WriteLog appends a row to the logs table.
func (s *Store) WriteLog(ctx context.Context, ts time.Time, level, message string) error {
	query := s.db.Rebind(`INSERT INTO logs (timestamp, level, message) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, ts.UTC(), level, message); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

// ListLogs returns the most recent log rows, newest first.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	query := s.db.Rebind(`SELECT id, timestamp, level, message FROM logs ORDER BY id DESC LIMIT ?`)

	entries := []LogEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return entries, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func ensureSQLiteDir(dsn string) error {
	if strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}

func withSQLiteParams(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_busy_timeout=5000"
}
