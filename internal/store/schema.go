package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT    NOT NULL,
		country_code   TEXT    NOT NULL,
		latitude       REAL    NOT NULL,
		longitude      REAL    NOT NULL,
		interval_hours REAL    NOT NULL,
		UNIQUE (name, country_code)
	)`,
	`CREATE TABLE IF NOT EXISTS weather_observations (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		city_id       INTEGER NOT NULL REFERENCES cities (id) ON DELETE CASCADE,
		utc_iso_time  TEXT    NOT NULL,
		temperature_c REAL    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_observations_city_id ON weather_observations (city_id)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		level     TEXT      NOT NULL,
		message   TEXT      NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT             NOT NULL,
		country_code   TEXT             NOT NULL,
		latitude       DOUBLE PRECISION NOT NULL,
		longitude      DOUBLE PRECISION NOT NULL,
		interval_hours DOUBLE PRECISION NOT NULL,
		UNIQUE (name, country_code)
	)`,
	`CREATE TABLE IF NOT EXISTS weather_observations (
		id            BIGSERIAL PRIMARY KEY,
		city_id       BIGINT           NOT NULL REFERENCES cities (id) ON DELETE CASCADE,
		utc_iso_time  TEXT             NOT NULL,
		temperature_c DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_observations_city_id ON weather_observations (city_id)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id        BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		level     TEXT        NOT NULL,
		message   TEXT        NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	schema := sqliteSchema
	if driver == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
