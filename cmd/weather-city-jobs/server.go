package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-city-jobs/internal/api/http"
	"github.com/i474232898/weather-city-jobs/internal/config"
	"github.com/i474232898/weather-city-jobs/internal/logging"
	"github.com/i474232898/weather-city-jobs/internal/scheduler"
	"github.com/i474232898/weather-city-jobs/internal/store"
	"github.com/i474232898/weather-city-jobs/internal/weather"
	"github.com/i474232898/weather-city-jobs/internal/weather/providers"
)

// serverOverrides carries --host/--port when they were given explicitly.
type serverOverrides struct {
	host *string
	port *int
}

func runServer(overrides serverOverrides) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if overrides.host != nil {
		cfg.Host = *overrides.host
	}
	if overrides.port != nil {
		cfg.Port = *overrides.port
	}

	st, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger, closeLog, err := logging.NewLogger(logging.Options{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
		Sink:     st,
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer closeLog()
	defer logger.Sync()

	if !cfg.DotEnvLoaded {
		logger.Info("no .env file found, using environment only")
	}

	// Shared HTTP client for outbound geocoding and weather calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	geocoder := providers.NewOpenMeteoGeocoder(httpClient, cfg.GeocodingURL)
	provider, err := providers.NewProvider(httpClient, providers.Config{
		Provider:          cfg.WeatherProvider,
		WeatherURL:        cfg.WeatherURL,
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WeatherAPIKey:     cfg.WeatherAPIKey,
	})
	if err != nil {
		return err
	}

	jobs := scheduler.New(logger)
	service := weather.NewService(st, geocoder, provider, jobs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := service.ScheduleAll(ctx)
	if err != nil {
		return err
	}
	jobs.Start()

	app := httpapi.NewApp(service, logger, httpapi.Options{
		AccessLog:    true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.Addr())
	}()

	logger.Warn("API server started and existing jobs are scheduled",
		zap.String("addr", cfg.Addr()),
		zap.Int("jobs", n),
		zap.String("provider", provider.Name()),
	)

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		logger.Error("scheduled jobs did not finish before shutdown timeout", zap.Error(err))
	}

	logger.Warn("API server stopped, and scheduled jobs are shutdown")
	return nil
}
