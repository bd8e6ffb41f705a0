package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/weather-city-jobs/internal/weather"
)

// Options tunes NewApp.
type Options struct {
	AccessLog    bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp builds the Fiber app with middleware, error mapping and routes.
func NewApp(service *weather.Service, log *zap.Logger, opts Options) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-city-jobs",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(RequestIDMiddleware(log))
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(MetricsMiddleware())

	RegisterRoutes(app, service)
	return app
}
