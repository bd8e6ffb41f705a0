package httpapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-city-jobs/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present, and stores a request-scoped logger in Locals.
func RequestIDMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals("request_id", reqID)
		c.Locals("logger", logger.With(zap.String("request_id", reqID)))
		return c.Next()
	}
}

// MetricsMiddleware counts requests by method, route and status class. Errors
// are rendered here so the recorded status matches the response.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		method := c.Method()
		status := fmt.Sprintf("%dxx", c.Response().StatusCode()/100)

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}

func requestLogger(c *fiber.Ctx, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Locals("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}
