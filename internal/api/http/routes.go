package httpapi

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-city-jobs/internal/metrics"
	"github.com/i474232898/weather-city-jobs/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	h := &handlers{service: service}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/job/", h.createJob)
	app.Get("/job/:id", h.getJob)
	app.Put("/job/:id", h.updateJob)
	app.Delete("/job/:id", h.deleteJob)
	app.Get("/jobs/", h.listJobs)
	app.Post("/reports/", h.report)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

type handlers struct {
	service *weather.Service
}

// createJobRequest is the POST /job/ body. A missing interval defaults to two hours.
type createJobRequest struct {
	Name          string   `json:"name" validate:"required"`
	CountryCode   string   `json:"country_code" validate:"required"`
	IntervalHours *float64 `json:"interval_hours" validate:"omitempty,gte=0.25,lte=2"`
}

// updateJobRequest is the PUT /job/:id body.
type updateJobRequest struct {
	IntervalHours *float64 `json:"interval_hours" validate:"required,gte=0.25,lte=2"`
}

// reportRequest is the POST /reports/ body.
type reportRequest struct {
	CityID          *int64 `json:"city_id" validate:"required"`
	TemperatureUnit string `json:"temperature_unit" validate:"oneof=C F"`
	Timezone        string `json:"timezone" validate:"timezone"`
}

func (h *handlers) createJob(c *fiber.Ctx) error {
	var req createJobRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.CountryCode = strings.TrimSpace(req.CountryCode)
	if err := validate.Struct(req); err != nil {
		return err
	}

	interval := weather.DefaultIntervalHours
	if req.IntervalHours != nil {
		interval = *req.IntervalHours
	}

	city, err := h.service.CreateCity(c.UserContext(), weather.Location{Name: req.Name, CountryCode: req.CountryCode}, interval)
	if err != nil {
		return err
	}
	return c.JSON(city)
}

func (h *handlers) getJob(c *fiber.Ctx) error {
	id, err := cityID(c)
	if err != nil {
		return err
	}

	city, err := h.service.GetCity(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(city)
}

func (h *handlers) updateJob(c *fiber.Ctx) error {
	id, err := cityID(c)
	if err != nil {
		return err
	}

	var req updateJobRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	city, err := h.service.UpdateInterval(c.UserContext(), id, *req.IntervalHours)
	if err != nil {
		return err
	}
	return c.JSON(city)
}

func (h *handlers) deleteJob(c *fiber.Ctx) error {
	id, err := cityID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteCity(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "City ID '" + strconv.FormatInt(id, 10) + "' deleted"})
}

func (h *handlers) listJobs(c *fiber.Ctx) error {
	cities, err := h.service.ListCities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(cities)
}

func (h *handlers) report(c *fiber.Ctx) error {
	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if req.TemperatureUnit == "" {
		req.TemperatureUnit = string(weather.UnitCelsius)
	}
	req.TemperatureUnit = strings.ToUpper(req.TemperatureUnit)
	if req.Timezone == "" {
		req.Timezone = weather.DefaultTimezone
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	entries, err := h.service.Report(c.UserContext(), weather.ReportRequest{
		CityID:   *req.CityID,
		Unit:     weather.TemperatureUnit(req.TemperatureUnit),
		Timezone: req.Timezone,
	})
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
	}
	return nil
}

func cityID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnprocessableEntity, "city id must be an integer")
	}
	return int64(id), nil
}
