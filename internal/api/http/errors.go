package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-city-jobs/internal/logging"
	"github.com/i474232898/weather-city-jobs/internal/weather"
)

// Response details shared with clients.
const (
	detailAlreadyExists = "Job already exists"
	detailNotFound      = "Not found"
	detailInternal      = "Internal Server Error"
)

// fieldError is one entry of a 422 detail list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ErrorHandler maps service and validation errors onto {"detail": ...}
// responses. Every status code is produced here.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := requestLogger(c, logger)

		var (
			vErrs validator.ValidationErrors
			fErr  *fiber.Error
		)
		switch {
		case errors.As(err, &vErrs):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": validationDetail(vErrs)})

		case errors.Is(err, weather.ErrValidation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": []fieldError{{
				Loc:  []string{"body"},
				Msg:  strings.TrimPrefix(err.Error(), weather.ErrValidation.Error()+": "),
				Type: "value_error",
			}}})

		case errors.Is(err, weather.ErrAlreadyExists):
			return clientError(c, log, fiber.StatusBadRequest, detailAlreadyExists)

		case errors.Is(err, weather.ErrNotFound):
			return clientError(c, log, fiber.StatusNotFound, detailNotFound)

		case weather.IsUpstream(err):
			logging.Critical(log, fmt.Sprintf("Status code: 500 - Detail: '%v'", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": detailInternal})

		case errors.As(err, &fErr):
			if fErr.Code == fiber.StatusNotFound || fErr.Code == fiber.StatusBadRequest {
				return clientError(c, log, fErr.Code, fErr.Message)
			}
			return c.Status(fErr.Code).JSON(fiber.Map{"detail": fErr.Message})

		default:
			log.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": detailInternal})
		}
	}
}

// clientError logs 400s at warning and 404s at info, naming the caller.
func clientError(c *fiber.Ctx, log *zap.Logger, code int, detail string) error {
	msg := fmt.Sprintf("Status code: '%d' - Detail: '%s' - Offender: '%s'", code, detail, c.IP())
	if code == fiber.StatusBadRequest {
		log.Warn(msg)
	} else {
		log.Info(msg)
	}
	return c.Status(code).JSON(fiber.Map{"detail": detail})
}

func validationDetail(errs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, fieldError{
			Loc:  []string{"body", fe.Field()},
			Msg:  validationMessage(fe),
			Type: fe.Tag(),
		})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "gte":
		return "Input should be greater than or equal to " + fe.Param()
	case "lte":
		return "Input should be less than or equal to " + fe.Param()
	case "oneof":
		return "Input should match one of: " + fe.Param()
	case "timezone":
		return fmt.Sprintf("'%v' is not a valid IANA timezone.", fe.Value())
	default:
		return fe.Error()
	}
}
