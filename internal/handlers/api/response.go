package api

import (
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/lifecycle"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// renderError maps core errors onto HTTP responses. Infrastructure failures
// are logged and answered with a generic message.
func renderError(c fiber.Ctx, err error) error {
	if errors.Is(err, lifecycle.ErrInvalidCredentials) {
		return jsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.KindInfrastructure {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal server error")
	}

	body := fiber.Map{
		"status": "error",
		"error":  ae.Message,
	}

	var status int
	switch ae.Kind {
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
		body["fields"] = ae.Fields
	case apperr.KindInvalidState:
		status = fiber.StatusBadRequest
		if ae.Status != "" {
			body["current_status"] = ae.Status
		}
	case apperr.KindConflict:
		status = fiber.StatusConflict
		if ae.ResourceID != "" {
			body["resource_id"] = ae.ResourceID
		}
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	default:
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(body)
}

// paramID parses the :id route parameter.
func paramID(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Invalid(key, "must be an integer")
	}
	return n, nil
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(c fiber.Ctx, key string) (*float64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Invalid(key, "must be a number")
	}
	return &f, nil
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(c fiber.Ctx, key string) (*int64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, apperr.Invalid(key, "must be an integer")
	}
	return &n, nil
}
