package utils

import (
	"math"

	apperrors "momo/internal/errors"
	"momo/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": message})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"error": message})
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusNotFound, fiber.Map{"error": message})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message})
}

// Error renders err with the status its domain kind maps to. Errors outside the
// domain taxonomy are logged and hidden behind a generic message.
func Error(c *fiber.Ctx, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		logger.Log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return InternalError(c, "internal server error")
	}

	if de.Kind == apperrors.KindInternal {
		logger.Log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("code", de.Code),
			zap.Error(err))
	}

	body := fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	}
	if de.Kind == apperrors.KindLocked {
		body["retry_after_seconds"] = int64(math.Ceil(de.Remaining.Seconds()))
		body["permanent"] = de.Remaining == 0
	}
	return Respond(c, apperrors.HTTPStatus(err), body)
}
