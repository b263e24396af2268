package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"progression-engine/logger"
	"progression-engine/services"
)

// respondError maps service errors to a status code and the usual
// {"error", "cause"} body.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidDifficulty), errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidChallenge), errors.Is(err, services.ErrInvalidSettings):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUserExists):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Path()).Msg(message)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"error": message}
	if err != nil {
		body["cause"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// ErrorHandler answers errors that escape a handler, such as unknown routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
