package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// ErrorHandler renders errors as {"error": message}. Only *fiber.Error
// messages reach the client.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			msg = e.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Int("status", code),
				logger.Error(err),
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"error": msg,
		})
	}
}
