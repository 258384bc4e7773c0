package middleware

import (
	"errors"
	"log/slog"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// CustomErrorHandler turns unhandled errors into the standard envelope.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= 500 {
		slog.Error("Unhandled request error",
			slog.String("type", "http"),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return utils.SendInternalServerError(c, "Internal server error")
	}
	return utils.SendError(c, code, "REQUEST_FAILED", err.Error(), nil)
}
