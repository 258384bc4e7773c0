package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports service liveness and database reachability.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "ok"
		if err := webApp.DB.Ping(c.Context()); err != nil {
			dbStatus = "unreachable"
		}

		status := fiber.StatusOK
		if dbStatus != "ok" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(fiber.Map{
			"status":    dbStatus,
			"version":   webApp.Version,
			"timestamp": time.Now().UTC(),
		})
	}
}
