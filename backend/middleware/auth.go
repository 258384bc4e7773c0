package middleware

import (
	"log/slog"
	"strings"

	"github.com/fluentdeck/fluentdeck/backend/utils"
	"github.com/fluentdeck/fluentdeck/fluentdeck/auth"
	"github.com/gofiber/fiber/v2"
)

// AuthRequired validates the bearer token and stores the user id in the
// request context under "user_id".
func AuthRequired(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return utils.SendUnauthorized(c, "Missing authorization header")
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return utils.SendUnauthorized(c, "Invalid authorization header")
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			slog.Debug("Token validation failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendUnauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		return c.Next()
	}
}
