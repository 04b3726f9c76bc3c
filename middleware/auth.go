package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireProducerAuth guards the ingestion endpoints with the shared
// producer secret. Fails closed: an empty configured secret rejects
// everything.
func RequireProducerAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":     false,
				"reason": "ingestion disabled",
			})
		}

		header := c.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":     false,
				"reason": "missing bearer token",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			slog.Warn("Producer auth rejected", "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":     false,
				"reason": "invalid credential",
			})
		}

		return c.Next()
	}
}
