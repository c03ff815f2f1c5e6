package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// ValidateWebhookToken checks the shared-secret token the gateway appends to
// webhook delivery URLs (?token=...). Comparison is constant-time.
func ValidateWebhookToken(verifyToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifyToken == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		token := c.Query("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid webhook token",
			})
		}
		return c.Next()
	}
}
