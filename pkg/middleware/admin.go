package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const adminTokenHeader = "X-Admin-Token"

// AdminMiddleware guards mutating routes with a shared token. An empty
// configured token leaves the routes open, which is the expected mode for
// local single-user deployments.
func AdminMiddleware(token string, logger *zap.Logger) fiber.Handler {
	if token == "" {
		logger.Warn("ADMIN_TOKEN not set, admin routes are unprotected")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		got := c.Get(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("Rejected admin request", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Admin token required",
			})
		}
		return c.Next()
	}
}
