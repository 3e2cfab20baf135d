package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/config"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/utils"
)

const adminContextKey = "currentAdminID"

// AdminAuthMiddleware validates JWT tokens and loads the authenticated admin ID into context.
func AdminAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		adminID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, adminID)
		return c.Next()
	}
}

// GetCurrentAdminID extracts the authenticated admin ID from context.
func GetCurrentAdminID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(adminContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
