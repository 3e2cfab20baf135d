package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

// RateLimit guards an endpoint with the given limiter, keyed by client IP and
// route path. A nil limiter fails open: the check being unavailable never
// blocks the user.
func RateLimit(limiter *services.RateLimiter, maxCount int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		key := c.IP() + ":" + c.Path()
		if !limiter.Allow(key, maxCount, window) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
