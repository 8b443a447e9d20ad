package middleware

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Amna-hassan22/BrewnBean/pkg/ratelimit"
)

// RateLimit enforces a fixed-window budget per client IP for one
// endpoint group. Redis errors fail open so a cache outage does not
// take authentication down with it.
func RateLimit(limiter *ratelimit.Limiter, scope string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := limiter.Allow(c.Context(), scope, c.IP(), max, window)
		if errors.Is(err, ratelimit.ErrLimited) {
			c.Set("Retry-After", formatSeconds(window))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		}
		if err != nil {
			log.Printf("[RATE_LIMIT] check failed for %s/%s: %v", scope, c.IP(), err)
		}

		return c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
