package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/ratelimit"
)

// RateLimitMessage is the body text of every 429 response.
const RateLimitMessage = "Too many requests. Please try again later."

// RateLimit guards a route with limiter, keyed by c.IP(). Backend errors
// let the request through.
func RateLimit(limiter ratelimit.Limiter, prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := limiter.Check(c.UserContext(), prefix+":"+c.IP())
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err.Error())
			return c.Next()
		}
		if !d.Allowed {
			resetIn := int(math.Ceil(d.ResetIn.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(resetIn))
			c.Set("X-RateLimit-Remaining", "0")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":    RateLimitMessage,
				"reset_in": resetIn,
			})
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		return c.Next()
	}
}
