package routes

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/dto"
)

// AppConfig is the Fiber configuration shared by the server and its tests.
// c.IP() only honours cfg.ProxyHeader when the peer is a trusted proxy, so
// rate limit keys cannot be chosen by the client.
func AppConfig(cfg *config.Config) fiber.Config {
	fc := fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: ErrorHandler,
	}
	if len(cfg.TrustedProxies) > 0 && cfg.ProxyHeader != "" {
		fc.ProxyHeader = cfg.ProxyHeader
		fc.EnableTrustedProxyCheck = true
		fc.TrustedProxies = cfg.TrustedProxies
		fc.EnableIPValidation = true
	}
	return fc
}

// ErrorHandler renders errors no handler answered. Lead form endpoints keep
// their own body shapes; everything else gets the admin error shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	path := c.Path()
	switch {
	case strings.HasPrefix(path, "/api/functions/"):
		return c.Status(code).JSON(dto.FunctionError{Error: message})
	case path == "/api/submissions":
		return c.Status(code).JSON(dto.SubmissionResult{Error: message})
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
