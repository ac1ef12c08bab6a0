package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/dto"
)

// AdminChecker reports whether an admin account id is still active.
type AdminChecker interface {
	IsAdmin(id uuid.UUID) bool
}

// AdminRequired admits a request when any of these hold:
// 1. X-Admin-Token matches the configured break-glass token
// 2. the JWT email is in ADMIN_EMAILS
// 3. the JWT subject is an admin account with the admin role
func AdminRequired(admins AdminChecker, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		email, _ := claims["email"].(string)
		sub, _ := claims["sub"].(string)

		if contains(adminEmails, strings.ToLower(email)) {
			return c.Next()
		}

		if sub != "" && admins != nil {
			if id, err := uuid.Parse(sub); err == nil && admins.IsAdmin(id) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// TokenOrJWT lets a valid X-Admin-Token through without a bearer token and
// hands everything else to jwtMiddleware.
func TokenOrJWT(cfg *config.Config, jwtMiddleware fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
			return c.Next()
		}
		return jwtMiddleware(c)
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
