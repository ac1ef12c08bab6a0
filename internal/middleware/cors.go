package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/northgate-advisors/intake-backend/internal/config"
)

// FunctionHeaders are the request headers browser forms send to the
// submission functions.
const FunctionHeaders = "authorization, x-client-info, apikey, content-type"

// CORS answers preflight requests for every route. The function endpoints
// are called cross-origin from the marketing site, so the default origin
// list is "*".
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     FunctionHeaders + ", x-admin-token, x-resume-token",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		ExposeHeaders:    "Retry-After, X-RateLimit-Remaining, X-Resume-Token",
		AllowCredentials: false,
	})
}
