package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/northgate-advisors/intake-backend/internal/apps"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/handlers"
	"github.com/northgate-advisors/intake-backend/internal/middleware"
	"github.com/northgate-advisors/intake-backend/internal/ratelimit"
)

// Handlers groups the core handlers mounted by Setup.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Health      *handlers.HealthHandler
	Functions   *handlers.FunctionHandler
	Submissions *handlers.SubmissionHandler
	Advisors    *handlers.AdvisorHandler
	Settings    *handlers.SettingsHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	h Handlers,
	admins middleware.AdminChecker,
	registrationLimiter ratelimit.Limiter,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": middleware.RateLimitMessage})
		},
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/settings", h.Settings.GetSettings)

	// Lead form functions. The per-form 5/min limit is applied inside the
	// intake pipeline, after validation.
	api.Post("/functions/:family", h.Functions.Submit)
	api.Post("/submissions", h.Functions.SubmitNormalized)

	// Advisor directory
	api.Get("/advisors", h.Advisors.Directory)
	api.Get("/advisors/:slug", h.Advisors.BySlug)
	api.Post("/advisors/register", middleware.RateLimit(registrationLimiter, "advisor-register"), h.Advisors.Register)

	// Admin auth: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
	}))
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)

	admin := api.Group("/admin",
		middleware.TokenOrJWT(cfg, middleware.JWTProtected(cfg)),
		middleware.AdminRequired(admins, cfg),
	)

	admin.Get("/submissions", h.Submissions.List)
	admin.Get("/submissions/stats", h.Submissions.Stats)
	admin.Get("/submissions/:id", h.Submissions.Get)
	admin.Post("/submissions/:id/resend", h.Submissions.Resend)

	admin.Get("/advisors", h.Advisors.List)
	admin.Post("/advisors", h.Advisors.Create)
	admin.Put("/advisors/bulk/status", h.Advisors.BulkStatus)
	admin.Post("/advisors/bulk/delete", h.Advisors.BulkDelete)
	admin.Get("/advisors/directory", h.Advisors.GetDirectorySettings)
	admin.Put("/advisors/directory", h.Advisors.PutDirectorySettings)
	admin.Get("/advisors/:id", h.Advisors.Get)
	admin.Put("/advisors/:id", h.Advisors.Update)
	admin.Put("/advisors/:id/status", h.Advisors.SetStatus)
	admin.Post("/advisors/:id/archive", h.Advisors.Archive)
	admin.Post("/advisors/:id/restore", h.Advisors.Restore)
	admin.Delete("/advisors/:id", h.Advisors.Delete)

	admin.Put("/settings/:key", h.Settings.SetSetting)
	admin.Delete("/settings/:key", h.Settings.DeleteSetting)

	// Application wizards. Applicants authenticate with their resume token.
	applications := api.Group("/applications")
	for _, p := range plugins {
		p.RegisterRoutes(applications)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin)
		}
	}
}
