package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/services"
	"gorm.io/gorm"
)

// Deps are the shared services handed to every plugin.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Catalog  *catalog.Registry
	Notifier *services.NotificationService
}

// Plugin defines the interface every application wizard implements.
type Plugin interface {
	// ID returns the unique plugin identifier, also used in route paths.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// Init builds the plugin services. It runs once, before any routes are
	// mounted, and is also called by the CLI so resends can reach plugin
	// records.
	Init(deps Deps)

	// RegisterRoutes mounts the public applicant routes on the given group.
	// The group is already prefixed with /api/applications.
	RegisterRoutes(router fiber.Router)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router)
}
