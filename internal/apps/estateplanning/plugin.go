package estateplanning

import (
	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/apps"
)

type EstatePlanningPlugin struct {
	service *ApplicationService
}

func New() *EstatePlanningPlugin {
	return &EstatePlanningPlugin{}
}

func (p *EstatePlanningPlugin) ID() string { return "estate-planning" }

func (p *EstatePlanningPlugin) Models() []interface{} {
	return []interface{}{
		&Application{},
	}
}

func (p *EstatePlanningPlugin) Init(deps apps.Deps) {
	p.service = NewApplicationService(deps.DB, deps.Catalog, deps.Notifier)
}

func (p *EstatePlanningPlugin) Service() *ApplicationService { return p.service }

func (p *EstatePlanningPlugin) RegisterRoutes(router fiber.Router) {
	handler := NewApplicationHandler(p.service)

	g := router.Group("/" + p.ID())
	g.Post("/", handler.Create)
	g.Get("/defaults/powers", handler.DefaultPowers)
	g.Get("/:id", handler.Resume)
	g.Put("/:id/steps/:n", handler.SaveStep)
	g.Post("/:id/submit", handler.Submit)
}

func (p *EstatePlanningPlugin) RegisterAdminRoutes(router fiber.Router) {
	handler := NewApplicationHandler(p.service)

	g := router.Group("/applications/" + p.ID())
	g.Get("/", handler.List)
	g.Get("/:id", handler.Get)
	g.Put("/:id/status", handler.SetStatus)
	g.Post("/:id/resend", handler.Resend)
}
