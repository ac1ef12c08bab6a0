package lifeinsurance

import (
	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/apps"
)

type LifeInsurancePlugin struct {
	service *ApplicationService
}

func New() *LifeInsurancePlugin {
	return &LifeInsurancePlugin{}
}

func (p *LifeInsurancePlugin) ID() string { return "life-insurance" }

func (p *LifeInsurancePlugin) Models() []interface{} {
	return []interface{}{
		&Application{},
	}
}

func (p *LifeInsurancePlugin) Init(deps apps.Deps) {
	p.service = NewApplicationService(deps.DB, deps.Catalog, deps.Notifier)
}

// Service is available after Init.
func (p *LifeInsurancePlugin) Service() *ApplicationService { return p.service }

func (p *LifeInsurancePlugin) RegisterRoutes(router fiber.Router) {
	handler := NewApplicationHandler(p.service)

	g := router.Group("/" + p.ID())
	g.Post("/", handler.Create)
	g.Get("/:id", handler.Resume)
	g.Put("/:id/steps/:n", handler.SaveStep)
	g.Post("/:id/submit", handler.Submit)
}

func (p *LifeInsurancePlugin) RegisterAdminRoutes(router fiber.Router) {
	handler := NewApplicationHandler(p.service)

	g := router.Group("/applications/" + p.ID())
	g.Get("/", handler.List)
	g.Get("/:id", handler.Get)
	g.Put("/:id/status", handler.SetStatus)
	g.Post("/:id/resend", handler.Resend)
}
