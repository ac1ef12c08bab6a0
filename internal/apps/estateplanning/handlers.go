package estateplanning

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"github.com/northgate-advisors/intake-backend/internal/services"
	"github.com/northgate-advisors/intake-backend/internal/wizard"
)

type ApplicationHandler struct {
	service *ApplicationService
}

func NewApplicationHandler(service *ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func view(app *Application) ApplicationView {
	return ApplicationView{Application: *app, Steps: Steps, Missing: nonNil(app.FormData.Data().Missing())}
}

func nonNil(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}

// fail maps service errors to responses.
func fail(c *fiber.Ctx, err error, fallback string) error {
	code := wizard.StatusCode(err)
	if errors.Is(err, services.ErrUnknownTaskKind) {
		code = fiber.StatusBadRequest
	}
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(code).JSON(fiber.Map{
			"error": true, "message": verr.Error(), "fields": verr.Fields,
		})
	case code >= fiber.StatusInternalServerError:
		slog.Error("estate planning request failed", "path", c.Path(), "error", err.Error())
		return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: fallback})
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	app, token, err := h.service.Create(c.Body())
	if err != nil {
		return fail(c, err, "Failed to start application")
	}
	c.Set(wizard.ResumeHeader, token)
	return c.Status(fiber.StatusCreated).JSON(CreateResponse{
		ID:          app.ID,
		ResumeToken: token,
		CurrentStep: app.CurrentStep,
		Status:      app.Status,
	})
}

func (h *ApplicationHandler) Resume(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	app, err := h.service.Resume(id, c.Get(wizard.ResumeHeader))
	if err != nil {
		return fail(c, err, "Failed to load application")
	}
	return c.JSON(view(app))
}

func (h *ApplicationHandler) SaveStep(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid step number"})
	}

	app, err := h.service.SaveStep(id, c.Get(wizard.ResumeHeader), n, c.Body())
	if err != nil {
		return fail(c, err, "Failed to save step")
	}
	return c.JSON(view(app))
}

func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	app, err := h.service.Submit(c.UserContext(), id, c.Get(wizard.ResumeHeader))
	if err != nil {
		return fail(c, err, "Failed to submit application")
	}
	return c.JSON(view(app))
}

// --- admin ---

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	var q review.Query
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid query"})
	}
	apps, err := h.service.List(q)
	if err != nil {
		return fail(c, err, "Failed to fetch applications")
	}
	return c.JSON(dto.ListResponse[Application]{Items: apps, Total: len(apps)})
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	app, err := h.service.Get(id)
	if err != nil {
		return fail(c, err, "Failed to fetch application")
	}
	return c.JSON(view(app))
}

func (h *ApplicationHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	app, err := h.service.SetStatus(id, req.Status, req.ReviewerNotes)
	if err != nil {
		return fail(c, err, "Failed to update application")
	}
	return c.JSON(app)
}

func (h *ApplicationHandler) Resend(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid application ID"})
	}
	var req dto.ResendRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
		}
	}
	tasks, err := h.service.Resend(c.UserContext(), id, req.Kinds, req.Force)
	if err != nil {
		return fail(c, err, "Failed to resend notifications")
	}
	return c.JSON(dto.ResendResponse{Tasks: tasks})
}

// DefaultPowers lets the form render the initial power of attorney choices
// before an application exists.
func (h *ApplicationHandler) DefaultPowers(c *fiber.Ctx) error {
	return c.JSON(DefaultPowers())
}
