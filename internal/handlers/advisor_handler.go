package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/honeypot"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"github.com/northgate-advisors/intake-backend/internal/services"
)

type AdvisorHandler struct {
	advisors *services.AdvisorService
}

func NewAdvisorHandler(advisors *services.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisors}
}

func advisorError(c *fiber.Ctx, err error) error {
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, services.ErrAdvisorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Advisor not found"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrSlugTaken):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, services.ErrProfileRejected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	slog.Error("advisor request failed", "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid ID"})
}

func parseAdvisorRequest(c *fiber.Ctx) (*dto.AdvisorRequest, error) {
	var req dto.AdvisorRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, &forms.ValidationError{Message: "Invalid request body"}
	}
	return &req, nil
}

// --- public ---

// Directory lists the published advisors in directory order.
func (h *AdvisorHandler) Directory(c *fiber.Ctx) error {
	advisors, err := h.advisors.PublicDirectory()
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(dto.ListResponse[models.Advisor]{Items: advisors, Total: len(advisors)})
}

func (h *AdvisorHandler) BySlug(c *fiber.Ctx) error {
	advisor, err := h.advisors.GetBySlug(c.Params("slug"))
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

// Register is advisor self-registration. The profile waits in pending.
func (h *AdvisorHandler) Register(c *fiber.Ctx) error {
	req, err := parseAdvisorRequest(c)
	if err != nil {
		return advisorError(c, err)
	}
	if honeypot.IsBot(req.Honeypot) {
		slog.Info("honeypot triggered", "family", "advisor-registration", "ip", c.IP())
		return c.Status(fiber.StatusAccepted).JSON(dto.FunctionResponse{Success: true, Message: registrationMessage})
	}
	if err := forms.Validate(req); err != nil {
		return advisorError(c, err)
	}

	if _, err := h.advisors.Register(req); err != nil {
		return advisorError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.FunctionResponse{Success: true, Message: registrationMessage})
}

const registrationMessage = "Thank you! Your profile has been submitted for review."

// --- admin ---

func (h *AdvisorHandler) List(c *fiber.Ctx) error {
	var q review.Query
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid query"})
	}
	advisors, err := h.advisors.Query(q)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(dto.ListResponse[models.Advisor]{Items: advisors, Total: len(advisors)})
}

func (h *AdvisorHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	advisor, err := h.advisors.Get(id)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

func (h *AdvisorHandler) Create(c *fiber.Ctx) error {
	req, err := parseAdvisorRequest(c)
	if err != nil {
		return advisorError(c, err)
	}
	if err := forms.Validate(req); err != nil {
		return advisorError(c, err)
	}
	advisor, err := h.advisors.Create(req)
	if err != nil {
		return advisorError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(advisor)
}

func (h *AdvisorHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	req, err := parseAdvisorRequest(c)
	if err != nil {
		return advisorError(c, err)
	}
	if err := forms.Validate(req); err != nil {
		return advisorError(c, err)
	}
	advisor, err := h.advisors.Update(id, req)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

func (h *AdvisorHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	advisor, err := h.advisors.SetStatus(id, req.Status)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

func (h *AdvisorHandler) BulkStatus(c *fiber.Ctx) error {
	var req dto.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "ids and status are required"})
	}
	result, err := h.advisors.BulkSetStatus(req.IDs, req.Status)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(result)
}

func (h *AdvisorHandler) Archive(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	advisor, err := h.advisors.Archive(id)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

func (h *AdvisorHandler) Restore(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	advisor, err := h.advisors.Restore(id)
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(advisor)
}

func (h *AdvisorHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.advisors.Delete(id); err != nil {
		return advisorError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "message": "Advisor deleted"})
}

func (h *AdvisorHandler) BulkDelete(c *fiber.Ctx) error {
	var req dto.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "ids are required"})
	}
	return c.JSON(h.advisors.BulkDelete(req.IDs))
}

func (h *AdvisorHandler) GetDirectorySettings(c *fiber.Ctx) error {
	ds, err := h.advisors.DirectorySettings()
	if err != nil {
		return advisorError(c, err)
	}
	return c.JSON(ds)
}

func (h *AdvisorHandler) PutDirectorySettings(c *fiber.Ctx) error {
	var ds dto.DirectorySettings
	if err := c.BodyParser(&ds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if err := h.advisors.SetDirectorySettings(ds); err != nil {
		return advisorError(c, err)
	}
	return c.JSON(ds)
}
