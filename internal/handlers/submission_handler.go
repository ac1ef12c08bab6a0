package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"github.com/northgate-advisors/intake-backend/internal/services"
)

// SubmissionHandler serves the admin view of lead form submissions.
type SubmissionHandler struct {
	intake   *services.IntakeService
	notifier *services.NotificationService
}

func NewSubmissionHandler(intake *services.IntakeService, notifier *services.NotificationService) *SubmissionHandler {
	return &SubmissionHandler{intake: intake, notifier: notifier}
}

type submissionDetail struct {
	models.FormSubmission
	Tasks []models.NotificationTask `json:"tasks"`
}

func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	var q review.Query
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid query"})
	}
	subs, err := h.intake.Query(q)
	if err != nil {
		slog.Error("failed to list submissions", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch submissions"})
	}
	return c.JSON(dto.ListResponse[models.FormSubmission]{Items: subs, Total: len(subs)})
}

func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	sub, err := h.intake.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrSubmissionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch submission"})
	}
	tasks, err := h.notifier.Tasks(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch notification status"})
	}
	return c.JSON(submissionDetail{FormSubmission: *sub, Tasks: tasks})
}

// Resend re-runs the notifications of a submission. Tasks already sent are
// skipped unless force is set.
func (h *SubmissionHandler) Resend(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	var req dto.ResendRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
		}
	}
	tasks, err := h.notifier.Resend(c.UserContext(), models.SubjectSubmission, id, req.Kinds, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubmissionNotFound), errors.Is(err, services.ErrSubjectNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Submission not found"})
		case errors.Is(err, services.ErrUnknownTaskKind):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
		slog.Error("resend failed", "submission_id", id.String(), "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to resend notifications"})
	}
	return c.JSON(dto.ResendResponse{Tasks: tasks})
}

// Stats counts submissions per form over the last ?days (default 30).
func (h *SubmissionHandler) Stats(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 {
		days = 30
	}
	counts, err := h.intake.Stats(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to compute stats"})
	}
	return c.JSON(fiber.Map{"days": days, "by_form": counts})
}
