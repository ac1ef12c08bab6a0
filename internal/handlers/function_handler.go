package handlers

import (
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/services"
)

const (
	successMessage     = "Thank you! Your submission has been received. We will be in touch shortly."
	rateLimitMessage   = "Too many requests. Please try again later."
	genericFailMessage = "Something went wrong. Please try again or call us directly."
)

type FunctionHandler struct {
	intake *services.IntakeService
}

func NewFunctionHandler(intake *services.IntakeService) *FunctionHandler {
	return &FunctionHandler{intake: intake}
}

func caller(c *fiber.Ctx) services.Caller {
	return services.Caller{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// SetRateLimitHeaders writes Retry-After and X-RateLimit-Remaining for a
// rejected request.
func SetRateLimitHeaders(c *fiber.Ctx, remaining int, resetIn int) {
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(resetIn))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
}

func seconds(rl *services.RateLimitError) int {
	return int(math.Ceil(rl.Decision.ResetIn.Seconds()))
}

// Submit handles POST /api/functions/:family.
func (h *FunctionHandler) Submit(c *fiber.Ctx) error {
	family := c.Params("family")
	f, err := forms.Decode(family, c.Body())
	if err != nil {
		if errors.Is(err, forms.ErrUnknownForm) {
			return c.Status(fiber.StatusNotFound).JSON(dto.FunctionError{Error: "Unknown form"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.FunctionError{Error: "Invalid request body"})
	}

	_, err = h.intake.Submit(c.UserContext(), f, caller(c))
	if err != nil {
		var verr *forms.ValidationError
		var rl *services.RateLimitError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.FunctionError{Error: verr.Error(), Fields: verr.Fields})
		case errors.As(err, &rl):
			SetRateLimitHeaders(c, rl.Decision.Remaining, seconds(rl))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.FunctionError{Error: rateLimitMessage, ResetIn: seconds(rl)})
		}
		slog.Error("submission failed", "family", family, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.FunctionError{Error: genericFailMessage})
	}

	return c.JSON(dto.FunctionResponse{Success: true, Message: successMessage})
}

// SubmitNormalized handles POST /api/submissions, the endpoint used by the
// submission client. Every outcome is reported as {ok, error}.
func (h *FunctionHandler) SubmitNormalized(c *fiber.Ctx) error {
	var p forms.Payload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.SubmissionResult{Error: "Invalid request body"})
	}

	_, err := h.intake.Submit(c.UserContext(), &p, caller(c))
	if err != nil {
		var verr *forms.ValidationError
		var rl *services.RateLimitError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.SubmissionResult{Error: verr.Error()})
		case errors.As(err, &rl):
			SetRateLimitHeaders(c, rl.Decision.Remaining, seconds(rl))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.SubmissionResult{Error: rateLimitMessage})
		}
		slog.Error("submission failed", "form_name", p.FormName, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.SubmissionResult{Error: genericFailMessage})
	}
	return c.JSON(dto.SubmissionResult{OK: true})
}
