package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/honeypot"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/ratelimit"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"gorm.io/gorm"
)

var (
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrPersistFailed      = errors.New("failed to store submission")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// RateLimitError carries the limiter decision that rejected a request.
type RateLimitError struct {
	Decision ratelimit.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets in %s", e.Decision.ResetIn)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Caller describes who sent a submission.
type Caller struct {
	IP        string
	UserAgent string
}

type IntakeResult struct {
	Submission *models.FormSubmission
	Tasks      []models.NotificationTask
	// Discarded is true when the honeypot tripped; nothing was stored.
	Discarded bool
}

type IntakeService struct {
	db       *gorm.DB
	catalog  *catalog.Registry
	limiter  ratelimit.Limiter
	notifier *NotificationService
	advisors *AdvisorService
}

func NewIntakeService(db *gorm.DB, reg *catalog.Registry, limiter ratelimit.Limiter, notifier *NotificationService, advisors *AdvisorService) *IntakeService {
	s := &IntakeService{
		db:       db,
		catalog:  reg,
		limiter:  limiter,
		notifier: notifier,
		advisors: advisors,
	}
	if notifier != nil {
		notifier.RegisterLoader(models.SubjectSubmission, s.envelope)
	}
	return s
}

// Submit runs the intake pipeline for one decoded form: honeypot, validation,
// rate limit, persistence, then notifications. Notification failures are
// recorded on their tasks and never fail the submission. A honeypot hit is
// counted against the caller's quota like any other post, then discarded.
func (s *IntakeService) Submit(ctx context.Context, f forms.Form, caller Caller) (*IntakeResult, error) {
	if honeypot.IsBot(f.HoneypotValue()) {
		slog.Info("honeypot triggered", "family", f.Family(), "ip", caller.IP)
		n := f.Normalize(s.catalog)
		if err := s.checkRate(ctx, s.catalog.Resolve(n.FormName), caller.IP); err != nil {
			return nil, err
		}
		return &IntakeResult{Discarded: true}, nil
	}

	if err := forms.Validate(f); err != nil {
		return nil, err
	}

	n := f.Normalize(s.catalog)
	return s.store(ctx, n, caller)
}

func (s *IntakeService) checkRate(ctx context.Context, cfg *catalog.FormConfig, key string) error {
	if s.limiter == nil || cfg == nil || !cfg.RateLimited {
		return nil
	}
	d, err := s.limiter.Check(ctx, key)
	if err != nil {
		// A broken limiter backend lets traffic through.
		slog.Warn("rate limiter unavailable", "error", err.Error())
		return nil
	}
	if !d.Allowed {
		return &RateLimitError{Decision: d}
	}
	return nil
}

func (s *IntakeService) store(ctx context.Context, n forms.Normalized, caller Caller) (*IntakeResult, error) {
	cfg := s.catalog.Resolve(n.FormName)
	if err := s.checkRate(ctx, cfg, caller.IP); err != nil {
		return nil, err
	}

	sub := n.Submission()
	sub.IPAddress = caller.IP
	sub.UserAgent = caller.UserAgent

	if s.advisors != nil && sub.AdvisorID == nil && (sub.AdvisorSlug != "" || sub.AdvisorEmail != "") {
		if a, err := s.advisors.Resolve(nil, sub.AdvisorSlug, sub.AdvisorEmail); err == nil && a != nil {
			sub.AdvisorID = &a.ID
		}
	}

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		slog.Error("failed to store submission",
			"form_name", sub.FormName,
			"action", "persist",
			"error", err.Error(),
			"ip", caller.IP,
		)
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	result := &IntakeResult{Submission: sub}
	if s.notifier != nil {
		tasks, err := s.notifier.Dispatch(ctx, SubmissionEnvelope(sub, cfg), false)
		if err != nil {
			slog.Error("notification bookkeeping failed", "submission_id", sub.ID.String(), "form_name", sub.FormName, "error", err.Error())
		}
		result.Tasks = tasks
	}
	return result, nil
}

// SubmissionEnvelope describes a stored submission to the notifier.
func SubmissionEnvelope(sub *models.FormSubmission, cfg *catalog.FormConfig) *Envelope {
	return &Envelope{
		SubjectType:  models.SubjectSubmission,
		SubjectID:    sub.ID,
		Form:         cfg,
		FirstName:    sub.FirstName,
		LastName:     sub.LastName,
		Email:        sub.Email,
		Fields:       sub.Fields,
		Notes:        sub.Notes,
		Tags:         sub.Tags,
		SourceURL:    sub.SourceURL,
		AdvisorID:    sub.AdvisorID,
		AdvisorSlug:  sub.AdvisorSlug,
		AdvisorEmail: sub.AdvisorEmail,
		SubmittedAt:  sub.CreatedAt,
		Submission:   sub,
	}
}

func (s *IntakeService) envelope(ctx context.Context, id uuid.UUID) (*Envelope, error) {
	var sub models.FormSubmission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return SubmissionEnvelope(&sub, s.catalog.Resolve(sub.FormName)), nil
}

// List returns every submission, newest first. Sorting and filtering for
// the admin table happen in memory.
func (s *IntakeService) List() ([]models.FormSubmission, error) {
	var subs []models.FormSubmission
	if err := s.db.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *IntakeService) Get(id uuid.UUID) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	if err := s.db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Stats counts submissions per form name since the given time.
func (s *IntakeService) Stats(since time.Time) (map[string]int64, error) {
	var rows []struct {
		FormName string
		Count    int64
	}
	if err := s.db.Model(&models.FormSubmission{}).
		Select("form_name, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("form_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.FormName] = r.Count
	}
	return out, nil
}

// Query returns the submissions matching q, sorted for the admin table.
func (s *IntakeService) Query(q review.Query) ([]models.FormSubmission, error) {
	subs, err := s.List()
	if err != nil {
		return nil, err
	}
	return review.Apply(subs, submissionColumns, q), nil
}

var submissionColumns = review.Columns[models.FormSubmission]{
	Keys: map[string]review.Key[models.FormSubmission]{
		"name":       {Text: func(s models.FormSubmission) string { return s.LastName + " " + s.FirstName }},
		"email":      {Text: func(s models.FormSubmission) string { return s.Email }},
		"form_name":  {Text: func(s models.FormSubmission) string { return s.FormName }},
		"state":      {Text: func(s models.FormSubmission) string { return s.State }},
		"created_at": {Time: func(s models.FormSubmission) time.Time { return s.CreatedAt }},
	},
	DefaultSort: "created_at",
	DefaultDir:  review.Desc,
	FormName:    func(s models.FormSubmission) string { return s.FormName },
	Search: func(s models.FormSubmission) []string {
		return []string{s.FirstName, s.LastName, s.Email, s.Phone, s.Company, s.Notes}
	},
}
