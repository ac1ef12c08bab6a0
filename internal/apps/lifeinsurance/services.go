package lifeinsurance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"github.com/northgate-advisors/intake-backend/internal/services"
	"github.com/northgate-advisors/intake-backend/internal/wizard"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func fieldError(field, msg string) error {
	return &forms.ValidationError{Fields: map[string]string{field: msg}}
}

// Steps returns the saved step structs in order, nil for unsaved ones.
func (d FormData) Steps() []interface{} {
	return []interface{}{
		d.Personal, d.ContactEmployment, d.Ownership,
		d.Beneficiaries, d.PolicyRiders, d.ExistingCoverage,
		d.MedicalLifestyle, d.Payment, d.Acknowledgment,
	}
}

// Missing lists the steps that still need a valid answer.
func (d FormData) Missing() []int {
	return wizard.Missing(d.Steps())
}

// SetStep decodes and validates raw as step n. Existing answers for the
// step are the starting point, so partial updates keep earlier values.
func (d *FormData) SetStep(n int, raw []byte) error {
	switch n {
	case 1:
		return setStep(&d.Personal, raw)
	case 2:
		return setStep(&d.ContactEmployment, raw)
	case 3:
		return setStep(&d.Ownership, raw)
	case 4:
		return setStep(&d.Beneficiaries, raw)
	case 5:
		return setStep(&d.PolicyRiders, raw)
	case 6:
		return setStep(&d.ExistingCoverage, raw)
	case 7:
		return setStep(&d.MedicalLifestyle, raw)
	case 8:
		return setStep(&d.Payment, raw)
	case 9:
		return setStep(&d.Acknowledgment, raw)
	}
	return fmt.Errorf("%w: %d", wizard.ErrUnknownStepData, n)
}

func setStep[T any](slot **T, raw []byte) error {
	next := new(T)
	if *slot != nil {
		*next = **slot
	}
	if err := wizard.Decode(raw, next); err != nil {
		return err
	}
	*slot = next
	return nil
}

type ApplicationService struct {
	db       *gorm.DB
	catalog  *catalog.Registry
	notifier *services.NotificationService
}

func NewApplicationService(db *gorm.DB, reg *catalog.Registry, notifier *services.NotificationService) *ApplicationService {
	s := &ApplicationService{db: db, catalog: reg, notifier: notifier}
	if notifier != nil {
		notifier.RegisterLoader(models.SubjectLifeInsuranceApp, s.envelope)
	}
	return s
}

// Create starts an application from the answers to step 1 and returns the
// resume token. Only the hash of the token is stored.
func (s *ApplicationService) Create(raw []byte) (*Application, string, error) {
	var data FormData
	if err := data.SetStep(1, raw); err != nil {
		return nil, "", err
	}

	token, hash := wizard.NewResumeToken()
	app := Application{
		ResumeTokenHash: hash,
		CurrentStep:     wizard.Advance(1, 1, TotalSteps),
		Status:          wizard.StatusDraft,
	}
	app.syncIdentity(data)
	app.FormData = datatypes.NewJSONType(data)

	if err := s.db.Create(&app).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create application: %w", err)
	}
	slog.Info("life insurance application started", "application_id", app.ID.String())
	return &app, token, nil
}

func (a *Application) syncIdentity(d FormData) {
	if p := d.Personal; p != nil {
		a.FirstName = strings.TrimSpace(p.FirstName)
		a.LastName = strings.TrimSpace(p.LastName)
		a.Email = strings.ToLower(strings.TrimSpace(p.Email))
		a.Phone = strings.TrimSpace(p.Phone)
		a.State = p.State
		a.AdvisorSlug = strings.TrimSpace(p.AdvisorSlug)
	}
}

func (s *ApplicationService) Get(id uuid.UUID) (*Application, error) {
	var app Application
	if err := s.db.First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wizard.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// Resume returns the application if token opens it.
func (s *ApplicationService) Resume(id uuid.UUID, token string) (*Application, error) {
	app, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !wizard.TokenMatches(app.ResumeTokenHash, token) {
		return nil, wizard.ErrBadResumeToken
	}
	return app, nil
}

// SaveStep stores the answers to step n. Steps up to the current one may be
// revisited; saving moves the current step forward.
func (s *ApplicationService) SaveStep(id uuid.UUID, token string, n int, raw []byte) (*Application, error) {
	app, err := s.Resume(id, token)
	if err != nil {
		return nil, err
	}
	if !wizard.Editable(app.Status) {
		return nil, wizard.ErrNotEditable
	}
	if err := wizard.CheckStep(app.CurrentStep, n, TotalSteps); err != nil {
		return nil, err
	}

	data := app.FormData.Data()
	if err := data.SetStep(n, raw); err != nil {
		return nil, err
	}

	app.syncIdentity(data)
	app.FormData = datatypes.NewJSONType(data)
	app.CurrentStep = wizard.Advance(app.CurrentStep, n, TotalSteps)

	if err := s.db.Save(app).Error; err != nil {
		return nil, fmt.Errorf("failed to save step: %w", err)
	}
	return app, nil
}

// Submit hands a complete application to review and notifies staff and
// the applicant.
func (s *ApplicationService) Submit(ctx context.Context, id uuid.UUID, token string) (*Application, error) {
	app, err := s.Resume(id, token)
	if err != nil {
		return nil, err
	}
	if !wizard.Editable(app.Status) {
		return nil, wizard.ErrNotEditable
	}
	if missing := app.FormData.Data().Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", wizard.ErrIncomplete, missing)
	}

	now := time.Now()
	app.Status = wizard.StatusSubmitted
	app.SubmittedAt = &now
	if err := s.db.Model(app).Updates(map[string]interface{}{
		"status":       app.Status,
		"submitted_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}
	slog.Info("life insurance application submitted", "application_id", app.ID.String())

	if s.notifier != nil {
		if _, err := s.notifier.Dispatch(ctx, s.envelopeFor(app), false); err != nil {
			slog.Error("notification bookkeeping failed", "submission_id", app.ID.String(), "form_name", catalog.FormLifeInsuranceApplication, "error", err.Error())
		}
	}
	return app, nil
}

// List returns every application, filtered and sorted for the admin table.
func (s *ApplicationService) List(q review.Query) ([]Application, error) {
	var apps []Application
	if err := s.db.Find(&apps).Error; err != nil {
		return nil, err
	}
	return review.Apply(apps, columns, q), nil
}

var columns = review.Columns[Application]{
	Keys: map[string]review.Key[Application]{
		"name":         {Text: func(a Application) string { return a.LastName + " " + a.FirstName }},
		"email":        {Text: func(a Application) string { return a.Email }},
		"status":       {Text: func(a Application) string { return a.Status }},
		"state":        {Text: func(a Application) string { return a.State }},
		"created_at":   {Time: func(a Application) time.Time { return a.CreatedAt }},
		"updated_at":   {Time: func(a Application) time.Time { return a.UpdatedAt }},
		"submitted_at": {Time: submittedAt},
	},
	DefaultSort: "created_at",
	DefaultDir:  review.Desc,
	Status:      func(a Application) string { return a.Status },
	Search: func(a Application) []string {
		return []string{a.FirstName, a.LastName, a.Email, a.Phone, a.AdvisorSlug}
	},
}

func submittedAt(a Application) time.Time {
	if a.SubmittedAt == nil {
		return time.Time{}
	}
	return *a.SubmittedAt
}

// SetStatus is the admin review action. Any known status may be set.
func (s *ApplicationService) SetStatus(id uuid.UUID, status, notes string) (*Application, error) {
	if !wizard.ValidStatus(status) {
		return nil, wizard.ErrInvalidStatus
	}
	app, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["reviewer_notes"] = notes
		app.ReviewerNotes = notes
	}
	if err := s.db.Model(app).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	slog.Info("life insurance application status changed", "application_id", id.String(), "from", app.Status, "to", status)
	app.Status = status
	return app, nil
}

// Resend re-runs the notification tasks of an application.
func (s *ApplicationService) Resend(ctx context.Context, id uuid.UUID, kinds []string, force bool) ([]models.NotificationTask, error) {
	if s.notifier == nil {
		return nil, errors.New("notifications are not configured")
	}
	return s.notifier.Resend(ctx, models.SubjectLifeInsuranceApp, id, kinds, force)
}

func (s *ApplicationService) envelope(_ context.Context, id uuid.UUID) (*services.Envelope, error) {
	app, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.envelopeFor(app), nil
}

func (s *ApplicationService) envelopeFor(app *Application) *services.Envelope {
	submitted := app.CreatedAt
	if app.SubmittedAt != nil {
		submitted = *app.SubmittedAt
	}
	return &services.Envelope{
		SubjectType: models.SubjectLifeInsuranceApp,
		SubjectID:   app.ID,
		Form:        s.catalog.Resolve(catalog.FormLifeInsuranceApplication),
		FirstName:   app.FirstName,
		LastName:    app.LastName,
		Email:       app.Email,
		Fields:      summary(app),
		Tags:        []string{},
		AdvisorSlug: app.AdvisorSlug,
		SubmittedAt: submitted,
	}
}

func summary(app *Application) []models.FieldValue {
	d := app.FormData.Data()
	fields := []models.FieldValue{
		{Label: "Application ID", Value: app.ID.String()},
		{Label: "Name", Value: strings.TrimSpace(app.FirstName + " " + app.LastName)},
		{Label: "Email", Value: app.Email},
		{Label: "Phone", Value: app.Phone},
		{Label: "State", Value: app.State},
	}
	if p := d.PolicyRiders; p != nil {
		fields = append(fields,
			models.FieldValue{Label: "Product", Value: p.ProductType},
			models.FieldValue{Label: "Coverage Amount", Value: fmt.Sprintf("$%.0f", p.CoverageAmount)},
			models.FieldValue{Label: "Premium Mode", Value: p.PremiumMode},
		)
		if len(p.Riders) > 0 {
			fields = append(fields, models.FieldValue{Label: "Riders", Value: strings.Join(p.Riders, ", ")})
		}
	}
	if b := d.Beneficiaries; b != nil {
		fields = append(fields, models.FieldValue{Label: "Primary Beneficiaries", Value: fmt.Sprintf("%d", len(b.Primary))})
	}
	return fields
}
