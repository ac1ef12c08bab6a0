package estateplanning

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

// NewFormData returns the document of a fresh application.
func NewFormData() FormData {
	return FormData{AttorneyInFact: &AttorneyInFact{Powers: DefaultPowers()}}
}

func (d FormData) Steps() []interface{} {
	return []interface{}{
		d.Identity, d.Heirs, d.Trustees, d.Beneficiaries,
		d.AttorneyInFact, d.Healthcare, d.Assets, d.Signature,
	}
}

func (d FormData) Missing() []int {
	return wizard.Missing(d.Steps())
}

// SetStep decodes and validates raw as step n on top of the saved answers.
func (d *FormData) SetStep(n int, raw []byte) error {
	switch n {
	case 1:
		return setStep(&d.Identity, raw)
	case 2:
		return setStep(&d.Heirs, raw)
	case 3:
		return setStep(&d.Trustees, raw)
	case 4:
		return setStep(&d.Beneficiaries, raw)
	case 5:
		return setStep(&d.AttorneyInFact, raw)
	case 6:
		return setStep(&d.Healthcare, raw)
	case 7:
		return setStep(&d.Assets, raw)
	case 8:
		return setStep(&d.Signature, raw)
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
		notifier.RegisterLoader(models.SubjectEstatePlanningApp, s.envelope)
	}
	return s
}

// Create starts an application from the identity step. The power of
// attorney step starts from DefaultPowers.
func (s *ApplicationService) Create(raw []byte) (*Application, string, error) {
	data := NewFormData()
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
	slog.Info("estate planning application started", "application_id", app.ID.String())
	return &app, token, nil
}

func (a *Application) syncIdentity(d FormData) {
	if p := d.Identity; p != nil {
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
	slog.Info("estate planning application submitted", "application_id", app.ID.String())

	if s.notifier != nil {
		if _, err := s.notifier.Dispatch(ctx, s.envelopeFor(app), false); err != nil {
			slog.Error("notification bookkeeping failed", "submission_id", app.ID.String(), "form_name", catalog.FormEstatePlanningApplication, "error", err.Error())
		}
	}
	return app, nil
}

func (s *ApplicationService) List(q review.Query) ([]Application, error) {
	var apps []Application
	if err := s.db.Find(&apps).Error; err != nil {
		return nil, err
	}
	return review.Apply(apps, columns, q), nil
}

var columns = review.Columns[Application]{
	Keys: map[string]review.Key[Application]{
		"name":       {Text: func(a Application) string { return a.LastName + " " + a.FirstName }},
		"email":      {Text: func(a Application) string { return a.Email }},
		"status":     {Text: func(a Application) string { return a.Status }},
		"state":      {Text: func(a Application) string { return a.State }},
		"created_at": {Time: func(a Application) time.Time { return a.CreatedAt }},
		"updated_at": {Time: func(a Application) time.Time { return a.UpdatedAt }},
	},
	DefaultSort: "created_at",
	DefaultDir:  review.Desc,
	Status:      func(a Application) string { return a.Status },
	Search: func(a Application) []string {
		return []string{a.FirstName, a.LastName, a.Email, a.Phone, a.AdvisorSlug}
	},
}

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
	slog.Info("estate planning application status changed", "application_id", id.String(), "from", app.Status, "to", status)
	app.Status = status
	return app, nil
}

func (s *ApplicationService) Resend(ctx context.Context, id uuid.UUID, kinds []string, force bool) ([]models.NotificationTask, error) {
	if s.notifier == nil {
		return nil, errors.New("notifications are not configured")
	}
	return s.notifier.Resend(ctx, models.SubjectEstatePlanningApp, id, kinds, force)
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
		SubjectType: models.SubjectEstatePlanningApp,
		SubjectID:   app.ID,
		Form:        s.catalog.Resolve(catalog.FormEstatePlanningApplication),
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
	if id := d.Identity; id != nil {
		fields = append(fields, models.FieldValue{Label: "Marital Status", Value: id.MaritalStatus})
	}
	if h := d.Heirs; h != nil {
		fields = append(fields, models.FieldValue{Label: "Children", Value: fmt.Sprintf("%d", len(h.Children))})
	}
	if t := d.Trustees; t != nil {
		fields = append(fields, models.FieldValue{Label: "Initial Trustee", Value: t.InitialTrustee})
	}
	if a := d.AttorneyInFact; a != nil && len(a.Agents) > 0 {
		names := make([]string, 0, len(a.Agents))
		for _, p := range a.Agents {
			names = append(names, p.Name)
		}
		fields = append(fields, models.FieldValue{Label: "Attorney-in-Fact", Value: strings.Join(names, ", ")})
	}
	if as := d.Assets; as != nil {
		var total float64
		for _, it := range as.Items {
			total += it.EstimatedValue
		}
		fields = append(fields, models.FieldValue{Label: "Estimated Assets", Value: fmt.Sprintf("$%.0f", total)})
	}
	return fields
}
