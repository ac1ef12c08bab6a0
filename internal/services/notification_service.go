package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/crm"
	"github.com/northgate-advisors/intake-backend/internal/email"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSubjectNotFound     = errors.New("notification subject not found")
	ErrUnknownSubjectType  = errors.New("unknown notification subject type")
	ErrUnknownTaskKind     = errors.New("unknown notification kind")
	errEmailNotConfigured  = errors.New("email provider not configured")
	errCRMNotConfigured    = errors.New("crm not configured")
	errNoInternalRecipient = errors.New("no internal recipients configured")
)

// Envelope is what the notifier needs to know about a saved record.
type Envelope struct {
	SubjectType  string
	SubjectID    uuid.UUID
	Form         *catalog.FormConfig
	FirstName    string
	LastName     string
	Email        string
	Fields       []models.FieldValue
	Notes        string
	Tags         []string
	SourceURL    string
	AdvisorID    *uuid.UUID
	AdvisorSlug  string
	AdvisorEmail string
	SubmittedAt  time.Time
	// Submission is set for lead forms; it is what the CRM sync pushes.
	Submission *models.FormSubmission
}

// EnvelopeLoader rebuilds the envelope of a stored subject for a resend.
type EnvelopeLoader func(ctx context.Context, id uuid.UUID) (*Envelope, error)

type NotifierConfig struct {
	From               string
	InternalRecipients []string
	SiteURL            string
}

// NotificationService runs the follow-up steps of a saved record. Each
// step is a row in notification_tasks keyed by (subject_id, kind); a step
// that already succeeded is not repeated unless forced.
type NotificationService struct {
	db       *gorm.DB
	sender   email.Sender
	syncer   *crm.Syncer
	advisors *AdvisorService
	cfg      NotifierConfig

	mu      sync.RWMutex
	loaders map[string]EnvelopeLoader
}

func NewNotificationService(db *gorm.DB, sender email.Sender, syncer *crm.Syncer, advisors *AdvisorService, cfg NotifierConfig) *NotificationService {
	return &NotificationService{
		db:       db,
		sender:   sender,
		syncer:   syncer,
		advisors: advisors,
		cfg:      cfg,
		loaders:  make(map[string]EnvelopeLoader),
	}
}

// RegisterLoader makes subjects of subjectType resendable.
func (s *NotificationService) RegisterLoader(subjectType string, loader EnvelopeLoader) {
	s.mu.Lock()
	s.loaders[subjectType] = loader
	s.mu.Unlock()
}

// Kinds returns the task kinds that apply to env, in execution order.
func Kinds(env *Envelope) []string {
	kinds := []string{models.TaskInternalEmail}
	if env.Form != nil && env.Form.SendConfirmation && env.Email != "" {
		kinds = append(kinds, models.TaskConfirmationEmail)
	}
	if env.Form != nil && env.Form.CRMSync && env.Submission != nil {
		kinds = append(kinds, models.TaskCRMSync)
	}
	return kinds
}

// Dispatch runs the applicable tasks for env. Failures are recorded on the
// task rows and never returned; the error is only for bookkeeping faults.
func (s *NotificationService) Dispatch(ctx context.Context, env *Envelope, force bool, only ...string) ([]models.NotificationTask, error) {
	kinds := Kinds(env)
	if len(only) > 0 {
		kinds = intersect(kinds, only)
	}

	tasks := make([]models.NotificationTask, 0, len(kinds))
	for _, kind := range kinds {
		task, err := s.runTask(ctx, env, kind, force)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func intersect(kinds, only []string) []string {
	want := make(map[string]bool, len(only))
	for _, k := range only {
		want[k] = true
	}
	out := kinds[:0:0]
	for _, k := range kinds {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

func (s *NotificationService) runTask(ctx context.Context, env *Envelope, kind string, force bool) (*models.NotificationTask, error) {
	fresh := models.NotificationTask{
		SubjectType: env.SubjectType,
		SubjectID:   env.SubjectID,
		Kind:        kind,
		Status:      models.TaskPending,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification task: %w", err)
	}
	var task models.NotificationTask
	if err := s.db.WithContext(ctx).Where("subject_id = ? AND kind = ?", env.SubjectID, kind).First(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to load notification task: %w", err)
	}

	if task.Status == models.TaskSent && !force {
		return &task, nil
	}

	runErr := s.execute(ctx, env, kind)

	now := time.Now()
	task.Attempts++
	task.LastAttemptAt = &now
	switch {
	case runErr == nil:
		task.Status = models.TaskSent
		task.LastError = ""
	case errors.Is(runErr, errEmailNotConfigured), errors.Is(runErr, errCRMNotConfigured):
		task.Status = models.TaskSkipped
		task.LastError = runErr.Error()
	default:
		task.Status = models.TaskFailed
		task.LastError = runErr.Error()
		s.report(env, kind, runErr)
	}

	if err := s.db.WithContext(ctx).Model(&task).Select("status", "attempts", "last_error", "last_attempt_at").Updates(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to record notification task: %w", err)
	}
	return &task, nil
}

func (s *NotificationService) report(env *Envelope, kind string, err error) {
	formName := ""
	if env.Form != nil {
		formName = env.Form.FormName
	}
	slog.Error("notification failed",
		"submission_id", env.SubjectID.String(),
		"form_name", formName,
		"action", kind,
		"error", err.Error(),
	)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("notification_kind", kind)
		scope.SetTag("subject_type", env.SubjectType)
		scope.SetTag("form_name", formName)
		scope.SetExtra("subject_id", env.SubjectID.String())
		sentry.CaptureException(err)
	})
}

func (s *NotificationService) execute(ctx context.Context, env *Envelope, kind string) error {
	switch kind {
	case models.TaskInternalEmail:
		return s.sendInternal(ctx, env)
	case models.TaskConfirmationEmail:
		return s.sendConfirmation(ctx, env)
	case models.TaskCRMSync:
		if s.syncer == nil {
			return errCRMNotConfigured
		}
		report, err := s.syncer.Sync(ctx, env.Submission)
		if err != nil {
			return err
		}
		if report.Partial() {
			slog.Warn("crm sync partially failed", "submission_id", env.SubjectID.String(), "errors", strings.Join(report.Errors, "; "))
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTaskKind, kind)
	}
}

func (s *NotificationService) send(ctx context.Context, msg email.Message) error {
	if s.sender == nil {
		return errEmailNotConfigured
	}
	_, err := s.sender.Send(ctx, msg)
	if errors.Is(err, email.ErrNotConfigured) {
		return errEmailNotConfigured
	}
	return err
}

func (s *NotificationService) notificationData(env *Envelope, advisor *models.Advisor) email.NotificationData {
	data := email.NotificationData{
		FirstName:   env.FirstName,
		Fields:      env.Fields,
		Notes:       env.Notes,
		Tags:        env.Tags,
		SourceURL:   env.SourceURL,
		SubmittedAt: env.SubmittedAt,
		SiteURL:     s.cfg.SiteURL,
	}
	if env.Form != nil {
		data.FormName = env.Form.FormName
		data.Heading = env.Form.Subject
	}
	switch {
	case advisor != nil:
		data.AdvisorName = advisor.Name()
	case env.AdvisorSlug != "":
		data.AdvisorName = env.AdvisorSlug
	case env.AdvisorEmail != "":
		data.AdvisorName = env.AdvisorEmail
	}
	return data
}

func (s *NotificationService) sendInternal(ctx context.Context, env *Envelope) error {
	form := env.Form
	if form == nil {
		form = &catalog.FormConfig{}
	}

	to := form.Recipients
	if len(to) == 0 {
		to = s.cfg.InternalRecipients
	}
	if len(to) == 0 {
		return errNoInternalRecipient
	}

	var advisor *models.Advisor
	if s.advisors != nil {
		a, err := s.advisors.Resolve(env.AdvisorID, env.AdvisorSlug, env.AdvisorEmail)
		if err != nil {
			slog.Warn("advisor lookup failed", "submission_id", env.SubjectID.String(), "error", err.Error())
		}
		advisor = a
	}

	cc := append([]string(nil), form.CC...)
	if form.CCAdvisor && advisor != nil && advisor.Email != "" {
		cc = append(cc, advisor.Email)
	}

	data := s.notificationData(env, advisor)
	html, err := email.RenderInternal(data)
	if err != nil {
		return err
	}

	subject := form.Subject
	if subject == "" {
		subject = "New " + form.FormName + " Submission"
	}
	subject += " - " + strings.TrimSpace(env.FirstName+" "+env.LastName)

	return s.send(ctx, email.Message{
		From:    s.cfg.From,
		To:      to,
		CC:      cc,
		BCC:     form.BCC,
		ReplyTo: env.Email,
		Subject: subject,
		HTML:    html,
		Text:    email.PlainText(data),
	})
}

func (s *NotificationService) sendConfirmation(ctx context.Context, env *Envelope) error {
	data := s.notificationData(env, nil)
	html, err := email.RenderConfirmation(data)
	if err != nil {
		return err
	}
	return s.send(ctx, email.Message{
		From:    s.cfg.From,
		To:      []string{env.Email},
		Subject: "We received your " + data.FormName + " request",
		HTML:    html,
	})
}

// Tasks lists the notification tasks of a subject.
func (s *NotificationService) Tasks(subjectID uuid.UUID) ([]models.NotificationTask, error) {
	var tasks []models.NotificationTask
	if err := s.db.Where("subject_id = ?", subjectID).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Resend re-runs the tasks of a stored subject. With no kinds, every
// applicable kind is considered; sent tasks only run again when forced.
func (s *NotificationService) Resend(ctx context.Context, subjectType string, id uuid.UUID, kinds []string, force bool) ([]models.NotificationTask, error) {
	for _, k := range kinds {
		switch k {
		case models.TaskInternalEmail, models.TaskConfirmationEmail, models.TaskCRMSync:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownTaskKind, k)
		}
	}

	if subjectType == "" {
		var task models.NotificationTask
		if err := s.db.Where("subject_id = ?", id).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				subjectType = models.SubjectSubmission
			} else {
				return nil, err
			}
		} else {
			subjectType = task.SubjectType
		}
	}

	s.mu.RLock()
	loader, ok := s.loaders[subjectType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubjectType, subjectType)
	}

	env, err := loader(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("resending notifications", "submission_id", id.String(), "subject_type", subjectType, "force", force)
	return s.Dispatch(ctx, env, force, kinds...)
}
