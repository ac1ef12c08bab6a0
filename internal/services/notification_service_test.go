package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/crm"
	"github.com/northgate-advisors/intake-backend/internal/crm/crmtest"
	"github.com/northgate-advisors/intake-backend/internal/email"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pipeline struct {
	db       *gorm.DB
	reg      *catalog.Registry
	outbox   *email.Outbox
	crm      *crmtest.Server
	advisors *AdvisorService
	notifier *NotificationService
	intake   *IntakeService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	db := testutil.NewDB(t)
	reg := catalog.Default()
	outbox := email.NewOutbox()
	srv := crmtest.NewServer("tok")
	t.Cleanup(srv.Close)

	syncer := crm.NewSyncer(crm.NewClient(srv.URL, "tok", time.Second), reg, 0)
	advisors := NewAdvisorService(db, NewSettingsService(db), NewContentScreen())
	notifier := NewNotificationService(db, outbox, syncer, advisors, NotifierConfig{
		From:               "Northgate <noreply@northgate.test>",
		InternalRecipients: []string{"info@northgate.test"},
		SiteURL:            "https://northgate.test",
	})
	return &pipeline{
		db:       db,
		reg:      reg,
		outbox:   outbox,
		crm:      srv,
		advisors: advisors,
		notifier: notifier,
		intake:   NewIntakeService(db, reg, nil, notifier, advisors),
	}
}

func (p *pipeline) saveSubmission(t *testing.T, formName string) *models.FormSubmission {
	t.Helper()
	sub := &models.FormSubmission{
		FormName:   formName,
		FormFamily: "test",
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@x.com",
		Phone:      "5551234567",
		Tags:       []string{},
		Fields:     []models.FieldValue{{Label: "Name", Value: "Jane Doe"}},
	}
	require.NoError(t, p.db.Create(sub).Error)
	return sub
}

func taskStatuses(tasks []models.NotificationTask) map[string]string {
	out := make(map[string]string, len(tasks))
	for _, task := range tasks {
		out[task.Kind] = task.Status
	}
	return out
}

func TestKinds(t *testing.T) {
	reg := catalog.Default()
	sub := &models.FormSubmission{}

	contact := &Envelope{Form: reg.Resolve(catalog.FormContact), Email: "a@b.co", Submission: sub}
	assert.Equal(t, []string{models.TaskInternalEmail, models.TaskConfirmationEmail, models.TaskCRMSync}, Kinds(contact))

	careers := &Envelope{Form: reg.Resolve(catalog.FormCareers), Email: "a@b.co", Submission: sub}
	assert.Equal(t, []string{models.TaskInternalEmail, models.TaskConfirmationEmail}, Kinds(careers))

	app := &Envelope{Form: reg.Resolve(catalog.FormLifeInsuranceApplication), Email: "a@b.co"}
	assert.Equal(t, []string{models.TaskInternalEmail, models.TaskConfirmationEmail}, Kinds(app))

	noEmail := &Envelope{Form: reg.Resolve(catalog.FormCareers)}
	assert.Equal(t, []string{models.TaskInternalEmail}, Kinds(noEmail))
}

func TestDispatch_AllTasksSent(t *testing.T) {
	p := newPipeline(t)
	sub := p.saveSubmission(t, catalog.FormContact)

	tasks, err := p.notifier.Dispatch(context.Background(), SubmissionEnvelope(sub, p.reg.Resolve(sub.FormName)), false)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		models.TaskInternalEmail:     models.TaskSent,
		models.TaskConfirmationEmail: models.TaskSent,
		models.TaskCRMSync:           models.TaskSent,
	}, taskStatuses(tasks))

	msgs := p.outbox.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"info@northgate.test"}, msgs[0].To)
	assert.Equal(t, "jane@x.com", msgs[0].ReplyTo)
	assert.Contains(t, msgs[0].Subject, "Jane Doe")
	assert.Equal(t, []string{"jane@x.com"}, msgs[1].To)

	assert.Len(t, p.crm.LeadList(), 1)
	assert.Equal(t, 1, p.crm.PersonCount())
}

func TestDispatch_CCsResolvedAdvisor(t *testing.T) {
	p := newPipeline(t)
	advisor, err := p.advisors.Create(advisorReq("Ana", "Lopez"))
	require.NoError(t, err)

	sub := p.saveSubmission(t, catalog.FormContact)
	env := SubmissionEnvelope(sub, p.reg.Resolve(sub.FormName))
	env.AdvisorSlug = advisor.Slug

	_, err = p.notifier.Dispatch(context.Background(), env, false, models.TaskInternalEmail)
	require.NoError(t, err)

	msgs := p.outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{advisor.Email}, msgs[0].CC)

	p.outbox.Reset()
	orphan := SubmissionEnvelope(p.saveSubmission(t, catalog.FormContact), p.reg.Resolve(catalog.FormContact))
	orphan.AdvisorSlug = "gone"
	tasks, err := p.notifier.Dispatch(context.Background(), orphan, false, models.TaskInternalEmail)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSent, tasks[0].Status)
	assert.Empty(t, p.outbox.Messages()[0].CC)
}

func TestDispatch_FailuresRecordedThenResent(t *testing.T) {
	p := newPipeline(t)
	sub := p.saveSubmission(t, catalog.FormCareers)
	env := SubmissionEnvelope(sub, p.reg.Resolve(sub.FormName))

	p.outbox.FailWith(errors.New("provider down"))
	tasks, err := p.notifier.Dispatch(context.Background(), env, false)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, models.TaskFailed, task.Status)
		assert.Equal(t, 1, task.Attempts)
		assert.Equal(t, "provider down", task.LastError)
	}

	p.outbox.FailWith(nil)
	tasks, err = p.notifier.Resend(context.Background(), "", sub.ID, nil, false)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, models.TaskSent, task.Status)
		assert.Equal(t, 2, task.Attempts)
		assert.Empty(t, task.LastError)
	}
	assert.Len(t, p.outbox.Messages(), 2)

	stored, err := p.notifier.Tasks(sub.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "re-running reuses the same rows")
}

func TestResend_SentTasksNeedForce(t *testing.T) {
	p := newPipeline(t)
	sub := p.saveSubmission(t, catalog.FormCareers)
	_, err := p.notifier.Dispatch(context.Background(), SubmissionEnvelope(sub, p.reg.Resolve(sub.FormName)), false)
	require.NoError(t, err)
	p.outbox.Reset()

	tasks, err := p.notifier.Resend(context.Background(), models.SubjectSubmission, sub.ID, []string{models.TaskInternalEmail}, false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 1, tasks[0].Attempts)
	assert.Empty(t, p.outbox.Messages())

	tasks, err = p.notifier.Resend(context.Background(), models.SubjectSubmission, sub.ID, []string{models.TaskInternalEmail}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, tasks[0].Attempts)
	assert.Len(t, p.outbox.Messages(), 1)
}

func TestResend_Errors(t *testing.T) {
	p := newPipeline(t)

	_, err := p.notifier.Resend(context.Background(), "", uuid.New(), []string{"sms"}, false)
	assert.ErrorIs(t, err, ErrUnknownTaskKind)

	_, err = p.notifier.Resend(context.Background(), "", uuid.New(), nil, false)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = p.notifier.Resend(context.Background(), "pigeon", uuid.New(), nil, false)
	assert.ErrorIs(t, err, ErrUnknownSubjectType)
}

func TestDispatch_UnconfiguredProvidersSkip(t *testing.T) {
	db := testutil.NewDB(t)
	reg := catalog.Default()
	notifier := NewNotificationService(db, nil, nil, nil, NotifierConfig{InternalRecipients: []string{"info@northgate.test"}})

	sub := &models.FormSubmission{FormName: catalog.FormContact, FormFamily: catalog.SlugContact, FirstName: "A", LastName: "B", Email: "a@b.co"}
	require.NoError(t, db.Create(sub).Error)

	tasks, err := notifier.Dispatch(context.Background(), SubmissionEnvelope(sub, reg.Resolve(sub.FormName)), false)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, models.TaskSkipped, task.Status, task.Kind)
	}
}

func TestDispatch_CRMLeadFailureMarksTaskFailed(t *testing.T) {
	p := newPipeline(t)
	p.crm.FailOn("POST", "/leads", 500)
	sub := p.saveSubmission(t, catalog.FormContact)

	tasks, err := p.notifier.Dispatch(context.Background(), SubmissionEnvelope(sub, p.reg.Resolve(sub.FormName)), false)
	require.NoError(t, err)

	statuses := taskStatuses(tasks)
	assert.Equal(t, models.TaskSent, statuses[models.TaskInternalEmail])
	assert.Equal(t, models.TaskFailed, statuses[models.TaskCRMSync])
}
