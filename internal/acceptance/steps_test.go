package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	"github.com/cucumber/godog"
	"github.com/northgate-advisors/intake-backend/internal/models"
)

var scenarioSeq int32

// StepsContext holds state shared between the steps of one scenario.
type StepsContext struct {
	tc       *TestContext
	clientIP string
	status   int
	headers  map[string]string
	body     map[string]interface{}
}

func NewStepsContext(tc *TestContext) *StepsContext {
	n := atomic.AddInt32(&scenarioSeq, 1)
	return &StepsContext{tc: tc, clientIP: fmt.Sprintf("198.51.100.%d", n%250+1)}
}

func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})

	sc.Step(`^the intake server is running$`, func() error { return nil })

	sc.Step(`^I post to "([^"]*)" with:$`, s.iPostWith)
	sc.Step(`^I post to "([^"]*)" (\d+) times with:$`, s.iPostTimesWith)
	sc.Step(`^I send "([^"]*)" to "([^"]*)" as admin$`, s.iSendAsAdmin)
	sc.Step(`^I send "([^"]*)" to "([^"]*)" as admin with:$`, s.iSendAsAdminWith)
	sc.Step(`^an advisor "([^"]*)" "([^"]*)" exists$`, s.anAdvisorExists)

	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, s.theResponseHeaderShouldBe)
	sc.Step(`^(\d+) submissions? should be stored$`, s.submissionsShouldBeStored)
	sc.Step(`^the stored submission should have tag "([^"]*)"$`, s.theStoredSubmissionShouldHaveTag)
	sc.Step(`^(\d+) emails? should be sent$`, s.emailsShouldBeSent)
	sc.Step(`^an email to "([^"]*)" should contain "([^"]*)"$`, s.anEmailToShouldContain)
	sc.Step(`^a CRM person with email "([^"]*)" should exist$`, s.aCRMPersonShouldExist)
	sc.Step(`^the "([^"]*)" task should be "([^"]*)"$`, s.theTaskShouldBe)
	sc.Step(`^the advisor "([^"]*)" should have status "([^"]*)"$`, s.theAdvisorShouldHaveStatus)
}

func (s *StepsContext) send(method, path, body string, headers map[string]string) error {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", s.clientIP)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.tc.App.Test(req, -1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	s.status = resp.StatusCode
	s.headers = map[string]string{}
	for k := range resp.Header {
		s.headers[strings.ToLower(k)] = resp.Header.Get(k)
	}
	raw, _ := io.ReadAll(resp.Body)
	s.body = map[string]interface{}{}
	_ = json.Unmarshal(raw, &s.body)
	return nil
}

func (s *StepsContext) iPostWith(path string, doc *godog.DocString) error {
	return s.send("POST", path, doc.Content, nil)
}

func (s *StepsContext) iPostTimesWith(path string, n int, doc *godog.DocString) error {
	for i := 0; i < n; i++ {
		if err := s.send("POST", path, doc.Content, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *StepsContext) iSendAsAdmin(method, path string) error {
	return s.send(method, s.expand(path), "", map[string]string{"X-Admin-Token": adminToken})
}

func (s *StepsContext) iSendAsAdminWith(method, path string, doc *godog.DocString) error {
	return s.send(method, s.expand(path), doc.Content, map[string]string{"X-Admin-Token": adminToken})
}

// expand replaces {advisor:slug} with the id of that advisor.
func (s *StepsContext) expand(path string) string {
	for {
		start := strings.Index(path, "{advisor:")
		if start < 0 {
			return path
		}
		end := strings.Index(path[start:], "}")
		if end < 0 {
			return path
		}
		slug := path[start+len("{advisor:") : start+end]
		id := ""
		var a models.Advisor
		if err := s.tc.DB.Where("slug = ?", slug).First(&a).Error; err == nil {
			id = a.ID.String()
		}
		path = path[:start] + id + path[start+end+1:]
	}
}

func (s *StepsContext) anAdvisorExists(first, last string) error {
	body := fmt.Sprintf(`{"first_name":%q,"last_name":%q,"email":"%s@northgate.test"}`, first, last, strings.ToLower(first))
	if err := s.send("POST", "/api/admin/advisors", body, map[string]string{"X-Admin-Token": adminToken}); err != nil {
		return err
	}
	if s.status != 201 {
		return fmt.Errorf("creating advisor returned %d: %v", s.status, s.body)
	}
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(want int) error {
	if s.status != want {
		return fmt.Errorf("expected status %d, got %d: %v", want, s.status, s.body)
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, want string) error {
	got, ok := s.body[field]
	if !ok {
		return fmt.Errorf("response has no field %q: %v", field, s.body)
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, fmt.Sprint(got))
	}
	return nil
}

func (s *StepsContext) theResponseHeaderShouldBe(name, want string) error {
	if got := s.headers[strings.ToLower(name)]; got != want {
		return fmt.Errorf("expected header %s=%q, got %q", name, want, got)
	}
	return nil
}

func (s *StepsContext) submissionsShouldBeStored(want int) error {
	var n int64
	if err := s.tc.DB.Model(&models.FormSubmission{}).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != want {
		return fmt.Errorf("expected %d stored submissions, got %d", want, n)
	}
	return nil
}

func (s *StepsContext) latestSubmission() (*models.FormSubmission, error) {
	var sub models.FormSubmission
	if err := s.tc.DB.Order("created_at DESC").First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *StepsContext) theStoredSubmissionShouldHaveTag(tag string) error {
	sub, err := s.latestSubmission()
	if err != nil {
		return err
	}
	for _, t := range sub.Tags {
		if t == tag {
			return nil
		}
	}
	return fmt.Errorf("submission tags %v do not include %q", []string(sub.Tags), tag)
}

func (s *StepsContext) emailsShouldBeSent(want int) error {
	if got := len(s.tc.Mail.Messages()); got != want {
		return fmt.Errorf("expected %d emails, got %d", want, got)
	}
	return nil
}

func (s *StepsContext) anEmailToShouldContain(to, text string) error {
	for _, m := range s.tc.Mail.Messages() {
		for _, addr := range m.To {
			if strings.EqualFold(addr, to) && strings.Contains(m.HTML, text) {
				return nil
			}
		}
	}
	return fmt.Errorf("no email to %s contains %q", to, text)
}

func (s *StepsContext) aCRMPersonShouldExist(addr string) error {
	if _, ok := s.tc.CRM.FindPerson(addr); !ok {
		return fmt.Errorf("no CRM person with email %s", addr)
	}
	return nil
}

func (s *StepsContext) theTaskShouldBe(kind, status string) error {
	sub, err := s.latestSubmission()
	if err != nil {
		return err
	}
	var task models.NotificationTask
	if err := s.tc.DB.Where("subject_id = ? AND kind = ?", sub.ID, kind).First(&task).Error; err != nil {
		return fmt.Errorf("task %s: %w", kind, err)
	}
	if task.Status != status {
		return fmt.Errorf("expected task %s to be %s, got %s (%s)", kind, status, task.Status, task.LastError)
	}
	return nil
}

func (s *StepsContext) theAdvisorShouldHaveStatus(slug, status string) error {
	var a models.Advisor
	if err := s.tc.DB.Where("slug = ?", slug).First(&a).Error; err != nil {
		return err
	}
	if a.Status != status {
		return fmt.Errorf("expected advisor %s to be %s, got %s", slug, status, a.Status)
	}
	return nil
}
