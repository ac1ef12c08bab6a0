package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	c := NewResendClient(srv.URL, "re_test", "Firm <noreply@firm.test>", time.Second)
	id, err := c.Send(context.Background(), Message{
		To:      []string{"info@firm.test"},
		CC:      []string{"advisor@firm.test"},
		Subject: "New lead",
		HTML:    "<p>hi</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, "Firm <noreply@firm.test>", got.From)
	assert.Equal(t, []string{"advisor@firm.test"}, got.CC)
}

func TestResendClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	c := NewResendClient(srv.URL, "re_test", "x@y.z", time.Second)
	_, err := c.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", HTML: "h"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid from address")
}

func TestResendClient_NotConfigured(t *testing.T) {
	c := NewResendClient("http://unused", "", "x@y.z", 0)
	_, err := c.Send(context.Background(), Message{To: []string{"a@b.c"}})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestOutbox(t *testing.T) {
	o := NewOutbox()
	_, err := o.Send(context.Background(), Message{Subject: "one"})
	require.NoError(t, err)

	o.FailWith(errors.New("boom"))
	_, err = o.Send(context.Background(), Message{Subject: "two"})
	assert.EqualError(t, err, "boom")

	require.Len(t, o.Messages(), 1)
	o.Reset()
	assert.Empty(t, o.Messages())
}

func TestRenderInternal(t *testing.T) {
	html, err := RenderInternal(NotificationData{
		FormName: "Contact",
		Fields: []models.FieldValue{
			{Label: "Name", Value: "Jane Doe"},
			{Label: "Phone", Value: ""},
			{Label: "Service Interest", Value: "Retirement Planning"},
		},
		Notes:       "Need help planning",
		Tags:        []string{"Retirement Planning"},
		SubmittedAt: time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, html, "New Contact Submission")
	assert.Contains(t, html, "Service Interest: Retirement Planning")
	assert.Contains(t, html, "Phone: N/A")
	assert.Contains(t, html, "<p>Need help planning</p>")
	assert.Contains(t, html, "Advisor: N/A")
	assert.Contains(t, html, "Mar 1, 2026 3:04 PM UTC")
}

func TestRenderInternal_EscapesInput(t *testing.T) {
	html, err := RenderInternal(NotificationData{
		FormName: "Contact",
		Fields:   []models.FieldValue{{Label: "Name", Value: "<script>alert(1)</script>"}},
		Notes:    "<b>bold</b> and **markdown**",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>bold</b>")
	assert.Contains(t, html, "<strong>markdown</strong>")
}

func TestRenderConfirmation(t *testing.T) {
	html, err := RenderConfirmation(NotificationData{FirstName: "Jane", FormName: "Contact", SiteURL: "https://firm.test"})
	require.NoError(t, err)
	assert.Contains(t, html, "Hi Jane,")
	assert.Contains(t, html, "your Contact request")
}

func TestPlainText(t *testing.T) {
	text := PlainText(NotificationData{
		FormName: "Contact",
		Fields:   []models.FieldValue{{Label: "Service Interest", Value: "Retirement Planning"}, {Label: "State", Value: " "}},
	})
	assert.True(t, strings.HasPrefix(text, "Form: Contact\n"))
	assert.Contains(t, text, "Service Interest: Retirement Planning\n")
	assert.Contains(t, text, "State: N/A\n")
	assert.Contains(t, text, "Message:\nN/A\n")
}
