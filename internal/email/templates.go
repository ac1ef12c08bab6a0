package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// notesRenderer turns free-text notes into HTML. Raw HTML in the input is
// escaped because WithUnsafe is not set.
var notesRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const notAvailable = "N/A"

// NotificationData is everything the templates need about one submission.
type NotificationData struct {
	Heading     string
	FormName    string
	FirstName   string
	Fields      []models.FieldValue
	Notes       string
	Tags        []string
	SourceURL   string
	AdvisorName string
	SubmittedAt time.Time
	SiteURL     string
}

var funcs = template.FuncMap{
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return notAvailable
		}
		return s
	},
	"notes": renderNotes,
	"join":  strings.Join,
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return notAvailable
		}
		return t.UTC().Format("Jan 2, 2006 3:04 PM MST")
	},
}

var internalTmpl = template.Must(template.New("internal").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; line-height: 1.5;">
  <h2 style="color: #0b3d91;">{{.Heading}}</h2>
  <p>Form: {{.FormName}}</p>
{{- range .Fields}}
  <p style="margin: 0 0 6px;">{{.Label}}: {{orNA .Value}}</p>
{{- end}}
  <h3 style="margin-top: 18px;">Message</h3>
  <div>{{notes .Notes}}</div>
  <hr>
  <p style="font-size: 12px; color: #616e7c;">
    Advisor: {{orNA .AdvisorName}}<br>
    Tags: {{if .Tags}}{{join .Tags ", "}}{{else}}N/A{{end}}<br>
    Source: {{orNA .SourceURL}}<br>
    Submitted: {{stamp .SubmittedAt}}
  </p>
</body>
</html>
`))

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; line-height: 1.5;">
  <p>Hi {{orNA .FirstName}},</p>
  <p>Thank you for reaching out to Northgate Advisors. We received your {{.FormName}} request and a member of our team will contact you within one business day.</p>
  <p>If your matter is urgent, reply to this email or call our office.</p>
  <p>Northgate Advisors<br><a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
</body>
</html>
`))

func renderNotes(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return template.HTML(notAvailable)
	}
	var buf bytes.Buffer
	if err := notesRenderer.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

// RenderInternal renders the staff notification for a submission.
func RenderInternal(data NotificationData) (string, error) {
	if data.Heading == "" {
		data.Heading = "New " + data.FormName + " Submission"
	}
	var buf bytes.Buffer
	if err := internalTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return buf.String(), nil
}

// RenderConfirmation renders the acknowledgement sent to the submitter.
func RenderConfirmation(data NotificationData) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}

// PlainText is the text/plain alternative of the staff notification.
func PlainText(data NotificationData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s\n", data.FormName)
	for _, f := range data.Fields {
		v := f.Value
		if strings.TrimSpace(v) == "" {
			v = notAvailable
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, v)
	}
	notes := data.Notes
	if strings.TrimSpace(notes) == "" {
		notes = notAvailable
	}
	fmt.Fprintf(&b, "\nMessage:\n%s\n", notes)
	return b.String()
}
