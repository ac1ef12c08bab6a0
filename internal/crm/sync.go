package crm

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/northgate-advisors/intake-backend/internal/models"
)

// SyncReport records what one sync run achieved.
type SyncReport struct {
	PersonID       int      `json:"person_id,omitempty"`
	PersonCreated  bool     `json:"person_created"`
	OrganizationID int      `json:"organization_id,omitempty"`
	LabelNames     []string `json:"label_names,omitempty"`
	LabelIDs       []string `json:"label_ids,omitempty"`
	LeadID         string   `json:"lead_id,omitempty"`
	NoteID         int      `json:"note_id,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// Partial reports whether any step failed.
func (r SyncReport) Partial() bool {
	return len(r.Errors) > 0
}

type Syncer struct {
	client  *Client
	labels  LabelDictionary
	ownerID int
}

func NewSyncer(client *Client, labels LabelDictionary, ownerID int) *Syncer {
	return &Syncer{client: client, labels: labels, ownerID: ownerID}
}

// Sync pushes one submission into Pipedrive as person, organization, lead
// and note. Every step is attempted even when an earlier one failed; the
// returned error is non-nil only when no lead could be created.
func (s *Syncer) Sync(ctx context.Context, sub *models.FormSubmission) (SyncReport, error) {
	var report SyncReport
	log := slog.With("submission_id", sub.ID.String(), "form_name", sub.FormName, "action", "crm_sync")

	fail := func(step string, err error) {
		report.Errors = append(report.Errors, step+": "+err.Error())
		log.Warn("CRM step failed", "step", step, "error", err.Error())
	}

	person, err := s.client.UpsertPerson(ctx, PersonInput{
		Name:    sub.FullName(),
		Email:   sub.Email,
		Phone:   sub.Phone,
		OwnerID: s.ownerID,
	})
	if err != nil {
		fail("person", err)
	} else {
		report.PersonID = person.ID
		report.PersonCreated = person.Created
	}

	if strings.TrimSpace(sub.Company) != "" {
		org, err := s.client.UpsertOrganization(ctx, sub.Company, s.ownerID)
		if err != nil {
			fail("organization", err)
		} else {
			report.OrganizationID = org.ID
		}
	}

	report.LabelNames = DetermineLabelNames(sub.FormName, sub.InterestCategory, s.labels)
	if len(report.LabelNames) == 0 {
		log.Info("no CRM label mapped", "interest_category", sub.InterestCategory)
	} else {
		available, err := s.client.FetchLeadLabels(ctx)
		if err != nil {
			fail("labels", err)
		} else {
			ids, missing := resolveLabelIDs(report.LabelNames, available)
			report.LabelIDs = ids
			if len(missing) > 0 {
				log.Warn("CRM lead labels not found", "labels", strings.Join(missing, ", "))
			}
		}
	}

	leadID, err := s.client.CreateLead(ctx, LeadInput{
		Title:          LeadTitle(sub),
		PersonID:       report.PersonID,
		OrganizationID: report.OrganizationID,
		OwnerID:        s.ownerID,
		LabelIDs:       report.LabelIDs,
	})
	if err != nil {
		fail("lead", err)
		return report, fmt.Errorf("crm sync: lead not created: %w", err)
	}
	report.LeadID = leadID

	noteID, err := s.client.AddNote(ctx, NoteInput{
		Content:  NoteContent(sub),
		LeadID:   leadID,
		PersonID: report.PersonID,
	})
	if err != nil {
		fail("note", err)
	} else {
		report.NoteID = noteID
	}

	log.Info("CRM sync finished", "lead_id", leadID, "person_created", report.PersonCreated, "partial", report.Partial())
	return report, nil
}

// LeadTitle formats "[form] - First Last", with " - State" appended when
// a state is known.
func LeadTitle(sub *models.FormSubmission) string {
	title := fmt.Sprintf("[%s] - %s %s", sub.FormName, sub.FirstName, sub.LastName)
	if state := strings.TrimSpace(sub.State); state != "" {
		title += " - " + state
	}
	return title
}

// NoteContent flattens a submission into the note attached to the lead.
func NoteContent(sub *models.FormSubmission) string {
	var lines []string
	add := func(prefix, label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, prefix+" <b>"+label+":</b> "+html.EscapeString(value))
		}
	}

	add("📋", "Form", sub.FormName)
	add("🔗", "Source", sub.SourceURL)
	submitted := sub.CreatedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	add("🕐", "Submitted", submitted.UTC().Format("2006-01-02 15:04 MST"))
	add("🌐", "Language", sub.Language)
	add("📍", "State", sub.State)
	if notes := strings.TrimSpace(sub.Notes); notes != "" {
		lines = append(lines, "📝 <b>Notes:</b><br>"+strings.ReplaceAll(html.EscapeString(notes), "\n", "<br>"))
	}

	var utm []string
	for _, kv := range [][2]string{
		{"source", sub.UTMSource},
		{"medium", sub.UTMMedium},
		{"campaign", sub.UTMCampaign},
		{"term", sub.UTMTerm},
		{"content", sub.UTMContent},
	} {
		if kv[1] != "" {
			utm = append(utm, kv[0]+"="+kv[1])
		}
	}
	add("📊", "UTM", strings.Join(utm, ", "))
	add("🏷️", "Tags", strings.Join(sub.Tags, ", "))

	return strings.Join(lines, "<br>")
}
