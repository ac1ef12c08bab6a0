// Package forms defines one typed payload per lead form family and turns
// each of them into the normalized record that is stored and notified.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/models"
)

var ErrUnknownForm = errors.New("unknown form")

// Form is implemented by every form family payload.
type Form interface {
	Family() string
	HoneypotValue() string
	Normalize(reg *catalog.Registry) Normalized
}

// Meta carries the fields every form posts alongside its own: attribution,
// advisor linkage and the honeypot.
type Meta struct {
	SourceURL    string `json:"sourceUrl" validate:"omitempty,max=500"`
	Language     string `json:"language" validate:"omitempty,max=30"`
	AdvisorID    string `json:"advisorId" validate:"omitempty,uuid"`
	AdvisorSlug  string `json:"advisorSlug" validate:"omitempty,max=100"`
	AdvisorEmail string `json:"advisorEmail" validate:"omitempty,email,max=254"`
	UTMSource    string `json:"utm_source" validate:"omitempty,max=200"`
	UTMMedium    string `json:"utm_medium" validate:"omitempty,max=200"`
	UTMCampaign  string `json:"utm_campaign" validate:"omitempty,max=200"`
	UTMTerm      string `json:"utm_term" validate:"omitempty,max=200"`
	UTMContent   string `json:"utm_content" validate:"omitempty,max=200"`
	Honeypot     string `json:"honeypot"`
}

func (m Meta) HoneypotValue() string { return m.Honeypot }

// Person is the contact block shared by the lead forms.
type Person struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

// UTM is campaign attribution copied from the landing page URL.
type UTM struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// Normalized is the family-independent shape of a submission.
type Normalized struct {
	FormName         string
	Family           string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Company          string
	State            string
	Language         string
	Notes            string
	InterestCategory string
	Tags             []string
	Fields           []models.FieldValue
	SourceURL        string
	AdvisorID        *uuid.UUID
	AdvisorSlug      string
	AdvisorEmail     string
	UTM              UTM
	Honeypot         string
}

// Submission builds the row persisted for n.
func (n Normalized) Submission() *models.FormSubmission {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.FormSubmission{
		FormName:         n.FormName,
		FormFamily:       n.Family,
		SourceURL:        n.SourceURL,
		FirstName:        strings.TrimSpace(n.FirstName),
		LastName:         strings.TrimSpace(n.LastName),
		Email:            strings.ToLower(strings.TrimSpace(n.Email)),
		Phone:            strings.TrimSpace(n.Phone),
		Company:          strings.TrimSpace(n.Company),
		State:            n.State,
		Language:         n.Language,
		Notes:            n.Notes,
		InterestCategory: n.InterestCategory,
		AdvisorID:        n.AdvisorID,
		AdvisorSlug:      n.AdvisorSlug,
		AdvisorEmail:     n.AdvisorEmail,
		UTMSource:        n.UTM.Source,
		UTMMedium:        n.UTM.Medium,
		UTMCampaign:      n.UTM.Campaign,
		UTMTerm:          n.UTM.Term,
		UTMContent:       n.UTM.Content,
		Tags:             tags,
		Fields:           n.Fields,
		Honeypot:         n.Honeypot,
	}
}

var families = map[string]func() Form{
	catalog.SlugContact:           func() Form { return &Contact{} },
	catalog.SlugCareers:           func() Form { return &Careers{} },
	catalog.SlugBusinessInsurance: func() Form { return &BusinessInsurance{} },
	catalog.SlugEstatePlanning:    func() Form { return &EstatePlanning{} },
	catalog.SlugMedicare:          func() Form { return &Medicare{} },
	catalog.SlugKaiZen:            func() Form { return &KaiZen{} },
	catalog.SlugBookConsultation:  func() Form { return &BookConsultation{} },
	catalog.SlugAdvisorContact:    func() Form { return &AdvisorContact{} },
}

// New returns an empty payload for family.
func New(family string) (Form, error) {
	ctor, ok := families[family]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, family)
	}
	return ctor(), nil
}

// Families lists the supported family slugs.
func Families() []string {
	out := make([]string, 0, len(families))
	for slug := range families {
		out = append(out, slug)
	}
	return out
}

// Decode parses body into the payload type for family.
func Decode(family string, body []byte) (Form, error) {
	f, err := New(family)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, f); err != nil {
		return nil, &ValidationError{Message: "Invalid request body"}
	}
	return f, nil
}

func (m Meta) apply(n *Normalized) {
	n.SourceURL = m.SourceURL
	n.Language = m.Language
	n.AdvisorSlug = strings.TrimSpace(m.AdvisorSlug)
	n.AdvisorEmail = strings.ToLower(strings.TrimSpace(m.AdvisorEmail))
	if id, err := uuid.Parse(m.AdvisorID); err == nil {
		n.AdvisorID = &id
	}
	n.UTM = UTM{
		Source:   m.UTMSource,
		Medium:   m.UTMMedium,
		Campaign: m.UTMCampaign,
		Term:     m.UTMTerm,
		Content:  m.UTMContent,
	}
	n.Honeypot = m.Honeypot
}

func (p Person) apply(n *Normalized) {
	n.FirstName = p.FirstName
	n.LastName = p.LastName
	n.Email = p.Email
	n.Phone = p.Phone
	n.Fields = append(n.Fields,
		field("Name", strings.TrimSpace(p.FirstName+" "+p.LastName)),
		field("Email", p.Email),
		field("Phone", p.Phone),
	)
}

func field(label, value string) models.FieldValue {
	return models.FieldValue{Label: label, Value: strings.TrimSpace(value)}
}

func yesNo(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

// formTags returns the catalog label for formName as a single tag.
func formTags(reg *catalog.Registry, formName string) []string {
	if label, ok := reg.FormLabel(formName); ok {
		return []string{label}
	}
	return []string{}
}
