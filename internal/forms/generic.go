package forms

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
)

// Payload is the already-normalized submission posted by the shared
// submission client. It is accepted for any form name.
type Payload struct {
	FormName         string            `json:"form_name" validate:"required,max=100"`
	FirstName        string            `json:"first_name" validate:"required,max=100"`
	LastName         string            `json:"last_name" validate:"required,max=100"`
	Email            string            `json:"email" validate:"required,email,max=254"`
	Phone            string            `json:"phone,omitempty" validate:"omitempty,phone"`
	Company          string            `json:"company,omitempty" validate:"omitempty,max=200"`
	State            string            `json:"state,omitempty" validate:"omitempty,max=50"`
	Language         string            `json:"language,omitempty" validate:"omitempty,max=30"`
	Notes            string            `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Tags             []string          `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=100"`
	InterestCategory string            `json:"interest_category,omitempty" validate:"omitempty,max=300"`
	SourceURL        string            `json:"source_url,omitempty" validate:"omitempty,max=500"`
	AdvisorID        string            `json:"advisor_id,omitempty" validate:"omitempty,uuid"`
	AdvisorSlug      string            `json:"advisor_slug,omitempty" validate:"omitempty,max=100"`
	AdvisorEmail     string            `json:"advisor_email,omitempty" validate:"omitempty,email,max=254"`
	UTMSource        string            `json:"utm_source,omitempty" validate:"omitempty,max=200"`
	UTMMedium        string            `json:"utm_medium,omitempty" validate:"omitempty,max=200"`
	UTMCampaign      string            `json:"utm_campaign,omitempty" validate:"omitempty,max=200"`
	UTMTerm          string            `json:"utm_term,omitempty" validate:"omitempty,max=200"`
	UTMContent       string            `json:"utm_content,omitempty" validate:"omitempty,max=200"`
	Extra            map[string]string `json:"extra,omitempty" validate:"omitempty,max=50,dive,keys,max=100,endkeys,max=5000"`
	Honeypot         string            `json:"honeypot,omitempty"`
}

func (p *Payload) Family() string { return catalog.SlugGeneral }

func (p *Payload) HoneypotValue() string { return p.Honeypot }

func (p *Payload) Normalize(reg *catalog.Registry) Normalized {
	cfg := reg.Resolve(p.FormName)
	n := Normalized{
		FormName:         p.FormName,
		Family:           cfg.Slug,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		Company:          p.Company,
		State:            p.State,
		Language:         p.Language,
		Notes:            p.Notes,
		InterestCategory: p.InterestCategory,
		SourceURL:        p.SourceURL,
		AdvisorSlug:      strings.TrimSpace(p.AdvisorSlug),
		AdvisorEmail:     strings.ToLower(strings.TrimSpace(p.AdvisorEmail)),
		UTM: UTM{
			Source:   p.UTMSource,
			Medium:   p.UTMMedium,
			Campaign: p.UTMCampaign,
			Term:     p.UTMTerm,
			Content:  p.UTMContent,
		},
		Honeypot: p.Honeypot,
	}
	if id, err := uuid.Parse(p.AdvisorID); err == nil {
		n.AdvisorID = &id
	}

	n.Tags = p.Tags
	if len(n.Tags) == 0 {
		n.Tags = formTags(reg, p.FormName)
	}

	n.Fields = append(n.Fields,
		field("Name", strings.TrimSpace(p.FirstName+" "+p.LastName)),
		field("Email", p.Email),
		field("Phone", p.Phone),
	)
	if p.Company != "" {
		n.Fields = append(n.Fields, field("Company", p.Company))
	}
	for _, key := range sortedKeys(p.Extra) {
		n.Fields = append(n.Fields, field(key, p.Extra[key]))
	}
	n.Fields = append(n.Fields, field("State", p.State))
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
