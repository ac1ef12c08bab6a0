package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FieldValue is one labelled line of a submission as it appears in the
// notification email, kept so notifications can be re-rendered later.
type FieldValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormSubmission is written once per accepted lead form and never updated.
type FormSubmission struct {
	ID               uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	FormName         string                          `gorm:"size:100;not null;index" json:"form_name"`
	FormFamily       string                          `gorm:"size:50;not null;index" json:"form_family"`
	SourceURL        string                          `gorm:"size:500" json:"source_url,omitempty"`
	FirstName        string                          `gorm:"size:100;not null" json:"first_name"`
	LastName         string                          `gorm:"size:100;not null" json:"last_name"`
	Email            string                          `gorm:"size:254;not null;index" json:"email"`
	Phone            string                          `gorm:"size:30" json:"phone,omitempty"`
	Company          string                          `gorm:"size:200" json:"company,omitempty"`
	State            string                          `gorm:"size:50" json:"state,omitempty"`
	Language         string                          `gorm:"size:30" json:"language,omitempty"`
	Notes            string                          `gorm:"type:text" json:"notes,omitempty"`
	InterestCategory string                          `gorm:"size:300" json:"interest_category,omitempty"`
	AdvisorID        *uuid.UUID                      `gorm:"type:uuid;index" json:"advisor_id,omitempty"`
	AdvisorSlug      string                          `gorm:"size:100" json:"advisor_slug,omitempty"`
	AdvisorEmail     string                          `gorm:"size:254" json:"advisor_email,omitempty"`
	UTMSource        string                          `gorm:"size:200" json:"utm_source,omitempty"`
	UTMMedium        string                          `gorm:"size:200" json:"utm_medium,omitempty"`
	UTMCampaign      string                          `gorm:"size:200" json:"utm_campaign,omitempty"`
	UTMTerm          string                          `gorm:"size:200" json:"utm_term,omitempty"`
	UTMContent       string                          `gorm:"size:200" json:"utm_content,omitempty"`
	Tags             datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"tags"`
	Fields           datatypes.JSONSlice[FieldValue] `gorm:"type:jsonb" json:"fields"`
	Honeypot         string                          `gorm:"size:200" json:"-"`
	IPAddress        string                          `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent        string                          `gorm:"size:500" json:"user_agent,omitempty"`
	CreatedAt        time.Time                       `gorm:"index" json:"created_at"`
}

func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name.
func (s *FormSubmission) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

func (FormSubmission) TableName() string {
	return "form_submissions"
}
