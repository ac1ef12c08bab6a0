package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AdvisorPublished = "published"
	AdvisorPending   = "pending"
	AdvisorHidden    = "hidden"
	AdvisorArchived  = "archived"
)

var advisorTransitions = map[string][]string{
	AdvisorPending:   {AdvisorPublished},
	AdvisorPublished: {AdvisorHidden, AdvisorArchived},
	AdvisorHidden:    {AdvisorPublished, AdvisorArchived},
	AdvisorArchived:  {AdvisorPublished},
}

// ValidAdvisorStatus reports whether s is a known advisor status.
func ValidAdvisorStatus(s string) bool {
	_, ok := advisorTransitions[s]
	return ok
}

// CanTransitionAdvisor reports whether an advisor may move from one status
// to another. Permanent deletion is not a transition.
func CanTransitionAdvisor(from, to string) bool {
	for _, next := range advisorTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Advisor is a directory entry. Created by self-registration (pending) or
// by an admin; only admins change it afterwards.
type Advisor struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string                      `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	FirstName   string                      `gorm:"size:100;not null" json:"first_name"`
	LastName    string                      `gorm:"size:100;not null" json:"last_name"`
	Title       string                      `gorm:"size:200" json:"title,omitempty"`
	Email       string                      `gorm:"size:254;not null;index" json:"email"`
	Phone       string                      `gorm:"size:30" json:"phone,omitempty"`
	Bio         string                      `gorm:"type:text" json:"bio,omitempty"`
	PhotoURL    string                      `gorm:"size:500" json:"photo_url,omitempty"`
	CalendarURL string                      `gorm:"size:500" json:"calendar_url,omitempty"`
	Specialties datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"specialties"`
	States      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"states"`
	Status      string                      `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Source      string                      `gorm:"size:30;not null;default:'admin'" json:"source"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (a *Advisor) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Name is the display name used for alphabetical ordering.
func (a *Advisor) Name() string {
	return a.FirstName + " " + a.LastName
}

func (Advisor) TableName() string {
	return "advisors"
}
