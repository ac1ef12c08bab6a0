package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kinds of follow-up work that hang off a persisted record.
const (
	TaskInternalEmail     = "internal_email"
	TaskConfirmationEmail = "confirmation_email"
	TaskCRMSync           = "crm_sync"
)

const (
	TaskPending = "pending"
	TaskSent    = "sent"
	TaskFailed  = "failed"
	TaskSkipped = "skipped"
)

// Subject types a task can point at.
const (
	SubjectSubmission        = "submission"
	SubjectLifeInsuranceApp  = "life_insurance_application"
	SubjectEstatePlanningApp = "estate_planning_application"
)

// NotificationTask records one notification step for a subject. The pair
// (subject_id, kind) is unique so re-running a step updates the same row.
type NotificationTask struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectType   string     `gorm:"size:50;not null" json:"subject_type"`
	SubjectID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_notification_task_subject_kind,priority:1" json:"subject_id"`
	Kind          string     `gorm:"size:50;not null;uniqueIndex:idx_notification_task_subject_kind,priority:2" json:"kind"`
	Status        string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *NotificationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (NotificationTask) TableName() string {
	return "notification_tasks"
}
