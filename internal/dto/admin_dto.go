package dto

import (
	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/models"
)

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type BulkStatusRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	Status string      `json:"status"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// BulkResult reports per-id outcomes; a failed id does not stop the rest.
type BulkResult struct {
	Updated []uuid.UUID       `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

type AdvisorRequest struct {
	Slug        string   `json:"slug" validate:"omitempty,max=100"`
	FirstName   string   `json:"first_name" validate:"required,max=100"`
	LastName    string   `json:"last_name" validate:"required,max=100"`
	Title       string   `json:"title" validate:"omitempty,max=200"`
	Email       string   `json:"email" validate:"required,email,max=254"`
	Phone       string   `json:"phone" validate:"omitempty,phone"`
	Bio         string   `json:"bio" validate:"omitempty,max=5000"`
	PhotoURL    string   `json:"photo_url" validate:"omitempty,url,max=500"`
	CalendarURL string   `json:"calendar_url" validate:"omitempty,url,max=500"`
	Specialties []string `json:"specialties" validate:"omitempty,max=20,dive,max=100"`
	States      []string `json:"states" validate:"omitempty,max=60,dive,max=50"`
	Honeypot    string   `json:"honeypot"`
}

type DirectorySettings struct {
	HiddenIDs []uuid.UUID `json:"hidden_ids"`
	Order     []uuid.UUID `json:"order"`
}

type ResendRequest struct {
	Kinds []string `json:"kinds"`
	Force bool     `json:"force"`
}

type ResendResponse struct {
	Tasks []models.NotificationTask `json:"tasks"`
}

type SettingRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}
