package services

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	ErrAdvisorNotFound   = errors.New("advisor not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidStatus     = errors.New("invalid advisor status")
	ErrSlugTaken         = errors.New("advisor slug already in use")
	ErrProfileRejected   = errors.New("advisor profile rejected")
)

// Advisor sources.
const (
	SourceAdmin            = "admin"
	SourceSelfRegistration = "self_registration"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

type AdvisorService struct {
	db       *gorm.DB
	settings *SettingsService
	screen   *ContentScreen
}

func NewAdvisorService(db *gorm.DB, settings *SettingsService, screen *ContentScreen) *AdvisorService {
	return &AdvisorService{db: db, settings: settings, screen: screen}
}

// Slugify builds a URL slug from a display name.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *AdvisorService) uniqueSlug(tx *gorm.DB, base string, exclude uuid.UUID) (string, error) {
	if base == "" {
		base = "advisor"
	}
	candidate := base
	for i := 2; i < 100; i++ {
		var count int64
		q := tx.Model(&models.Advisor{}).Where("slug = ?", candidate)
		if exclude != uuid.Nil {
			q = q.Where("id <> ?", exclude)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", ErrSlugTaken
}

func applyAdvisorRequest(a *models.Advisor, req *dto.AdvisorRequest) {
	a.FirstName = strings.TrimSpace(req.FirstName)
	a.LastName = strings.TrimSpace(req.LastName)
	a.Title = strings.TrimSpace(req.Title)
	a.Email = strings.ToLower(strings.TrimSpace(req.Email))
	a.Phone = strings.TrimSpace(req.Phone)
	a.Bio = req.Bio
	a.PhotoURL = req.PhotoURL
	a.CalendarURL = req.CalendarURL
	a.Specialties = nonNil(req.Specialties)
	a.States = nonNil(req.States)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Create adds an advisor on behalf of an admin. Admin-created advisors are
// published immediately. An explicit slug that is taken is rejected.
func (s *AdvisorService) Create(req *dto.AdvisorRequest) (*models.Advisor, error) {
	return s.create(req, SourceAdmin, models.AdvisorPublished)
}

// Register is the public self-registration path; the advisor waits in
// pending until an admin publishes it.
func (s *AdvisorService) Register(req *dto.AdvisorRequest) (*models.Advisor, error) {
	if s.screen != nil {
		for _, text := range []string{req.Bio, req.Title, req.FirstName + " " + req.LastName} {
			if ok, reason := s.screen.FilterContent(text); !ok {
				return nil, fmt.Errorf("%w: %s", ErrProfileRejected, s.screen.RejectionMessage(reason))
			}
		}
	}
	req.Slug = ""
	return s.create(req, SourceSelfRegistration, models.AdvisorPending)
}

func (s *AdvisorService) create(req *dto.AdvisorRequest, source, status string) (*models.Advisor, error) {
	advisor := models.Advisor{Status: status, Source: source}
	applyAdvisorRequest(&advisor, req)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if slug := Slugify(req.Slug); slug != "" {
			var count int64
			if err := tx.Model(&models.Advisor{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrSlugTaken
			}
			advisor.Slug = slug
		} else {
			slug, err := s.uniqueSlug(tx, Slugify(advisor.Name()), uuid.Nil)
			if err != nil {
				return err
			}
			advisor.Slug = slug
		}
		return tx.Create(&advisor).Error
	})
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create advisor: %w", err)
	}

	slog.Info("advisor created", "advisor_id", advisor.ID.String(), "slug", advisor.Slug, "source", source)
	return &advisor, nil
}

// Update replaces the profile fields of an advisor. Status is untouched.
func (s *AdvisorService) Update(id uuid.UUID, req *dto.AdvisorRequest) (*models.Advisor, error) {
	advisor, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	applyAdvisorRequest(advisor, req)
	if req.Slug != "" && Slugify(req.Slug) != advisor.Slug {
		slug := Slugify(req.Slug)
		var count int64
		if err := s.db.Model(&models.Advisor{}).Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlugTaken
		}
		advisor.Slug = slug
	}
	if err := s.db.Save(advisor).Error; err != nil {
		return nil, fmt.Errorf("failed to update advisor: %w", err)
	}
	return advisor, nil
}

func (s *AdvisorService) List() ([]models.Advisor, error) {
	var advisors []models.Advisor
	if err := s.db.Order("created_at DESC").Find(&advisors).Error; err != nil {
		return nil, err
	}
	return advisors, nil
}

// Query returns the advisors matching q, sorted for the admin table.
func (s *AdvisorService) Query(q review.Query) ([]models.Advisor, error) {
	advisors, err := s.List()
	if err != nil {
		return nil, err
	}
	return review.Apply(advisors, advisorColumns, q), nil
}

var advisorColumns = review.Columns[models.Advisor]{
	Keys: map[string]review.Key[models.Advisor]{
		"name":       {Text: func(a models.Advisor) string { return a.Name() }},
		"email":      {Text: func(a models.Advisor) string { return a.Email }},
		"status":     {Text: func(a models.Advisor) string { return a.Status }},
		"source":     {Text: func(a models.Advisor) string { return a.Source }},
		"created_at": {Time: func(a models.Advisor) time.Time { return a.CreatedAt }},
		"updated_at": {Time: func(a models.Advisor) time.Time { return a.UpdatedAt }},
	},
	DefaultSort: "created_at",
	DefaultDir:  review.Desc,
	Status:      func(a models.Advisor) string { return a.Status },
	Search: func(a models.Advisor) []string {
		return []string{a.FirstName, a.LastName, a.Email, a.Slug, a.Title}
	},
}

func (s *AdvisorService) Get(id uuid.UUID) (*models.Advisor, error) {
	var advisor models.Advisor
	if err := s.db.First(&advisor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		return nil, err
	}
	return &advisor, nil
}

// GetBySlug returns a published advisor for the public profile page.
func (s *AdvisorService) GetBySlug(slug string) (*models.Advisor, error) {
	var advisor models.Advisor
	err := s.db.Where("slug = ? AND status = ?", slug, models.AdvisorPublished).First(&advisor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdvisorNotFound
	}
	return &advisor, err
}

// Resolve looks up the advisor a submission points at, trying id, slug,
// then email. A dangling reference yields nil without error.
func (s *AdvisorService) Resolve(id *uuid.UUID, slug, email string) (*models.Advisor, error) {
	var advisor models.Advisor
	var err error
	switch {
	case id != nil:
		err = s.db.First(&advisor, "id = ?", *id).Error
	case slug != "":
		err = s.db.Where("slug = ?", slug).First(&advisor).Error
	case email != "":
		err = s.db.Where("email = ?", strings.ToLower(email)).First(&advisor).Error
	default:
		return nil, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &advisor, nil
}

// SetStatus moves an advisor to status if the lifecycle allows it.
func (s *AdvisorService) SetStatus(id uuid.UUID, status string) (*models.Advisor, error) {
	if !models.ValidAdvisorStatus(status) {
		return nil, ErrInvalidStatus
	}
	advisor, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionAdvisor(advisor.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, advisor.Status, status)
	}

	if err := s.db.Model(advisor).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update advisor status: %w", err)
	}
	slog.Info("advisor status changed", "advisor_id", id.String(), "from", advisor.Status, "to", status)
	advisor.Status = status
	return advisor, nil
}

func (s *AdvisorService) Archive(id uuid.UUID) (*models.Advisor, error) {
	return s.SetStatus(id, models.AdvisorArchived)
}

// Restore publishes an archived advisor again.
func (s *AdvisorService) Restore(id uuid.UUID) (*models.Advisor, error) {
	advisor, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if advisor.Status != models.AdvisorArchived {
		return nil, fmt.Errorf("%w: only archived advisors can be restored", ErrInvalidTransition)
	}
	return s.SetStatus(id, models.AdvisorPublished)
}

// BulkSetStatus applies SetStatus to each id independently.
func (s *AdvisorService) BulkSetStatus(ids []uuid.UUID, status string) (dto.BulkResult, error) {
	if !models.ValidAdvisorStatus(status) {
		return dto.BulkResult{}, ErrInvalidStatus
	}
	result := dto.BulkResult{Updated: []uuid.UUID{}, Failed: map[string]string{}}
	for _, id := range ids {
		if _, err := s.SetStatus(id, status); err != nil {
			result.Failed[id.String()] = err.Error()
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

// Delete removes an advisor permanently.
func (s *AdvisorService) Delete(id uuid.UUID) error {
	result := s.db.Where("id = ?", id).Delete(&models.Advisor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAdvisorNotFound
	}
	slog.Info("advisor deleted", "advisor_id", id.String())
	return nil
}

func (s *AdvisorService) BulkDelete(ids []uuid.UUID) dto.BulkResult {
	result := dto.BulkResult{Updated: []uuid.UUID{}, Failed: map[string]string{}}
	for _, id := range ids {
		if err := s.Delete(id); err != nil {
			result.Failed[id.String()] = err.Error()
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result
}

func (s *AdvisorService) DirectorySettings() (dto.DirectorySettings, error) {
	ds := dto.DirectorySettings{HiddenIDs: []uuid.UUID{}, Order: []uuid.UUID{}}
	if _, err := s.settings.GetJSON(SettingAdvisorDirectory, &ds); err != nil {
		return ds, err
	}
	if ds.HiddenIDs == nil {
		ds.HiddenIDs = []uuid.UUID{}
	}
	if ds.Order == nil {
		ds.Order = []uuid.UUID{}
	}
	return ds, nil
}

func (s *AdvisorService) SetDirectorySettings(ds dto.DirectorySettings) error {
	if ds.HiddenIDs == nil {
		ds.HiddenIDs = []uuid.UUID{}
	}
	if ds.Order == nil {
		ds.Order = []uuid.UUID{}
	}
	return s.settings.SetJSON(SettingAdvisorDirectory, ds)
}

// PublicDirectory lists published advisors that are not hidden. Advisors in
// the explicit order come first in that order; the rest follow by name.
func (s *AdvisorService) PublicDirectory() ([]models.Advisor, error) {
	var advisors []models.Advisor
	if err := s.db.Where("status = ?", models.AdvisorPublished).Find(&advisors).Error; err != nil {
		return nil, err
	}
	ds, err := s.DirectorySettings()
	if err != nil {
		return nil, err
	}
	return OrderDirectory(advisors, ds), nil
}

// OrderDirectory applies the hidden set and ordering rules to advisors.
func OrderDirectory(advisors []models.Advisor, ds dto.DirectorySettings) []models.Advisor {
	hidden := make(map[uuid.UUID]bool, len(ds.HiddenIDs))
	for _, id := range ds.HiddenIDs {
		hidden[id] = true
	}
	rank := make(map[uuid.UUID]int, len(ds.Order))
	for i, id := range ds.Order {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}

	visible := make([]models.Advisor, 0, len(advisors))
	for _, a := range advisors {
		if !hidden[a.ID] {
			visible = append(visible, a)
		}
	}

	col := collate.New(language.English)
	sort.SliceStable(visible, func(i, j int) bool {
		ri, oki := rank[visible[i].ID]
		rj, okj := rank[visible[j].ID]
		switch {
		case oki && okj:
			return ri < rj
		case oki != okj:
			return oki
		default:
			return col.CompareString(visible[i].Name(), visible[j].Name()) < 0
		}
	})
	return visible
}
