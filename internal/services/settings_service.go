package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/northgate-advisors/intake-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSettingNotFound    = errors.New("setting not found")
	ErrInvalidSettingType = errors.New("invalid setting type: must be string, bool, int, or json")
)

// Keys with special meaning to the service.
const (
	SettingAdvisorDirectory = "advisor_directory"
	SettingMaintenanceMode  = "maintenance_mode"
	SettingAnnouncement     = "announcement_message"
)

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// All returns every setting decoded according to its type.
func (s *SettingsService) All() (map[string]interface{}, error) {
	var settings []models.SiteSetting
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		result[st.Key] = decodeSetting(st)
	}
	return result, nil
}

func decodeSetting(st models.SiteSetting) interface{} {
	var value interface{}
	switch st.Type {
	case "bool":
		value, _ = strconv.ParseBool(st.Value)
	case "int":
		value, _ = strconv.Atoi(st.Value)
	case "json":
		_ = json.Unmarshal([]byte(st.Value), &value)
	default:
		value = st.Value
	}
	return value
}

func validSettingType(t string) bool {
	switch t {
	case "string", "bool", "int", "json":
		return true
	}
	return false
}

// Set creates or updates a setting. The value must parse as its type.
func (s *SettingsService) Set(key, value, typ string) (*models.SiteSetting, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}
	if typ == "" {
		typ = "string"
	}
	if !validSettingType(typ) {
		return nil, ErrInvalidSettingType
	}
	switch typ {
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return nil, fmt.Errorf("value is not a bool: %w", err)
		}
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return nil, fmt.Errorf("value is not an int: %w", err)
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return nil, errors.New("value is not valid JSON")
		}
	}

	var setting models.SiteSetting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.SiteSetting{Key: key, Value: value, Type: typ}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to create setting: %w", err)
		}
		return &setting, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setting: %w", err)
	}

	setting.Value = value
	setting.Type = typ
	if err := s.db.Save(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	return &setting, nil
}

func (s *SettingsService) Delete(key string) error {
	result := s.db.Where("key = ?", key).Delete(&models.SiteSetting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}

// GetJSON decodes a json setting into out. A missing key leaves out
// untouched and returns false.
func (s *SettingsService) GetJSON(key string, out interface{}) (bool, error) {
	var setting models.SiteSetting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(setting.Value), out); err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return true, nil
}

func (s *SettingsService) SetJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.Set(key, string(raw), "json")
	return err
}

// SeedDefaults inserts the default settings that do not exist yet.
func (s *SettingsService) SeedDefaults() error {
	defaults := []models.SiteSetting{
		{Key: SettingMaintenanceMode, Value: "false", Type: "bool"},
		{Key: SettingAnnouncement, Value: "", Type: "string"},
		{Key: SettingAdvisorDirectory, Value: `{"hidden_ids":[],"order":[]}`, Type: "json"},
	}
	for _, d := range defaults {
		var existing models.SiteSetting
		err := s.db.Where("key = ?", d.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d := d
			if err := s.db.Create(&d).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
