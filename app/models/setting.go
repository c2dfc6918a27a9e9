package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Setting represents a single system setting. Settings are grouped by
// category (e.g. "Security", "Notifications") and addressed by name within
// their group.
type Setting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Group        string    `gorm:"column:setting_group;size:100;not null;uniqueIndex:idx_settings_group_name" json:"group" validate:"required,min=1,max=100"`
	Name         string    `gorm:"column:setting_name;size:255;not null;uniqueIndex:idx_settings_group_name" json:"name" validate:"required,min=1,max=255"`
	Value        string    `gorm:"type:text" json:"value"`
	DefaultValue string    `gorm:"type:text" json:"default_value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveValue returns Value unless it is empty or whitespace-only, in
// which case DefaultValue is returned.
func (s *Setting) EffectiveValue() string {
	if strings.TrimSpace(s.Value) != "" {
		return s.Value
	}
	return s.DefaultValue
}

func (s *Setting) Validate() error {
	v := validator.New()

	return v.Struct(s)
}
