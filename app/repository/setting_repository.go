package repository

import (
	"shopward/app/models"

	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// FetchAll reads the full settings table. This is the bulk read backing the
// settings cache; there is no per-key refresh path.
func (r *settingRepository) FetchAll() ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Find(&settings).Error
	return settings, err
}

// GetValue retrieves a single effective setting value directly from the
// store, bypassing the cache. Returns "" for non-existent settings.
func (r *settingRepository) GetValue(group, name string) (string, error) {
	var setting models.Setting
	err := r.db.Where("setting_group = ? AND setting_name = ?", group, name).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return setting.EffectiveValue(), nil
}

// SetValue sets a specific setting value, creating the row when missing
func (r *settingRepository) SetValue(group, name, value string) error {
	var setting models.Setting
	err := r.db.Where("setting_group = ? AND setting_name = ?", group, name).First(&setting).Error

	if err == gorm.ErrRecordNotFound {
		setting = models.Setting{
			Group: group,
			Name:  name,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if err != nil {
		return err
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}
