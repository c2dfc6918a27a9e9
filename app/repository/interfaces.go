package repository

import (
	"shopward/app/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for tenant-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	IsAdmin(id uint) (bool, error)
	SetPlan(id uint, planID uint) error
	ClearBillingFields(id uint) error
}

// PlanRepository defines the interface for plan catalog database operations
type PlanRepository interface {
	FetchAllActiveWithOptions() ([]models.Plan, error)
	GetByID(id uint) (*models.Plan, error)
	Save(plan *models.Plan) error
	Delete(id uint) error
}

// SettingRepository defines the interface for system setting operations
type SettingRepository interface {
	FetchAll() ([]models.Setting, error)
	GetValue(group, name string) (string, error)
	SetValue(group, name, value string) error
}

// Repositories bundles all repository instances
type Repositories struct {
	User    UserRepository
	Plan    PlanRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Plan:    NewPlanRepository(db),
		Setting: NewSettingRepository(db),
	}
}
