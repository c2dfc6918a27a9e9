package repository

import (
	"shopward/app/models"

	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new tenant record in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a tenant by ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a tenant by email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves changes to an existing tenant
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft-deletes a tenant by ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves tenants with pagination
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Offset(offset).Limit(limit).Order("id ASC").Find(&users).Error
	return users, err
}

// Count returns the total number of tenants
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// IsAdmin reports whether the tenant holds the admin role. This is a live
// role-membership query, not a read of a cached identity.
func (r *userRepository) IsAdmin(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.ROLE_ADMIN).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetPlan assigns a plan to a tenant
func (r *userRepository) SetPlan(id uint, planID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("plan_id", planID).Error
}

// ClearBillingFields nulls the charge id, billing date and plan id of a
// tenant. Used when the payment provider reports the recurring charge as
// declined, expired or stuck pending.
func (r *userRepository) ClearBillingFields(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"billing_charge_id": nil,
			"billing_on":        nil,
			"plan_id":           nil,
		}).Error
}
