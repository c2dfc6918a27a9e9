package repository

import (
	"shopward/app/models"

	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// FetchAllActiveWithOptions loads the full active plan catalog ordered by
// display order, each plan with its options preloaded. This is the bulk
// read backing the plan cache; inactive plans never leave the store.
func (r *planRepository) FetchAllActiveWithOptions() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Preload("Options").
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&plans).Error
	return plans, err
}

// GetByID retrieves a single plan with options, active or not
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Options").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save creates or updates a plan together with its options
func (r *planRepository) Save(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// Delete removes a plan and its options
func (r *planRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&models.PlanOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Plan{}, id).Error
	})
}
