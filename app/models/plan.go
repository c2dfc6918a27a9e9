package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Plan is an internally defined subscription tier. A plan with a larger ID
// is a strictly higher tier than one with a smaller ID; upgrade eligibility
// is decided on IDs, never on price or display order.
type Plan struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:150;not null;uniqueIndex" json:"name" validate:"required,min=1,max=150"`
	Price        float64      `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	TrialDays    int          `gorm:"not null;default:0" json:"trial_days" validate:"gte=0"`
	DisplayOrder int          `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	IsDev        bool         `gorm:"not null;default:false" json:"is_dev"`
	IsPopular    bool         `gorm:"not null;default:false" json:"is_popular"`
	Description  string       `gorm:"type:text" json:"description"`
	Footer       string       `gorm:"type:text" json:"footer"`
	Options      []PlanOption `gorm:"foreignKey:PlanID" json:"options"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PlanOption is a named feature value belonging to exactly one plan.
// Option names are unique within a plan.
type PlanOption struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlanID      uint      `gorm:"not null;uniqueIndex:idx_plan_options_plan_name" json:"plan_id"`
	Name        string    `gorm:"size:150;not null;uniqueIndex:idx_plan_options_plan_name" json:"name" validate:"required,min=1,max=150"`
	Value       string    `gorm:"size:255" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Option returns the named option of the plan, or nil if the plan does not
// carry it.
func (p *Plan) Option(name string) *PlanOption {
	for i := range p.Options {
		if p.Options[i].Name == name {
			return &p.Options[i]
		}
	}
	return nil
}

func (p *Plan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
