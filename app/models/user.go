package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

// User is the durable tenant record: one row per connected storefront
// account. Billing fields are null until the tenant accepts a recurring
// charge with the payment provider and are cleared again when the provider
// reports the charge as dead.
type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Email               string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password            string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	ShopDomain          string         `gorm:"type:varchar(255);index" json:"shop_domain"`
	PlatformAccessToken string         `gorm:"type:text" json:"-"`
	BillingChargeID     *int64         `gorm:"default:null" json:"billing_charge_id"`
	BillingOn           *time.Time     `gorm:"type:timestamp;default:null" json:"billing_on"`
	Discount            *float64       `gorm:"default:null" json:"discount"`
	PlanID              *uint          `gorm:"default:null" json:"plan_id"`
	LastLoginAt         *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// ShopIsConnected reports whether the tenant completed the platform
// handshake and holds a usable access token.
func (u *User) ShopIsConnected() bool {
	return u.PlatformAccessToken != ""
}

// BillingIsConnected reports whether the tenant has an accepted recurring
// charge on file.
func (u *User) BillingIsConnected() bool {
	return u.BillingChargeID != nil
}

func CreateUser(email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}
