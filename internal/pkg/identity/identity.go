// Package identity memoizes the resolved tenant identity used by the
// authorization pipeline. Entries live in the shared cache under a
// per-tenant key with a short sliding expiration, so billing and plan
// changes become visible within minutes even without explicit
// invalidation, and immediately with it.
package identity

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"shopward/app/models"
	"shopward/app/repository"
	"shopward/internal/pkg/session"
	"shopward/internal/pkg/usercontext"
)

// DefaultTTL is the sliding expiration of a cached identity.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "AppUser_"

// ErrStaleSession is returned when an authenticated principal has no
// backing tenant record anymore. The session has already been destroyed by
// the time the caller sees this; the expected reaction is a redirect to the
// application root, not an error page.
var ErrStaleSession = errors.New("authenticated principal has no backing user record")

// AppUser is the denormalized identity stored in the cache: everything the
// authorization pipeline needs, resolved once per TTL window.
type AppUser struct {
	ID                  uint       `json:"id"`
	Email               string     `json:"email"`
	ShopDomain          string     `json:"shop_domain"`
	PlatformAccessToken string     `json:"platform_access_token"`
	BillingChargeID     *int64     `json:"billing_charge_id"`
	BillingOn           *time.Time `json:"billing_on"`
	Discount            *float64   `json:"discount"`
	PlanID              *uint      `json:"plan_id"`
	IsAdmin             bool       `json:"is_admin"`
}

// ShopIsConnected reports whether the tenant holds a platform access token.
func (u *AppUser) ShopIsConnected() bool {
	return u.PlatformAccessToken != ""
}

// BillingIsConnected reports whether the tenant has a charge on file.
func (u *AppUser) BillingIsConnected() bool {
	return u.BillingChargeID != nil
}

// Store is the minimal key/value surface the identity cache needs. The
// production implementation sits on the shared redis client; tests use an
// in-memory map.
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Expire(key string, ttl time.Duration) error
}

// CacheKey derives the cache key for a tenant id. Exported so billing and
// admin flows can invalidate an identity without resolving the principal.
func CacheKey(id uint) string {
	return keyPrefix + itoa(id)
}

// Cache resolves and memoizes AppUser identities per authenticated
// principal.
type Cache struct {
	users repository.UserRepository
	store Store
	ttl   time.Duration
}

// New creates an identity cache. A non-positive ttl falls back to
// DefaultTTL.
func New(users repository.UserRepository, store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{users: users, store: store, ttl: ttl}
}

// CurrentUser returns the identity of the authenticated principal, or nil
// when the request is anonymous. With refresh=false a cached entry is
// served and its expiration slid forward; otherwise the durable record is
// re-read, the admin role re-checked, and the entry republished.
//
// An authenticated principal without a durable record is a consistency
// fault, not a user error: the session is destroyed and ErrStaleSession
// returned so the caller can restart at the application root.
func (c *Cache) CurrentUser(fc *fiber.Ctx, refresh bool) (*AppUser, error) {
	id, ok := principalID(fc)
	if !ok {
		return nil, nil
	}

	key := CacheKey(id)
	if !refresh {
		if raw, found, err := c.store.Get(key); err != nil {
			log.Printf("identity cache read failed for %s: %v", key, err)
		} else if found {
			var u AppUser
			if err := json.Unmarshal([]byte(raw), &u); err == nil {
				if err := c.store.Expire(key, c.ttl); err != nil {
					log.Printf("identity cache expire failed for %s: %v", key, err)
				}
				return &u, nil
			}
			log.Printf("identity cache entry for %s is corrupt, reloading", key)
		}
	}

	user, err := c.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.signOut(fc)
			return nil, ErrStaleSession
		}
		return nil, err
	}

	isAdmin, err := c.users.IsAdmin(id)
	if err != nil {
		return nil, err
	}

	u := fromModel(user, isAdmin)
	if raw, err := json.Marshal(u); err == nil {
		if err := c.store.Set(key, string(raw), c.ttl); err != nil {
			log.Printf("identity cache write failed for %s: %v", key, err)
		}
	}
	return u, nil
}

// ClearUser removes the cached identity of a specific tenant.
func (c *Cache) ClearUser(id uint) error {
	return c.store.Delete(CacheKey(id))
}

// ClearLoggedOnUser removes the cached identity of the currently
// authenticated principal. No-op for anonymous requests.
func (c *Cache) ClearLoggedOnUser(fc *fiber.Ctx) error {
	id, ok := principalID(fc)
	if !ok {
		return nil
	}
	return c.ClearUser(id)
}

func (c *Cache) signOut(fc *fiber.Ctx) {
	sess, err := session.GetSessionStore().Get(fc)
	if err != nil {
		return
	}
	if err := sess.Destroy(); err != nil {
		log.Printf("failed to destroy stale session: %v", err)
	}
}

func fromModel(user *models.User, isAdmin bool) *AppUser {
	return &AppUser{
		ID:                  user.ID,
		Email:               user.Email,
		ShopDomain:          user.ShopDomain,
		PlatformAccessToken: user.PlatformAccessToken,
		BillingChargeID:     user.BillingChargeID,
		BillingOn:           user.BillingOn,
		Discount:            user.Discount,
		PlanID:              user.PlanID,
		IsAdmin:             isAdmin,
	}
}

func principalID(fc *fiber.Ctx) (uint, bool) {
	store := session.GetSessionStore()
	if store == nil {
		return 0, false
	}
	sess, err := store.Get(fc)
	if err != nil {
		return 0, false
	}
	v := sess.Get(usercontext.KeyUserID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
