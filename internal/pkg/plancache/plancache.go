// Package plancache keeps an in-memory snapshot of the active plan catalog,
// indexed by id and by (plan id, option name). Reload follows the same
// atomic-swap discipline as the settings cache: build aside, publish once.
package plancache

import (
	"fmt"
	"sync/atomic"
	"time"

	"shopward/app/models"
	"shopward/app/repository"
)

// DefaultTTL is how long a loaded snapshot is served before the next read
// triggers a full reload.
const DefaultTTL = 12 * time.Hour

type snapshot struct {
	byID      map[uint]*models.Plan
	ordered   []models.Plan // display order, as loaded from the store
	expiresAt time.Time
}

// Cache is a cache-aside reader over the plan store. Only active plans are
// ever loaded; cached plans are immutable and replaced wholesale on reload.
type Cache struct {
	repo repository.PlanRepository
	ttl  time.Duration
	snap atomic.Pointer[snapshot]
}

// New creates a plan cache. A non-positive ttl falls back to DefaultTTL.
func New(repo repository.PlanRepository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{repo: repo, ttl: ttl}
}

// ByID returns the cached plan with the given id, or nil.
func (c *Cache) ByID(id uint) (*models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	return snap.byID[id], nil
}

// ByName returns the cached plan with the given name, or nil. Lookup is a
// linear scan; prefer ByID on hot paths.
func (c *Cache) ByName(name string) (*models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	for i := range snap.ordered {
		if snap.ordered[i].Name == name {
			return &snap.ordered[i], nil
		}
	}
	return nil, nil
}

// OptionOf returns the named option of a cached plan, or nil when either
// the plan or the option is unknown.
func (c *Cache) OptionOf(planID uint, optionName string) (*models.PlanOption, error) {
	plan, err := c.ByID(planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	return plan.Option(optionName), nil
}

// AllPlans returns the active plans in display order. Dev plans are
// filtered out unless includeDev is set.
func (c *Cache) AllPlans(includeDev bool) ([]models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	out := make([]models.Plan, 0, len(snap.ordered))
	for _, p := range snap.ordered {
		if p.IsDev && !includeDev {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// AvailableUpgrades returns the plans a tenant on currentPlanID may move up
// to. A plan is an upgrade exactly when its id is larger; price and display
// order play no part in the comparison.
func (c *Cache) AvailableUpgrades(currentPlanID uint, includeDev bool) ([]models.Plan, error) {
	all, err := c.AllPlans(includeDev)
	if err != nil {
		return nil, err
	}
	out := make([]models.Plan, 0, len(all))
	for _, p := range all {
		if p.ID > currentPlanID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CanUpgrade reports whether any upgrade exists for the given plan.
func (c *Cache) CanUpgrade(currentPlanID uint, includeDev bool) (bool, error) {
	ups, err := c.AvailableUpgrades(currentPlanID, includeDev)
	if err != nil {
		return false, err
	}
	return len(ups) > 0, nil
}

// ReloadAndReplace re-reads the active plan catalog and atomically swaps in
// the rebuilt snapshot. Racing reloads both publish; last write wins.
func (c *Cache) ReloadAndReplace() error {
	plans, err := c.repo.FetchAllActiveWithOptions()
	if err != nil {
		return fmt.Errorf("plan cache reload: %w", err)
	}

	byID := make(map[uint]*models.Plan, len(plans))
	for i := range plans {
		byID[plans[i].ID] = &plans[i]
	}

	c.snap.Store(&snapshot{
		byID:      byID,
		ordered:   plans,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

func (c *Cache) current() (*snapshot, error) {
	snap := c.snap.Load()
	if snap == nil || time.Now().After(snap.expiresAt) {
		if err := c.ReloadAndReplace(); err != nil {
			return nil, err
		}
		snap = c.snap.Load()
	}
	return snap, nil
}
