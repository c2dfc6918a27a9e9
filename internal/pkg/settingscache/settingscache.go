// Package settingscache keeps an in-memory snapshot of the system settings
// table grouped by category. Reads are lock-free: the whole snapshot is
// rebuilt off to the side and published with a single atomic swap, so a
// reader always observes either the previous or the next complete snapshot.
package settingscache

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
	groups    map[string]map[string]models.Setting
	expiresAt time.Time
}

// Cache is a cache-aside reader over the settings store. There is no
// per-key refresh: a reload always replaces the whole table.
type Cache struct {
	repo repository.SettingRepository
	ttl  time.Duration
	snap atomic.Pointer[snapshot]
}

// New creates a settings cache. A non-positive ttl falls back to DefaultTTL.
func New(repo repository.SettingRepository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{repo: repo, ttl: ttl}
}

// GetValue returns the effective value of a setting, or "" when the group
// or name is unknown. A store-read failure on a cold or expired cache is
// returned to the caller.
func (c *Cache) GetValue(group, name string) (string, error) {
	snap, err := c.current()
	if err != nil {
		return "", err
	}
	g, ok := snap.groups[group]
	if !ok {
		return "", nil
	}
	s, ok := g[name]
	if !ok {
		return "", nil
	}
	return s.EffectiveValue(), nil
}

// GetGroup returns a copy of all settings in a group keyed by name, or nil
// when the group is unknown.
func (c *Cache) GetGroup(group string) (map[string]models.Setting, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	g, ok := snap.groups[group]
	if !ok {
		return nil, nil
	}
	out := make(map[string]models.Setting, len(g))
	for name, s := range g {
		out[name] = s
	}
	return out, nil
}

// ReloadAndReplace unconditionally re-reads the full settings table and
// atomically swaps in the rebuilt snapshot. Two callers racing here both
// read and both publish; the last write wins, which is harmless.
func (c *Cache) ReloadAndReplace() error {
	settings, err := c.repo.FetchAll()
	if err != nil {
		return fmt.Errorf("settings cache reload: %w", err)
	}

	groups := make(map[string]map[string]models.Setting)
	for _, s := range settings {
		g, ok := groups[s.Group]
		if !ok {
			g = make(map[string]models.Setting)
			groups[s.Group] = g
		}
		g[s.Name] = s
	}

	c.snap.Store(&snapshot{
		groups:    groups,
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
