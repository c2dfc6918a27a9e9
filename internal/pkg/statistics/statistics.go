package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"shopward/app/models"
	"shopward/internal/pkg/cache"
	"shopward/internal/pkg/database"
)

const (
	CacheKeyTenantsTotal     = "statistics:tenants:total"
	CacheKeyTenantsConnected = "statistics:tenants:connected"
	CacheKeyTenantsBilled    = "statistics:tenants:billed"
	CacheExpiration          = 30 * time.Minute
)

// StatisticsData holds the tenant figures shown on the admin dashboard
type StatisticsData struct {
	TotalTenants     int
	ConnectedTenants int
	BilledTenants    int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the cached figures are due for a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached figures when they are stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("failed to update statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache recomputes the tenant figures from the database and
// stores them in redis
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var total, connected, billed int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return err
	}
	if err := db.Model(&models.User{}).
		Where("platform_access_token <> ''").
		Count(&connected).Error; err != nil {
		return err
	}
	if err := db.Model(&models.User{}).
		Where("billing_charge_id IS NOT NULL").
		Count(&billed).Error; err != nil {
		return err
	}

	if err := cache.Set(CacheKeyTenantsTotal, strconv.FormatInt(total, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyTenantsConnected, strconv.FormatInt(connected, 10), CacheExpiration); err != nil {
		return err
	}
	return cache.Set(CacheKeyTenantsBilled, strconv.FormatInt(billed, 10), CacheExpiration)
}

// GetStatistics returns the cached tenant figures, refreshing them when
// missing or stale
func GetStatistics() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalTenants:     readCachedInt(CacheKeyTenantsTotal),
		ConnectedTenants: readCachedInt(CacheKeyTenantsConnected),
		BilledTenants:    readCachedInt(CacheKeyTenantsBilled),
	}
}

func readCachedInt(key string) int {
	v, err := cache.Get(key)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
