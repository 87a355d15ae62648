package store

import (
	"context"
	"time"

	"github.com/echoapp/echo/internal/profile"
	"github.com/echoapp/echo/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// overviewCache holds computed analytics overviews keyed by date range.
	// Task and habit writes clear it wholesale: any write can shift the
	// numbers of any window.
	overviewCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      time.Duration(profile.AnalyticsCacheTTL) * time.Second,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	return &Store{
		driver:        driver,
		profile:       profile,
		cacheConfig:   cacheConfig,
		overviewCache: cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	// Stop the cache cleanup goroutine
	s.overviewCache.Close()

	return s.driver.Close()
}

// GetCachedOverview returns a previously cached analytics overview.
func (s *Store) GetCachedOverview(key string) (any, bool) {
	return s.overviewCache.Get(key)
}

// SetCachedOverview caches a computed analytics overview under key.
func (s *Store) SetCachedOverview(key string, overview any) {
	s.overviewCache.Set(key, overview)
}

// invalidateOverviews is called by every task, habit and log write.
func (s *Store) invalidateOverviews() {
	s.overviewCache.Clear()
}
