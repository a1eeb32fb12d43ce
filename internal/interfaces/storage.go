package interfaces

import "github.com/Derthenier/Akhanda-sub004/internal/models"

// CacheStorage persists shader cache entries across process runs. The badger
// implementation lives in internal/storage/badger; the in-memory cache
// service loads from and saves to this interface as a batch at manager start
// and stop.
type CacheStorage interface {
	// SaveEntry upserts one entry under its cache key.
	SaveEntry(entry *models.CacheEntry) error
	// SaveEntries upserts a batch, continuing past individual failures and
	// returning the first error encountered.
	SaveEntries(entries []*models.CacheEntry) error
	// LoadEntry fetches one entry; ErrCacheEntryNotFound when absent.
	LoadEntry(key string) (*models.CacheEntry, error)
	// LoadAll returns every persisted entry.
	LoadAll() ([]*models.CacheEntry, error)
	// DeleteBySource removes all entries whose source path matches,
	// independent of variant, returning the number removed.
	DeleteBySource(sourcePath string) (int, error)
	// DeleteAll clears the store.
	DeleteAll() error
	// RunMaintenance performs storage housekeeping (value-log GC).
	RunMaintenance() error
	Close() error
}
