package badger

import (
	"errors"
	"fmt"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// CacheStorage implements interfaces.CacheStorage on badgerhold.
type CacheStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewCacheStorage creates the badger-backed cache storage.
func NewCacheStorage(db *DB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{db: db, logger: logger}
}

// SaveEntry upserts one entry under its cache key.
func (s *CacheStorage) SaveEntry(entry *models.CacheEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("cache entry has empty key")
	}
	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to persist cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// SaveEntries upserts a batch, continuing past individual failures.
func (s *CacheStorage) SaveEntries(entries []*models.CacheEntry) error {
	var firstErr error
	saved := 0
	for _, entry := range entries {
		if err := s.SaveEntry(entry); err != nil {
			s.logger.Warn().Err(err).Str("key", entry.Key).Msg("Failed to persist cache entry")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	s.logger.Debug().Int("saved", saved).Int("total", len(entries)).Msg("Cache entries persisted")
	return firstErr
}

// LoadEntry fetches one entry by cache key.
func (s *CacheStorage) LoadEntry(key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrCacheEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entry %s: %w", key, err)
	}
	return &entry, nil
}

// LoadAll returns every persisted entry.
func (s *CacheStorage) LoadAll() ([]*models.CacheEntry, error) {
	var entries []*models.CacheEntry
	if err := s.db.Store().Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to load cache entries: %w", err)
	}
	return entries, nil
}

// DeleteBySource removes all entries for a source path, independent of
// variant.
func (s *CacheStorage) DeleteBySource(sourcePath string) (int, error) {
	normalized := filepath.ToSlash(filepath.Clean(sourcePath))

	var matching []*models.CacheEntry
	if err := s.db.Store().Find(&matching, badgerhold.Where("SourcePath").Eq(normalized)); err != nil {
		return 0, fmt.Errorf("failed to query cache entries for %s: %w", normalized, err)
	}

	deleted := 0
	for _, entry := range matching {
		if err := s.db.Store().Delete(entry.Key, &models.CacheEntry{}); err != nil {
			s.logger.Warn().Err(err).Str("key", entry.Key).Msg("Failed to delete cache entry")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// DeleteAll clears the store.
func (s *CacheStorage) DeleteAll() error {
	if err := s.db.Store().DeleteMatching(&models.CacheEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear cache storage: %w", err)
	}
	return nil
}

// RunMaintenance triggers Badger value-log garbage collection. GC runs until
// badger reports nothing left to rewrite.
func (s *CacheStorage) RunMaintenance() error {
	db := s.db.Store().Badger()
	for {
		err := db.RunValueLogGC(0.5)
		if errors.Is(err, badgerdb.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cache value-log GC failed: %w", err)
		}
	}
}

// Close closes the underlying database.
func (s *CacheStorage) Close() error {
	return s.db.Close()
}

var _ interfaces.CacheStorage = (*CacheStorage)(nil)
