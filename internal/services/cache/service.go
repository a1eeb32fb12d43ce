// Package cache keeps compiled shader bytecode across runs. Lookups hit an
// in-memory map; the badger store is only touched in batches at startup,
// shutdown, and scheduled maintenance so the hot path never blocks on disk.
package cache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// Service is the shader bytecode cache. A nil storage backend degrades to a
// purely in-memory cache.
type Service struct {
	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
	storage interfaces.CacheStorage
	logger  arbor.ILogger
}

// NewService creates the cache service. storage may be nil when persistence
// is disabled.
func NewService(storage interfaces.CacheStorage, logger arbor.ILogger) *Service {
	return &Service{
		entries: make(map[string]*models.CacheEntry),
		storage: storage,
		logger:  logger,
	}
}

// TryGet returns the cached entry for a request if one exists and is still
// fresh against the source file on disk. A stat failure counts as a miss;
// the compile path will surface the real error.
func (s *Service) TryGet(request models.CompileRequest) (*models.CacheEntry, bool) {
	key := request.CacheKey()

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	info, err := os.Stat(request.SourcePath)
	if err != nil {
		s.logger.Debug().Str("path", request.SourcePath).Err(err).Msg("Cache lookup could not stat source")
		return nil, false
	}

	// Hash only when the entry recorded one; hashing is the expensive half
	// of the freshness check.
	var currentHash string
	if entry.SourceHash != "" {
		currentHash, err = common.HashFile(request.SourcePath)
		if err != nil {
			return nil, false
		}
	}
	if !entry.Fresh(info.ModTime(), currentHash) {
		return nil, false
	}
	return entry, true
}

// Put stores an entry, overwriting any previous entry for the same key.
func (s *Service) Put(entry *models.CacheEntry) {
	s.mu.Lock()
	s.entries[entry.Key] = entry
	s.mu.Unlock()
}

// Invalidate removes every entry compiled from the given source file, both
// in memory and in the persistent store, and returns how many were removed.
func (s *Service) Invalidate(sourcePath string) int {
	normalized := filepath.ToSlash(filepath.Clean(sourcePath))

	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if filepath.ToSlash(filepath.Clean(entry.SourcePath)) == normalized {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if s.storage != nil {
		if _, err := s.storage.DeleteBySource(normalized); err != nil {
			s.logger.Warn().Str("path", normalized).Err(err).Msg("Failed to invalidate persisted cache entries")
		}
	}
	if removed > 0 {
		s.logger.Debug().Str("path", normalized).Int("entries", removed).Msg("Invalidated cache entries")
	}
	return removed
}

// Clear empties the cache in memory and on disk.
func (s *Service) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]*models.CacheEntry)
	s.mu.Unlock()

	if s.storage != nil {
		return s.storage.DeleteAll()
	}
	return nil
}

// EntryCount returns the number of cached entries.
func (s *Service) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TotalBytecodeSize returns the summed bytecode size of all entries.
func (s *Service) TotalBytecodeSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, entry := range s.entries {
		total += int64(len(entry.Bytecode))
	}
	return total
}

// SaveToDisk persists the in-memory entries to the backing store.
func (s *Service) SaveToDisk() error {
	if s.storage == nil {
		return nil
	}

	s.mu.RLock()
	entries := make([]*models.CacheEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	if err := s.storage.SaveEntries(entries); err != nil {
		s.logger.Warn().Err(err).Msg("Some cache entries failed to persist")
		return err
	}
	s.logger.Info().Int("entries", len(entries)).Msg("Shader cache persisted")
	return nil
}

// LoadFromDisk seeds the in-memory cache from the backing store. A load
// failure is not fatal: the cache just starts cold.
func (s *Service) LoadFromDisk() {
	if s.storage == nil {
		return
	}

	entries, err := s.storage.LoadAll()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load shader cache, starting cold")
		return
	}

	s.mu.Lock()
	for _, entry := range entries {
		s.entries[entry.Key] = entry
	}
	s.mu.Unlock()
	s.logger.Info().Int("entries", len(entries)).Msg("Shader cache loaded")
}

// RunMaintenance persists current entries and compacts the backing store.
func (s *Service) RunMaintenance() {
	if s.storage == nil {
		return
	}
	if err := s.SaveToDisk(); err != nil {
		return
	}
	if err := s.storage.RunMaintenance(); err != nil {
		s.logger.Warn().Err(err).Msg("Cache store maintenance failed")
	}
}
