// Package hotreload watches shader source files for edits and maintains the
// include-dependency graph used to fan a change out to dependent shaders.
package hotreload

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Tracker holds the watch set, last-known mtimes, and the included-file →
// dependent-shader edges. One RWMutex guards all three; the poll loop reads,
// compile-path registrations write.
type Tracker struct {
	mu         sync.RWMutex
	mtimes     map[string]time.Time
	dependents map[string]map[string]struct{} // file path -> dependent names
}

// NewTracker creates an empty dependency tracker.
func NewTracker() *Tracker {
	return &Tracker{
		mtimes:     make(map[string]time.Time),
		dependents: make(map[string]map[string]struct{}),
	}
}

func normalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// AddFileWatch starts watching a file, recording its current mtime as the
// baseline. Unstatable files are watched with a zero baseline so they fire
// a change once they appear.
func (t *Tracker) AddFileWatch(path string) {
	path = normalizePath(path)
	var mtime time.Time
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime()
	}
	t.mu.Lock()
	t.mtimes[path] = mtime
	t.mu.Unlock()
}

// RemoveFileWatch stops watching a file and drops its dependent edges.
func (t *Tracker) RemoveFileWatch(path string) {
	path = normalizePath(path)
	t.mu.Lock()
	delete(t.mtimes, path)
	delete(t.dependents, path)
	t.mu.Unlock()
}

// UpdateDependencies records that shaderName depends on the given included
// files, watching each one. Called after every successful compile, so edges
// accumulate; stale edges for removed includes are cleaned up here.
func (t *Tracker) UpdateDependencies(shaderName string, includes []string) {
	normalized := make(map[string]struct{}, len(includes))
	for _, include := range includes {
		normalized[normalizePath(include)] = struct{}{}
	}

	t.mu.Lock()
	for path, deps := range t.dependents {
		if _, still := normalized[path]; !still {
			delete(deps, shaderName)
			if len(deps) == 0 {
				delete(t.dependents, path)
			}
		}
	}
	for path := range normalized {
		deps, ok := t.dependents[path]
		if !ok {
			deps = make(map[string]struct{})
			t.dependents[path] = deps
		}
		deps[shaderName] = struct{}{}
		if _, watched := t.mtimes[path]; !watched {
			var mtime time.Time
			if info, err := os.Stat(path); err == nil {
				mtime = info.ModTime()
			}
			t.mtimes[path] = mtime
		}
	}
	t.mu.Unlock()
}

// Dependents returns the sorted names of shaders depending on a file.
func (t *Tracker) Dependents(path string) []string {
	path = normalizePath(path)
	t.mu.RLock()
	deps := t.dependents[path]
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// WatchedCount returns the number of watched files.
func (t *Tracker) WatchedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.mtimes)
}

// snapshot copies the watch set for one poll pass.
func (t *Tracker) snapshot() map[string]time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	copied := make(map[string]time.Time, len(t.mtimes))
	for path, mtime := range t.mtimes {
		copied[path] = mtime
	}
	return copied
}

// advance records a newer mtime for a watched file. Returns false when the
// file was unwatched between snapshot and update.
func (t *Tracker) advance(path string, mtime time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.mtimes[path]; !ok {
		return false
	}
	t.mtimes[path] = mtime
	return true
}
