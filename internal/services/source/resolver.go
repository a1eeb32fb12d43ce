// Package source handles shader source loading: include resolution, the
// line-level preprocessor, and the regex-based entry point and macro
// scanners. The scanners are best-effort heuristics, not a real parser; they
// are isolated here so they can be swapped for an exact preprocessor later.
package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
)

// Resolver resolves #include directives against an ordered list of search
// directories. File contents are memoized for the lifetime of the resolver,
// which the manager scopes to a single compilation.
type Resolver struct {
	searchDirs []string
	logger     arbor.ILogger
	contents   map[string][]byte
}

// NewResolver creates a resolver over the given search directories, in
// priority order. The including file's own directory is always consulted
// first.
func NewResolver(searchDirs []string, logger arbor.ILogger) *Resolver {
	return &Resolver{
		searchDirs: append([]string(nil), searchDirs...),
		logger:     logger,
		contents:   make(map[string][]byte),
	}
}

// SearchDirs returns the resolver's directory list in priority order.
func (r *Resolver) SearchDirs() []string {
	return r.searchDirs
}

// ReadFile reads a file through the resolver's content memo.
func (r *Resolver) ReadFile(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if data, ok := r.contents[clean]; ok {
		return data, nil
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrFileNotFound, clean)
		}
		return nil, fmt.Errorf("failed to read %s: %w", clean, err)
	}
	r.contents[clean] = data
	return data, nil
}

// Resolve locates an included file name. The directory of the including file
// is tried first, then each search directory in order. Returns the resolved
// cleaned path and its contents.
func (r *Resolver) Resolve(name string, fromDir string) (string, []byte, error) {
	candidates := make([]string, 0, len(r.searchDirs)+1)
	if fromDir != "" {
		candidates = append(candidates, filepath.Join(fromDir, name))
	}
	for _, dir := range r.searchDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, candidate := range candidates {
		clean := filepath.Clean(candidate)
		if data, ok := r.contents[clean]; ok {
			return clean, data, nil
		}
		info, err := os.Stat(clean)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(clean)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", clean).Msg("Include candidate exists but could not be read")
			continue
		}
		r.contents[clean] = data
		return clean, data, nil
	}

	return "", nil, fmt.Errorf("%w: include %q (from %s)", interfaces.ErrFileNotFound, name, fromDir)
}
