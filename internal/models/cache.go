package models

import "time"

// CacheEntry is one persisted compilation result, addressed by the request's
// cache key. Created on a cache miss after a successful compile; invalidated
// when the source mtime advances past the cached value or the content hash
// differs; overwritten last-writer-wins on recompiles of the same key.
type CacheEntry struct {
	Key          string
	SourcePath   string `badgerhold:"index"`
	EntryPoint   string
	Stage        ShaderStage
	Variant      ShaderVariant
	Optimization OptimizationLevel
	Bytecode     []byte
	Reflection   ReflectionData
	SourceHash   string
	SourceMTime  time.Time
	StoredAt     time.Time
}

// Fresh reports whether the entry is still valid for a source file with the
// given mtime and content hash. The double check (mtime + hash) tolerates
// mtime imprecision from file copies while still catching files rewritten
// without a timestamp change.
func (e *CacheEntry) Fresh(currentMTime time.Time, currentHash string) bool {
	if currentMTime.After(e.SourceMTime) {
		return false
	}
	if e.SourceHash != "" && currentHash != "" && e.SourceHash != currentHash {
		return false
	}
	return true
}

// CompileStats is a read-only snapshot of the manager's rolling statistics.
type CompileStats struct {
	ShadersLoaded      int
	ProgramsLoaded     int
	CompileAttempts    uint64
	CompileSuccesses   uint64
	CompileFailures    uint64
	CacheHits          uint64
	CacheMisses        uint64
	TotalCompileTime   time.Duration
	AverageCompileTime time.Duration
}
