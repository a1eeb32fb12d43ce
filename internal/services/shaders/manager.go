// Package shaders is the facade over the compilation subsystem: it owns the
// shader and program registries, the cache, the dependency tracker, and the
// async pool, and exposes the compile/get/unload surface.
package shaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/cache"
	"github.com/Derthenier/Akhanda-sub004/internal/services/compiler"
	"github.com/Derthenier/Akhanda-sub004/internal/services/hotreload"
	"github.com/Derthenier/Akhanda-sub004/internal/services/reflection"
	"github.com/Derthenier/Akhanda-sub004/internal/services/scheduler"
	"github.com/Derthenier/Akhanda-sub004/internal/services/source"
	"github.com/Derthenier/Akhanda-sub004/internal/services/variants"
)

// Manager implements interfaces.ShaderService.
type Manager struct {
	config    *common.Config
	logger    arbor.ILogger
	compiler  *compiler.Service
	extractor *reflection.Extractor
	cache     *cache.Service
	variants  *variants.Service
	tracker   *hotreload.Tracker
	watcher   *hotreload.Watcher
	pool      *scheduler.Pool
	maint     *scheduler.Maintenance

	registryMu sync.RWMutex
	shaders    map[string]*models.Shader // keyed by RegistryKey
	// originating requests, kept so hot reload can recompile a flagged
	// shader without the caller re-supplying its parameters
	requests map[string]models.CompileRequest

	programMu sync.RWMutex
	programs  map[string]*models.ShaderProgram

	statsMu sync.Mutex
	stats   models.CompileStats
}

// NewManager wires the subsystem together. storage may be nil to run with a
// purely in-memory cache.
func NewManager(config *common.Config, storage interfaces.CacheStorage, logger arbor.ILogger) (*Manager, error) {
	compileService, err := compiler.NewService(config.Compiler, logger)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:    config,
		logger:    logger,
		compiler:  compileService,
		extractor: reflection.NewExtractor(logger),
		cache:     cache.NewService(storage, logger),
		tracker:   hotreload.NewTracker(),
		shaders:   make(map[string]*models.Shader),
		requests:  make(map[string]models.CompileRequest),
		programs:  make(map[string]*models.ShaderProgram),
	}
	m.variants = variants.NewService(config.Shaders.SearchPaths, logger)
	m.pool = scheduler.NewPool(m.CompileShader, config.Scheduler, logger)

	if config.HotReload.Enabled {
		m.watcher = hotreload.NewWatcher(m.tracker, m, config.HotReload, logger)
	}
	m.maint, err = scheduler.NewMaintenance(config.Cache.MaintenanceSchedule, m.cache.RunMaintenance, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule: %w", err)
	}
	return m, nil
}

// Start loads the persisted cache and launches background workers.
func (m *Manager) Start() {
	if m.config.Cache.Enabled {
		m.cache.LoadFromDisk()
	}
	if m.watcher != nil {
		m.watcher.Start()
	}
	m.maint.Start()
}

// Stop shuts background workers down and persists the cache. Queued async
// compiles that no worker has claimed are abandoned.
func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.pool.Stop()
	m.maint.Stop()
	if m.config.Cache.Enabled {
		if err := m.cache.SaveToDisk(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to persist shader cache on shutdown")
		}
	}
}

// CompileShader is the single synchronous compile path, used directly and by
// the async pool.
func (m *Manager) CompileShader(request models.CompileRequest) (*models.Shader, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	m.countAttempt()

	if m.config.Cache.Enabled {
		if entry, ok := m.cache.TryGet(request); ok {
			shader := shaderFromEntry(request, entry)
			m.insertShader(shader, request)
			m.countCacheHit()
			m.logger.Debug().
				Str("shader", shader.Name).
				Str("variant", request.Variant.Key()).
				Msg("Shader served from cache")
			return shader, nil
		}
		m.countCacheMiss()
	}

	shader, err := m.compileFresh(request)
	elapsed := time.Since(start)
	if err != nil {
		m.countFailure(elapsed)
		m.logger.Error().
			Str("shader", request.ShaderName()).
			Str("variant", request.Variant.Key()).
			Err(err).
			Msg("Shader compilation failed")
		return nil, err
	}

	m.countSuccess(elapsed)
	m.logger.Info().
		Str("shader", shader.Name).
		Str("stage", shader.Stage.String()).
		Str("variant", request.Variant.Key()).
		Int("bytecode_bytes", shader.BytecodeSize()).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Msg("Shader compiled")
	return shader, nil
}

// compileFresh runs the full read/preprocess/compile/reflect pipeline and
// updates cache, registry, and dependency tracker.
func (m *Manager) compileFresh(request models.CompileRequest) (*models.Shader, error) {
	resolver := m.newResolver(request)

	data, err := resolver.ReadFile(request.SourcePath)
	if err != nil {
		return nil, err
	}
	sourceHash := common.HashBytes(data)

	pre := source.NewPreprocessor(resolver, m.logger)
	macros := compiler.MacroTable(request.Variant, m.config.Compiler.GlobalDefines)
	processed, err := pre.Process(request.SourcePath, macros)
	if err != nil {
		return nil, err
	}

	artifact, err := m.compiler.Compile(processed.Source, request)
	if err != nil {
		return nil, err
	}

	reflectionData, err := m.extractor.Extract(artifact, request.ShaderName(), request.Stage, request.EntryPoint, processed.Includes)
	if err != nil {
		return nil, err
	}

	shader := models.NewShader(request.ShaderName(), request.Stage, request.Variant, artifact.Bytecode, reflectionData, sourceHash)

	if m.config.Cache.Enabled {
		entry := &models.CacheEntry{
			Key:          request.CacheKey(),
			SourcePath:   filepath.ToSlash(filepath.Clean(request.SourcePath)),
			EntryPoint:   request.EntryPoint,
			Stage:        request.Stage,
			Variant:      request.Variant,
			Optimization: request.Optimization,
			Bytecode:     artifact.Bytecode,
			Reflection:   reflectionData,
			SourceHash:   sourceHash,
			StoredAt:     time.Now(),
		}
		if info, statErr := os.Stat(request.SourcePath); statErr == nil {
			entry.SourceMTime = info.ModTime()
		}
		m.cache.Put(entry)
	}

	m.insertShader(shader, request)

	if m.config.HotReload.Enabled {
		watched := append([]string{request.SourcePath}, processed.Includes...)
		m.tracker.AddFileWatch(request.SourcePath)
		m.tracker.UpdateDependencies(shader.RegistryKey(), watched)
	}

	return shader, nil
}

// newResolver seeds the include search order: the source file's directory
// first, then configured paths, then request-supplied extras.
func (m *Manager) newResolver(request models.CompileRequest) *source.Resolver {
	dirs := make([]string, 0, 1+len(m.config.Shaders.SearchPaths)+len(request.IncludePaths))
	dirs = append(dirs, filepath.Dir(request.SourcePath))
	dirs = append(dirs, m.config.Shaders.SearchPaths...)
	dirs = append(dirs, request.IncludePaths...)
	return source.NewResolver(dirs, m.logger)
}

func shaderFromEntry(request models.CompileRequest, entry *models.CacheEntry) *models.Shader {
	return models.NewShader(request.ShaderName(), entry.Stage, entry.Variant, entry.Bytecode, entry.Reflection, entry.SourceHash)
}

// CompileShaderAsync queues a compile on the worker pool. The callback runs
// on a worker goroutine.
func (m *Manager) CompileShaderAsync(request models.CompileRequest, callback func(models.CompileResult)) (string, error) {
	return m.pool.Submit(request, callback)
}

// FlushAsyncOperations blocks until every queued and running async compile
// has completed.
func (m *Manager) FlushAsyncOperations() {
	m.pool.Flush()
}

// GetShader returns the registered shader for a name and variant.
func (m *Manager) GetShader(name string, variant models.ShaderVariant) (*models.Shader, error) {
	m.registryMu.RLock()
	shader, ok := m.shaders[models.RegistryKey(name, variant)]
	m.registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (variant %s)", interfaces.ErrShaderNotFound, name, variant.Key())
	}
	return shader, nil
}

// UnloadShader removes a shader from the registry.
func (m *Manager) UnloadShader(name string, variant models.ShaderVariant) error {
	key := models.RegistryKey(name, variant)
	m.registryMu.Lock()
	_, ok := m.shaders[key]
	delete(m.shaders, key)
	delete(m.requests, key)
	m.registryMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s (variant %s)", interfaces.ErrShaderNotFound, name, variant.Key())
	}
	m.logger.Debug().Str("shader", key).Msg("Shader unloaded")
	return nil
}

// UnloadAllShaders clears both registries.
func (m *Manager) UnloadAllShaders() {
	m.registryMu.Lock()
	count := len(m.shaders)
	m.shaders = make(map[string]*models.Shader)
	m.requests = make(map[string]models.CompileRequest)
	m.registryMu.Unlock()

	m.programMu.Lock()
	m.programs = make(map[string]*models.ShaderProgram)
	m.programMu.Unlock()

	m.logger.Info().Int("shaders", count).Msg("All shaders unloaded")
}

// ForceRecompileShader flags a shader stale. The actual recompile happens on
// the next CompileShader of its key or a ForceRecompileAll sweep.
func (m *Manager) ForceRecompileShader(name string, variant models.ShaderVariant) error {
	shader, err := m.GetShader(name, variant)
	if err != nil {
		return err
	}
	shader.MarkForRecompile()

	m.registryMu.RLock()
	request, ok := m.requests[shader.RegistryKey()]
	m.registryMu.RUnlock()
	if ok {
		m.cache.Invalidate(request.SourcePath)
	}
	return nil
}

// ForceRecompileProgram flags every stage of a program stale.
func (m *Manager) ForceRecompileProgram(name string) error {
	program, err := m.GetShaderProgram(name)
	if err != nil {
		return err
	}
	for _, shader := range program.Stages {
		shader.MarkForRecompile()
	}
	return nil
}

// ForceRecompileAll is a catch-up sweep after hot-reload activity: it does
// nothing to shaders that are not flagged. Flagged shaders are recompiled
// synchronously and the results returned in registry-key order.
func (m *Manager) ForceRecompileAll() []models.CompileResult {
	type staleEntry struct {
		key     string
		request models.CompileRequest
	}
	m.registryMu.RLock()
	stale := make([]staleEntry, 0)
	for key, shader := range m.shaders {
		if !shader.NeedsRecompile() {
			continue
		}
		if request, ok := m.requests[key]; ok {
			stale = append(stale, staleEntry{key: key, request: request})
		}
	}
	m.registryMu.RUnlock()
	sort.Slice(stale, func(i, j int) bool { return stale[i].key < stale[j].key })

	results := make([]models.CompileResult, 0, len(stale))
	for _, entry := range stale {
		start := time.Now()
		recompiled, err := m.CompileShader(entry.request)
		if err == nil {
			recompiled.ClearRecompileFlag()
		}
		results = append(results, models.CompileResult{
			Request:  entry.request,
			Shader:   recompiled,
			Err:      err,
			Duration: time.Since(start),
		})
	}
	if len(results) > 0 {
		m.logger.Info().Int("shaders", len(results)).Msg("Recompile sweep finished")
	}
	return results
}

// insertShader registers a shader, replacing any previous one for its key.
func (m *Manager) insertShader(shader *models.Shader, request models.CompileRequest) {
	key := shader.RegistryKey()
	m.registryMu.Lock()
	m.shaders[key] = shader
	m.requests[key] = request
	m.registryMu.Unlock()
}

// Stats returns a snapshot of the rolling statistics.
func (m *Manager) Stats() models.CompileStats {
	m.statsMu.Lock()
	snapshot := m.stats
	m.statsMu.Unlock()

	m.registryMu.RLock()
	snapshot.ShadersLoaded = len(m.shaders)
	m.registryMu.RUnlock()
	m.programMu.RLock()
	snapshot.ProgramsLoaded = len(m.programs)
	m.programMu.RUnlock()

	if snapshot.CompileSuccesses > 0 {
		snapshot.AverageCompileTime = snapshot.TotalCompileTime / time.Duration(snapshot.CompileSuccesses)
	}
	return snapshot
}

func (m *Manager) countAttempt() {
	m.statsMu.Lock()
	m.stats.CompileAttempts++
	m.statsMu.Unlock()
}

// countCacheHit counts only the hit: successes and compile time track actual
// backend compiles, so the average is not diluted once the cache warms.
func (m *Manager) countCacheHit() {
	m.statsMu.Lock()
	m.stats.CacheHits++
	m.statsMu.Unlock()
}

func (m *Manager) countCacheMiss() {
	m.statsMu.Lock()
	m.stats.CacheMisses++
	m.statsMu.Unlock()
}

func (m *Manager) countSuccess(elapsed time.Duration) {
	m.statsMu.Lock()
	m.stats.CompileSuccesses++
	m.stats.TotalCompileTime += elapsed
	m.statsMu.Unlock()
}

func (m *Manager) countFailure(elapsed time.Duration) {
	m.statsMu.Lock()
	m.stats.CompileFailures++
	m.stats.TotalCompileTime += elapsed
	m.statsMu.Unlock()
}

var _ interfaces.ShaderService = (*Manager)(nil)
