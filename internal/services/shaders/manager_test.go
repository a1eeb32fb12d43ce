package shaders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/reflection"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

const commonInclude = `struct Material {
    tint: vec4<f32>,
    params: vec4<f32>,
}
`

const litPixelShader = `#include "common.wgsl"

@group(0) @binding(0) var<uniform> material: Material;

@fragment
fn main() -> @location(0) vec4<f32> {
#ifdef USE_TINT
    return material.tint;
#else
    return material.params;
#endif
}
`

const passthroughVertexShader = `@vertex
fn main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

func testConfig(dir string) *common.Config {
	config := common.DefaultConfig()
	config.Shaders.SearchPaths = []string{dir}
	config.Cache.Enabled = true
	config.Cache.MaintenanceSchedule = ""
	config.HotReload.Enabled = false
	config.Scheduler.Workers = 2
	config.Scheduler.QueueSize = 16
	return config
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.wgsl"), []byte(commonInclude), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lit.wgsl"), []byte(litPixelShader), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pass.wgsl"), []byte(passthroughVertexShader), 0644))

	manager, err := NewManager(testConfig(dir), nil, createTestLogger())
	require.NoError(t, err)
	manager.Start()
	t.Cleanup(manager.Stop)
	return manager, dir
}

func litRequest(dir string) models.CompileRequest {
	return models.CompileRequest{
		SourcePath: filepath.Join(dir, "lit.wgsl"),
		EntryPoint: "main",
		Stage:      models.StagePixel,
	}
}

func TestManager_EndToEndCompile(t *testing.T) {
	manager, dir := newTestManager(t)

	shader, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)
	assert.Equal(t, "lit", shader.Name)
	assert.Equal(t, models.StagePixel, shader.Stage)
	assert.NoError(t, reflection.ValidateBytecode(shader.Bytecode()))
	assert.NotZero(t, shader.Reflection.InstructionCount)

	require.Len(t, shader.Reflection.ConstantBuffers, 1)
	cb := shader.Reflection.ConstantBuffers[0]
	assert.Equal(t, "material", cb.Name)
	assert.Equal(t, uint32(0), cb.BindPoint)
	assert.Equal(t, uint32(0), cb.RegisterSpace)
	assert.NotZero(t, cb.Size)

	require.Len(t, shader.Reflection.IncludedFiles, 1)
	assert.Contains(t, shader.Reflection.IncludedFiles[0], "common.wgsl")

	registered, err := manager.GetShader("lit", models.ShaderVariant{})
	require.NoError(t, err)
	assert.Same(t, shader, registered)
}

func TestManager_CacheHitOnSecondCompile(t *testing.T) {
	manager, dir := newTestManager(t)

	first, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)
	second, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)

	assert.Equal(t, first.Bytecode(), second.Bytecode())
	stats := manager.Stats()
	assert.Equal(t, uint64(2), stats.CompileAttempts)
	assert.Equal(t, uint64(1), stats.CacheHits)
	assert.Equal(t, uint64(1), stats.CacheMisses)

	// only the fresh compile counts toward successes and compile time, so
	// the average is not pulled toward zero by near-instant hits
	assert.Equal(t, uint64(1), stats.CompileSuccesses)
	assert.Equal(t, stats.TotalCompileTime, stats.AverageCompileTime)
}

func TestManager_VariantsCompileSeparately(t *testing.T) {
	manager, dir := newTestManager(t)

	plain, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)

	tinted := litRequest(dir)
	tinted.Variant = models.MustVariant(models.MacroDefine{Name: "USE_TINT", Value: "1"})
	withTint, err := manager.CompileShader(tinted)
	require.NoError(t, err)

	assert.NotEqual(t, plain.RegistryKey(), withTint.RegistryKey())
	stats := manager.Stats()
	assert.Equal(t, 2, stats.ShadersLoaded)
	assert.Equal(t, uint64(0), stats.CacheHits, "different variants never share entries")
}

func TestManager_FileNotFound(t *testing.T) {
	manager, dir := newTestManager(t)

	request := litRequest(dir)
	request.SourcePath = filepath.Join(dir, "missing.wgsl")
	_, err := manager.CompileShader(request)
	assert.True(t, errors.Is(err, interfaces.ErrFileNotFound))

	stats := manager.Stats()
	assert.Equal(t, uint64(1), stats.CompileFailures)
}

func TestManager_CompilationFailure(t *testing.T) {
	manager, dir := newTestManager(t)
	broken := filepath.Join(dir, "broken.wgsl")
	require.NoError(t, os.WriteFile(broken, []byte("fn main( {"), 0644))

	request := litRequest(dir)
	request.SourcePath = broken
	_, err := manager.CompileShader(request)
	require.Error(t, err)

	var compErr *interfaces.CompilationError
	assert.True(t, errors.As(err, &compErr))
}

func TestManager_AsyncCompile(t *testing.T) {
	manager, dir := newTestManager(t)

	done := make(chan models.CompileResult, 1)
	id, err := manager.CompileShaderAsync(litRequest(dir), func(result models.CompileResult) {
		done <- result
	})
	require.NoError(t, err)
	assert.Contains(t, id, "task_")

	manager.FlushAsyncOperations()
	select {
	case result := <-done:
		require.NoError(t, result.Err)
		assert.Equal(t, "lit", result.Shader.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("async callback never fired")
	}
}

func TestManager_CreateShaderProgram(t *testing.T) {
	manager, dir := newTestManager(t)

	ps, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)
	vsRequest := models.CompileRequest{
		SourcePath: filepath.Join(dir, "pass.wgsl"),
		EntryPoint: "main",
		Stage:      models.StageVertex,
	}
	vs, err := manager.CompileShader(vsRequest)
	require.NoError(t, err)

	program, err := manager.CreateShaderProgram("lit", []*models.Shader{vs, ps})
	require.NoError(t, err)
	assert.Len(t, program.Stages, 2)
	assert.NotEmpty(t, program.Hash)
	assert.Len(t, program.Reflection.ConstantBuffers, 1)

	fetched, err := manager.GetShaderProgram("lit")
	require.NoError(t, err)
	assert.Same(t, program, fetched)

	// a second stage of the same kind is a link error
	_, err = manager.CreateShaderProgram("bad", []*models.Shader{ps, ps})
	assert.True(t, errors.Is(err, interfaces.ErrLinkError))

	_, err = manager.CreateShaderProgram("empty", nil)
	assert.True(t, errors.Is(err, interfaces.ErrLinkError))
}

func TestManager_ForceRecompile(t *testing.T) {
	manager, dir := newTestManager(t)

	shader, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)
	assert.False(t, shader.NeedsRecompile())

	require.NoError(t, manager.ForceRecompileShader("lit", models.ShaderVariant{}))
	assert.True(t, shader.NeedsRecompile())

	results := manager.ForceRecompileAll()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.False(t, results[0].Shader.NeedsRecompile())

	// nothing flagged, nothing recompiled
	assert.Empty(t, manager.ForceRecompileAll())

	err = manager.ForceRecompileShader("ghost", models.ShaderVariant{})
	assert.True(t, errors.Is(err, interfaces.ErrShaderNotFound))
}

func TestManager_UnloadShader(t *testing.T) {
	manager, dir := newTestManager(t)

	_, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)

	require.NoError(t, manager.UnloadShader("lit", models.ShaderVariant{}))
	_, err = manager.GetShader("lit", models.ShaderVariant{})
	assert.True(t, errors.Is(err, interfaces.ErrShaderNotFound))

	err = manager.UnloadShader("lit", models.ShaderVariant{})
	assert.True(t, errors.Is(err, interfaces.ErrShaderNotFound))
}

func TestManager_UnloadAllShaders(t *testing.T) {
	manager, dir := newTestManager(t)

	_, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)
	manager.UnloadAllShaders()
	assert.Equal(t, 0, manager.Stats().ShadersLoaded)
}

func TestManager_CreateShaderFromBytecode(t *testing.T) {
	manager, dir := newTestManager(t)

	compiled, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)

	shader, err := manager.CreateShaderFromBytecode("precompiled", models.StagePixel, models.ShaderVariant{}, compiled.Bytecode())
	require.NoError(t, err)
	assert.Equal(t, compiled.BytecodeSize(), shader.BytecodeSize())

	fetched, err := manager.GetShader("precompiled", models.ShaderVariant{})
	require.NoError(t, err)
	assert.Same(t, shader, fetched)

	_, err = manager.CreateShaderFromBytecode("junk", models.StagePixel, models.ShaderVariant{}, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, interfaces.ErrInvalidBytecode))
}

func TestManager_EntryPointsAndVariants(t *testing.T) {
	manager, dir := newTestManager(t)

	entries, err := manager.GetAvailableEntryPoints(filepath.Join(dir, "lit.wgsl"), models.StagePixel)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "main", entries[0].Name)
	assert.Equal(t, models.StagePixel, entries[0].Stage)

	variants, err := manager.GenerateVariants(filepath.Join(dir, "lit.wgsl"), []string{"USE_TINT", "UNUSED"})
	require.NoError(t, err)
	keys := make([]string, len(variants))
	for i, v := range variants {
		keys[i] = v.Key()
	}
	assert.Contains(t, keys, "default")
	assert.Contains(t, keys, "USE_TINT=1")
	assert.NotContains(t, keys, "UNUSED=1")
}

func TestManager_ConstantBufferBindings(t *testing.T) {
	manager, dir := newTestManager(t)

	_, err := manager.CompileShader(litRequest(dir))
	require.NoError(t, err)

	bindings, err := manager.GetConstantBufferBindings("lit", models.ShaderVariant{})
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "material", bindings[0].Name)

	findings, err := manager.ValidateConstantBufferLayout("lit", models.ShaderVariant{})
	require.NoError(t, err)
	assert.Empty(t, findings, "binding 0 is within the advisory limit")
}

const chainLeafInclude = `struct Material {
    tint: vec4<f32>,
}
`

const chainedPixelShader = `#include "b.wgsl"

@group(0) @binding(0) var<uniform> material: Material;

@fragment
fn main() -> @location(0) vec4<f32> {
    return material.tint;
}
`

func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	future := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, future, future))
}

func waitForCondition(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestManager_HotReloadFlagsAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.wgsl"), []byte(chainLeafInclude), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wgsl"), []byte("#include \"c.wgsl\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wgsl"), []byte(chainedPixelShader), 0644))

	config := testConfig(dir)
	config.HotReload.Enabled = true
	config.HotReload.PollInterval = "10ms"
	manager, err := NewManager(config, nil, createTestLogger())
	require.NoError(t, err)
	manager.Start()
	t.Cleanup(manager.Stop)

	shader, err := manager.CompileShader(models.CompileRequest{
		SourcePath: filepath.Join(dir, "a.wgsl"),
		EntryPoint: "main",
		Stage:      models.StagePixel,
	})
	require.NoError(t, err)
	require.Len(t, shader.Reflection.IncludedFiles, 2)
	require.Equal(t, 1, manager.cache.EntryCount())

	// editing the root source flags the shader and drops its cache entries
	touch(t, filepath.Join(dir, "a.wgsl"), time.Hour)
	waitForCondition(t, shader.NeedsRecompile, "root change never flagged the shader")
	waitForCondition(t, func() bool { return manager.cache.EntryCount() == 0 },
		"root change never invalidated the cache")

	results := manager.ForceRecompileAll()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	recompiled := results[0].Shader
	assert.False(t, recompiled.NeedsRecompile())
	require.Equal(t, 1, manager.cache.EntryCount())

	// editing a transitive include reaches the root shader through the
	// dependency graph, flagging it and invalidating its cache entries
	touch(t, filepath.Join(dir, "c.wgsl"), 2*time.Hour)
	waitForCondition(t, recompiled.NeedsRecompile, "include change never flagged the dependent shader")
	waitForCondition(t, func() bool { return manager.cache.EntryCount() == 0 },
		"include change never invalidated the dependent's cache entries")
}

func TestValidateRegisterLayout(t *testing.T) {
	clean := models.ReflectionData{
		ConstantBuffers: []models.ShaderResource{{Name: "PerFrame", BindPoint: 0}},
	}
	assert.Empty(t, ValidateRegisterLayout(clean))

	excessive := models.ReflectionData{
		ConstantBuffers: []models.ShaderResource{{Name: "Overflow", BindPoint: 32}},
	}
	findings := ValidateRegisterLayout(excessive)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "Overflow")
}
