package badger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func newTestStorage(t *testing.T) interfaces.CacheStorage {
	t.Helper()
	config := &common.CacheConfig{Enabled: true, Path: t.TempDir()}
	db, err := NewDB(createTestLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCacheStorage(db, createTestLogger())
}

func testEntry(key, sourcePath string) *models.CacheEntry {
	return &models.CacheEntry{
		Key:          key,
		SourcePath:   sourcePath,
		EntryPoint:   "main",
		Stage:        models.StagePixel,
		Variant:      models.MustVariant(models.MacroDefine{Name: "USE_FOG", Value: "1"}),
		Optimization: models.OptRelease,
		Bytecode:     []byte{0x03, 0x02, 0x23, 0x07},
		Reflection: models.ReflectionData{
			ConstantBuffers: []models.ShaderResource{{
				Name:      "material",
				BindPoint: 0,
				BindCount: 1,
				Size:      32,
				Members: []models.ConstantBufferMember{
					{Name: "tint", Offset: 0, Size: 16, Rows: 1, Columns: 4, Type: models.MemberFloat4},
					{Name: "params", Offset: 16, Size: 16, Rows: 1, Columns: 4, Type: models.MemberFloat4},
				},
			}},
			InstructionCount: 42,
			IncludedFiles:    []string{"shaders/common.wgsl"},
			CompilerVersion:  "naga-go/0.17",
			CompilerFlags:    []string{"-O3", "-Zpc"},
		},
		SourceHash:  "abc123",
		SourceMTime: time.Now().Truncate(time.Second),
		StoredAt:    time.Now().Truncate(time.Second),
	}
}

func TestCacheStorage_RoundTrip(t *testing.T) {
	storage := newTestStorage(t)

	saved := testEntry("k1", "shaders/lit.wgsl")
	require.NoError(t, storage.SaveEntry(saved))

	loaded, err := storage.LoadEntry("k1")
	require.NoError(t, err)
	assert.Equal(t, saved.Key, loaded.Key)
	assert.Equal(t, saved.Bytecode, loaded.Bytecode)
	assert.Equal(t, saved.SourceHash, loaded.SourceHash)
	assert.Equal(t, saved.Stage, loaded.Stage)

	// reflection data and variant defines survive persistence losslessly
	assert.Equal(t, saved.Variant, loaded.Variant)
	assert.Equal(t, "USE_FOG=1", loaded.Variant.Key())
	assert.Equal(t, saved.Reflection, loaded.Reflection)
	require.Len(t, loaded.Reflection.ConstantBuffers, 1)
	assert.Equal(t, saved.Reflection.ConstantBuffers[0].Members, loaded.Reflection.ConstantBuffers[0].Members)
}

func TestCacheStorage_LoadMissingEntry(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.LoadEntry("nope")
	assert.True(t, errors.Is(err, interfaces.ErrCacheEntryNotFound))
}

func TestCacheStorage_SaveEntriesAndLoadAll(t *testing.T) {
	storage := newTestStorage(t)
	require.NoError(t, storage.SaveEntries([]*models.CacheEntry{
		testEntry("k1", "shaders/lit.wgsl"),
		testEntry("k2", "shaders/lit.wgsl"),
		testEntry("k3", "shaders/sky.wgsl"),
	}))

	entries, err := storage.LoadAll()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCacheStorage_DeleteBySource(t *testing.T) {
	storage := newTestStorage(t)
	require.NoError(t, storage.SaveEntries([]*models.CacheEntry{
		testEntry("k1", "shaders/lit.wgsl"),
		testEntry("k2", "shaders/lit.wgsl"),
		testEntry("k3", "shaders/sky.wgsl"),
	}))

	removed, err := storage.DeleteBySource("shaders/lit.wgsl")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := storage.LoadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k3", entries[0].Key)
}

func TestCacheStorage_DeleteAll(t *testing.T) {
	storage := newTestStorage(t)
	require.NoError(t, storage.SaveEntry(testEntry("k1", "shaders/lit.wgsl")))
	require.NoError(t, storage.DeleteAll())

	entries, err := storage.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheStorage_UpsertOverwrites(t *testing.T) {
	storage := newTestStorage(t)
	require.NoError(t, storage.SaveEntry(testEntry("k1", "shaders/lit.wgsl")))

	updated := testEntry("k1", "shaders/lit.wgsl")
	updated.SourceHash = "def456"
	require.NoError(t, storage.SaveEntry(updated))

	loaded, err := storage.LoadEntry("k1")
	require.NoError(t, err)
	assert.Equal(t, "def456", loaded.SourceHash)

	entries, err := storage.LoadAll()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
