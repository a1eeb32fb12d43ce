package hotreload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touchFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))
	return path
}

func TestTracker_Dependents(t *testing.T) {
	dir := t.TempDir()
	include := touchFile(t, dir, "common.wgsl")

	tracker := NewTracker()
	tracker.UpdateDependencies("lit#default", []string{include})
	tracker.UpdateDependencies("unlit#default", []string{include})

	assert.Equal(t, []string{"lit#default", "unlit#default"}, tracker.Dependents(include))
	assert.Empty(t, tracker.Dependents(filepath.Join(dir, "other.wgsl")))
}

func TestTracker_UpdateDependenciesDropsStaleEdges(t *testing.T) {
	dir := t.TempDir()
	a := touchFile(t, dir, "a.wgsl")
	b := touchFile(t, dir, "b.wgsl")

	tracker := NewTracker()
	tracker.UpdateDependencies("lit#default", []string{a, b})
	require.Equal(t, []string{"lit#default"}, tracker.Dependents(a))

	// recompile no longer includes a
	tracker.UpdateDependencies("lit#default", []string{b})
	assert.Empty(t, tracker.Dependents(a))
	assert.Equal(t, []string{"lit#default"}, tracker.Dependents(b))
}

func TestTracker_AddRemoveFileWatch(t *testing.T) {
	dir := t.TempDir()
	path := touchFile(t, dir, "a.wgsl")

	tracker := NewTracker()
	tracker.AddFileWatch(path)
	assert.Equal(t, 1, tracker.WatchedCount())

	tracker.RemoveFileWatch(path)
	assert.Equal(t, 0, tracker.WatchedCount())
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	dir := t.TempDir()
	path := touchFile(t, dir, "a.wgsl")

	tracker := NewTracker()
	tracker.AddFileWatch(path)

	snap := tracker.snapshot()
	delete(snap, normalizePath(path))
	assert.Equal(t, 1, tracker.WatchedCount())
}
