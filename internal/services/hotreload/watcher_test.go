package hotreload

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

type recordingHandler struct {
	mu         sync.Mutex
	changed    []string
	dependents map[string][]string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{dependents: make(map[string][]string)}
}

func (h *recordingHandler) OnShaderChanged(path string) {
	h.mu.Lock()
	h.changed = append(h.changed, path)
	h.mu.Unlock()
}

func (h *recordingHandler) OnShaderDependencyChanged(path string, dependents []string) {
	h.mu.Lock()
	h.dependents[path] = append([]string(nil), dependents...)
	h.mu.Unlock()
}

func (h *recordingHandler) changedPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.changed...)
}

func (h *recordingHandler) dependentsFor(path string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dependents[path]
}

var _ interfaces.ReloadHandler = (*recordingHandler)(nil)

func watcherConfig() common.HotReloadConfig {
	return common.HotReloadConfig{
		Enabled:         true,
		PollInterval:    "10ms",
		NotifyPerSecond: 1000,
		NotifyBurst:     1000,
	}
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met before timeout")
}

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := touchFile(t, dir, "a.wgsl")

	tracker := NewTracker()
	tracker.AddFileWatch(path)
	handler := newRecordingHandler()
	watcher := NewWatcher(tracker, handler, watcherConfig(), createTestLogger())
	watcher.Start()
	defer watcher.Stop()

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	waitFor(t, 2*time.Second, func() bool {
		return len(handler.changedPaths()) > 0
	})
	assert.Contains(t, handler.changedPaths()[0], "a.wgsl")
}

func TestWatcher_NotifiesDependents(t *testing.T) {
	dir := t.TempDir()
	include := touchFile(t, dir, "common.wgsl")

	tracker := NewTracker()
	tracker.UpdateDependencies("lit#default", []string{include})
	handler := newRecordingHandler()
	watcher := NewWatcher(tracker, handler, watcherConfig(), createTestLogger())
	watcher.Start()
	defer watcher.Stop()

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(include, future, future))

	normalized := normalizePath(include)
	waitFor(t, 2*time.Second, func() bool {
		return len(handler.dependentsFor(normalized)) > 0
	})
	assert.Equal(t, []string{"lit#default"}, handler.dependentsFor(normalized))
}

func TestWatcher_NoNotificationWithoutChange(t *testing.T) {
	dir := t.TempDir()
	path := touchFile(t, dir, "a.wgsl")

	tracker := NewTracker()
	tracker.AddFileWatch(path)
	handler := newRecordingHandler()
	watcher := NewWatcher(tracker, handler, watcherConfig(), createTestLogger())
	watcher.Start()

	time.Sleep(100 * time.Millisecond)
	watcher.Stop()
	assert.Empty(t, handler.changedPaths())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	tracker := NewTracker()
	watcher := NewWatcher(tracker, newRecordingHandler(), watcherConfig(), createTestLogger())
	watcher.Start()
	watcher.Stop()
	watcher.Stop()
}
