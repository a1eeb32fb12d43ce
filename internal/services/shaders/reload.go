package shaders

import "github.com/Derthenier/Akhanda-sub004/internal/interfaces"

// OnShaderChanged runs on the watcher goroutine when a watched file's mtime
// advances: its cache entries (all variants) are invalidated and every
// shader compiled from it is flagged stale.
func (m *Manager) OnShaderChanged(path string) {
	m.cache.Invalidate(path)

	m.registryMu.RLock()
	for key, request := range m.requests {
		if samePath(request.SourcePath, path) {
			m.shaders[key].MarkForRecompile()
		}
	}
	m.registryMu.RUnlock()

	m.logger.Info().Str("path", path).Msg("Shader source changed")
}

// OnShaderDependencyChanged flags every shader that includes the changed
// file. Their cache entries are invalidated too: entry freshness tracks the
// root source file, not its includes, so a stale entry would otherwise be
// served on the next compile. Recompilation itself is deferred to
// ForceRecompileAll or the next compile of each key.
func (m *Manager) OnShaderDependencyChanged(path string, dependents []string) {
	var sources []string
	m.registryMu.RLock()
	for _, key := range dependents {
		if shader, ok := m.shaders[key]; ok {
			shader.MarkForRecompile()
		}
		if request, ok := m.requests[key]; ok {
			sources = append(sources, request.SourcePath)
		}
	}
	m.registryMu.RUnlock()
	for _, src := range sources {
		m.cache.Invalidate(src)
	}

	m.logger.Info().
		Str("path", path).
		Strs("dependents", dependents).
		Msg("Shader include changed")
}

var _ interfaces.ReloadHandler = (*Manager)(nil)
