package interfaces

// ReloadHandler receives hot-reload notifications from the file watcher.
// Callbacks run on the watcher goroutine; handlers needing main-thread
// delivery must marshal themselves.
type ReloadHandler interface {
	// OnShaderChanged fires when a watched file's mtime advances.
	OnShaderChanged(path string)
	// OnShaderDependencyChanged fires when a watched file with registered
	// dependents changes, naming every dependent shader or program.
	OnShaderDependencyChanged(path string, dependents []string)
}

// ReloadHandlerFuncs adapts plain functions to ReloadHandler. Nil functions
// are skipped.
type ReloadHandlerFuncs struct {
	Changed           func(path string)
	DependencyChanged func(path string, dependents []string)
}

func (h ReloadHandlerFuncs) OnShaderChanged(path string) {
	if h.Changed != nil {
		h.Changed(path)
	}
}

func (h ReloadHandlerFuncs) OnShaderDependencyChanged(path string, dependents []string) {
	if h.DependencyChanged != nil {
		h.DependencyChanged(path, dependents)
	}
}
