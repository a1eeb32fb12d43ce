package interfaces

import "github.com/Derthenier/Akhanda-sub004/internal/models"

// BackendInput is the fully-resolved input handed to a compiler backend:
// preprocessed source text, merged macro table, and derived target profile.
type BackendInput struct {
	// SourcePath is the originating file, carried for diagnostics only.
	SourcePath    string
	Source        string
	EntryPoint    string
	Stage         models.ShaderStage
	TargetProfile string
	Macros        map[string]string
	DebugInfo     bool
	Optimization  models.OptimizationLevel
}

// BackendArtifact is what a backend produces on success: the bytecode blob
// plus an opaque reflection handle the extractor knows how to walk.
type BackendArtifact struct {
	Bytecode []byte
	// Reflection is the backend-specific reflection object (for the naga
	// backend, *ir.Module). Nil when the backend exposes no reflection.
	Reflection any
	Version    string
	Flags      []string
	Warnings   []string
}

// CompilerBackend wraps one native shader compiler. Implementations convert
// backend failures into tagged errors at this boundary; nothing above it
// sees backend-specific error types.
type CompilerBackend interface {
	Name() string
	// Compile translates a preprocessed source into bytecode. Source errors
	// are returned as *CompilationError with the diagnostic text preserved.
	Compile(in BackendInput) (*BackendArtifact, error)
	// SupportsStage reports whether the backend can target a stage.
	SupportsStage(stage models.ShaderStage) bool
	// MaxShaderModel is the newest shader model the backend accepts.
	MaxShaderModel() models.ShaderModel
}
