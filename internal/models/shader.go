package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Shader is one compiled unit. All fields except the recompilation flag and
// the lazily copied bytecode view are write-once at construction.
type Shader struct {
	Name       string
	Stage      ShaderStage
	Variant    ShaderVariant
	Reflection ReflectionData
	SourceHash string
	CompiledAt time.Time

	bytecode        []byte
	needsRecompile  atomic.Bool
	bytecodeViewMu  sync.Mutex
	bytecodeView    []byte
	bytecodeViewSet bool
}

// NewShader constructs a compiled shader. The bytecode slice is owned by the
// shader from this point on.
func NewShader(name string, stage ShaderStage, variant ShaderVariant, bytecode []byte, reflection ReflectionData, sourceHash string) *Shader {
	return &Shader{
		Name:       name,
		Stage:      stage,
		Variant:    variant,
		Reflection: reflection,
		SourceHash: sourceHash,
		CompiledAt: time.Now(),
		bytecode:   bytecode,
	}
}

// Bytecode returns the compiled bytecode. The returned slice must not be
// mutated by callers.
func (s *Shader) Bytecode() []byte {
	return s.bytecode
}

// BytecodeSize returns the bytecode length in bytes.
func (s *Shader) BytecodeSize() int {
	return len(s.bytecode)
}

// BytecodeCopy returns a caller-owned copy of the bytecode, computed once
// and reused on later calls.
func (s *Shader) BytecodeCopy() []byte {
	s.bytecodeViewMu.Lock()
	defer s.bytecodeViewMu.Unlock()
	if !s.bytecodeViewSet {
		s.bytecodeView = append([]byte(nil), s.bytecode...)
		s.bytecodeViewSet = true
	}
	return s.bytecodeView
}

// RegistryKey returns the key the manager stores this shader under.
func (s *Shader) RegistryKey() string {
	return RegistryKey(s.Name, s.Variant)
}

// RegistryKey builds a shader registry key from a name and variant.
func RegistryKey(name string, variant ShaderVariant) string {
	return name + "#" + variant.Key()
}

// NeedsRecompile reports whether hot reload has flagged the shader stale.
func (s *Shader) NeedsRecompile() bool {
	return s.needsRecompile.Load()
}

// MarkForRecompile flags the shader stale; the next compile of its key will
// bypass the registry short-circuit.
func (s *Shader) MarkForRecompile() {
	s.needsRecompile.Store(true)
}

// ClearRecompileFlag resets the stale flag after a successful recompile.
func (s *Shader) ClearRecompileFlag() {
	s.needsRecompile.Store(false)
}

// ShaderProgram aggregates one shader per active stage into a pipeline, with
// combined reflection deduplicated by (name, bindPoint) and a derived hash
// over the constituent source hashes for change detection.
type ShaderProgram struct {
	Name       string
	Stages     map[ShaderStage]*Shader
	Reflection ReflectionData
	Hash       string
}

// NewShaderProgram creates an empty program. Shaders are attached via
// AttachStage and the combined reflection rebuilt with Rebuild.
func NewShaderProgram(name string) *ShaderProgram {
	return &ShaderProgram{
		Name:   name,
		Stages: make(map[ShaderStage]*Shader),
	}
}

// AttachStage sets the shader for its stage, replacing any previous one.
func (p *ShaderProgram) AttachStage(s *Shader) {
	p.Stages[s.Stage] = s
}

// StageShader returns the shader attached for a stage.
func (p *ShaderProgram) StageShader(stage ShaderStage) (*Shader, bool) {
	s, ok := p.Stages[stage]
	return s, ok
}

// Rebuild recomputes the combined reflection and the program hash from the
// currently attached stages. Idempotent: rebuilding twice yields identical
// results.
func (p *ShaderProgram) Rebuild() {
	stages := make([]ShaderStage, 0, len(p.Stages))
	for stage := range p.Stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	parts := make([]ReflectionData, 0, len(stages))
	hasher := sha256.New()
	for _, stage := range stages {
		shader := p.Stages[stage]
		parts = append(parts, shader.Reflection)
		hasher.Write([]byte(shader.SourceHash))
	}
	p.Reflection = MergeReflection(parts...)
	p.Hash = hex.EncodeToString(hasher.Sum(nil))
}

// ShaderNames returns the registry keys of all attached shaders,
// deterministically ordered by stage.
func (p *ShaderProgram) ShaderNames() []string {
	stages := make([]ShaderStage, 0, len(p.Stages))
	for stage := range p.Stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, p.Stages[stage].RegistryKey())
	}
	return names
}
