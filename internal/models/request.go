package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CompileRequest describes one shader compilation. Immutable value supplied
// by the caller; the manager never mutates it.
type CompileRequest struct {
	SourcePath   string
	EntryPoint   string
	Stage        ShaderStage
	Variant      ShaderVariant
	Optimization OptimizationLevel
	ShaderModel  ShaderModel
	IncludePaths []string // extra search directories, appended after configured paths
	DebugInfo    bool
}

// Validate checks the request fields that can be rejected before any I/O.
func (r CompileRequest) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return fmt.Errorf("compile request has empty source path")
	}
	if strings.TrimSpace(r.EntryPoint) == "" {
		return fmt.Errorf("compile request has empty entry point")
	}
	return nil
}

// ShaderName derives the registry name for the request: the source file name
// without extension, qualified by the entry point when it is not "main".
func (r CompileRequest) ShaderName() string {
	base := filepath.Base(r.SourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if r.EntryPoint != "" && r.EntryPoint != "main" {
		name = name + ":" + r.EntryPoint
	}
	return name
}

// CacheKey returns the content/parameter-addressed cache key for the request:
// normalized source path, entry point, stage, optimization level, and the
// canonical variant key.
func (r CompileRequest) CacheKey() string {
	normalized := filepath.ToSlash(filepath.Clean(r.SourcePath))
	return strings.Join([]string{
		normalized,
		r.EntryPoint,
		r.Stage.String(),
		r.Optimization.String(),
		r.Variant.Key(),
	}, "::")
}

// CompileResult is delivered to async completion callbacks.
type CompileResult struct {
	Request  CompileRequest
	Shader   *Shader
	Err      error
	CacheHit bool
	Duration time.Duration
}

// AsyncCompileTask pairs a request with its completion callback. A task is
// queued and consumed exactly once by a scheduler worker.
type AsyncCompileTask struct {
	ID          string
	Request     CompileRequest
	Callback    func(CompileResult)
	SubmittedAt time.Time
}
