package compiler

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

const nagaBackendVersion = "naga-go/0.17"

// nagaBackend compiles WGSL to SPIR-V with the pure-Go naga toolchain.
type nagaBackend struct {
	logger arbor.ILogger
	strict bool
}

// NewNagaBackend creates the naga WGSL backend. In strict mode validation
// warnings are promoted to errors by the compile service.
func NewNagaBackend(logger arbor.ILogger, strict bool) interfaces.CompilerBackend {
	return &nagaBackend{logger: logger, strict: strict}
}

func (b *nagaBackend) Name() string { return "naga" }

func (b *nagaBackend) SupportsStage(stage models.ShaderStage) bool {
	switch stage {
	case models.StageVertex, models.StagePixel, models.StageCompute:
		return true
	default:
		return false
	}
}

func (b *nagaBackend) MaxShaderModel() models.ShaderModel {
	return models.ShaderModel{Major: 6, Minor: 8}
}

func (b *nagaBackend) Compile(in interfaces.BackendInput) (*interfaces.BackendArtifact, error) {
	if !b.SupportsStage(in.Stage) {
		return nil, fmt.Errorf("%w: backend %q cannot target stage %s",
			interfaces.ErrUnsupportedFeature, b.Name(), in.Stage)
	}

	ast, err := naga.Parse(in.Source)
	if err != nil {
		return nil, &interfaces.CompilationError{
			SourcePath: in.SourcePath,
			EntryPoint: in.EntryPoint,
			Diagnostic: fmt.Sprintf("parse error: %v", err),
		}
	}

	module, err := naga.LowerWithSource(ast, in.Source)
	if err != nil {
		return nil, &interfaces.CompilationError{
			SourcePath: in.SourcePath,
			EntryPoint: in.EntryPoint,
			Diagnostic: fmt.Sprintf("lowering error: %v", err),
		}
	}

	validationErrors, err := naga.Validate(module)
	if err != nil {
		return nil, &interfaces.CompilationError{
			SourcePath: in.SourcePath,
			EntryPoint: in.EntryPoint,
			Diagnostic: fmt.Sprintf("validation error: %v", err),
		}
	}
	if len(validationErrors) > 0 {
		messages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			messages[i] = ve.Error()
		}
		return nil, &interfaces.CompilationError{
			SourcePath: in.SourcePath,
			EntryPoint: in.EntryPoint,
			Diagnostic: strings.Join(messages, "; "),
		}
	}

	if err := b.checkEntryPoint(module, in); err != nil {
		return nil, err
	}

	bytecode, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: spirv.Version1_3,
		Debug:   in.DebugInfo || in.Optimization == models.OptDebug,
	})
	if err != nil {
		return nil, &interfaces.CompilationError{
			SourcePath: in.SourcePath,
			EntryPoint: in.EntryPoint,
			Diagnostic: fmt.Sprintf("SPIR-V generation error: %v", err),
		}
	}

	return &interfaces.BackendArtifact{
		Bytecode:   bytecode,
		Reflection: module,
		Version:    nagaBackendVersion,
	}, nil
}

// checkEntryPoint verifies the requested entry function exists in the
// lowered module with the requested stage.
func (b *nagaBackend) checkEntryPoint(module *ir.Module, in interfaces.BackendInput) error {
	want := nagaStage(in.Stage)
	for _, ep := range module.EntryPoints {
		if ep.Name != in.EntryPoint {
			continue
		}
		if ep.Stage != want {
			return &interfaces.CompilationError{
				SourcePath: in.SourcePath,
				EntryPoint: in.EntryPoint,
				Diagnostic: fmt.Sprintf("entry point %q is not a %s entry", in.EntryPoint, in.Stage),
			}
		}
		return nil
	}
	return &interfaces.CompilationError{
		SourcePath: in.SourcePath,
		EntryPoint: in.EntryPoint,
		Diagnostic: fmt.Sprintf("entry point %q not found", in.EntryPoint),
	}
}

func nagaStage(stage models.ShaderStage) ir.ShaderStage {
	switch stage {
	case models.StagePixel:
		return ir.StageFragment
	case models.StageCompute:
		return ir.StageCompute
	default:
		return ir.StageVertex
	}
}
