package compiler

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// Service drives the configured backend: it derives the target profile and
// macro table for a request, enforces shader model limits, and applies the
// warnings-as-errors policy.
type Service struct {
	backend      interfaces.CompilerBackend
	config       common.CompilerConfig
	defaultModel models.ShaderModel
	logger       arbor.ILogger
}

// NewService builds the compile service from configuration.
func NewService(config common.CompilerConfig, logger arbor.ILogger) (*Service, error) {
	backend, err := NewBackend(config, logger)
	if err != nil {
		return nil, err
	}
	defaultModel := models.LowestShaderModel
	if config.ShaderModel != "" {
		defaultModel, err = models.ParseShaderModel(config.ShaderModel)
		if err != nil {
			return nil, fmt.Errorf("invalid shader_model in config: %w", err)
		}
	}
	return &Service{
		backend:      backend,
		config:       config,
		defaultModel: defaultModel,
		logger:       logger,
	}, nil
}

// Backend exposes the underlying backend for capability queries.
func (s *Service) Backend() interfaces.CompilerBackend { return s.backend }

// Compile runs the backend over already-preprocessed source.
func (s *Service) Compile(source string, request models.CompileRequest) (*interfaces.BackendArtifact, error) {
	model := request.ShaderModel
	if model.IsZero() {
		model = s.defaultModel
	}
	if !s.backend.MaxShaderModel().AtLeast(model) {
		return nil, fmt.Errorf("%w: backend %q supports up to %s, requested %s",
			interfaces.ErrUnsupportedShaderModel, s.backend.Name(),
			s.backend.MaxShaderModel(), model)
	}

	in := interfaces.BackendInput{
		SourcePath:    request.SourcePath,
		Source:        source,
		EntryPoint:    request.EntryPoint,
		Stage:         request.Stage,
		TargetProfile: TargetProfile(request.Stage, model, s.logger),
		Macros:        MacroTable(request.Variant, s.config.GlobalDefines),
		DebugInfo:     request.DebugInfo,
		Optimization:  request.Optimization,
	}

	artifact, err := s.backend.Compile(in)
	if err != nil {
		return nil, err
	}

	if len(artifact.Warnings) > 0 {
		if s.config.WarningsAsErrors {
			return nil, &interfaces.CompilationError{
				SourcePath: request.SourcePath,
				EntryPoint: request.EntryPoint,
				Diagnostic: fmt.Sprintf("warnings treated as errors: %v", artifact.Warnings),
			}
		}
		for _, warning := range artifact.Warnings {
			s.logger.Warn().
				Str("shader", request.ShaderName()).
				Str("warning", warning).
				Msg("Compiler warning")
		}
	}

	artifact.Flags = Flags(request.Optimization, request.DebugInfo, s.config)
	return artifact, nil
}
