package shaders

import (
	"fmt"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/reflection"
)

// CreateShaderProgram links compiled shaders into a named pipeline. Each
// stage may appear at most once; the combined reflection and program hash
// are rebuilt from the attached stages.
func (m *Manager) CreateShaderProgram(name string, shaderList []*models.Shader) (*models.ShaderProgram, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: program name is empty", interfaces.ErrLinkError)
	}
	if len(shaderList) == 0 {
		return nil, fmt.Errorf("%w: program %q has no shaders", interfaces.ErrLinkError, name)
	}

	program := models.NewShaderProgram(name)
	for _, shader := range shaderList {
		if shader == nil || shader.BytecodeSize() == 0 {
			return nil, fmt.Errorf("%w: program %q given an uncompiled shader", interfaces.ErrLinkError, name)
		}
		if _, taken := program.StageShader(shader.Stage); taken {
			return nil, fmt.Errorf("%w: program %q has two %s shaders", interfaces.ErrLinkError, name, shader.Stage)
		}
		program.AttachStage(shader)
	}
	program.Rebuild()

	m.programMu.Lock()
	m.programs[name] = program
	m.programMu.Unlock()

	m.logger.Info().
		Str("program", name).
		Int("stages", len(program.Stages)).
		Str("hash", program.Hash).
		Msg("Shader program created")
	return program, nil
}

// GetShaderProgram returns a registered program by name.
func (m *Manager) GetShaderProgram(name string) (*models.ShaderProgram, error) {
	m.programMu.RLock()
	program, ok := m.programs[name]
	m.programMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrProgramNotFound, name)
	}
	return program, nil
}

// CreateShaderFromBytecode registers a precompiled blob without invoking the
// compiler. The bytecode is validated structurally; no reflection is
// available for shaders created this way.
func (m *Manager) CreateShaderFromBytecode(name string, stage models.ShaderStage, variant models.ShaderVariant, bytecode []byte) (*models.Shader, error) {
	if name == "" {
		return nil, fmt.Errorf("shader name is empty")
	}
	if err := reflection.ValidateBytecode(bytecode); err != nil {
		return nil, err
	}

	owned := append([]byte(nil), bytecode...)
	shader := models.NewShader(name, stage, variant, owned, models.ReflectionData{}, common.HashBytes(owned))

	key := shader.RegistryKey()
	m.registryMu.Lock()
	m.shaders[key] = shader
	m.registryMu.Unlock()

	m.logger.Debug().
		Str("shader", key).
		Int("bytecode_bytes", len(owned)).
		Msg("Registered precompiled shader")
	return shader, nil
}
