package shaders

import (
	"fmt"
	"path/filepath"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/source"
)

// maxAdvisoryBindPoint is the largest constant-buffer bind point that passes
// layout validation without a finding.
const maxAdvisoryBindPoint = 31

func samePath(a, b string) bool {
	return filepath.ToSlash(filepath.Clean(a)) == filepath.ToSlash(filepath.Clean(b))
}

// GetAvailableEntryPoints lists the entry functions declared in a shader
// source file. Sources with no stage attributes report a single "main" at
// the given default stage.
func (m *Manager) GetAvailableEntryPoints(sourcePath string, defaultStage models.ShaderStage) ([]source.EntryPoint, error) {
	resolver := source.NewResolver(m.config.Shaders.SearchPaths, m.logger)
	data, err := resolver.ReadFile(sourcePath)
	if err != nil {
		return nil, err
	}
	return source.ScanEntryPoints(string(data), defaultStage), nil
}

// GenerateVariants enumerates the variants worth compiling for a source
// file, filtered to macros it actually uses.
func (m *Manager) GenerateVariants(sourcePath string, candidates []string) ([]models.ShaderVariant, error) {
	return m.variants.Generate(sourcePath, candidates)
}

// GetConstantBufferBindings returns the deterministic constant-buffer
// binding listing for a registered shader.
func (m *Manager) GetConstantBufferBindings(name string, variant models.ShaderVariant) ([]models.ShaderResource, error) {
	shader, err := m.GetShader(name, variant)
	if err != nil {
		return nil, err
	}
	return shader.Reflection.ConstantBufferBindings(), nil
}

// ValidateRegisterLayout is an advisory, read-only check over reflected
// data: constant buffers bound past the advisory limit are reported, never
// rejected. Callers wanting strict layouts act on the findings themselves.
func ValidateRegisterLayout(data models.ReflectionData) []string {
	var findings []string
	for _, cb := range data.ConstantBufferBindings() {
		if cb.BindPoint > maxAdvisoryBindPoint {
			findings = append(findings,
				fmt.Sprintf("constant buffer %q bound at b%d exceeds advisory limit b%d",
					cb.Name, cb.BindPoint, maxAdvisoryBindPoint))
		}
	}
	return findings
}

// ValidateConstantBufferLayout checks one registered shader's constant
// buffers against the advisory register limit.
func (m *Manager) ValidateConstantBufferLayout(name string, variant models.ShaderVariant) ([]string, error) {
	shader, err := m.GetShader(name, variant)
	if err != nil {
		return nil, err
	}
	return ValidateRegisterLayout(shader.Reflection), nil
}
