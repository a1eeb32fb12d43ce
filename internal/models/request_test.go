package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileRequest_CacheKeyIsVariantOrderIndependent(t *testing.T) {
	base := CompileRequest{
		SourcePath:   "shaders/lit.wgsl",
		EntryPoint:   "main",
		Stage:        StagePixel,
		Optimization: OptRelease,
	}

	a := base
	a.Variant = MustVariant(
		MacroDefine{Name: "USE_FOG", Value: "1"},
		MacroDefine{Name: "ALPHA_TEST", Value: "1"},
	)
	b := base
	b.Variant = MustVariant(
		MacroDefine{Name: "ALPHA_TEST", Value: "1"},
		MacroDefine{Name: "USE_FOG", Value: "1"},
	)

	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestCompileRequest_CacheKeyDistinguishesParameters(t *testing.T) {
	base := CompileRequest{
		SourcePath:   "shaders/lit.wgsl",
		EntryPoint:   "main",
		Stage:        StagePixel,
		Optimization: OptRelease,
	}

	differentStage := base
	differentStage.Stage = StageVertex
	differentOpt := base
	differentOpt.Optimization = OptDebug
	differentEntry := base
	differentEntry.EntryPoint = "shade"

	assert.NotEqual(t, base.CacheKey(), differentStage.CacheKey())
	assert.NotEqual(t, base.CacheKey(), differentOpt.CacheKey())
	assert.NotEqual(t, base.CacheKey(), differentEntry.CacheKey())
}

func TestCompileRequest_ShaderName(t *testing.T) {
	tests := []struct {
		name     string
		request  CompileRequest
		expected string
	}{
		{
			name:     "main entry uses bare file name",
			request:  CompileRequest{SourcePath: "shaders/lit.wgsl", EntryPoint: "main"},
			expected: "lit",
		},
		{
			name:     "non-main entry is qualified",
			request:  CompileRequest{SourcePath: "shaders/lit.wgsl", EntryPoint: "shadowPass"},
			expected: "lit:shadowPass",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.request.ShaderName())
		})
	}
}

func TestCompileRequest_Validate(t *testing.T) {
	valid := CompileRequest{SourcePath: "a.wgsl", EntryPoint: "main"}
	assert.NoError(t, valid.Validate())

	noSource := CompileRequest{EntryPoint: "main"}
	assert.Error(t, noSource.Validate())

	noEntry := CompileRequest{SourcePath: "a.wgsl"}
	assert.Error(t, noEntry.Validate())
}
