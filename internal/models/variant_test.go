package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShaderVariant_CanonicalOrder(t *testing.T) {
	a, err := NewShaderVariant(
		MacroDefine{Name: "USE_FOG", Value: "1"},
		MacroDefine{Name: "ALPHA_TEST", Value: "1"},
	)
	require.NoError(t, err)

	b, err := NewShaderVariant(
		MacroDefine{Name: "ALPHA_TEST", Value: "1"},
		MacroDefine{Name: "USE_FOG", Value: "1"},
	)
	require.NoError(t, err)

	assert.Equal(t, "ALPHA_TEST=1|USE_FOG=1", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
}

func TestNewShaderVariant_RejectsDuplicates(t *testing.T) {
	_, err := NewShaderVariant(
		MacroDefine{Name: "USE_FOG", Value: "1"},
		MacroDefine{Name: "USE_FOG", Value: "2"},
	)
	assert.Error(t, err)
}

func TestNewShaderVariant_RejectsEmptyName(t *testing.T) {
	_, err := NewShaderVariant(MacroDefine{Name: "", Value: "1"})
	assert.Error(t, err)
}

func TestShaderVariant_EmptyKeysToDefault(t *testing.T) {
	var v ShaderVariant
	assert.Equal(t, "default", v.Key())
	assert.True(t, v.IsEmpty())
}

func TestShaderVariant_Lookup(t *testing.T) {
	v := MustVariant(MacroDefine{Name: "SHADOW_QUALITY", Value: "3"})

	value, ok := v.Lookup("SHADOW_QUALITY")
	assert.True(t, ok)
	assert.Equal(t, "3", value)

	_, ok = v.Lookup("MISSING")
	assert.False(t, ok)
	assert.True(t, v.Has("SHADOW_QUALITY"))
	assert.False(t, v.Has("MISSING"))
}
