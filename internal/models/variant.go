package models

import (
	"fmt"
	"sort"
	"strings"
)

// MacroDefine is a single preprocessor define passed to the backend compiler.
type MacroDefine struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// ShaderVariant is a named set of preprocessor defines selecting one shader
// permutation. Equality and cache-key derivation are order-independent:
// defines are canonicalized by sorting on (name, value). Duplicate names are
// rejected at construction.
type ShaderVariant struct {
	Defines []MacroDefine
}

// NewShaderVariant builds a variant from defines, canonicalizing order and
// rejecting duplicate names.
func NewShaderVariant(defines ...MacroDefine) (ShaderVariant, error) {
	seen := make(map[string]struct{}, len(defines))
	for _, d := range defines {
		if d.Name == "" {
			return ShaderVariant{}, fmt.Errorf("variant define with empty name")
		}
		if _, dup := seen[d.Name]; dup {
			return ShaderVariant{}, fmt.Errorf("duplicate variant define %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	v := ShaderVariant{Defines: append([]MacroDefine(nil), defines...)}
	v.canonicalize()
	return v, nil
}

// MustVariant is NewShaderVariant for statically-known define sets.
func MustVariant(defines ...MacroDefine) ShaderVariant {
	v, err := NewShaderVariant(defines...)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *ShaderVariant) canonicalize() {
	sort.Slice(v.Defines, func(i, j int) bool {
		if v.Defines[i].Name != v.Defines[j].Name {
			return v.Defines[i].Name < v.Defines[j].Name
		}
		return v.Defines[i].Value < v.Defines[j].Value
	})
}

// IsEmpty reports whether the variant carries no defines.
func (v ShaderVariant) IsEmpty() bool {
	return len(v.Defines) == 0
}

// Key returns the canonical order-independent identity of the variant,
// e.g. "FOG=1|SHADOWS=1". Empty variants key to "default".
func (v ShaderVariant) Key() string {
	if len(v.Defines) == 0 {
		return "default"
	}
	canonical := append([]MacroDefine(nil), v.Defines...)
	sort.Slice(canonical, func(i, j int) bool {
		if canonical[i].Name != canonical[j].Name {
			return canonical[i].Name < canonical[j].Name
		}
		return canonical[i].Value < canonical[j].Value
	})
	parts := make([]string, len(canonical))
	for i, d := range canonical {
		parts[i] = d.Name + "=" + d.Value
	}
	return strings.Join(parts, "|")
}

// Equal reports order-independent equality of define sets.
func (v ShaderVariant) Equal(other ShaderVariant) bool {
	return v.Key() == other.Key()
}

// Has reports whether the variant defines the given macro name.
func (v ShaderVariant) Has(name string) bool {
	for _, d := range v.Defines {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Lookup returns the value for a defined macro name.
func (v ShaderVariant) Lookup(name string) (string, bool) {
	for _, d := range v.Defines {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}
