// Package compiler turns preprocessed shader source into backend bytecode.
// The backend itself sits behind the interfaces.CompilerBackend contract so
// alternative toolchains can be wired without touching callers.
package compiler

import (
	"strings"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// MacroTable merges global defines with a variant's defines into the macro
// table handed to the preprocessor. Globals use "NAME" or "NAME=VALUE"
// form; bare names default to "1". Variant defines win over globals.
func MacroTable(variant models.ShaderVariant, globalDefines []string) map[string]string {
	table := make(map[string]string, len(globalDefines)+len(variant.Defines))
	for _, def := range globalDefines {
		name, value, found := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !found || strings.TrimSpace(value) == "" {
			table[name] = "1"
		} else {
			table[name] = strings.TrimSpace(value)
		}
	}
	for _, def := range variant.Defines {
		value := def.Value
		if value == "" {
			value = "1"
		}
		table[def.Name] = value
	}
	return table
}
