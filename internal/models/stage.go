package models

import (
	"fmt"
	"strings"
)

// ShaderStage identifies which pipeline stage a shader targets.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StagePixel
	StageCompute
	StageGeometry
	StageHull
	StageDomain
	StageMesh
	StageAmplification
)

var stageNames = map[ShaderStage]string{
	StageVertex:        "vertex",
	StagePixel:         "pixel",
	StageCompute:       "compute",
	StageGeometry:      "geometry",
	StageHull:          "hull",
	StageDomain:        "domain",
	StageMesh:          "mesh",
	StageAmplification: "amplification",
}

// stageProfilePrefixes maps stages to HLSL-style target profile prefixes.
var stageProfilePrefixes = map[ShaderStage]string{
	StageVertex:        "vs",
	StagePixel:         "ps",
	StageCompute:       "cs",
	StageGeometry:      "gs",
	StageHull:          "hs",
	StageDomain:        "ds",
	StageMesh:          "ms",
	StageAmplification: "as",
}

func (s ShaderStage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ProfilePrefix returns the target profile prefix ("vs", "ps", ...) for the stage.
// Returns an empty string for unknown stages.
func (s ShaderStage) ProfilePrefix() string {
	return stageProfilePrefixes[s]
}

// ParseShaderStage parses a stage name, accepting common aliases
// ("fragment" for pixel, "frag", "vert").
func ParseShaderStage(name string) (ShaderStage, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "fragment", "frag":
		return StagePixel, nil
	case "vert":
		return StageVertex, nil
	}
	for stage, n := range stageNames {
		if n == normalized {
			return stage, nil
		}
	}
	return StageVertex, fmt.Errorf("unknown shader stage %q", name)
}

// OptimizationLevel selects the backend optimization mode for a compile.
type OptimizationLevel int

const (
	// OptDebug disables optimization and emits debug symbols.
	OptDebug OptimizationLevel = iota
	// OptRelease enables full optimization.
	OptRelease
	// OptSpeed enables full optimization biased toward runtime speed.
	OptSpeed
	// OptSize enables optimization biased toward bytecode size.
	OptSize
)

var optNames = map[OptimizationLevel]string{
	OptDebug:   "debug",
	OptRelease: "release",
	OptSpeed:   "speed",
	OptSize:    "size",
}

func (o OptimizationLevel) String() string {
	if name, ok := optNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opt(%d)", int(o))
}

// ParseOptimizationLevel parses an optimization level name.
func ParseOptimizationLevel(name string) (OptimizationLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for level, n := range optNames {
		if n == normalized {
			return level, nil
		}
	}
	return OptRelease, fmt.Errorf("unknown optimization level %q", name)
}

// ShaderModel is a target shader model version (e.g. 6.6).
type ShaderModel struct {
	Major int
	Minor int
}

// LowestShaderModel is the fallback used when a requested (stage, model)
// combination has no known target profile.
var LowestShaderModel = ShaderModel{Major: 6, Minor: 0}

func (m ShaderModel) String() string {
	return fmt.Sprintf("%d.%d", m.Major, m.Minor)
}

// AtLeast reports whether m is the same as or newer than other.
func (m ShaderModel) AtLeast(other ShaderModel) bool {
	if m.Major != other.Major {
		return m.Major > other.Major
	}
	return m.Minor >= other.Minor
}

// IsZero reports whether the model was left unset by the caller.
func (m ShaderModel) IsZero() bool {
	return m.Major == 0 && m.Minor == 0
}

// ParseShaderModel parses "major.minor" (also accepts "major_minor").
func ParseShaderModel(s string) (ShaderModel, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "_", ".")
	var m ShaderModel
	if _, err := fmt.Sscanf(normalized, "%d.%d", &m.Major, &m.Minor); err != nil {
		return ShaderModel{}, fmt.Errorf("invalid shader model %q", s)
	}
	return m, nil
}
