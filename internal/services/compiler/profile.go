package compiler

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

var supportedShaderModels = []models.ShaderModel{
	{Major: 6, Minor: 0},
	{Major: 6, Minor: 1},
	{Major: 6, Minor: 2},
	{Major: 6, Minor: 3},
	{Major: 6, Minor: 4},
	{Major: 6, Minor: 5},
	{Major: 6, Minor: 6},
	{Major: 6, Minor: 7},
	{Major: 6, Minor: 8},
}

// TargetProfile builds the "ps_6_6" style profile string for a stage and
// shader model. Unknown stages and models fall back to safe defaults with a
// warning rather than failing the compile.
func TargetProfile(stage models.ShaderStage, model models.ShaderModel, logger arbor.ILogger) string {
	prefix := stage.ProfilePrefix()
	if prefix == "" {
		logger.Warn().Str("stage", stage.String()).Msg("Unknown shader stage, defaulting to vertex profile")
		prefix = models.StageVertex.ProfilePrefix()
	}
	if model.IsZero() {
		model = models.LowestShaderModel
	}
	supported := false
	for _, m := range supportedShaderModels {
		if m == model {
			supported = true
			break
		}
	}
	if !supported {
		logger.Warn().
			Str("model", model.String()).
			Msg("Unknown shader model, falling back to lowest supported")
		model = models.LowestShaderModel
	}
	return fmt.Sprintf("%s_%d_%d", prefix, model.Major, model.Minor)
}

// Flags derives the compiler flag list recorded in reflection data. These
// mirror DXC conventions so downstream tooling can read them.
func Flags(opt models.OptimizationLevel, debugInfo bool, config common.CompilerConfig) []string {
	var flags []string
	switch opt {
	case models.OptDebug:
		flags = append(flags, "-Od", "-Zi")
	case models.OptSize:
		flags = append(flags, "-Os")
	default:
		flags = append(flags, "-O3")
	}
	if debugInfo && opt != models.OptDebug {
		flags = append(flags, "-Zi")
	}
	if config.WarningsAsErrors {
		flags = append(flags, "-WX")
	}
	if config.RowMajorPacking {
		flags = append(flags, "-Zpr")
	} else {
		flags = append(flags, "-Zpc")
	}
	return flags
}
