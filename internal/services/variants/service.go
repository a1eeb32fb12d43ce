// Package variants enumerates the macro-define combinations worth compiling
// for a shader file. The combinatorial space is bounded: candidates are
// filtered to macros the source actually checks, capped, and expanded into a
// power set plus two curated convenience variants.
package variants

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/source"
)

// maxToggleDefines bounds the power set at 2^8 variants.
const maxToggleDefines = 8

// commonMacroVocabulary lists defines conventionally injected by engines
// without appearing in the shader's own directives (they gate code in shared
// includes). Candidates matching these survive the usage filter.
var commonMacroVocabulary = map[string]struct{}{
	"USE_TEXTURE":       {},
	"USE_NORMAL_MAP":    {},
	"USE_SHADOWS":       {},
	"ENABLE_SHADOWS":    {},
	"ENABLE_PBR":        {},
	"ENABLE_LIGHTING":   {},
	"ENABLE_FOG":        {},
	"ENABLE_INSTANCING": {},
	"SHADOW_QUALITY":    {},
	"TEXTURE_QUALITY":   {},
	"LOD_LEVEL":         {},
	"SHADOW_SAMPLES":    {},
	"MSAA_SAMPLES":      {},
	"SKINNED":           {},
	"ALPHA_TEST":        {},
}

// manifest is the optional <shader>.variants.yaml sidecar format.
type manifest struct {
	Defines []string `yaml:"defines"`
}

// Service generates shader variants for source files.
type Service struct {
	searchDirs []string
	logger     arbor.ILogger
}

// NewService creates the variant generator over the given source search
// directories.
func NewService(searchDirs []string, logger arbor.ILogger) *Service {
	return &Service{
		searchDirs: append([]string(nil), searchDirs...),
		logger:     logger,
	}
}

// Generate enumerates the variants worth compiling for a shader file.
// Candidates are filtered to names the source (or the common vocabulary, or
// the yaml sidecar) actually references, capped at maxToggleDefines, then
// expanded to the power set of boolean toggles plus a high-quality and a
// performance variant. The result is de-duplicated and deterministically
// ordered.
func (s *Service) Generate(sourceFile string, candidates []string) ([]models.ShaderVariant, error) {
	// resolver memos are scoped to one generation pass, so edits made
	// between calls are observed
	resolver := source.NewResolver(s.searchDirs, s.logger)
	data, err := resolver.ReadFile(sourceFile)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, name := range source.ScanMacroNames(string(data)) {
		used[name] = struct{}{}
	}
	manifestNames, err := s.readManifest(sourceFile)
	if err != nil {
		return nil, err
	}
	for _, name := range manifestNames {
		used[name] = struct{}{}
	}

	// Sidecar defines are candidates in their own right, appended after the
	// caller's list so the caller's ordering wins under the cap.
	merged := append(append([]string(nil), candidates...), manifestNames...)

	var filtered []string
	seen := make(map[string]struct{})
	for _, name := range merged {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		_, inSource := used[name]
		_, inVocabulary := commonMacroVocabulary[name]
		if inSource || inVocabulary {
			filtered = append(filtered, name)
		}
	}

	if len(filtered) > maxToggleDefines {
		s.logger.Warn().
			Str("shader", sourceFile).
			Int("candidates", len(filtered)).
			Int("kept", maxToggleDefines).
			Msg("Too many variant candidates, truncating")
		filtered = filtered[:maxToggleDefines]
	}

	variants := powerSet(filtered)
	if hq := highQualityVariant(filtered); hq != nil {
		variants = append(variants, *hq)
	}
	if perf := performanceVariant(filtered); perf != nil {
		variants = append(variants, *perf)
	}

	return dedupe(variants), nil
}

// readManifest loads the optional <shader>.variants.yaml sidecar.
func (s *Service) readManifest(sourceFile string) ([]string, error) {
	sidecarPath := strings.TrimSuffix(sourceFile, ".wgsl") + ".variants.yaml"
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read variant manifest %s: %w", sidecarPath, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid variant manifest %s: %w", sidecarPath, err)
	}
	s.logger.Debug().
		Str("manifest", sidecarPath).
		Strs("defines", m.Defines).
		Msg("Loaded variant manifest")
	return m.Defines, nil
}

// powerSet emits every on/off combination of the given defines, each "on"
// bit becoming a NAME=1 define.
func powerSet(names []string) []models.ShaderVariant {
	count := 1 << len(names)
	variants := make([]models.ShaderVariant, 0, count)
	for mask := 0; mask < count; mask++ {
		var defines []models.MacroDefine
		for bit, name := range names {
			if mask&(1<<bit) != 0 {
				defines = append(defines, models.MacroDefine{Name: name, Value: "1"})
			}
		}
		variant, err := models.NewShaderVariant(defines...)
		if err != nil {
			// names are already unique, so this cannot happen
			continue
		}
		variants = append(variants, variant)
	}
	return variants
}

// highQualityVariant turns every toggle on and elevates quality-sensitive
// numeric defines. Nil when no defines are available.
func highQualityVariant(names []string) *models.ShaderVariant {
	if len(names) == 0 {
		return nil
	}
	defines := make([]models.MacroDefine, 0, len(names))
	for _, name := range names {
		value := "1"
		upper := strings.ToUpper(name)
		switch {
		case strings.Contains(upper, "QUALITY"):
			value = "3"
		case strings.Contains(upper, "LOD"):
			value = "0"
		case strings.Contains(upper, "SAMPLES"):
			value = "16"
		}
		defines = append(defines, models.MacroDefine{Name: name, Value: value})
	}
	variant, err := models.NewShaderVariant(defines...)
	if err != nil {
		return nil
	}
	return &variant
}

// performancePatterns match defines that gate expensive effects; the
// performance variant enables only these, leaving cosmetic toggles off.
var performancePatterns = []string{"SHADOW", "PBR", "LIGHTING"}

func performanceVariant(names []string) *models.ShaderVariant {
	var defines []models.MacroDefine
	for _, name := range names {
		upper := strings.ToUpper(name)
		for _, pattern := range performancePatterns {
			if strings.Contains(upper, pattern) {
				defines = append(defines, models.MacroDefine{Name: name, Value: "1"})
				break
			}
		}
	}
	if len(defines) == 0 {
		return nil
	}
	variant, err := models.NewShaderVariant(defines...)
	if err != nil {
		return nil
	}
	return &variant
}

// dedupe removes variants with identical define sets and orders the result
// by canonical key so generation is deterministic run to run.
func dedupe(variants []models.ShaderVariant) []models.ShaderVariant {
	seen := make(map[string]struct{}, len(variants))
	unique := make([]models.ShaderVariant, 0, len(variants))
	for _, v := range variants {
		key := v.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, v)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Key() < unique[j].Key()
	})
	return unique
}
