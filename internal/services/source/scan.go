package source

import (
	"regexp"
	"sort"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// EntryPoint is an entry function discovered in shader source.
type EntryPoint struct {
	Name  string
	Stage models.ShaderStage
}

var entryPointRe = regexp.MustCompile(`@(vertex|fragment|compute)\s*(?:@[a-z_]+\s*(?:\([^)]*\))?\s*)*fn\s+([A-Za-z_][A-Za-z0-9_]*)`)

// ScanEntryPoints lists the stage-attributed entry functions in the given
// source text. Sources without stage attributes are assumed to hold a single
// "main" entry at the default stage.
func ScanEntryPoints(src string, defaultStage models.ShaderStage) []EntryPoint {
	matches := entryPointRe.FindAllStringSubmatch(src, -1)
	if len(matches) == 0 {
		return []EntryPoint{{Name: "main", Stage: defaultStage}}
	}

	entries := make([]EntryPoint, 0, len(matches))
	for _, m := range matches {
		var stage models.ShaderStage
		switch m[1] {
		case "vertex":
			stage = models.StageVertex
		case "fragment":
			stage = models.StagePixel
		case "compute":
			stage = models.StageCompute
		}
		entries = append(entries, EntryPoint{Name: m[2], Stage: stage})
	}
	return entries
}

var macroScanRes = []*regexp.Regexp{
	regexp.MustCompile(`#define\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`#ifdef\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`#ifndef\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`defined\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)`),
}

// ScanMacroNames lists every macro name referenced by preprocessor
// directives in the source, sorted and de-duplicated. Variant generation
// uses this to avoid producing variants the source never checks for.
func ScanMacroNames(src string) []string {
	seen := make(map[string]struct{})
	for _, re := range macroScanRes {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
