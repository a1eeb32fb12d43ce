package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

func TestScanEntryPoints(t *testing.T) {
	src := `
@vertex
fn vs_main(in: VertexInput) -> VertexOutput { }

@fragment
fn ps_main(in: VertexOutput) -> @location(0) vec4<f32> { }

@compute @workgroup_size(64)
fn cs_main() { }
`
	entries := ScanEntryPoints(src, models.StagePixel)
	require.Len(t, entries, 3)
	assert.Equal(t, EntryPoint{Name: "vs_main", Stage: models.StageVertex}, entries[0])
	assert.Equal(t, EntryPoint{Name: "ps_main", Stage: models.StagePixel}, entries[1])
	assert.Equal(t, EntryPoint{Name: "cs_main", Stage: models.StageCompute}, entries[2])
}

func TestScanEntryPoints_DefaultsToMain(t *testing.T) {
	entries := ScanEntryPoints("fn helper() {}", models.StageCompute)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryPoint{Name: "main", Stage: models.StageCompute}, entries[0])
}

func TestScanMacroNames(t *testing.T) {
	src := `
#define MAX_LIGHTS 8
#ifdef USE_FOG
#endif
#ifndef SKINNED
#endif
#if defined(ALPHA_TEST)
#endif
#ifdef USE_FOG
#endif
`
	names := ScanMacroNames(src)
	assert.Equal(t, []string{"ALPHA_TEST", "MAX_LIGHTS", "SKINNED", "USE_FOG"}, names)
}

func TestScanMacroNames_Empty(t *testing.T) {
	assert.Empty(t, ScanMacroNames("fn main() {}"))
}
