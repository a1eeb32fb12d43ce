// Package reflection walks backend reflection output into the engine-facing
// resource layout: constant buffers with member offsets, bound textures and
// samplers, and UAVs, plus bytecode-level metadata.
package reflection

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/gogpu/naga/ir"
	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

type resourceClass int

const (
	classConstantBuffer resourceClass = iota
	classSRV
	classSampler
	classUAV
)

// Extractor converts backend reflection handles into models.ReflectionData.
type Extractor struct {
	logger arbor.ILogger
}

// NewExtractor creates a reflection extractor.
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract builds the reflection data for one compiled stage. Included files
// come from the preprocessor, everything else from the backend artifact.
func (e *Extractor) Extract(artifact *interfaces.BackendArtifact, shaderName string, stage models.ShaderStage, entryPoint string, includedFiles []string) (models.ReflectionData, error) {
	includes := append([]string(nil), includedFiles...)
	sort.Strings(includes)

	data := models.ReflectionData{
		IncludedFiles:    includes,
		CompilerVersion:  artifact.Version,
		CompilerFlags:    append([]string(nil), artifact.Flags...),
		InstructionCount: countSPIRVInstructions(artifact.Bytecode),
	}

	if artifact.Reflection == nil {
		return data, nil
	}
	module, ok := artifact.Reflection.(*ir.Module)
	if !ok {
		return data, fmt.Errorf("%w: unexpected reflection type %T", interfaces.ErrReflectionFailed, artifact.Reflection)
	}

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		resource := models.ShaderResource{
			Name:          gv.Name,
			BindPoint:     gv.Binding.Binding,
			RegisterSpace: gv.Binding.Group,
			BindCount:     1,
		}
		inner := resolveInner(module, gv.Type)
		switch classify(gv.Space, inner) {
		case classConstantBuffer:
			resource.Size = typeSize(module, inner)
			resource.Members = bufferMembers(module, gv.Name, inner)
			data.ConstantBuffers = append(data.ConstantBuffers, resource)
		case classSampler:
			data.Samplers = append(data.Samplers, resource)
		case classUAV:
			data.UnorderedAccess = append(data.UnorderedAccess, resource)
		default:
			data.ShaderResources = append(data.ShaderResources, resource)
		}
	}

	sortResources(data.ConstantBuffers)
	sortResources(data.ShaderResources)
	sortResources(data.Samplers)
	sortResources(data.UnorderedAccess)

	e.logger.Trace().
		Str("shader", shaderName).
		Str("stage", stage.String()).
		Str("entry", entryPoint).
		Int("cbuffers", len(data.ConstantBuffers)).
		Int("srvs", len(data.ShaderResources)).
		Int("samplers", len(data.Samplers)).
		Int("uavs", len(data.UnorderedAccess)).
		Msg("Extracted shader reflection")

	return data, nil
}

func classify(space ir.AddressSpace, inner ir.TypeInner) resourceClass {
	switch space {
	case ir.SpaceUniform:
		return classConstantBuffer
	case ir.SpaceStorage:
		return classUAV
	}
	switch t := inner.(type) {
	case ir.SamplerType:
		return classSampler
	case ir.ImageType:
		if t.Class == ir.ImageClassStorage {
			return classUAV
		}
		return classSRV
	}
	return classSRV
}

// bufferMembers flattens a constant buffer's layout. Non-struct buffers get
// a single synthetic member covering the whole allocation.
func bufferMembers(module *ir.Module, bufferName string, inner ir.TypeInner) []models.ConstantBufferMember {
	st, ok := inner.(ir.StructType)
	if !ok {
		return []models.ConstantBufferMember{{
			Name:    "value",
			Offset:  0,
			Size:    typeSize(module, inner),
			Rows:    typeRows(inner),
			Columns: typeColumns(inner),
			Type:    memberType(inner),
		}}
	}
	members := make([]models.ConstantBufferMember, 0, len(st.Members))
	for _, m := range st.Members {
		mi := resolveInner(module, m.Type)
		members = append(members, models.ConstantBufferMember{
			Name:    m.Name,
			Offset:  m.Offset,
			Size:    typeSize(module, mi),
			Rows:    typeRows(mi),
			Columns: typeColumns(mi),
			Type:    memberType(mi),
		})
	}
	return members
}

// resolveInner dereferences a type handle to its inner type, following
// pointers to their base.
func resolveInner(module *ir.Module, handle ir.TypeHandle) ir.TypeInner {
	inner := module.Types[handle].Inner
	if p, ok := inner.(ir.PointerType); ok {
		return resolveInner(module, p.Base)
	}
	return inner
}

func typeSize(module *ir.Module, inner ir.TypeInner) uint32 {
	switch t := inner.(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.MatrixType:
		return uint32(t.Columns) * uint32(t.Rows) * uint32(t.Scalar.Width)
	case ir.StructType:
		return t.Span
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return t.Stride * *t.Size.Constant
		}
		return 0
	default:
		return 0
	}
}

func typeRows(inner ir.TypeInner) uint32 {
	switch t := inner.(type) {
	case ir.MatrixType:
		return uint32(t.Rows)
	case ir.ScalarType, ir.VectorType:
		return 1
	default:
		return 0
	}
}

func typeColumns(inner ir.TypeInner) uint32 {
	switch t := inner.(type) {
	case ir.MatrixType:
		return uint32(t.Columns)
	case ir.VectorType:
		return uint32(t.Size)
	case ir.ScalarType:
		return 1
	default:
		return 0
	}
}

func memberType(inner ir.TypeInner) models.MemberType {
	switch t := inner.(type) {
	case ir.ScalarType:
		switch t.Kind {
		case ir.ScalarBool:
			return models.MemberBool
		case ir.ScalarSint:
			return models.MemberInt
		case ir.ScalarUint:
			return models.MemberUint
		case ir.ScalarFloat:
			return models.MemberFloat
		}
	case ir.VectorType:
		if t.Scalar.Kind == ir.ScalarFloat {
			switch t.Size {
			case ir.Vec2:
				return models.MemberFloat2
			case ir.Vec3:
				return models.MemberFloat3
			case ir.Vec4:
				return models.MemberFloat4
			}
		}
	case ir.MatrixType:
		return models.MemberMatrix
	}
	return models.MemberCustom
}

func sortResources(resources []models.ShaderResource) {
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].RegisterSpace != resources[j].RegisterSpace {
			return resources[i].RegisterSpace < resources[j].RegisterSpace
		}
		if resources[i].BindPoint != resources[j].BindPoint {
			return resources[i].BindPoint < resources[j].BindPoint
		}
		return resources[i].Name < resources[j].Name
	})
}

const spirvHeaderWords = 5

// countSPIRVInstructions walks the SPIR-V word stream and counts
// instructions. Malformed streams count as zero rather than failing the
// compile.
func countSPIRVInstructions(bytecode []byte) uint32 {
	if len(bytecode)%4 != 0 || len(bytecode) < spirvHeaderWords*4 {
		return 0
	}
	var count uint32
	offset := spirvHeaderWords * 4
	for offset < len(bytecode) {
		word := binary.LittleEndian.Uint32(bytecode[offset:])
		wordCount := int(word >> 16)
		if wordCount == 0 {
			return 0
		}
		offset += wordCount * 4
		count++
	}
	if offset != len(bytecode) {
		return 0
	}
	return count
}
