package models

import "sort"

// MemberType classifies a constant-buffer member's data type.
type MemberType int

const (
	MemberBool MemberType = iota
	MemberInt
	MemberUint
	MemberFloat
	MemberFloat2
	MemberFloat3
	MemberFloat4
	MemberMatrix
	MemberCustom
)

var memberTypeNames = map[MemberType]string{
	MemberBool:   "bool",
	MemberInt:    "int",
	MemberUint:   "uint",
	MemberFloat:  "float",
	MemberFloat2: "float2",
	MemberFloat3: "float3",
	MemberFloat4: "float4",
	MemberMatrix: "matrix",
	MemberCustom: "custom",
}

func (m MemberType) String() string {
	if name, ok := memberTypeNames[m]; ok {
		return name
	}
	return "custom"
}

// ConstantBufferMember is one variable inside a reflected constant buffer.
type ConstantBufferMember struct {
	Name    string
	Offset  uint32
	Size    uint32
	Rows    uint32
	Columns uint32
	Type    MemberType
}

// ShaderResource is one reflected resource binding.
type ShaderResource struct {
	Name          string
	BindPoint     uint32
	RegisterSpace uint32
	BindCount     uint32
	Size          uint32 // byte size, constant buffers only
	Members       []ConstantBufferMember
}

// ReflectionData is the backend-independent reflection model for one
// compiled shader or an assembled program.
type ReflectionData struct {
	ConstantBuffers  []ShaderResource
	ShaderResources  []ShaderResource // textures / read-only buffers (SRVs)
	Samplers         []ShaderResource
	UnorderedAccess  []ShaderResource // read-write resources (UAVs)
	InstructionCount uint32
	IncludedFiles    []string
	CompilerVersion  string
	CompilerFlags    []string
}

// ResourceCount returns the total number of reflected bindings.
func (r ReflectionData) ResourceCount() int {
	return len(r.ConstantBuffers) + len(r.ShaderResources) + len(r.Samplers) + len(r.UnorderedAccess)
}

// ConstantBufferBindings returns a deterministic (name, bind point) listing
// of the reflected constant buffers, sorted by bind point then name.
func (r ReflectionData) ConstantBufferBindings() []ShaderResource {
	out := append([]ShaderResource(nil), r.ConstantBuffers...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].BindPoint != out[j].BindPoint {
			return out[i].BindPoint < out[j].BindPoint
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type bindingKey struct {
	name      string
	bindPoint uint32
}

// mergeResources appends src entries into dst, dropping entries whose
// (name, bindPoint) pair is already present.
func mergeResources(dst []ShaderResource, src []ShaderResource, seen map[bindingKey]struct{}) []ShaderResource {
	for _, res := range src {
		key := bindingKey{name: res.Name, bindPoint: res.BindPoint}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, res)
	}
	return dst
}

// MergeReflection combines per-stage reflection into one deduplicated set,
// used for program-level reflection. Entries are deduplicated by
// (name, bindPoint) within each resource class; included files are unioned.
func MergeReflection(parts ...ReflectionData) ReflectionData {
	var merged ReflectionData
	cbSeen := make(map[bindingKey]struct{})
	srvSeen := make(map[bindingKey]struct{})
	sampSeen := make(map[bindingKey]struct{})
	uavSeen := make(map[bindingKey]struct{})
	fileSeen := make(map[string]struct{})

	for _, part := range parts {
		merged.ConstantBuffers = mergeResources(merged.ConstantBuffers, part.ConstantBuffers, cbSeen)
		merged.ShaderResources = mergeResources(merged.ShaderResources, part.ShaderResources, srvSeen)
		merged.Samplers = mergeResources(merged.Samplers, part.Samplers, sampSeen)
		merged.UnorderedAccess = mergeResources(merged.UnorderedAccess, part.UnorderedAccess, uavSeen)
		merged.InstructionCount += part.InstructionCount
		for _, file := range part.IncludedFiles {
			if _, dup := fileSeen[file]; dup {
				continue
			}
			fileSeen[file] = struct{}{}
			merged.IncludedFiles = append(merged.IncludedFiles, file)
		}
		if merged.CompilerVersion == "" {
			merged.CompilerVersion = part.CompilerVersion
		}
	}
	sort.Strings(merged.IncludedFiles)
	return merged
}
