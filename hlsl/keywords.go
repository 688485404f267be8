package hlsl

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderconv/ast"
)

// Keywords contains HLSL keywords and reserved words. Identifiers that
// collide are renamed during generation.
var Keywords = map[string]struct{}{
	// Control flow and declarations
	"break": {}, "case": {}, "cbuffer": {}, "const": {}, "continue": {},
	"default": {}, "discard": {}, "do": {}, "else": {}, "extern": {},
	"false": {}, "for": {}, "if": {}, "in": {}, "inline": {}, "inout": {},
	"out": {}, "packoffset": {}, "precise": {}, "register": {},
	"return": {}, "row_major": {}, "column_major": {}, "shared": {},
	"static": {}, "struct": {}, "switch": {}, "tbuffer": {}, "true": {},
	"typedef": {}, "uniform": {}, "volatile": {}, "while": {},
	"groupshared": {}, "numthreads": {},

	// Types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "dword": {},
	"half": {}, "float": {}, "double": {},
	"float2": {}, "float3": {}, "float4": {},
	"int2": {}, "int3": {}, "int4": {},
	"uint2": {}, "uint3": {}, "uint4": {},
	"bool2": {}, "bool3": {}, "bool4": {},
	"half2": {}, "half3": {}, "half4": {},
	"float2x2": {}, "float2x3": {}, "float2x4": {},
	"float3x2": {}, "float3x3": {}, "float3x4": {},
	"float4x2": {}, "float4x3": {}, "float4x4": {},
	"matrix": {}, "vector": {},
	"Texture1D": {}, "Texture2D": {}, "Texture3D": {}, "TextureCube": {},
	"Texture2DArray": {}, "RWTexture2D": {},
	"SamplerState": {}, "SamplerComparisonState": {}, "sampler": {},
	"StructuredBuffer": {}, "RWStructuredBuffer": {}, "ByteAddressBuffer": {},
	"Buffer": {}, "RWBuffer": {}, "ConstantBuffer": {},

	// Reserved
	"asm": {}, "auto": {}, "catch": {}, "char": {}, "class": {},
	"const_cast": {}, "delete": {}, "dynamic_cast": {}, "enum": {},
	"explicit": {}, "friend": {}, "goto": {}, "long": {}, "mutable": {},
	"namespace": {}, "new": {}, "operator": {}, "private": {},
	"protected": {}, "public": {}, "reinterpret_cast": {}, "short": {},
	"signed": {}, "sizeof": {}, "static_cast": {}, "template": {},
	"this": {}, "throw": {}, "try": {}, "union": {}, "unsigned": {},
	"using": {}, "virtual": {},
}

// Builtins lists the HLSL intrinsic functions the validator accepts in
// generated output.
var Builtins = map[string]struct{}{
	// Math
	"abs": {}, "acos": {}, "asin": {}, "atan": {}, "atan2": {},
	"ceil": {}, "clamp": {}, "cos": {}, "cosh": {}, "cross": {},
	"degrees": {}, "distance": {}, "dot": {}, "exp": {}, "exp2": {},
	"faceforward": {}, "floor": {}, "fmod": {}, "frac": {}, "frexp": {},
	"fma": {}, "length": {}, "lerp": {}, "log": {}, "log2": {},
	"mad": {}, "max": {}, "min": {}, "modf": {}, "mul": {},
	"normalize": {}, "pow": {}, "radians": {}, "rcp": {}, "reflect": {},
	"refract": {}, "round": {}, "rsqrt": {}, "saturate": {}, "sign": {},
	"sin": {}, "sincos": {}, "sinh": {}, "smoothstep": {}, "sqrt": {},
	"step": {}, "tan": {}, "tanh": {}, "trunc": {}, "transpose": {},
	"determinant": {},

	// Derivatives and pixel ops
	"ddx": {}, "ddy": {}, "fwidth": {}, "clip": {},

	// Bits
	"asfloat": {}, "asint": {}, "asuint": {},
	"countbits": {}, "reversebits": {}, "f16tof32": {}, "f32tof16": {},

	// Synchronization
	"GroupMemoryBarrierWithGroupSync": {}, "DeviceMemoryBarrier": {},
	"AllMemoryBarrierWithGroupSync": {},

	// Logical
	"all": {}, "any": {}, "isnan": {}, "isinf": {},
}

// Methods lists the texture/buffer object methods the front-end and
// validator recognize.
var Methods = map[string]struct{}{
	"Sample": {}, "SampleLevel": {}, "SampleCmp": {}, "SampleGrad": {},
	"SampleBias": {}, "Load": {}, "GetDimensions": {},
}

// scalarTypes maps HLSL scalar type names to scalar kinds.
var scalarTypes = map[string]ast.ScalarKind{
	"float":  ast.ScalarF32,
	"double": ast.ScalarF32,
	"half":   ast.ScalarF16,
	"int":    ast.ScalarI32,
	"uint":   ast.ScalarU32,
	"dword":  ast.ScalarU32,
	"bool":   ast.ScalarBool,
}

// vectorTypes maps HLSL vector type names to element kind and arity.
var vectorTypes = map[string]struct {
	Scalar ast.ScalarKind
	Size   uint8
}{
	"float2": {ast.ScalarF32, 2}, "float3": {ast.ScalarF32, 3}, "float4": {ast.ScalarF32, 4},
	"half2": {ast.ScalarF16, 2}, "half3": {ast.ScalarF16, 3}, "half4": {ast.ScalarF16, 4},
	"int2": {ast.ScalarI32, 2}, "int3": {ast.ScalarI32, 3}, "int4": {ast.ScalarI32, 4},
	"uint2": {ast.ScalarU32, 2}, "uint3": {ast.ScalarU32, 3}, "uint4": {ast.ScalarU32, 4},
	"bool2": {ast.ScalarBool, 2}, "bool3": {ast.ScalarBool, 3}, "bool4": {ast.ScalarBool, 4},
}

// matrixTypes maps HLSL matrix type names to [rows, cols]. HLSL spells
// matrices rows-first; the unified representation is columns-first.
var matrixTypes = map[string][2]uint8{
	"float2x2": {2, 2}, "float2x3": {2, 3}, "float2x4": {2, 4},
	"float3x2": {3, 2}, "float3x3": {3, 3}, "float3x4": {3, 4},
	"float4x2": {4, 2}, "float4x3": {4, 3}, "float4x4": {4, 4},
}

// textureTypes maps HLSL texture object names to dimensionality.
var textureTypes = map[string]ast.TextureDim{
	"Texture1D":      ast.Dim1D,
	"Texture2D":      ast.Dim2D,
	"Texture3D":      ast.Dim3D,
	"TextureCube":    ast.DimCube,
	"Texture2DArray": ast.Dim2D,
	"RWTexture2D":    ast.Dim2D,
}

// isTypeName reports whether an identifier starts a type.
func isTypeName(name string) bool {
	if _, ok := scalarTypes[name]; ok {
		return true
	}
	if _, ok := vectorTypes[name]; ok {
		return true
	}
	if _, ok := matrixTypes[name]; ok {
		return true
	}
	if _, ok := textureTypes[name]; ok {
		return true
	}
	switch name {
	case "void", "matrix", "vector", "SamplerState", "SamplerComparisonState",
		"StructuredBuffer", "RWStructuredBuffer":
		return true
	}
	return false
}

// Semantics. HLSL semantics are case-insensitive; they are matched
// upper-cased and rendered in canonical spelling.

// semanticQual translates a semantic into location/builtin qualifiers.
// SV_Target and TEXCOORD carry an optional trailing index.
func semanticQual(sem string, q *ast.Qualifiers) {
	upper := strings.ToUpper(sem)
	base, index := splitSemanticIndex(upper)
	switch base {
	case "SV_POSITION", "POSITION":
		q.Builtin = "position"
	case "SV_DEPTH":
		q.Builtin = "frag_depth"
	case "SV_VERTEXID":
		q.Builtin = "vertex_index"
	case "SV_INSTANCEID":
		q.Builtin = "instance_index"
	case "SV_DISPATCHTHREADID":
		q.Builtin = "global_invocation_id"
	case "SV_GROUPID":
		q.Builtin = "workgroup_id"
	case "SV_GROUPTHREADID":
		q.Builtin = "local_invocation_id"
	case "SV_ISFRONTFACE":
		q.Builtin = "front_facing"
	default:
		// SV_Target, TEXCOORD, COLOR, and user semantics all map to IO
		// locations, keyed by the trailing index.
		q.Location = index
	}
}

// splitSemanticIndex splits "TEXCOORD3" into ("TEXCOORD", 3).
func splitSemanticIndex(sem string) (string, int32) {
	i := len(sem)
	for i > 0 && sem[i-1] >= '0' && sem[i-1] <= '9' {
		i--
	}
	if i == len(sem) {
		return sem, 0
	}
	n, err := strconv.Atoi(sem[i:])
	if err != nil {
		return sem, 0
	}
	return sem[:i], int32(n)
}

// builtinSemantics renders a builtin qualifier as the canonical HLSL
// semantic.
var builtinSemantics = map[string]string{
	"position":             "SV_Position",
	"frag_depth":           "SV_Depth",
	"vertex_index":         "SV_VertexID",
	"instance_index":       "SV_InstanceID",
	"global_invocation_id": "SV_DispatchThreadID",
	"workgroup_id":         "SV_GroupID",
	"local_invocation_id":  "SV_GroupThreadID",
	"front_facing":         "SV_IsFrontFace",
}
