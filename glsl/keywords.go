package glsl

import "github.com/gogpu/shaderconv/ast"

// Keywords contains GLSL keywords and reserved words. Identifiers that
// collide are renamed during generation. Names starting with "gl_" are
// handled separately since the prefix, not the word, is reserved.
var Keywords = map[string]struct{}{
	// Control flow and declarations
	"attribute": {}, "break": {}, "case": {}, "const": {}, "continue": {},
	"default": {}, "discard": {}, "do": {}, "else": {}, "false": {},
	"for": {}, "if": {}, "in": {}, "inout": {}, "invariant": {},
	"layout": {}, "out": {}, "precision": {}, "return": {}, "struct": {},
	"switch": {}, "true": {}, "uniform": {}, "varying": {}, "while": {},

	// Precision qualifiers
	"highp": {}, "mediump": {}, "lowp": {},

	// Interpolation and memory qualifiers
	"centroid": {}, "flat": {}, "noperspective": {}, "smooth": {},
	"buffer": {}, "coherent": {}, "readonly": {}, "restrict": {},
	"shared": {}, "volatile": {}, "writeonly": {},

	// Types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},
	"sampler1D": {}, "sampler2D": {}, "sampler3D": {}, "samplerCube": {},
	"sampler1DShadow": {}, "sampler2DShadow": {}, "samplerCubeShadow": {},
	"isampler2D": {}, "usampler2D": {}, "sampler2DArray": {},

	// Reserved for future use
	"common": {}, "partition": {}, "active": {}, "asm": {}, "class": {},
	"union": {}, "enum": {}, "typedef": {}, "template": {}, "this": {},
	"goto": {}, "inline": {}, "noinline": {}, "public": {}, "static": {},
	"extern": {}, "external": {}, "interface": {}, "long": {}, "short": {},
	"half": {}, "fixed": {}, "unsigned": {}, "superp": {}, "input": {},
	"output": {}, "filter": {}, "sizeof": {}, "cast": {}, "namespace": {},
	"using": {},
}

// Builtins lists the GLSL built-in functions the validator accepts in
// generated output.
var Builtins = map[string]struct{}{
	// Texture
	"texture": {}, "textureLod": {}, "textureProj": {}, "texelFetch": {},
	"textureSize": {}, "textureGrad": {}, "textureOffset": {},
	// Legacy names still accepted by the front-end
	"texture2D": {}, "textureCube": {},

	// Math
	"abs": {}, "acos": {}, "asin": {}, "atan": {},
	"ceil": {}, "clamp": {}, "cos": {}, "cosh": {}, "cross": {},
	"degrees": {}, "distance": {}, "dot": {}, "exp": {}, "exp2": {},
	"faceforward": {}, "floor": {}, "fma": {}, "fract": {},
	"inversesqrt": {}, "length": {}, "log": {}, "log2": {},
	"max": {}, "min": {}, "mix": {}, "mod": {}, "modf": {},
	"normalize": {}, "pow": {}, "radians": {}, "reflect": {},
	"refract": {}, "round": {}, "sign": {}, "sin": {}, "sinh": {},
	"smoothstep": {}, "sqrt": {}, "step": {}, "tan": {}, "tanh": {},
	"trunc": {}, "inverse": {}, "transpose": {}, "determinant": {},

	// Derivatives
	"dFdx": {}, "dFdy": {}, "fwidth": {},

	// Packing / bits
	"floatBitsToInt": {}, "floatBitsToUint": {},
	"intBitsToFloat": {}, "uintBitsToFloat": {},
	"bitCount": {}, "bitfieldReverse": {},
	"packHalf2x16": {}, "unpackHalf2x16": {},

	// Synchronization (compute, GLSL 430+)
	"barrier": {}, "memoryBarrier": {}, "memoryBarrierShared": {},

	// Logical
	"all": {}, "any": {}, "not": {}, "isnan": {}, "isinf": {},
	"lessThan": {}, "lessThanEqual": {}, "greaterThan": {},
	"greaterThanEqual": {}, "equal": {}, "notEqual": {},
}

// scalarTypes maps GLSL scalar type names to scalar kinds. double maps
// to f32; no other dialect in the pipeline has a 64-bit float.
var scalarTypes = map[string]ast.ScalarKind{
	"float":  ast.ScalarF32,
	"double": ast.ScalarF32,
	"int":    ast.ScalarI32,
	"uint":   ast.ScalarU32,
	"bool":   ast.ScalarBool,
}

// vectorTypes maps GLSL vector type names to element kind and arity.
var vectorTypes = map[string]struct {
	Scalar ast.ScalarKind
	Size   uint8
}{
	"vec2": {ast.ScalarF32, 2}, "vec3": {ast.ScalarF32, 3}, "vec4": {ast.ScalarF32, 4},
	"ivec2": {ast.ScalarI32, 2}, "ivec3": {ast.ScalarI32, 3}, "ivec4": {ast.ScalarI32, 4},
	"uvec2": {ast.ScalarU32, 2}, "uvec3": {ast.ScalarU32, 3}, "uvec4": {ast.ScalarU32, 4},
	"bvec2": {ast.ScalarBool, 2}, "bvec3": {ast.ScalarBool, 3}, "bvec4": {ast.ScalarBool, 4},
}

// matrixTypes maps GLSL matrix type names to [cols, rows].
var matrixTypes = map[string][2]uint8{
	"mat2": {2, 2}, "mat3": {3, 3}, "mat4": {4, 4},
	"mat2x2": {2, 2}, "mat2x3": {2, 3}, "mat2x4": {2, 4},
	"mat3x2": {3, 2}, "mat3x3": {3, 3}, "mat3x4": {3, 4},
	"mat4x2": {4, 2}, "mat4x3": {4, 3}, "mat4x4": {4, 4},
}

// samplerTypes maps GLSL combined sampler type names to texture specs.
// All carry Combined; targets with split texture/sampler models
// synthesize the sampler half during transformation.
var samplerTypes = map[string]ast.TypeSpec{
	"sampler1D":         combined(ast.Dim1D, ast.ScalarF32, false),
	"sampler2D":         combined(ast.Dim2D, ast.ScalarF32, false),
	"sampler3D":         combined(ast.Dim3D, ast.ScalarF32, false),
	"samplerCube":       combined(ast.DimCube, ast.ScalarF32, false),
	"sampler2DShadow":   combined(ast.Dim2D, ast.ScalarF32, true),
	"samplerCubeShadow": combined(ast.DimCube, ast.ScalarF32, true),
	"isampler2D":        combined(ast.Dim2D, ast.ScalarI32, false),
	"usampler2D":        combined(ast.Dim2D, ast.ScalarU32, false),
}

func combined(dim ast.TextureDim, sampled ast.ScalarKind, shadow bool) ast.TypeSpec {
	t := ast.Texture(dim, sampled)
	t.Combined = true
	t.Comparison = shadow
	return t
}

// isTypeName reports whether an identifier starts a type, and therefore
// a constructor expression or a local declaration.
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
	if _, ok := samplerTypes[name]; ok {
		return true
	}
	return name == "void"
}
