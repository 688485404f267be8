package wgsl

// Keywords contains WGSL keywords and reserved words. Identifiers that
// collide are renamed during generation.
var Keywords = map[string]struct{}{
	// Declaration and control-flow keywords
	"alias": {}, "break": {}, "case": {}, "const": {}, "const_assert": {},
	"continue": {}, "continuing": {}, "default": {}, "diagnostic": {},
	"discard": {}, "else": {}, "enable": {}, "false": {}, "fn": {},
	"for": {}, "if": {}, "let": {}, "loop": {}, "override": {},
	"requires": {}, "return": {}, "struct": {}, "switch": {}, "true": {},
	"var": {}, "while": {},

	// Type keywords
	"bool": {}, "f16": {}, "f32": {}, "i32": {}, "u32": {},
	"vec2": {}, "vec3": {}, "vec4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},
	"array": {}, "atomic": {}, "ptr": {}, "sampler": {}, "sampler_comparison": {},
	"texture_1d": {}, "texture_2d": {}, "texture_2d_array": {}, "texture_3d": {},
	"texture_cube": {}, "texture_cube_array": {}, "texture_multisampled_2d": {},
	"texture_storage_1d": {}, "texture_storage_2d": {}, "texture_storage_3d": {},
	"texture_depth_2d": {}, "texture_depth_cube": {},
	"bitcast": {},

	// Reserved for future use
	"as": {}, "cast": {}, "do": {}, "enum": {}, "handle": {}, "mat": {},
	"premerge": {}, "regardless": {}, "typedef": {}, "unless": {},
	"using": {}, "vec": {}, "void": {},

	// Address spaces and access modes
	"function": {}, "private": {}, "workgroup": {}, "uniform": {},
	"storage": {}, "read": {}, "write": {}, "read_write": {},
}

// Builtins lists the WGSL built-in functions the validator accepts in
// generated output.
var Builtins = map[string]struct{}{
	// Texture
	"textureSample": {}, "textureSampleLevel": {}, "textureSampleCompare": {},
	"textureLoad": {}, "textureStore": {}, "textureDimensions": {},

	// Math
	"abs": {}, "acos": {}, "asin": {}, "atan": {}, "atan2": {},
	"ceil": {}, "clamp": {}, "cos": {}, "cosh": {}, "cross": {},
	"degrees": {}, "distance": {}, "dot": {}, "exp": {}, "exp2": {},
	"faceForward": {}, "floor": {}, "fma": {}, "fract": {},
	"inverseSqrt": {}, "length": {}, "log": {}, "log2": {},
	"max": {}, "min": {}, "mix": {}, "modf": {}, "normalize": {},
	"pow": {}, "radians": {}, "reflect": {}, "refract": {}, "round": {},
	"saturate": {}, "sign": {}, "sin": {}, "sinh": {}, "smoothstep": {},
	"sqrt": {}, "step": {}, "tan": {}, "tanh": {}, "transpose": {},
	"trunc": {}, "determinant": {},

	// Derivatives
	"dpdx": {}, "dpdy": {}, "fwidth": {},

	// Packing / bits
	"bitcast": {}, "countOneBits": {}, "reverseBits": {},
	"pack2x16float": {}, "unpack2x16float": {},

	// Synchronization
	"workgroupBarrier": {}, "storageBarrier": {},

	// Logical
	"all": {}, "any": {}, "select": {}, "arrayLength": {},
}
