// Package glsl provides the GLSL front-end and back-end.
//
// The front-end accepts OpenGL 3.3+ style GLSL: preprocessor
// directives are consumed (the target version is a generation option,
// not a source property), precision statements are kept as
// declarations so conversions can report them, and combined sampler
// types (sampler2D) are marked so targets with split texture/sampler
// models can synthesize the missing half.
package glsl
