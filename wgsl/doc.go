// Package wgsl provides the WGSL (WebGPU Shading Language) front-end
// and back-end.
//
// Parse turns WGSL source into the unified AST, recovering at
// declaration and statement boundaries so that every syntax error in a
// file is reported in one pass. Generate renders a unified AST back to
// WGSL text.
package wgsl
