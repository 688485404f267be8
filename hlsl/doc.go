// Package hlsl provides the HLSL front-end and back-end.
//
// The front-end accepts shader model 5 style HLSL: cbuffer blocks,
// register() bindings, semantics on struct fields and entry points,
// and texture method calls (tex.Sample). Semantics are normalized to
// location/builtin qualifiers so the other back-ends can render them;
// the back-end reverses the mapping.
package hlsl
