// Package ast defines the unified abstract syntax tree shared by all
// shader dialects.
//
// Nodes live in a flat arena owned by a Module and reference each other
// by NodeID (an integer index), never by pointer. This keeps the tree
// acyclic by construction and makes structural comparison cheap.
//
// The same AST shape is produced by every front-end (WGSL, GLSL, HLSL,
// ISF) and consumed by every back-end; per-language detail is carried in
// TypeSpec, Qualifiers, and ResourceBinding rather than in distinct node
// types.
package ast
