package ast

import (
	"fmt"
	"strings"
)

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarF32 ScalarKind = iota
	ScalarI32
	ScalarU32
	ScalarBool
	ScalarF16
)

// String returns the WGSL spelling of the scalar kind.
func (k ScalarKind) String() string {
	switch k {
	case ScalarF32:
		return "f32"
	case ScalarI32:
		return "i32"
	case ScalarU32:
		return "u32"
	case ScalarBool:
		return "bool"
	case ScalarF16:
		return "f16"
	default:
		return "f32"
	}
}

// TypeKind represents the structural kind of a type.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeScalar
	TypeVector
	TypeMatrix
	TypeTexture
	TypeSampler
	TypeArray
	TypeStruct
)

// TextureDim represents texture dimensionality.
type TextureDim uint8

const (
	Dim1D TextureDim = iota
	Dim2D
	Dim3D
	DimCube
)

// TypeSpec describes a type structurally, independent of any dialect's
// spelling. Back-ends render it in their own syntax.
type TypeSpec struct {
	Kind   TypeKind
	Scalar ScalarKind // element type for scalar/vector/matrix, sampled type for textures

	// Size is the vector arity (2-4). Rows and Cols describe matrices.
	Size uint8
	Rows uint8
	Cols uint8

	Dim TextureDim // texture dimensionality

	// Combined marks a texture that carries its own sampler
	// (GLSL sampler2D). Split into texture+sampler when the target
	// separates them.
	Combined bool

	// Comparison marks comparison samplers / shadow samplers.
	Comparison bool

	// Elem is the array element type; Len is the fixed length
	// (0 for runtime-sized arrays).
	Elem *TypeSpec
	Len  uint32

	// Struct is the referenced struct type name.
	Struct string
}

// Convenience constructors.

func Void() TypeSpec           { return TypeSpec{Kind: TypeVoid} }
func Scalar(k ScalarKind) TypeSpec {
	return TypeSpec{Kind: TypeScalar, Scalar: k}
}
func Vector(k ScalarKind, size uint8) TypeSpec {
	return TypeSpec{Kind: TypeVector, Scalar: k, Size: size}
}
func Matrix(k ScalarKind, cols, rows uint8) TypeSpec {
	return TypeSpec{Kind: TypeMatrix, Scalar: k, Cols: cols, Rows: rows}
}
func Texture(dim TextureDim, sampled ScalarKind) TypeSpec {
	return TypeSpec{Kind: TypeTexture, Scalar: sampled, Dim: dim}
}
func Sampler(comparison bool) TypeSpec {
	return TypeSpec{Kind: TypeSampler, Comparison: comparison}
}
func Array(elem TypeSpec, length uint32) TypeSpec {
	return TypeSpec{Kind: TypeArray, Elem: &elem, Len: length}
}
func Struct(name string) TypeSpec {
	return TypeSpec{Kind: TypeStruct, Struct: name}
}

// IsVoid reports whether t is the void/absent type.
func (t TypeSpec) IsVoid() bool { return t.Kind == TypeVoid }

// IsNumeric reports whether t is a scalar, vector, or matrix.
func (t TypeSpec) IsNumeric() bool {
	return t.Kind == TypeScalar || t.Kind == TypeVector || t.Kind == TypeMatrix
}

// Arity returns the component count of a vector or matrix, 1 for
// scalars, and 0 for everything else. Conversion must preserve it.
func (t TypeSpec) Arity() uint8 {
	switch t.Kind {
	case TypeScalar:
		return 1
	case TypeVector:
		return t.Size
	case TypeMatrix:
		return t.Rows * t.Cols
	default:
		return 0
	}
}

// Equal reports structural equality of two types.
func (t TypeSpec) Equal(o TypeSpec) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeVoid:
		return true
	case TypeScalar:
		return t.Scalar == o.Scalar
	case TypeVector:
		return t.Scalar == o.Scalar && t.Size == o.Size
	case TypeMatrix:
		return t.Scalar == o.Scalar && t.Rows == o.Rows && t.Cols == o.Cols
	case TypeTexture:
		return t.Scalar == o.Scalar && t.Dim == o.Dim && t.Combined == o.Combined
	case TypeSampler:
		return t.Comparison == o.Comparison
	case TypeArray:
		if t.Len != o.Len {
			return false
		}
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case TypeStruct:
		return t.Struct == o.Struct
	default:
		return false
	}
}

// String renders the type in WGSL-like notation for diagnostics.
func (t TypeSpec) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeScalar:
		return t.Scalar.String()
	case TypeVector:
		return fmt.Sprintf("vec%d<%s>", t.Size, t.Scalar)
	case TypeMatrix:
		return fmt.Sprintf("mat%dx%d<%s>", t.Cols, t.Rows, t.Scalar)
	case TypeTexture:
		var dim string
		switch t.Dim {
		case Dim1D:
			dim = "1d"
		case Dim2D:
			dim = "2d"
		case Dim3D:
			dim = "3d"
		case DimCube:
			dim = "cube"
		}
		return fmt.Sprintf("texture_%s<%s>", dim, t.Scalar)
	case TypeSampler:
		if t.Comparison {
			return "sampler_comparison"
		}
		return "sampler"
	case TypeArray:
		var sb strings.Builder
		sb.WriteString("array<")
		if t.Elem != nil {
			sb.WriteString(t.Elem.String())
		}
		if t.Len > 0 {
			fmt.Fprintf(&sb, ", %d", t.Len)
		}
		sb.WriteString(">")
		return sb.String()
	case TypeStruct:
		return t.Struct
	default:
		return "unknown"
	}
}
