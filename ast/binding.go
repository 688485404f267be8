package ast

import "fmt"

// ResourceClass partitions resources into the classes that share a
// register/slot namespace in at least one dialect.
type ResourceClass uint8

const (
	ClassUniformBuffer ResourceClass = iota
	ClassStorageBuffer
	ClassTexture
	ClassSampler
)

// String returns a short name for the class.
func (c ResourceClass) String() string {
	switch c {
	case ClassUniformBuffer:
		return "uniform"
	case ClassStorageBuffer:
		return "storage"
	case ClassTexture:
		return "texture"
	case ClassSampler:
		return "sampler"
	default:
		return "uniform"
	}
}

// RegisterClass is the HLSL register letter for a resource class.
func (c ResourceClass) RegisterClass() byte {
	switch c {
	case ClassUniformBuffer:
		return 'b'
	case ClassStorageBuffer:
		return 'u'
	case ClassTexture:
		return 't'
	case ClassSampler:
		return 's'
	default:
		return 'b'
	}
}

// ResourceBinding carries a resource's address in whichever binding
// model the declaring dialect uses. Presence flags distinguish "bound
// to slot 0" from "no explicit binding".
//
//   - WGSL: two-level (Group, Binding)
//   - HLSL: register letter (from Class) + Slot, optional Space
//   - GLSL: single layout(binding=N) index
//   - ISF:  named only; the host binds inputs, no explicit slot
type ResourceBinding struct {
	Class ResourceClass

	// WGSL model.
	Group           uint32
	Binding         uint32
	HasGroupBinding bool

	// HLSL model.
	Slot        uint32
	Space       uint32
	HasRegister bool

	// GLSL model.
	Layout    uint32
	HasLayout bool
}

// EffectiveSlot returns the slot identity used for the binding
// uniqueness invariant in the given language. Two resources collide
// when their effective slots are equal.
func (b ResourceBinding) EffectiveSlot(lang Language) (string, bool) {
	switch lang {
	case LangWGSL:
		if !b.HasGroupBinding {
			return "", false
		}
		return fmt.Sprintf("g%d/b%d", b.Group, b.Binding), true
	case LangHLSL:
		if !b.HasRegister {
			return "", false
		}
		return fmt.Sprintf("%c%d,space%d", b.Class.RegisterClass(), b.Slot, b.Space), true
	case LangGLSL:
		if !b.HasLayout {
			return "", false
		}
		// GLSL uniform blocks, textures, and storage blocks each have
		// their own binding-point namespace.
		return fmt.Sprintf("%s/%d", b.Class, b.Layout), true
	case LangISF:
		return "", false
	default:
		return "", false
	}
}
