package transform

import (
	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Remap rewrites every resource binding into the target language's
// addressing model, in declaration order. A resource keeps its source
// slot number when that slot is free in the target namespace; otherwise
// it takes the lowest unused slot. The result is always collision-free.
//
// Namespaces follow the target: WGSL has one binding space per group
// (everything lands in group 0), GLSL has one binding-point space per
// resource class, HLSL has one register space per register letter. ISF
// binds by name, so explicit slots are cleared.
func Remap(m *ast.Module, target ast.Language, diags *diag.List) {
	resources := m.Resources()

	if target == ast.LangISF {
		for _, id := range resources {
			n := m.Node(id)
			n.Binding = &ast.ResourceBinding{Class: classOf(n)}
		}
		return
	}

	used := make(map[string]map[uint32]bool)
	claim := func(ns string, slot uint32) bool {
		if used[ns] == nil {
			used[ns] = make(map[uint32]bool)
		}
		if used[ns][slot] {
			return false
		}
		used[ns][slot] = true
		return true
	}

	slots := make(map[ast.NodeID]uint32, len(resources))

	// First pass: honor explicit source slots where they fit.
	for _, id := range resources {
		n := m.Node(id)
		pref, ok := preferredSlot(n.Binding)
		if !ok {
			continue
		}
		if claim(namespaceFor(target, classOf(n)), pref) {
			slots[id] = pref
		}
	}

	// Second pass: everything else fills ascending gaps.
	for _, id := range resources {
		if _, done := slots[id]; done {
			continue
		}
		n := m.Node(id)
		ns := namespaceFor(target, classOf(n))
		slot := uint32(0)
		for !claim(ns, slot) {
			slot++
		}
		slots[id] = slot
		if _, hadExplicit := preferredSlot(n.Binding); hadExplicit {
			diags.Infof(diag.CodeSynth, n.Span,
				"resource %q moved to %s slot %d: source slot already taken", n.Name, ns, slot)
		}
	}

	for _, id := range resources {
		n := m.Node(id)
		slot := slots[id]
		b := &ast.ResourceBinding{Class: classOf(n)}
		switch target {
		case ast.LangWGSL:
			b.Group, b.Binding, b.HasGroupBinding = 0, slot, true
		case ast.LangGLSL:
			b.Layout, b.HasLayout = slot, true
		case ast.LangHLSL:
			b.Slot, b.Space, b.HasRegister = slot, 0, true
		}
		n.Binding = b
	}
}

// preferredSlot extracts the numeric slot a resource was bound to in
// its source dialect, whichever model that was.
func preferredSlot(b *ast.ResourceBinding) (uint32, bool) {
	switch {
	case b == nil:
		return 0, false
	case b.HasGroupBinding:
		return b.Binding, true
	case b.HasLayout:
		return b.Layout, true
	case b.HasRegister:
		return b.Slot, true
	default:
		return 0, false
	}
}

// namespaceFor names the slot namespace a resource competes in.
func namespaceFor(target ast.Language, class ast.ResourceClass) string {
	switch target {
	case ast.LangGLSL:
		return class.String()
	case ast.LangHLSL:
		return string(class.RegisterClass())
	default:
		return "binding"
	}
}

// classOf classifies a resource declaration when the parser did not
// attach a binding.
func classOf(n *ast.Node) ast.ResourceClass {
	if n.Binding != nil {
		return n.Binding.Class
	}
	switch {
	case n.Type.Kind == ast.TypeTexture:
		return ast.ClassTexture
	case n.Type.Kind == ast.TypeSampler:
		return ast.ClassSampler
	case n.Qual.AddressSpace == "storage":
		return ast.ClassStorageBuffer
	default:
		return ast.ClassUniformBuffer
	}
}
