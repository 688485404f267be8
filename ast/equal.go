package ast

// Equal reports whether two modules are structurally equal: same
// declarations in the same order, same node kinds, names, types,
// qualifiers, operators, and children. Spans are ignored, so modules
// parsed from differently formatted text still compare equal.
func Equal(a, b *Module) bool {
	if len(a.Decls) != len(b.Decls) {
		return false
	}
	for i := range a.Decls {
		if !nodeEqual(a, a.Decls[i], b, b.Decls[i]) {
			return false
		}
	}
	return true
}

func nodeEqual(ma *Module, ida NodeID, mb *Module, idb NodeID) bool {
	if ida.Valid() != idb.Valid() {
		return false
	}
	if !ida.Valid() {
		return true
	}
	a, b := ma.Node(ida), mb.Node(idb)
	if a.Kind != b.Kind || a.Name != b.Name || a.Op != b.Op ||
		a.Lit != b.Lit || a.Method != b.Method || a.Text != b.Text {
		return false
	}
	if !a.Type.Equal(b.Type) || a.Qual != b.Qual {
		return false
	}
	if (a.Binding == nil) != (b.Binding == nil) {
		return false
	}
	if a.Binding != nil && *a.Binding != *b.Binding {
		return false
	}
	if len(a.Kids) != len(b.Kids) {
		return false
	}
	for i := range a.Kids {
		if !nodeEqual(ma, a.Kids[i], mb, b.Kids[i]) {
			return false
		}
	}
	return true
}
