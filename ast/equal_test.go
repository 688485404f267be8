package ast

import "testing"

// buildVar assembles a module holding a single global declaration with
// an initializer, at the given source line.
func buildVar(line int, name string, ty TypeSpec) *Module {
	m := &Module{}
	span := Span{Start: Position{Line: line, Column: 1}, End: Position{Line: line, Column: 10}}
	init := m.Add(Node{Kind: KindLiteral, Span: span, Text: "1.0"})
	decl := m.Add(Node{
		Kind: KindVarDecl,
		Span: span,
		Name: name,
		Type: ty,
		Qual: Qualifiers{Location: NoLocation},
		Kids: []NodeID{init},
	})
	m.Decls = append(m.Decls, decl)
	return m
}

func TestEqualIgnoresSpans(t *testing.T) {
	a := buildVar(1, "speed", Scalar(ScalarF32))
	b := buildVar(42, "speed", Scalar(ScalarF32))
	if !Equal(a, b) {
		t.Error("expected modules differing only in spans to compare equal")
	}
}

func TestEqualDetectsNameChange(t *testing.T) {
	a := buildVar(1, "speed", Scalar(ScalarF32))
	b := buildVar(1, "rate", Scalar(ScalarF32))
	if Equal(a, b) {
		t.Error("expected modules with different names to differ")
	}
}

func TestEqualDetectsTypeChange(t *testing.T) {
	a := buildVar(1, "speed", Scalar(ScalarF32))
	b := buildVar(1, "speed", Scalar(ScalarI32))
	if Equal(a, b) {
		t.Error("expected modules with different types to differ")
	}
}

func TestEqualDetectsBindingChange(t *testing.T) {
	a := buildVar(1, "speed", Scalar(ScalarF32))
	b := buildVar(1, "speed", Scalar(ScalarF32))
	b.Node(b.Decls[0]).Binding = &ResourceBinding{Group: 0, Binding: 1, HasGroupBinding: true}
	if Equal(a, b) {
		t.Error("expected a module with a binding to differ from one without")
	}
}

func TestEqualDetectsDeclCountChange(t *testing.T) {
	a := buildVar(1, "speed", Scalar(ScalarF32))
	b := buildVar(1, "speed", Scalar(ScalarF32))
	extra := b.Add(Node{Kind: KindVarDecl, Name: "other", Type: Scalar(ScalarF32), Qual: Qualifiers{Location: NoLocation}})
	b.Decls = append(b.Decls, extra)
	if Equal(a, b) {
		t.Error("expected modules with different declaration counts to differ")
	}
}
