package glsl

import (
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

func parseSource(t *testing.T, source string) *ast.Module {
	t.Helper()
	m, diags := Parse(source)
	if diags.HasErrors() {
		t.Fatalf("parse failed:\n%s", diags.FormatAll(source))
	}
	return m
}

func findDecl(t *testing.T, m *ast.Module, name string) *ast.Node {
	t.Helper()
	for _, id := range m.Decls {
		if m.Node(id).Name == name {
			return m.Node(id)
		}
	}
	t.Fatalf("declaration %q not found", name)
	return nil
}

func TestParseSkipsVersionDirective(t *testing.T) {
	m := parseSource(t, `#version 330 core
void main() {
}
`)
	if len(m.Functions()) != 1 {
		t.Fatalf("expected 1 function, got %d", len(m.Functions()))
	}
}

func TestParseUniformWithBinding(t *testing.T) {
	m := parseSource(t, `layout(binding = 3) uniform float time;`)
	n := findDecl(t, m, "time")
	if n.Qual.AddressSpace != "uniform" {
		t.Errorf("expected uniform address space, got %q", n.Qual.AddressSpace)
	}
	if n.Binding == nil {
		t.Fatal("expected a resource binding")
	}
	if !n.Binding.HasLayout || n.Binding.Layout != 3 {
		t.Errorf("expected layout binding 3, got %d (has=%v)", n.Binding.Layout, n.Binding.HasLayout)
	}
	if n.Binding.Class != ast.ClassUniformBuffer {
		t.Errorf("expected uniform class, got %s", n.Binding.Class)
	}
}

func TestParseCombinedSampler(t *testing.T) {
	m := parseSource(t, `uniform sampler2D tex;`)
	n := findDecl(t, m, "tex")
	if n.Type.Kind != ast.TypeTexture || n.Type.Dim != ast.Dim2D {
		t.Fatalf("expected a 2d texture, got %s", n.Type)
	}
	if !n.Type.Combined {
		t.Error("expected sampler2D to parse as a combined texture")
	}
	if n.Binding == nil || n.Binding.Class != ast.ClassTexture {
		t.Error("expected texture class")
	}
}

func TestParseStageIO(t *testing.T) {
	m := parseSource(t, `
layout(location = 1) in vec2 uv;
out vec4 color;
`)
	in := findDecl(t, m, "uv")
	if in.Qual.InOut != "in" || in.Qual.Location != 1 {
		t.Errorf("expected in at location 1, got %q at %d", in.Qual.InOut, in.Qual.Location)
	}
	out := findDecl(t, m, "color")
	if out.Qual.InOut != "out" {
		t.Errorf("expected out qualifier, got %q", out.Qual.InOut)
	}
	if out.Qual.Location != ast.NoLocation {
		t.Errorf("expected no explicit location, got %d", out.Qual.Location)
	}
}

func TestInferFragmentStage(t *testing.T) {
	m := parseSource(t, `
out vec4 color;
void main() {
    color = vec4(1.0);
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageFragment {
		t.Errorf("expected fragment stage, got %s", fn.Qual.Stage)
	}
}

func TestInferVertexStage(t *testing.T) {
	m := parseSource(t, `
in vec3 pos;
void main() {
    gl_Position = vec4(pos, 1.0);
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageVertex {
		t.Errorf("expected vertex stage, got %s", fn.Qual.Stage)
	}
}

func TestInferComputeStage(t *testing.T) {
	m := parseSource(t, `
layout(local_size_x = 8, local_size_y = 4) in;
void main() {
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageCompute {
		t.Errorf("expected compute stage, got %s", fn.Qual.Stage)
	}
	if fn.Qual.Workgroup != [3]uint32{8, 4, 1} {
		t.Errorf("expected workgroup 8x4x1, got %v", fn.Qual.Workgroup)
	}
}

func TestParsePrecisionDecl(t *testing.T) {
	m := parseSource(t, `precision mediump float;`)
	if len(m.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(m.Decls))
	}
	n := m.Node(m.Decls[0])
	if n.Kind != ast.KindPrecisionDecl {
		t.Fatalf("expected a precision declaration, got kind %d", n.Kind)
	}
	if n.Text != "mediump float" {
		t.Errorf("expected %q, got %q", "mediump float", n.Text)
	}
}

func TestParseDefineBecomesConst(t *testing.T) {
	m := parseSource(t, `#define PI 3.14159
void main() {
}
`)
	n := findDecl(t, m, "PI")
	if n.Kind != ast.KindVarDecl || !n.Qual.Const {
		t.Fatal("expected #define to parse as a constant")
	}
	if len(n.Kids) != 1 {
		t.Fatalf("expected an initializer, got %d kids", len(n.Kids))
	}
	if m.Node(n.Kids[0]).Text != "3.14159" {
		t.Errorf("expected 3.14159 initializer, got %q", m.Node(n.Kids[0]).Text)
	}
}

func TestParseFunctionMacroWarns(t *testing.T) {
	_, diags := Parse(`#define SQ(x) ((x) * (x))
void main() {
}
`)
	if diags.HasErrors() {
		t.Fatalf("expected warnings only, got:\n%s", diags.FormatAll(""))
	}
	if diags.Count(diag.SeverityWarning) == 0 {
		t.Error("expected a warning for the function-like macro")
	}
}

func TestParseDoWhileBecomesWhile(t *testing.T) {
	m, diags := Parse(`
void main() {
    int i = 0;
    do {
        i++;
    } while (i < 4);
}
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diags.FormatAll(""))
	}
	if diags.Count(diag.SeverityWarning) == 0 {
		t.Error("expected a warning for the do-while conversion")
	}
	body := m.Node(m.Body(m.Functions()[0]))
	found := false
	for _, sid := range body.Kids {
		if m.Node(sid).Kind == ast.KindWhile {
			found = true
		}
	}
	if !found {
		t.Error("expected do-while to lower to a while loop")
	}
}

func TestParseSwitchBecomesComment(t *testing.T) {
	m, diags := Parse(`
void main() {
    int x = 1;
    switch (x) {
    case 1:
        break;
    }
}
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diags.FormatAll(""))
	}
	if diags.Count(diag.SeverityWarning) == 0 {
		t.Error("expected a warning for the omitted switch")
	}
	body := m.Node(m.Body(m.Functions()[0]))
	found := false
	for _, sid := range body.Kids {
		n := m.Node(sid)
		if n.Kind == ast.KindComment && n.Text == "unsupported: switch statement" {
			found = true
		}
	}
	if !found {
		t.Error("expected a placeholder comment for the switch")
	}
}

func TestParseTernary(t *testing.T) {
	m := parseSource(t, `
float pick(float x) {
    return x > 0.5 ? 1.0 : 0.0;
}
`)
	var tern *ast.Node
	m.Walk(m.Body(m.Functions()[0]), func(id ast.NodeID) bool {
		if m.Node(id).Kind == ast.KindTernary {
			tern = m.Node(id)
		}
		return true
	})
	if tern == nil {
		t.Fatal("expected a ternary expression")
	}
	if len(tern.Kids) != 3 {
		t.Errorf("expected 3 operands, got %d", len(tern.Kids))
	}
}

func TestParseNamedUniformBlock(t *testing.T) {
	m := parseSource(t, `
layout(std140, binding = 0) uniform Params {
    float time;
    vec2 resolution;
} params;
`)
	st := findDecl(t, m, "Params")
	if st.Kind != ast.KindStructDecl || len(st.Kids) != 2 {
		t.Fatalf("expected a 2-field struct, got kind %d with %d kids", st.Kind, len(st.Kids))
	}
	v := findDecl(t, m, "params")
	if v.Kind != ast.KindVarDecl || !v.Type.Equal(ast.Struct("Params")) {
		t.Fatalf("expected a Params-typed variable, got %s", v.Type)
	}
	if v.Binding == nil || !v.Binding.HasLayout || v.Binding.Layout != 0 {
		t.Error("expected the block binding on the instance variable")
	}
}

func TestParseUnnamedUniformBlockScattersMembers(t *testing.T) {
	m := parseSource(t, `
layout(binding = 2) uniform Globals {
    float time;
    vec2 resolution;
};
`)
	timeDecl := findDecl(t, m, "time")
	if timeDecl.Qual.AddressSpace != "uniform" {
		t.Errorf("expected uniform member, got %q", timeDecl.Qual.AddressSpace)
	}
	if timeDecl.Binding == nil || !timeDecl.Binding.HasLayout || timeDecl.Binding.Layout != 2 {
		t.Error("expected the block's explicit binding on the first member")
	}
	res := findDecl(t, m, "resolution")
	if res.Binding == nil || res.Binding.HasLayout {
		t.Error("expected later members to take remapped bindings")
	}
}

func TestParseDeclaratorList(t *testing.T) {
	m := parseSource(t, `
void main() {
    float a = 1.0, b = 2.0;
}
`)
	body := m.Node(m.Body(m.Functions()[0]))
	if len(body.Kids) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(body.Kids))
	}
	if m.Node(body.Kids[0]).Name != "a" || m.Node(body.Kids[1]).Name != "b" {
		t.Error("expected declarators a and b in order")
	}
}

func TestParseArraySuffix(t *testing.T) {
	m := parseSource(t, `uniform vec4 colors[4];`)
	n := findDecl(t, m, "colors")
	want := ast.Array(ast.Vector(ast.ScalarF32, 4), 4)
	if !n.Type.Equal(want) {
		t.Errorf("expected %s, got %s", want, n.Type)
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	source := `
uniform float broken
void main() {
}
`
	m, diags := Parse(source)
	if !diags.HasErrors() {
		t.Fatal("expected a syntax error")
	}
	found := false
	for _, fn := range m.Functions() {
		if m.Node(fn).Name == "main" {
			found = true
		}
	}
	if !found {
		t.Error("expected parser to recover and keep main")
	}
}
