package hlsl

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

func TestParseCbufferScattersMembers(t *testing.T) {
	m := parseSource(t, `
cbuffer Params : register(b0) {
    float time;
    float2 resolution;
};
`)
	timeDecl := findDecl(t, m, "time")
	if timeDecl.Qual.AddressSpace != "uniform" {
		t.Errorf("expected uniform member, got %q", timeDecl.Qual.AddressSpace)
	}
	if timeDecl.Binding == nil || !timeDecl.Binding.HasRegister || timeDecl.Binding.Slot != 0 {
		t.Error("expected the buffer register on the first member")
	}
	if timeDecl.Binding.Class != ast.ClassUniformBuffer {
		t.Errorf("expected uniform class, got %s", timeDecl.Binding.Class)
	}
	res := findDecl(t, m, "resolution")
	if res.Binding == nil || res.Binding.HasRegister {
		t.Error("expected later members to take remapped bindings")
	}
}

func TestParseTextureRegister(t *testing.T) {
	m := parseSource(t, `Texture2D<float4> tex : register(t1);`)
	n := findDecl(t, m, "tex")
	if n.Type.Kind != ast.TypeTexture || n.Type.Dim != ast.Dim2D {
		t.Fatalf("expected a 2d texture, got %s", n.Type)
	}
	if n.Type.Combined {
		t.Error("HLSL textures are never combined")
	}
	if n.Binding == nil || !n.Binding.HasRegister || n.Binding.Slot != 1 {
		t.Error("expected register t1")
	}
	if n.Binding.Class != ast.ClassTexture {
		t.Errorf("expected texture class, got %s", n.Binding.Class)
	}
}

func TestParseSamplers(t *testing.T) {
	m := parseSource(t, `
SamplerState samp : register(s0);
SamplerComparisonState shadowSamp : register(s1);
`)
	samp := findDecl(t, m, "samp")
	if samp.Type.Kind != ast.TypeSampler || samp.Type.Comparison {
		t.Errorf("expected a plain sampler, got %s", samp.Type)
	}
	if samp.Binding == nil || samp.Binding.Class != ast.ClassSampler {
		t.Error("expected sampler class")
	}
	shadow := findDecl(t, m, "shadowSamp")
	if !shadow.Type.Comparison {
		t.Error("expected a comparison sampler")
	}
}

func TestParseStructuredBuffers(t *testing.T) {
	m := parseSource(t, `
StructuredBuffer<float4> src : register(t0);
RWStructuredBuffer<float> dst : register(u2);
`)
	src := findDecl(t, m, "src")
	if src.Qual.AddressSpace != "storage" || src.Qual.AccessMode != "read" {
		t.Errorf("expected read-only storage, got %q %q", src.Qual.AddressSpace, src.Qual.AccessMode)
	}
	if src.Binding == nil || src.Binding.Class != ast.ClassStorageBuffer {
		t.Error("expected storage buffer class")
	}
	dst := findDecl(t, m, "dst")
	if dst.Qual.AccessMode != "read_write" {
		t.Errorf("expected read_write access, got %q", dst.Qual.AccessMode)
	}
	if dst.Type.Kind != ast.TypeArray || dst.Type.Len != 0 {
		t.Errorf("expected a runtime-sized array, got %s", dst.Type)
	}
	if !dst.Type.Elem.Equal(ast.Scalar(ast.ScalarF32)) {
		t.Errorf("expected float elements, got %s", dst.Type.Elem)
	}
	if dst.Binding == nil || dst.Binding.Slot != 2 {
		t.Error("expected register u2")
	}
}

func TestParseNumthreads(t *testing.T) {
	m := parseSource(t, `
[numthreads(8, 4, 1)]
void main(uint3 id : SV_DispatchThreadID) {
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageCompute {
		t.Errorf("expected compute stage, got %s", fn.Qual.Stage)
	}
	if fn.Qual.Workgroup != [3]uint32{8, 4, 1} {
		t.Errorf("expected workgroup 8x4x1, got %v", fn.Qual.Workgroup)
	}
	p := m.Node(m.Params(m.Functions()[0])[0])
	if p.Qual.Builtin != "global_invocation_id" {
		t.Errorf("expected global_invocation_id builtin, got %q", p.Qual.Builtin)
	}
}

func TestInferFragmentFromTarget(t *testing.T) {
	m := parseSource(t, `
float4 main(float2 uv : TEXCOORD0) : SV_Target {
    return float4(uv, 0.0, 1.0);
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageFragment {
		t.Errorf("expected fragment stage, got %s", fn.Qual.Stage)
	}
	if fn.Qual.Location != 0 {
		t.Errorf("expected return location 0, got %d", fn.Qual.Location)
	}
	p := m.Node(m.Params(m.Functions()[0])[0])
	if p.Qual.Location != 0 {
		t.Errorf("expected uv at location 0, got %d", p.Qual.Location)
	}
}

func TestInferVertexFromPosition(t *testing.T) {
	m := parseSource(t, `
float4 main(float3 pos : POSITION) : SV_Position {
    return float4(pos, 1.0);
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageVertex {
		t.Errorf("expected vertex stage, got %s", fn.Qual.Stage)
	}
	if fn.Qual.Builtin != "position" {
		t.Errorf("expected position builtin on return, got %q", fn.Qual.Builtin)
	}
	p := m.Node(m.Params(m.Functions()[0])[0])
	if p.Qual.Builtin != "position" {
		t.Errorf("expected position builtin on parameter, got %q", p.Qual.Builtin)
	}
}

func TestSemanticsAreCaseInsensitive(t *testing.T) {
	m := parseSource(t, `
float4 main() : sv_target2 {
    return float4(0.0, 0.0, 0.0, 1.0);
}
`)
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageFragment {
		t.Errorf("expected fragment stage, got %s", fn.Qual.Stage)
	}
	if fn.Qual.Location != 2 {
		t.Errorf("expected target index 2, got %d", fn.Qual.Location)
	}
}

func TestParseMatrixDims(t *testing.T) {
	m := parseSource(t, `
void main() {
    float3x4 mat;
}
`)
	body := m.Node(m.Body(m.Functions()[0]))
	n := m.Node(body.Kids[0])
	if n.Type.Kind != ast.TypeMatrix {
		t.Fatalf("expected a matrix, got %s", n.Type)
	}
	if n.Type.Rows != 3 || n.Type.Cols != 4 {
		t.Errorf("expected 3 rows and 4 columns, got %dx%d", n.Type.Rows, n.Type.Cols)
	}
}

func TestParseSampleMethodCall(t *testing.T) {
	m := parseSource(t, `
Texture2D<float4> tex : register(t0);
SamplerState samp : register(s0);

float4 main(float2 uv : TEXCOORD0) : SV_Target {
    return tex.Sample(samp, uv);
}
`)
	var call *ast.Node
	m.Walk(m.Body(m.Functions()[0]), func(id ast.NodeID) bool {
		n := m.Node(id)
		if n.Kind == ast.KindCall && n.Method {
			call = n
		}
		return true
	})
	if call == nil {
		t.Fatal("expected a method call")
	}
	if call.Name != "Sample" {
		t.Errorf("expected Sample, got %q", call.Name)
	}
	if len(call.Kids) != 3 {
		t.Fatalf("expected receiver plus 2 arguments, got %d kids", len(call.Kids))
	}
	if m.Node(call.Kids[0]).Name != "tex" {
		t.Errorf("expected tex receiver, got %q", m.Node(call.Kids[0]).Name)
	}
}

func TestParseDefineBecomesConst(t *testing.T) {
	m := parseSource(t, `#define STEPS 16
void main() {
}
`)
	n := findDecl(t, m, "STEPS")
	if n.Kind != ast.KindVarDecl || !n.Qual.Const {
		t.Fatal("expected #define to parse as a constant")
	}
	if len(n.Kids) != 1 || m.Node(n.Kids[0]).Text != "16" {
		t.Error("expected a literal 16 initializer")
	}
}

func TestParseGroupshared(t *testing.T) {
	m := parseSource(t, `groupshared float cache[64];`)
	n := findDecl(t, m, "cache")
	if n.Qual.AddressSpace != "workgroup" {
		t.Errorf("expected workgroup address space, got %q", n.Qual.AddressSpace)
	}
	want := ast.Array(ast.Scalar(ast.ScalarF32), 64)
	if !n.Type.Equal(want) {
		t.Errorf("expected %s, got %s", want, n.Type)
	}
}

func TestStructStageInference(t *testing.T) {
	m := parseSource(t, `
struct VSOut {
    float4 pos : SV_Position;
    float2 uv : TEXCOORD0;
};

VSOut main(float3 p : POSITION) {
    VSOut o;
    o.pos = float4(p, 1.0);
    o.uv = p.xy;
    return o;
}
`)
	st := findDecl(t, m, "VSOut")
	if st.Kind != ast.KindStructDecl || len(st.Kids) != 2 {
		t.Fatalf("expected a 2-field struct, got kind %d with %d kids", st.Kind, len(st.Kids))
	}
	if m.Node(st.Kids[0]).Qual.Builtin != "position" {
		t.Errorf("expected position builtin, got %q", m.Node(st.Kids[0]).Qual.Builtin)
	}
	if m.Node(st.Kids[1]).Qual.Location != 0 {
		t.Errorf("expected location 0, got %d", m.Node(st.Kids[1]).Qual.Location)
	}
	fn := m.Node(m.Functions()[0])
	if fn.Qual.Stage != ast.StageVertex {
		t.Errorf("expected vertex stage from the output struct, got %s", fn.Qual.Stage)
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	source := `
float broken
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

func TestParseUnknownDirectiveWarns(t *testing.T) {
	_, diags := Parse(`#if defined(FOO)
void main() {
}
`)
	if diags.Count(diag.SeverityWarning) == 0 {
		t.Error("expected a warning for the unexpanded directive")
	}
}
