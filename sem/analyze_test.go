package sem

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/glsl"
	"github.com/gogpu/shaderconv/wgsl"
)

func parseWGSL(t *testing.T, source string) *ast.Module {
	t.Helper()
	m, diags := wgsl.Parse(source)
	if diags.HasErrors() {
		t.Fatalf("parse failed:\n%s", diags.FormatAll(source))
	}
	return m
}

func TestAnalyzeCleanModule(t *testing.T) {
	m := parseWGSL(t, `
@group(0) @binding(0) var<uniform> scale: f32;

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let p: vec2<f32> = uv * scale;
    return vec4<f32>(p, 0.0, 1.0);
}
`)
	info, diags := Analyze(m, ast.LangWGSL)
	if diags.HasErrors() {
		t.Fatalf("expected no errors, got:\n%s", diags.FormatAll(""))
	}
	if info.Errored(m.Functions()[0]) {
		t.Error("expected main to analyze cleanly")
	}
}

func TestDuplicateGlobal(t *testing.T) {
	m := parseWGSL(t, `
var<private> x: f32;
var<private> x: f32;
`)
	info, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected a duplicate declaration error")
	}
	if !info.ModuleDiags.HasErrors() {
		t.Error("expected the error to be module-level")
	}
	if !strings.Contains(diags[0].Message, `duplicate declaration of "x"`) {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestUnknownIdentifierAttributedToFunction(t *testing.T) {
	m := parseWGSL(t, `
fn ok() -> f32 {
    return 1.0;
}

fn bad() -> f32 {
    return missing;
}
`)
	info, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected an unknown identifier error")
	}
	if info.ModuleDiags.HasErrors() {
		t.Error("body errors must not be module-level")
	}
	fns := m.Functions()
	if info.Errored(fns[0]) {
		t.Error("expected ok to analyze cleanly")
	}
	if !info.Errored(fns[1]) {
		t.Error("expected bad to carry the error")
	}
}

func TestBindingCollision(t *testing.T) {
	m := parseWGSL(t, `
@group(0) @binding(0) var<uniform> a: f32;
@group(0) @binding(0) var<uniform> b: f32;
`)
	info, _ := Analyze(m, ast.LangWGSL)
	if !info.ModuleDiags.HasErrors() {
		t.Fatal("expected a binding collision error")
	}
	if !strings.Contains(info.ModuleDiags[0].Message, "binding collision") {
		t.Errorf("unexpected message %q", info.ModuleDiags[0].Message)
	}
}

func TestGLSLBindingsNamespacedByClass(t *testing.T) {
	m, diags := glsl.Parse(`
layout(binding = 0) uniform float time;
layout(binding = 0) uniform sampler2D tex;
`)
	if diags.HasErrors() {
		t.Fatalf("parse failed:\n%s", diags.FormatAll(""))
	}
	info, _ := Analyze(m, ast.LangGLSL)
	if info.ModuleDiags.HasErrors() {
		t.Errorf("uniform and sampler slots live in separate namespaces, got:\n%s",
			info.ModuleDiags.FormatAll(""))
	}
}

func TestConstructorArity(t *testing.T) {
	m := parseWGSL(t, `
fn f() -> vec3<f32> {
    return vec3<f32>(1.0, 2.0);
}
`)
	info, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected a constructor arity error")
	}
	list := info.FnErrors[m.Functions()[0]]
	if len(list) == 0 || !strings.Contains(list[0].Message, "constructor needs 3 components, got 2") {
		t.Errorf("unexpected diagnostics:\n%s", diags.FormatAll(""))
	}
}

func TestScalarBroadcastAllowed(t *testing.T) {
	m := parseWGSL(t, `
fn f(v: vec4<f32>) -> vec4<f32> {
    return v * 2.0;
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if diags.HasErrors() {
		t.Errorf("scalar broadcast must pass, got:\n%s", diags.FormatAll(""))
	}
}

func TestVectorArityMismatch(t *testing.T) {
	m := parseWGSL(t, `
fn f(a: vec2<f32>, b: vec3<f32>) -> vec2<f32> {
    return a + b;
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected a component count error")
	}
	if !strings.Contains(diags[0].Message, "mismatched component counts") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestMatrixOperandsExempt(t *testing.T) {
	m := parseWGSL(t, `
var<private> mvp: mat4x4<f32>;

fn f(v: vec4<f32>) -> vec4<f32> {
    return mvp * v;
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if diags.HasErrors() {
		t.Errorf("matrix-vector products must pass, got:\n%s", diags.FormatAll(""))
	}
}

func TestAssignToConstant(t *testing.T) {
	m := parseWGSL(t, `
fn f() {
    let x: f32 = 1.0;
    x = 2.0;
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected a constant assignment error")
	}
	if !strings.Contains(diags[0].Message, `cannot assign to constant "x"`) {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestInfersUntypedLocal(t *testing.T) {
	m := parseWGSL(t, `
fn f() {
    var p = vec2<f32>(1.0, 2.0);
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diags.FormatAll(""))
	}
	body := m.Node(m.Body(m.Functions()[0]))
	decl := m.Node(body.Kids[0])
	if !decl.Type.Equal(ast.Vector(ast.ScalarF32, 2)) {
		t.Errorf("expected inferred vec2<f32>, got %s", decl.Type)
	}
}

func TestPredeclaredStageBuiltins(t *testing.T) {
	m, diags := glsl.Parse(`
void main() {
    gl_FragColor = vec4(gl_FragCoord.xy, 0.0, 1.0);
}
`)
	if diags.HasErrors() {
		t.Fatalf("parse failed:\n%s", diags.FormatAll(""))
	}
	_, semDiags := Analyze(m, ast.LangGLSL)
	if semDiags.HasErrors() {
		t.Errorf("stage builtins must resolve, got:\n%s", semDiags.FormatAll(""))
	}
}

func TestUnknownStructField(t *testing.T) {
	m := parseWGSL(t, `
struct Params {
    scale: f32,
}

var<private> p: Params;

fn f() -> f32 {
    return p.missing;
}
`)
	_, diags := Analyze(m, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected an unknown field error")
	}
	if !strings.Contains(diags[0].Message, `struct "Params" has no field "missing"`) {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}
