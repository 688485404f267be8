package wgsl

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

func generateSource(t *testing.T, source string) string {
	t.Helper()
	m := parseSource(t, source)
	out, diags := Generate(m)
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(source))
	}
	return out
}

func TestGenerateUniform(t *testing.T) {
	out := generateSource(t, `@group(0) @binding(0) var<uniform> time: f32;`)
	want := "@group(0) @binding(0) var<uniform> time: f32;"
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestGenerateStorageAccess(t *testing.T) {
	out := generateSource(t, `@group(0) @binding(1) var<storage, read> data: array<f32>;`)
	want := "var<storage, read> data: array<f32>;"
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestGenerateTextureAndSampler(t *testing.T) {
	out := generateSource(t, `
@group(0) @binding(0) var tex: texture_2d<f32>;
@group(0) @binding(1) var samp: sampler;
`)
	for _, want := range []string{
		"var tex: texture_2d<f32>;",
		"var samp: sampler;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateFragmentEntry(t *testing.T) {
	out := generateSource(t, `
@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`)
	for _, want := range []string{
		"@fragment",
		"fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {",
		"return vec4<f32>(uv, 0.0, 1.0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateComputeEntry(t *testing.T) {
	out := generateSource(t, `
@compute @workgroup_size(8, 4, 1)
fn cs() {
}
`)
	if !strings.Contains(out, "@compute @workgroup_size(8, 4, 1)") {
		t.Errorf("expected workgroup size attribute, got:\n%s", out)
	}
}

func TestGenerateLocals(t *testing.T) {
	out := generateSource(t, `
fn f() {
    let x: f32 = 1.0;
    var y: f32 = 2.0;
}
`)
	for _, want := range []string{
		"let x: f32 = 1.0;",
		"var y: f32 = 2.0;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateControlFlow(t *testing.T) {
	out := generateSource(t, `
fn f(x: f32) -> f32 {
    var acc: f32 = 0.0;
    for (var i: i32 = 0; i < 4; i++) {
        if x > 0.5 {
            acc += x;
        } else {
            acc -= x;
        }
    }
    return acc;
}
`)
	for _, want := range []string{
		"for (var i: i32 = 0; i < 4; i += 1) {",
		"if x > 0.5 {",
		"} else {",
		"acc += x;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateTernaryAsSelect(t *testing.T) {
	m := ast.NewModule()
	cond := m.Add(ast.Node{Kind: ast.KindIdent, Name: "flag"})
	then := m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitFloat, Text: "1.0"})
	els := m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitFloat, Text: "0.0"})
	tern := m.Add(ast.Node{Kind: ast.KindTernary, Kids: []ast.NodeID{cond, then, els}})
	ret := m.Add(ast.Node{Kind: ast.KindReturn, Kids: []ast.NodeID{tern}})
	body := m.Add(ast.Node{Kind: ast.KindBlock, Kids: []ast.NodeID{ret}})
	param := m.Add(ast.Node{
		Kind: ast.KindParam, Name: "flag",
		Type: ast.Scalar(ast.ScalarBool),
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	})
	fn := m.Add(ast.Node{
		Kind: ast.KindFunctionDef, Name: "pick",
		Type: ast.Scalar(ast.ScalarF32),
		Qual: ast.Qualifiers{Location: ast.NoLocation},
		Kids: []ast.NodeID{param, body},
	})
	m.Decls = append(m.Decls, fn)

	out, diags := Generate(m)
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(""))
	}
	if !strings.Contains(out, "select(0.0, 1.0, flag)") {
		t.Errorf("expected ternary to render as select, got:\n%s", out)
	}
}

func TestGenerateRenamesReservedWords(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind: ast.KindVarDecl, Name: "loop",
		Type: ast.Scalar(ast.ScalarF32),
		Qual: ast.Qualifiers{AddressSpace: "private", Location: ast.NoLocation},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m)
	if strings.Contains(out, "var<private> loop:") {
		t.Errorf("expected reserved word to be renamed, got:\n%s", out)
	}
	if !strings.Contains(out, "loop_") {
		t.Errorf("expected renamed identifier, got:\n%s", out)
	}
	renamed := false
	for _, d := range diags {
		if d.Code == diag.CodeRename {
			renamed = true
		}
	}
	if !renamed {
		t.Error("expected a RENAME diagnostic")
	}
}

func TestGenerateRoundTripsStructurally(t *testing.T) {
	source := `@group(0) @binding(0) var<uniform> scale: f32;

fn apply(v: vec2<f32>) -> vec2<f32> {
    return v * scale;
}

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(apply(uv), 0.0, 1.0);
}
`
	first := parseSource(t, source)
	out, diags := Generate(first)
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(source))
	}
	second := parseSource(t, out)
	if !ast.Equal(first, second) {
		t.Errorf("expected generated output to re-parse to the same module, got:\n%s", out)
	}
}
