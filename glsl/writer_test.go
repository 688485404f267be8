package glsl

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

func generateSource(t *testing.T, source string, opts Options) string {
	t.Helper()
	m := parseSource(t, source)
	out, diags := Generate(m, opts)
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(source))
	}
	return out
}

func TestGenerateVersionHeader(t *testing.T) {
	out := generateSource(t, `void main() {}`, Options{})
	if !strings.HasPrefix(out, "#version 330 core\n") {
		t.Errorf("expected default version header, got:\n%s", out)
	}
}

func TestGenerateESHeader(t *testing.T) {
	out := generateSource(t, `void main() {}`, Options{Version: 300, ES: true})
	if !strings.HasPrefix(out, "#version 300 es\n") {
		t.Errorf("expected es version header, got:\n%s", out)
	}
	if !strings.Contains(out, "precision mediump float;") {
		t.Errorf("expected default precision for ES, got:\n%s", out)
	}
}

func TestGenerateESKeepsExplicitPrecision(t *testing.T) {
	out := generateSource(t, `precision highp float;
void main() {}`, Options{Version: 300, ES: true})
	if strings.Contains(out, "precision mediump float;") {
		t.Errorf("expected explicit precision to suppress the default, got:\n%s", out)
	}
	if !strings.Contains(out, "precision highp float;") {
		t.Errorf("expected explicit precision to survive, got:\n%s", out)
	}
}

func TestGenerateNoVersion(t *testing.T) {
	out := generateSource(t, `void main() {}`, Options{NoVersion: true})
	if strings.Contains(out, "#version") {
		t.Errorf("expected no version directive, got:\n%s", out)
	}
}

func TestGenerateScalarUniform(t *testing.T) {
	out := generateSource(t, `layout(binding = 0) uniform float time;`, Options{})
	if !strings.Contains(out, "layout(binding = 0) uniform float time;") {
		t.Errorf("expected a bound scalar uniform, got:\n%s", out)
	}
}

func TestGenerateCombinedSampler(t *testing.T) {
	out := generateSource(t, `layout(binding = 1) uniform sampler2D tex;`, Options{})
	if !strings.Contains(out, "layout(binding = 1) uniform sampler2D tex;") {
		t.Errorf("expected a combined sampler uniform, got:\n%s", out)
	}
}

func TestGenerateUniformBlock(t *testing.T) {
	out := generateSource(t, `
layout(std140, binding = 0) uniform Params {
    float time;
    vec2 resolution;
} params;
`, Options{})
	for _, want := range []string{
		"struct Params {",
		"layout(std140, binding = 0) uniform Params_block {",
		"Params params;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateStageIO(t *testing.T) {
	out := generateSource(t, `
layout(location = 0) in vec2 uv;
out vec4 color;
void main() {
    color = vec4(uv, 0.0, 1.0);
}
`, Options{})
	for _, want := range []string{
		"layout(location = 0) in vec2 uv;",
		"out vec4 color;",
		"void main() {",
		"color = vec4(uv, 0.0, 1.0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateComputeLayout(t *testing.T) {
	out := generateSource(t, `
layout(local_size_x = 8, local_size_y = 4) in;
void main() {
}
`, Options{Version: 430})
	if !strings.Contains(out, "layout(local_size_x = 8, local_size_y = 4, local_size_z = 1) in;") {
		t.Errorf("expected a local_size layout, got:\n%s", out)
	}
}

func TestGenerateSeparateSamplerDropped(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind:    ast.KindVarDecl,
		Name:    "samp",
		Type:    ast.Sampler(false),
		Qual:    ast.Qualifiers{Location: ast.NoLocation},
		Binding: &ast.ResourceBinding{Class: ast.ClassSampler},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m, Options{})
	if !strings.Contains(out, "// separate sampler") {
		t.Errorf("expected a placeholder comment, got:\n%s", out)
	}
	found := false
	for _, d := range diags {
		if d.Code == diag.CodeUnsupported && d.Severity == diag.SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Error("expected an UNSUP warning for the dropped sampler")
	}
}

func TestGenerateRenamesGLPrefix(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind: ast.KindVarDecl,
		Name: "gl_custom",
		Type: ast.Scalar(ast.ScalarF32),
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m, Options{})
	if strings.Contains(out, "float gl_custom;") {
		t.Errorf("expected gl_ identifier to be renamed, got:\n%s", out)
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

func TestGenerateTernary(t *testing.T) {
	out := generateSource(t, `
float pick(float x) {
    return x > 0.5 ? 1.0 : 0.0;
}
`, Options{})
	if !strings.Contains(out, "return (x > 0.5 ? 1.0 : 0.0);") {
		t.Errorf("expected a parenthesized ternary, got:\n%s", out)
	}
}

func TestGenerateArrayDecl(t *testing.T) {
	out := generateSource(t, `
void main() {
    float weights[4];
}
`, Options{})
	if !strings.Contains(out, "float weights[4];") {
		t.Errorf("expected array dimensions on the name, got:\n%s", out)
	}
}

func TestGenerateRoundTripsStructurally(t *testing.T) {
	source := `#version 330 core

layout(binding = 0) uniform float scale;
layout(location = 0) in vec2 uv;
out vec4 color;

void main() {
    vec2 p = uv * scale;
    color = vec4(p, 0.0, 1.0);
}
`
	first := parseSource(t, source)
	out, diags := Generate(first, Options{})
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(source))
	}
	second := parseSource(t, out)
	if !ast.Equal(first, second) {
		t.Errorf("expected generated output to re-parse to the same module, got:\n%s", out)
	}
}
