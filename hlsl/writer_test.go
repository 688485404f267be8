package hlsl

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

func TestGenerateCbuffer(t *testing.T) {
	out := generateSource(t, `
cbuffer Params : register(b0) {
    float time;
};
`, Options{})
	for _, want := range []string{
		"cbuffer time_cb : register(b0) {",
		"    float time;",
		"};",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateStructCbufferName(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind:    ast.KindVarDecl,
		Name:    "params",
		Type:    ast.Struct("Params"),
		Qual:    ast.Qualifiers{AddressSpace: "uniform", Location: ast.NoLocation},
		Binding: &ast.ResourceBinding{Class: ast.ClassUniformBuffer, Slot: 1, HasRegister: true},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m, Options{})
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(""))
	}
	if !strings.Contains(out, "cbuffer Params_cb : register(b1) {") {
		t.Errorf("expected the buffer named after the struct, got:\n%s", out)
	}
	if !strings.Contains(out, "Params params;") {
		t.Errorf("expected the struct member inside the buffer, got:\n%s", out)
	}
}

func TestGenerateTextureAndSampler(t *testing.T) {
	out := generateSource(t, `
Texture2D<float4> tex : register(t1);
SamplerState samp : register(s0);
`, Options{})
	for _, want := range []string{
		"Texture2D<float4> tex : register(t1);",
		"SamplerState samp : register(s0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateStorageBuffer(t *testing.T) {
	out := generateSource(t, `RWStructuredBuffer<float> data : register(u2);`, Options{})
	if !strings.Contains(out, "RWStructuredBuffer<float> data : register(u2);") {
		t.Errorf("expected a structured buffer, got:\n%s", out)
	}
}

func TestGenerateRegisterSpaces(t *testing.T) {
	source := `Texture2D<float4> tex : register(t0, space1);`

	out := generateSource(t, source, Options{ShaderModel: "5.1"})
	if !strings.Contains(out, "register(t0, space1)") {
		t.Errorf("expected a space on SM 5.1, got:\n%s", out)
	}

	out = generateSource(t, source, Options{ShaderModel: "5.0"})
	if strings.Contains(out, "space1") {
		t.Errorf("expected no space on SM 5.0, got:\n%s", out)
	}
}

func TestGenerateFragmentEntry(t *testing.T) {
	out := generateSource(t, `
float4 main(float2 uv : TEXCOORD0) : SV_Target {
    return float4(uv, 0.0, 1.0);
}
`, Options{})
	for _, want := range []string{
		"float4 main(float2 uv : TEXCOORD0) : SV_Target0 {",
		"return float4(uv, 0.0, 1.0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateVertexEntry(t *testing.T) {
	out := generateSource(t, `
float4 main(float3 pos : POSITION) : SV_Position {
    return float4(pos, 1.0);
}
`, Options{})
	if !strings.Contains(out, ") : SV_Position {") {
		t.Errorf("expected the canonical position semantic, got:\n%s", out)
	}
}

func TestGenerateComputeEntry(t *testing.T) {
	out := generateSource(t, `
[numthreads(8, 4, 1)]
void main(uint3 id : SV_DispatchThreadID) {
}
`, Options{})
	for _, want := range []string{
		"[numthreads(8, 4, 1)]",
		"void main(uint3 id : SV_DispatchThreadID) {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateControlFlow(t *testing.T) {
	out := generateSource(t, `
float f(float x) {
    float acc = 0.0;
    for (int i = 0; i < 4; i += 1) {
        if (x > 0.5) {
            acc += x;
        } else {
            acc -= x;
        }
    }
    return acc;
}
`, Options{})
	for _, want := range []string{
		"for (int i = 0; i < 4; i += 1) {",
		"if (x > 0.5) {",
		"} else {",
		"acc += x;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
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

func TestGenerateMatrixRowsFirst(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind: ast.KindVarDecl,
		Name: "mat",
		Type: ast.Matrix(ast.ScalarF32, 4, 3),
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m, Options{})
	if diags.HasErrors() {
		t.Fatalf("generate failed:\n%s", diags.FormatAll(""))
	}
	if !strings.Contains(out, "float3x4 mat;") {
		t.Errorf("expected rows-first matrix spelling, got:\n%s", out)
	}
}

func TestGenerateRenamesReservedWords(t *testing.T) {
	m := ast.NewModule()
	decl := m.Add(ast.Node{
		Kind: ast.KindVarDecl,
		Name: "template",
		Type: ast.Scalar(ast.ScalarF32),
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	})
	m.Decls = append(m.Decls, decl)

	out, diags := Generate(m, Options{})
	if strings.Contains(out, "float template;") {
		t.Errorf("expected reserved word to be renamed, got:\n%s", out)
	}
	if !strings.Contains(out, "template_") {
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

func TestGenerateGroupshared(t *testing.T) {
	out := generateSource(t, `groupshared float cache[64];`, Options{})
	if !strings.Contains(out, "groupshared float cache[64];") {
		t.Errorf("expected a groupshared array, got:\n%s", out)
	}
}

func TestGenerateRoundTripsStructurally(t *testing.T) {
	source := `cbuffer Globals : register(b0) {
    float scale;
};

Texture2D<float4> tex : register(t0);
SamplerState samp : register(s0);

float4 main(float2 uv : TEXCOORD0) : SV_Target0 {
    float2 p = uv * scale;
    return tex.Sample(samp, p);
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
