package shaderconv

import (
	"context"
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/wgsl"
)

func convert(t *testing.T, source string, src, dst Language, opts Options) Result {
	t.Helper()
	res, err := Convert(context.Background(), Request{
		Source:     source,
		SourceLang: src,
		TargetLang: dst,
		Options:    opts,
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	return res
}

const wgslFragment = `@group(0) @binding(0) var<uniform> time: f32;

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, abs(sin(time)), 1.0);
}
`

func TestConvertWGSLToGLSL(t *testing.T) {
	res := convert(t, wgslFragment, LangWGSL, LangGLSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(wgslFragment))
	}
	for _, want := range []string{
		"#version 330 core",
		"layout(binding = 0) uniform float time;",
		"in vec2 uv;",
		"out vec4 frag_color;",
		"void main()",
	} {
		if !strings.Contains(res.TargetCode, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, res.TargetCode)
		}
	}
}

func TestConvertGLSLToHLSL(t *testing.T) {
	glslSrc := convert(t, wgslFragment, LangWGSL, LangGLSL, Options{}).TargetCode

	res := convert(t, glslSrc, LangGLSL, LangHLSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(glslSrc))
	}
	for _, want := range []string{
		"cbuffer time_cb : register(b0)",
		": SV_Target0",
		"TEXCOORD0",
	} {
		if !strings.Contains(res.TargetCode, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, res.TargetCode)
		}
	}
}

func TestConvertSamplerSplit(t *testing.T) {
	source := `uniform sampler2D tex;
layout(location = 0) in vec2 uv;
out vec4 color;

void main() {
    color = texture2D(tex, uv);
}
`
	res := convert(t, source, LangGLSL, LangWGSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(source))
	}
	for _, want := range []string{
		"var tex: texture_2d<f32>;",
		"var tex_sampler: sampler;",
		"textureSample(tex, tex_sampler, uv)",
	} {
		if !strings.Contains(res.TargetCode, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, res.TargetCode)
		}
	}

	synth := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeSynth {
			synth = true
		}
	}
	if !synth {
		t.Error("expected a SYNTH info for the split sampler")
	}
}

func TestConvertBindingsStayUnique(t *testing.T) {
	source := `uniform sampler2D tex;
layout(binding = 0) uniform float time;
layout(location = 0) in vec2 uv;
out vec4 color;

void main() {
    color = texture2D(tex, uv) * time;
}
`
	res := convert(t, source, LangGLSL, LangWGSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(source))
	}

	m, diags := wgsl.Parse(res.TargetCode)
	if diags.HasErrors() {
		t.Fatalf("output does not re-parse:\n%s", diags.FormatAll(res.TargetCode))
	}
	seen := make(map[string]string)
	for _, id := range m.Resources() {
		n := m.Node(id)
		slot, explicit := n.Binding.EffectiveSlot(ast.LangWGSL)
		if !explicit {
			t.Errorf("resource %q has no explicit binding", n.Name)
			continue
		}
		if other, dup := seen[slot]; dup {
			t.Errorf("%q and %q share slot %s", other, n.Name, slot)
		}
		seen[slot] = n.Name
	}
}

func TestConvertPrecisionDropped(t *testing.T) {
	source := `precision mediump float;
out vec4 color;

void main() {
    color = vec4(1.0);
}
`
	res := convert(t, source, LangGLSL, LangWGSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(source))
	}
	if res.Diagnostics.Count(diag.SeverityWarning) == 0 {
		t.Error("expected a warning for the dropped precision statement")
	}
	if strings.Contains(res.TargetCode, "precision") {
		t.Errorf("expected no precision statement in WGSL, got:\n%s", res.TargetCode)
	}
}

func TestConvertSyntaxErrorFails(t *testing.T) {
	res := convert(t, `fn main( {`, LangWGSL, LangGLSL, Options{})
	if res.Status != StatusFailure {
		t.Fatalf("expected failure, got %s", res.Status)
	}
	if res.TargetCode != "" {
		t.Error("expected no output on failure")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Severity == diag.SeverityError && d.Code == diag.CodeSyntax {
			found = true
		}
	}
	if !found {
		t.Error("expected a SYNTAX error diagnostic")
	}
}

func TestConvertStrictUnsupportedFails(t *testing.T) {
	source := `out vec4 color;

void main() {
    color = vec4(isnan(0.5) ? 1.0 : 0.0);
}
`
	res := convert(t, source, LangGLSL, LangWGSL, Options{Strict: true})
	if res.Status != StatusFailure {
		t.Fatalf("expected strict failure, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(source))
	}
}

func TestConvertLenientUnsupportedKeepsOutput(t *testing.T) {
	source := `out vec4 color;

void main() {
    color = vec4(1.0);
    float bad = mod(3.0, 2.0);
}
`
	res := convert(t, source, LangGLSL, LangWGSL, Options{})
	if res.Status == StatusFailure {
		t.Fatalf("lenient conversion must produce output:\n%s", res.Diagnostics.FormatAll(source))
	}
	if !strings.Contains(res.TargetCode, "// unsupported: mod:") {
		t.Errorf("expected a placeholder comment, got:\n%s", res.TargetCode)
	}
}

func TestConvertErroredFunctionOmitted(t *testing.T) {
	source := `fn good() -> f32 {
    return 1.0;
}

fn bad() -> f32 {
    return missing;
}
`
	res := convert(t, source, LangWGSL, LangGLSL, Options{})
	if res.Status != StatusPartialSuccess {
		t.Fatalf("expected partial success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(source))
	}
	if !strings.Contains(res.TargetCode, `function "bad" omitted`) {
		t.Errorf("expected an omission marker, got:\n%s", res.TargetCode)
	}
	if !strings.Contains(res.TargetCode, "float good(") {
		t.Errorf("expected the clean function converted, got:\n%s", res.TargetCode)
	}
}

func TestConvertAllFunctionsErroredFails(t *testing.T) {
	source := `fn bad() -> f32 {
    return missing;
}
`
	res := convert(t, source, LangWGSL, LangGLSL, Options{})
	if res.Status != StatusFailure {
		t.Fatalf("expected failure when nothing survives, got %s", res.Status)
	}
}

func TestConvertToISF(t *testing.T) {
	res := convert(t, wgslFragment, LangWGSL, LangISF, Options{Description: "Time pulse"})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(wgslFragment))
	}
	for _, want := range []string{
		`"DESCRIPTION": "Time pulse"`,
		`"ISFVSN": "2"`,
		`"NAME": "time"`,
		`"TYPE": "float"`,
	} {
		if !strings.Contains(res.TargetCode, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, res.TargetCode)
		}
	}
	if strings.Contains(res.TargetCode, "uniform float time;") {
		t.Error("host-bound inputs must not be declared in the body")
	}
}

func TestConvertIdentityRoundTrip(t *testing.T) {
	res := convert(t, wgslFragment, LangWGSL, LangWGSL, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s:\n%s", res.Status, res.Diagnostics.FormatAll(wgslFragment))
	}
	first, d1 := wgsl.Parse(wgslFragment)
	second, d2 := wgsl.Parse(res.TargetCode)
	if d1.HasErrors() || d2.HasErrors() {
		t.Fatal("round trip sources must parse")
	}
	if !ast.Equal(first, second) {
		t.Errorf("identity conversion must preserve structure, got:\n%s", res.TargetCode)
	}
}

func TestValidateSource(t *testing.T) {
	if diags := ValidateSource(wgslFragment, LangWGSL); diags.HasErrors() {
		t.Errorf("expected valid source, got:\n%s", diags.FormatAll(wgslFragment))
	}
	if diags := ValidateSource(`fn f() -> f32 { return missing; }`, LangWGSL); !diags.HasErrors() {
		t.Error("expected errors for the unresolved identifier")
	}
}
