package validate

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

func TestCheckValidWGSL(t *testing.T) {
	code := `@group(0) @binding(0) var<uniform> scale: f32;

fn apply(v: f32) -> f32 {
    return clamp(v * scale, 0.0, 1.0);
}

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(apply(uv.x), 0.0, 0.0, 1.0);
}
`
	diags := Check(code, ast.LangWGSL)
	if diags.HasErrors() {
		t.Errorf("expected valid code to pass, got:\n%s", diags.FormatAll(code))
	}
}

func TestCheckRejectsGarbage(t *testing.T) {
	diags := Check(`fn broken( {{{`, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected errors for malformed code")
	}
	found := false
	for _, d := range diags {
		if d.Code == diag.CodeValidation && strings.Contains(d.Message, "does not re-parse") {
			found = true
		}
	}
	if !found {
		t.Error("expected a re-parse validation error")
	}
}

func TestCheckUnknownBuiltin(t *testing.T) {
	code := `fn f(c: vec2<f32>) -> vec4<f32> {
    return texture(c, c);
}
`
	diags := Check(code, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected an error for the foreign builtin")
	}
	if !strings.Contains(diags[0].Message, `does not define "texture"`) {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestCheckUserFunctionsResolve(t *testing.T) {
	code := `float helper(float x) {
    return x * 2.0;
}

void main() {
    float y = helper(0.5);
}
`
	diags := Check(code, ast.LangGLSL)
	if diags.HasErrors() {
		t.Errorf("user functions must resolve, got:\n%s", diags.FormatAll(code))
	}
}

func TestCheckBindingCollision(t *testing.T) {
	code := `@group(0) @binding(0) var<uniform> a: f32;
@group(0) @binding(0) var<uniform> b: f32;
`
	diags := Check(code, ast.LangWGSL)
	if !diags.HasErrors() {
		t.Fatal("expected a binding collision error")
	}
	if !strings.Contains(diags[0].Message, "binding collision in generated code") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestCheckISFHostHelpers(t *testing.T) {
	code := `/*{
  "ISFVSN": "2",
  "INPUTS": [{"NAME": "inputImage", "TYPE": "image"}]
}*/

void main() {
    gl_FragColor = IMG_NORM_PIXEL(inputImage, isf_FragNormCoord);
}
`
	diags := Check(code, ast.LangISF)
	if diags.HasErrors() {
		t.Errorf("ISF host helpers must validate, got:\n%s", diags.FormatAll(code))
	}
}
