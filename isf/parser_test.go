package isf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

const commentHeaderDoc = `/*{
  "DESCRIPTION": "Pulsing color",
  "CREDIT": "example",
  "ISFVSN": "2",
  "INPUTS": [
    {"NAME": "speed", "TYPE": "float", "DEFAULT": 1.0},
    {"NAME": "tint", "TYPE": "color"},
    {"NAME": "inputImage", "TYPE": "image"}
  ]
}*/

void main() {
    vec4 base = texture2D(inputImage, isf_FragNormCoord);
    gl_FragColor = base * tint * abs(sin(TIME * speed));
}
`

func TestDecodeCommentHeader(t *testing.T) {
	md, body, err := Decode(commentHeaderDoc)
	require.NoError(t, err)

	assert.Equal(t, "Pulsing color", md.Description)
	assert.Equal(t, "example", md.Credit)
	require.Len(t, md.Inputs, 3)
	assert.Equal(t, "speed", md.Inputs[0].Name)
	assert.Equal(t, "float", md.Inputs[0].Type)

	assert.Contains(t, body, "void main()")
	assert.NotContains(t, body, "DESCRIPTION")
}

func TestDecodePreservesLineNumbers(t *testing.T) {
	_, body, err := Decode(commentHeaderDoc)
	require.NoError(t, err)
	assert.Equal(t, strings.Count(commentHeaderDoc, "\n"), strings.Count(body, "\n"),
		"blanked header must keep the body's line numbering")
}

func TestDecodeBareJSON(t *testing.T) {
	doc := `{
  "ISFVSN": "2",
  "INPUTS": [{"NAME": "level", "TYPE": "float"}],
  "FRAGMENT_SHADER": "void main() { gl_FragColor = vec4(level); }"
}`
	md, body, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, md.Inputs, 1)
	assert.Equal(t, "level", md.Inputs[0].Name)
	assert.Equal(t, "void main() { gl_FragColor = vec4(level); }", body)
}

func TestDecodeMissingHeader(t *testing.T) {
	_, body, err := Decode("void main() {}\n")
	assert.Error(t, err)
	assert.Contains(t, body, "void main")
}

func TestDecodeUnterminatedHeader(t *testing.T) {
	_, _, err := Decode(`/*{"ISFVSN": "2"`)
	assert.Error(t, err)
}

func TestParseSynthesizesHostUniforms(t *testing.T) {
	m, diags := Parse(commentHeaderDoc)
	require.False(t, diags.HasErrors(), "parse failed:\n%s", diags.FormatAll(commentHeaderDoc))

	for _, name := range []string{"RENDERSIZE", "TIME", "isf_FragNormCoord", "speed", "tint", "inputImage"} {
		n := findByName(t, m, name)
		assert.Equal(t, "uniform", n.Qual.AddressSpace, name)
		require.NotNil(t, n.Binding, name)
	}

	img := findByName(t, m, "inputImage")
	assert.Equal(t, ast.ClassTexture, img.Binding.Class)
	assert.True(t, img.Type.Combined, "image inputs bind as combined samplers")

	tint := findByName(t, m, "tint")
	assert.True(t, tint.Type.Equal(ast.Vector(ast.ScalarF32, 4)))
}

func TestParseMarksMainFragment(t *testing.T) {
	m, diags := Parse(commentHeaderDoc)
	require.False(t, diags.HasErrors())

	fns := m.Functions()
	require.Len(t, fns, 1)
	assert.Equal(t, ast.StageFragment, m.Node(fns[0]).Qual.Stage)
}

func TestParseUnsupportedInputType(t *testing.T) {
	doc := `/*{
  "INPUTS": [{"NAME": "weird", "TYPE": "matrix"}]
}*/

void main() {
    gl_FragColor = vec4(1.0);
}
`
	m, diags := Parse(doc)
	require.False(t, diags.HasErrors())
	assert.NotZero(t, diags.Count(diag.SeverityWarning), "expected a warning for the unsupported input type")
	for _, id := range m.Decls {
		assert.NotEqual(t, "weird", m.Node(id).Name, "unsupported inputs must not be declared")
	}
}

func TestParseBadMetadataKeepsBody(t *testing.T) {
	doc := `/*{ not json }*/

void main() {
    gl_FragColor = vec4(1.0);
}
`
	m, diags := Parse(doc)
	assert.True(t, diags.HasErrors())
	require.Len(t, m.Functions(), 1, "body should still parse")
}

func findByName(t *testing.T, m *ast.Module, name string) *ast.Node {
	t.Helper()
	for _, id := range m.Decls {
		if m.Node(id).Name == name {
			return m.Node(id)
		}
	}
	t.Fatalf("declaration %q not found", name)
	return nil
}
