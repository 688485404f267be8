package isf

import (
	json "github.com/goccy/go-json"

	"github.com/gogpu/shaderconv/ast"
)

// Metadata is the JSON header of an ISF document.
type Metadata struct {
	Description string   `json:"DESCRIPTION,omitempty"`
	Credit      string   `json:"CREDIT,omitempty"`
	ISFVSN      string   `json:"ISFVSN,omitempty"`
	VSN         string   `json:"VSN,omitempty"`
	Categories  []string `json:"CATEGORIES,omitempty"`
	Inputs      []Input  `json:"INPUTS,omitempty"`
	Passes      []Pass   `json:"PASSES,omitempty"`

	// FragmentShader holds the body in the bare-JSON container form.
	FragmentShader string `json:"FRAGMENT_SHADER,omitempty"`
	VertexShader   string `json:"VERTEX_SHADER,omitempty"`
}

// Input is one host-bound parameter.
type Input struct {
	Name    string    `json:"NAME"`
	Type    string    `json:"TYPE"`
	Label   string    `json:"LABEL,omitempty"`
	Default any       `json:"DEFAULT,omitempty"`
	Min     any       `json:"MIN,omitempty"`
	Max     any       `json:"MAX,omitempty"`
	Values  []int64   `json:"VALUES,omitempty"`
	Labels  []string  `json:"LABELS,omitempty"`
	Identity []float64 `json:"IDENTITY,omitempty"`
}

// Pass describes one render pass of a multipass document.
type Pass struct {
	Target     string `json:"TARGET,omitempty"`
	Persistent bool   `json:"PERSISTENT,omitempty"`
	Float      bool   `json:"FLOAT,omitempty"`
	Width      string `json:"WIDTH,omitempty"`
	Height     string `json:"HEIGHT,omitempty"`
}

// inputType maps an ISF input TYPE to the uniform type the host binds.
// Audio inputs arrive as textures.
func inputType(t string) (ast.TypeSpec, bool) {
	switch t {
	case "float":
		return ast.Scalar(ast.ScalarF32), true
	case "bool", "event":
		return ast.Scalar(ast.ScalarBool), true
	case "long":
		return ast.Scalar(ast.ScalarI32), true
	case "point2D":
		return ast.Vector(ast.ScalarF32, 2), true
	case "color":
		return ast.Vector(ast.ScalarF32, 4), true
	case "image", "audio", "audioFFT":
		t := ast.Texture(ast.Dim2D, ast.ScalarF32)
		t.Combined = true
		return t, true
	default:
		return ast.TypeSpec{}, false
	}
}

// typeInput is the inverse of inputType, used when synthesizing
// metadata from a converted module.
func typeInput(t ast.TypeSpec) (string, bool) {
	switch {
	case t.Kind == ast.TypeTexture:
		return "image", true
	case t.Kind == ast.TypeScalar && t.Scalar == ast.ScalarF32:
		return "float", true
	case t.Kind == ast.TypeScalar && t.Scalar == ast.ScalarF16:
		return "float", true
	case t.Kind == ast.TypeScalar && t.Scalar == ast.ScalarBool:
		return "bool", true
	case t.Kind == ast.TypeScalar && (t.Scalar == ast.ScalarI32 || t.Scalar == ast.ScalarU32):
		return "long", true
	case t.Kind == ast.TypeVector && t.Size == 2 && t.Scalar == ast.ScalarF32:
		return "point2D", true
	case t.Kind == ast.TypeVector && t.Size == 4 && t.Scalar == ast.ScalarF32:
		return "color", true
	default:
		return "", false
	}
}

// standardUniforms are the uniforms every ISF host provides. They are
// declared for analysis but never listed as inputs.
var standardUniforms = []struct {
	Name string
	Type ast.TypeSpec
}{
	{"RENDERSIZE", ast.Vector(ast.ScalarF32, 2)},
	{"TIME", ast.Scalar(ast.ScalarF32)},
	{"TIMEDELTA", ast.Scalar(ast.ScalarF32)},
	{"PASSINDEX", ast.Scalar(ast.ScalarI32)},
	{"FRAMEINDEX", ast.Scalar(ast.ScalarI32)},
	{"DATE", ast.Vector(ast.ScalarF32, 4)},
	{"isf_FragNormCoord", ast.Vector(ast.ScalarF32, 2)},
}

// isStandardUniform reports whether name is host-provided.
func isStandardUniform(name string) bool {
	for _, u := range standardUniforms {
		if u.Name == name {
			return true
		}
	}
	return false
}

func marshalMetadata(md Metadata) ([]byte, error) {
	return json.MarshalIndent(md, "", "  ")
}

func unmarshalMetadata(data []byte) (Metadata, error) {
	var md Metadata
	err := json.Unmarshal(data, &md)
	return md, err
}
