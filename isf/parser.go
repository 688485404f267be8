package isf

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/glsl"
)

// Parse parses an ISF document into the unified AST. The metadata
// inputs and the standard uniforms become synthesized declarations
// ahead of the body's own, in metadata order, so binding assignment is
// deterministic.
func Parse(source string) (*ast.Module, diag.List) {
	var diags diag.List

	md, body, err := Decode(source)
	if err != nil {
		diags.Errorf(diag.CodeSyntax, headerSpan(), "invalid ISF metadata: %v", err)
		// The body may still parse; keep going with what we have.
	}

	m, bodyDiags := glsl.Parse(body)
	diags = append(diags, bodyDiags...)

	var synth []ast.NodeID
	for _, u := range standardUniforms {
		synth = append(synth, addUniform(m, u.Name, u.Type))
	}
	for _, in := range md.Inputs {
		ty, ok := inputType(in.Type)
		if !ok {
			diags.Warnf(diag.CodeUnsupported, headerSpan(),
				"input %q has unsupported type %q", in.Name, in.Type)
			continue
		}
		synth = append(synth, addUniform(m, in.Name, ty))
	}
	m.Decls = append(synth, m.Decls...)

	markFragment(m)
	return m, diags
}

// Decode splits an ISF document into metadata and GLSL body. In the
// comment-header form the header is blanked with spaces so the body
// keeps its original line numbers; in the bare-JSON form the body is
// the FRAGMENT_SHADER field.
func Decode(source string) (Metadata, string, error) {
	if md, body, ok, err := decodeBareJSON(source); ok {
		return md, body, err
	}

	start := strings.Index(source, "/*")
	if start < 0 {
		return Metadata{}, source, fmt.Errorf("missing /*{ ... }*/ metadata header")
	}
	end := strings.Index(source[start:], "*/")
	if end < 0 {
		return Metadata{}, source, fmt.Errorf("unterminated metadata header")
	}
	end += start + len("*/")

	inner := source[start+len("/*") : end-len("*/")]
	open := strings.Index(inner, "{")
	closing := strings.LastIndex(inner, "}")
	if open < 0 || closing < open {
		return Metadata{}, blankRegion(source, start, end), fmt.Errorf("metadata header holds no JSON object")
	}

	md, err := unmarshalMetadata([]byte(inner[open : closing+1]))
	return md, blankRegion(source, start, end), err
}

// decodeBareJSON handles the container form where the whole document is
// a JSON object with a FRAGMENT_SHADER field.
func decodeBareJSON(source string) (Metadata, string, bool, error) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, "FRAGMENT_SHADER") {
		return Metadata{}, "", false, nil
	}
	md, err := unmarshalMetadata([]byte(trimmed))
	if err != nil {
		return Metadata{}, source, true, err
	}
	if md.FragmentShader == "" {
		return md, "", true, fmt.Errorf("FRAGMENT_SHADER is empty")
	}
	return md, md.FragmentShader, true, nil
}

// blankRegion replaces [start, end) with spaces, preserving newlines so
// offsets and line numbers of the remaining text stay valid.
func blankRegion(source string, start, end int) string {
	b := []byte(source)
	for i := start; i < end && i < len(b); i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

// headerSpan is the reporting span for metadata problems: the start of
// the document.
func headerSpan() ast.Span {
	pos := ast.Position{Line: 1, Column: 1, Offset: 0}
	return ast.Span{Start: pos, End: pos}
}

// addUniform appends a host-bound uniform declaration. ISF binds by
// name, so the binding carries a class but no explicit slot.
func addUniform(m *ast.Module, name string, ty ast.TypeSpec) ast.NodeID {
	class := ast.ClassUniformBuffer
	if ty.Kind == ast.TypeTexture {
		class = ast.ClassTexture
	}
	return m.Add(ast.Node{
		Kind:    ast.KindVarDecl,
		Name:    name,
		Type:    ty,
		Qual:    ast.Qualifiers{AddressSpace: "uniform", Location: ast.NoLocation},
		Binding: &ast.ResourceBinding{Class: class},
	})
}

// markFragment forces main to the fragment stage; every ISF body is a
// fragment shader regardless of what the GLSL heuristics decided.
func markFragment(m *ast.Module) {
	for _, id := range m.Functions() {
		fn := m.Node(id)
		if fn.Name == "main" {
			fn.Qual.Stage = ast.StageFragment
			return
		}
	}
}
