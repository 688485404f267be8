package isf

import (
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/glsl"
)

// Options controls ISF generation.
type Options struct {
	// Description and Credit seed the metadata header.
	Description string
	Credit      string
}

// Generate renders a unified AST as an ISF document: a JSON metadata
// header synthesized from the module's resource declarations, followed
// by the GLSL body. Host-bound declarations (inputs and standard
// uniforms) are omitted from the body because the host injects them.
func Generate(m *ast.Module, opts Options) (string, diag.List) {
	var diags diag.List

	md := Metadata{
		ISFVSN:      "2",
		Description: opts.Description,
		Credit:      opts.Credit,
	}

	var bodyDecls []ast.NodeID
	for _, id := range m.Decls {
		n := m.Node(id)
		if n.Kind != ast.KindVarDecl || !isHostBound(n) {
			bodyDecls = append(bodyDecls, id)
			continue
		}
		if isStandardUniform(n.Name) {
			continue
		}
		inType, ok := typeInput(n.Type)
		if !ok {
			// No ISF input type matches; keep the declaration in the
			// body so at least the GLSL stays self-consistent.
			diags.Warnf(diag.CodeUnsupported, n.Span,
				"uniform %q has no ISF input type; left in the body", n.Name)
			bodyDecls = append(bodyDecls, id)
			continue
		}
		md.Inputs = append(md.Inputs, Input{Name: n.Name, Type: inType})
	}

	header, err := marshalMetadata(md)
	if err != nil {
		diags.Errorf(diag.CodeValidation, headerSpan(), "cannot encode metadata: %v", err)
		return "", diags
	}

	body, bodyDiags := glsl.Generate(m.WithDecls(bodyDecls), glsl.Options{NoVersion: true})
	diags = append(diags, bodyDiags...)

	var sb strings.Builder
	sb.WriteString("/*")
	sb.Write(header)
	sb.WriteString("*/\n\n")
	sb.WriteString(body)
	return sb.String(), diags
}

// isHostBound reports whether a declaration is provided by the ISF
// host: uniforms and textures, bound by name rather than slot.
func isHostBound(n *ast.Node) bool {
	if n.Qual.Const {
		return false
	}
	return n.Qual.AddressSpace == "uniform" ||
		n.Type.Kind == ast.TypeTexture ||
		n.Type.Kind == ast.TypeSampler
}
