// Package validate checks generated shader text before it leaves the
// pipeline: the target front-end must accept it, resource bindings must
// be collision-free, and every called built-in must exist in the target
// dialect. Validation failures are surfaced, never swallowed; the
// caller decides whether they block the result.
package validate

import (
	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/glsl"
	"github.com/gogpu/shaderconv/hlsl"
	"github.com/gogpu/shaderconv/isf"
	"github.com/gogpu/shaderconv/wgsl"
)

// Check re-parses generated code with the target language's front-end
// and verifies the invariants conversion promises. All findings come
// back as VALID diagnostics against the generated text's spans.
func Check(code string, target ast.Language) diag.List {
	m, parseDiags := parse(code, target)

	var diags diag.List
	for _, d := range parseDiags {
		if d.Severity != diag.SeverityError {
			continue
		}
		diags = append(diags, diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeValidation,
			Message:  "generated code does not re-parse: " + d.Message,
			Span:     d.Span,
		})
	}
	if m == nil {
		return diags
	}

	checkBindings(m, target, &diags)
	checkBuiltins(m, target, &diags)
	return diags
}

func parse(code string, target ast.Language) (*ast.Module, diag.List) {
	switch target {
	case ast.LangWGSL:
		return wgsl.Parse(code)
	case ast.LangGLSL:
		return glsl.Parse(code)
	case ast.LangHLSL:
		return hlsl.Parse(code)
	case ast.LangISF:
		return isf.Parse(code)
	default:
		return nil, nil
	}
}

// checkBindings enforces binding uniqueness in the target's model.
func checkBindings(m *ast.Module, target ast.Language, diags *diag.List) {
	seen := make(map[string]string)
	for _, id := range m.Resources() {
		n := m.Node(id)
		if n.Binding == nil {
			continue
		}
		slot, explicit := n.Binding.EffectiveSlot(target)
		if !explicit {
			continue
		}
		if other, dup := seen[slot]; dup {
			diags.Errorf(diag.CodeValidation, n.Span,
				"binding collision in generated code: %q and %q both use %s", other, n.Name, slot)
			continue
		}
		seen[slot] = n.Name
	}
}

// checkBuiltins verifies every call resolves to a user function or a
// built-in the target dialect defines.
func checkBuiltins(m *ast.Module, target ast.Language, diags *diag.List) {
	userFuncs := make(map[string]struct{})
	for _, fn := range m.Functions() {
		userFuncs[m.Node(fn).Name] = struct{}{}
	}

	for _, fn := range m.Functions() {
		body := m.Body(fn)
		if !body.Valid() {
			continue
		}
		m.Walk(body, func(id ast.NodeID) bool {
			n := m.Node(id)
			if n.Kind != ast.KindCall {
				return true
			}
			if _, ok := userFuncs[n.Name]; ok {
				return true
			}
			if !knownBuiltin(n.Name, n.Method, target) {
				diags.Errorf(diag.CodeValidation, n.Span,
					"%s does not define %q", target, n.Name)
			}
			return true
		})
	}
}

func knownBuiltin(name string, method bool, target ast.Language) bool {
	switch target {
	case ast.LangWGSL:
		_, ok := wgsl.Builtins[name]
		return ok
	case ast.LangGLSL, ast.LangISF:
		if _, ok := glsl.Builtins[name]; ok {
			return true
		}
		if target == ast.LangISF {
			return isfBuiltin(name)
		}
		return false
	case ast.LangHLSL:
		if method {
			_, ok := hlsl.Methods[name]
			return ok
		}
		_, ok := hlsl.Builtins[name]
		return ok
	default:
		return false
	}
}

// isfBuiltin covers the host-provided ISF sampling helpers.
func isfBuiltin(name string) bool {
	switch name {
	case "IMG_PIXEL", "IMG_NORM_PIXEL", "IMG_THIS_PIXEL", "IMG_THIS_NORM_PIXEL", "IMG_SIZE":
		return true
	}
	return false
}
