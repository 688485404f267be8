package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Options tunes the conversion.
type Options struct {
	// Strict aborts on the first unsupported construct instead of
	// emitting a commented placeholder.
	Strict bool

	// GLSLVersion gates version-dependent rules when the target is
	// GLSL.
	GLSLVersion int

	// ShaderModel gates model-dependent rules when the target is HLSL.
	ShaderModel string
}

// Apply rewrites the module in place from the table's source dialect
// conventions to its target's: entry-point IO shape, precision
// statements, sampler model, built-in calls, and resource bindings.
// The returned module is the argument; the error is non-nil only for
// context cancellation.
func Apply(ctx context.Context, m *ast.Module, table *Table, opts Options) (*ast.Module, diag.List, error) {
	e := &engine{
		m:        m,
		table:    table,
		opts:     opts,
		samplers: make(map[string]string),
		varTypes: make(map[string]ast.TypeSpec),
	}
	if table.Source == table.Target {
		return m, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return m, nil, err
	}

	src, dst := glslShaped(table.Source), glslShaped(table.Target)
	switch {
	case src && !dst:
		e.toExplicitIO()
	case !src && dst:
		e.toVaryingIO()
	}

	if !dst {
		e.dropPrecision()
	}
	switch {
	case src && !dst:
		e.splitSamplers()
	case !src && dst:
		e.foldSamplers()
	}

	e.collectGlobalTypes()
	for _, fn := range m.Functions() {
		if err := ctx.Err(); err != nil {
			return m, e.diags, err
		}
		if e.aborted {
			break
		}
		e.rewriteFunction(fn)
	}

	if !e.aborted {
		Remap(m, table.Target, &e.diags)
	}
	return m, e.diags, nil
}

// glslShaped reports whether the dialect uses GLSL-style entry points:
// void main() with global in/out variables and combined samplers.
func glslShaped(l ast.Language) bool {
	return l == ast.LangGLSL || l == ast.LangISF
}

type engine struct {
	m       *ast.Module
	table   *Table
	opts    Options
	diags   diag.List
	aborted bool

	// samplers maps texture names to their synthesized sampler names.
	samplers map[string]string

	// varTypes is a flat name-to-type map for the declarations in
	// scope, enough to spot matrix operands. Shadowing is ignored.
	varTypes map[string]ast.TypeSpec
}

// dropPrecision removes GLSL precision statements; targets without the
// concept get a warning, not a stray token.
func (e *engine) dropPrecision() {
	kept := e.m.Decls[:0]
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind == ast.KindPrecisionDecl {
			e.diags.Warnf(diag.CodeUnsupported, n.Span,
				"precision statement dropped: %s has no precision qualifiers", e.table.Target)
			continue
		}
		kept = append(kept, id)
	}
	e.m.Decls = kept
}

// splitSamplers separates every combined texture into a texture plus a
// synthesized sampler declared right after it. Calls pick the sampler
// up through the samplers map.
func (e *engine) splitSamplers() {
	decls := make([]ast.NodeID, 0, len(e.m.Decls))
	for _, id := range e.m.Decls {
		decls = append(decls, id)
		n := e.m.Node(id)
		if n.Kind != ast.KindVarDecl || n.Type.Kind != ast.TypeTexture || !n.Type.Combined {
			continue
		}
		name := n.Name
		span := n.Span
		sname := name + "_sampler"
		sid := e.m.Add(ast.Node{
			Kind:    ast.KindVarDecl,
			Span:    span,
			Name:    sname,
			Type:    ast.Sampler(n.Type.Comparison),
			Qual:    ast.Qualifiers{Location: ast.NoLocation},
			Binding: &ast.ResourceBinding{Class: ast.ClassSampler},
		})
		e.m.Node(id).Type.Combined = false
		e.samplers[name] = sname
		decls = append(decls, sid)
		e.diags.Infof(diag.CodeSynth, span,
			"synthesized sampler %q for texture %q", sname, name)
	}
	e.m.Decls = decls
}

// foldSamplers drops standalone sampler declarations and marks textures
// combined; the target pairs each texture with its own sampler state.
func (e *engine) foldSamplers() {
	kept := e.m.Decls[:0]
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind == ast.KindVarDecl && n.Type.Kind == ast.TypeSampler {
			e.diags.Infof(diag.CodeSynth, n.Span,
				"sampler %q folded into combined texture declarations", n.Name)
			continue
		}
		if n.Kind == ast.KindVarDecl && n.Type.Kind == ast.TypeTexture {
			n.Type.Combined = true
		}
		kept = append(kept, id)
	}
	e.m.Decls = kept
}

func (e *engine) collectGlobalTypes() {
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind == ast.KindVarDecl {
			e.varTypes[n.Name] = n.Type
		}
	}
}

func (e *engine) rewriteFunction(fn ast.NodeID) {
	for _, pid := range e.m.Params(fn) {
		p := e.m.Node(pid)
		e.varTypes[p.Name] = p.Type
	}
	body := e.m.Body(fn)
	if body.Valid() {
		e.rewriteBlock(body)
	}
}

func (e *engine) rewriteBlock(id ast.NodeID) {
	kids := e.m.Node(id).Kids
	for i, sid := range kids {
		if e.aborted {
			return
		}
		if name, reason, span := e.findUnsupported(sid); name != "" {
			if e.opts.Strict {
				e.diags.Errorf(diag.CodeUnsupported, span, "%s: %s", name, reason)
				e.aborted = true
				return
			}
			e.diags.Warnf(diag.CodeUnsupported, span, "%s: %s", name, reason)
			comment := e.m.Add(ast.Node{
				Kind: ast.KindComment,
				Span: span,
				Text: fmt.Sprintf("unsupported: %s: %s", name, reason),
			})
			e.m.Node(id).Kids[i] = comment
			continue
		}
		e.rewriteStmt(sid)
	}
}

// findUnsupported scans a statement subtree for a call the target
// cannot express. The whole statement is sacrificed; a half-converted
// expression would be worse than a placeholder.
func (e *engine) findUnsupported(id ast.NodeID) (name, reason string, span ast.Span) {
	e.m.Walk(id, func(nid ast.NodeID) bool {
		if name != "" {
			return false
		}
		n := e.m.Node(nid)
		if n.Kind == ast.KindBlock {
			// Nested blocks are checked statement by statement when the
			// rewrite recurses into them.
			return false
		}
		if n.Kind != ast.KindCall {
			return true
		}
		if e.engineHandled(n) {
			return true
		}
		rule, ok := e.table.lookup(n.Name, n.Method, len(n.Kids))
		if !ok {
			return true
		}
		if r := e.unsupportedReason(rule); r != "" {
			name, reason, span = n.Name, r, n.Span
			return false
		}
		return true
	})
	return name, reason, span
}

func (e *engine) unsupportedReason(rule Rule) string {
	if rule.Unsupported != "" {
		return rule.Unsupported
	}
	if rule.MinGLSLVersion > 0 && glslShaped(e.table.Target) && e.opts.GLSLVersion < rule.MinGLSLVersion {
		return fmt.Sprintf("requires GLSL %d or newer (converting for %d)",
			rule.MinGLSLVersion, e.opts.GLSLVersion)
	}
	if rule.MinShaderModel != "" && e.table.Target == ast.LangHLSL &&
		strings.Compare(e.opts.ShaderModel, rule.MinShaderModel) < 0 {
		return fmt.Sprintf("requires shader model %s or newer (converting for %s)",
			rule.MinShaderModel, e.opts.ShaderModel)
	}
	return ""
}

func (e *engine) rewriteStmt(id ast.NodeID) {
	if !id.Valid() {
		return
	}
	n := e.m.Node(id)
	switch n.Kind {
	case ast.KindVarDecl:
		e.varTypes[n.Name] = n.Type
		if len(n.Kids) > 0 {
			e.rewriteExpr(n.Kids[0])
		}
	case ast.KindAssign:
		e.rewriteExpr(n.Kids[0])
		e.rewriteExpr(n.Kids[1])
	case ast.KindExprStmt, ast.KindReturn:
		if len(n.Kids) > 0 {
			e.rewriteExpr(n.Kids[0])
		}
	case ast.KindIf:
		e.rewriteExpr(n.Kids[0])
		e.rewriteBlock(n.Kids[1])
		if len(n.Kids) > 2 && n.Kids[2].Valid() {
			els := e.m.Node(n.Kids[2])
			if els.Kind == ast.KindIf {
				e.rewriteStmt(n.Kids[2])
			} else {
				e.rewriteBlock(n.Kids[2])
			}
		}
	case ast.KindFor:
		e.rewriteStmt(n.Kids[0])
		e.rewriteExpr(n.Kids[1])
		e.rewriteStmt(n.Kids[2])
		if n.Kids[3].Valid() {
			e.rewriteBlock(n.Kids[3])
		}
	case ast.KindWhile:
		e.rewriteExpr(n.Kids[0])
		e.rewriteBlock(n.Kids[1])
	case ast.KindBlock:
		e.rewriteBlock(id)
	}
}

func (e *engine) rewriteExpr(id ast.NodeID) {
	if !id.Valid() {
		return
	}
	// Children first so nested calls are already in target form.
	for _, kid := range e.m.Node(id).Kids {
		e.rewriteExpr(kid)
	}
	switch e.m.Node(id).Kind {
	case ast.KindCall:
		e.rewriteCall(id)
	case ast.KindBinary:
		e.rewriteMatrixProduct(id)
	}
}

func (e *engine) rewriteCall(id ast.NodeID) {
	if e.rewriteStructural(id) {
		return
	}
	n := e.m.Node(id)
	rule, ok := e.table.lookup(n.Name, n.Method, len(n.Kids))
	if !ok || e.unsupportedReason(rule) != "" {
		return
	}

	if rule.Args != nil {
		old := n.Kids
		kids := make([]ast.NodeID, 0, len(rule.Args))
		for _, idx := range rule.Args {
			if idx < 0 || idx >= len(old) {
				e.diags.Warnf(diag.CodeUnsupported, n.Span,
					"%s: argument %d missing; call left partially converted", n.Name, idx)
				continue
			}
			kids = append(kids, old[idx])
		}
		n.Kids = kids
	}

	if rule.SynthesizeSampler {
		e.insertSampler(id)
		n = e.m.Node(id)
	}

	for _, lex := range rule.AppendArgs {
		lit := ast.LitInt
		if strings.ContainsAny(lex, ".eE") {
			lit = ast.LitFloat
		}
		arg := e.m.Add(ast.Node{Kind: ast.KindLiteral, Span: n.Span, Lit: lit, Text: lex})
		n = e.m.Node(id)
		n.Kids = append(n.Kids, arg)
	}

	if rule.Note != "" {
		e.diags.Warnf(diag.CodeUnsupported, n.Span, "%s: %s", n.Name, rule.Note)
	}
	if rule.Replace != "" {
		n.Name = rule.Replace
	}
	n.Method = rule.Method
}

// insertSampler slides the receiver texture's synthesized sampler in as
// argument 1, the slot both textureSample and Sample expect.
func (e *engine) insertSampler(id ast.NodeID) {
	n := e.m.Node(id)
	if len(n.Kids) == 0 {
		return
	}
	recv := e.m.Node(n.Kids[0])
	if recv.Kind != ast.KindIdent {
		e.diags.Warnf(diag.CodeUnsupported, n.Span,
			"cannot pair a sampler with a computed texture expression")
		return
	}
	sname, ok := e.samplers[recv.Name]
	if !ok {
		e.diags.Warnf(diag.CodeUnsupported, recv.Span,
			"no sampler synthesized for texture %q", recv.Name)
		return
	}
	span := n.Span
	arg := e.m.Add(ast.Node{Kind: ast.KindIdent, Span: span, Name: sname})
	n = e.m.Node(id)
	kids := make([]ast.NodeID, 0, len(n.Kids)+1)
	kids = append(kids, n.Kids[0], arg)
	kids = append(kids, n.Kids[1:]...)
	n.Kids = kids
}

// relationalOps maps the GLSL component-wise comparison builtins to the
// operators WGSL and HLSL apply to vectors directly.
var relationalOps = map[string]ast.Op{
	"lessThan":         ast.OpLess,
	"lessThanEqual":    ast.OpLessEqual,
	"greaterThan":      ast.OpGreater,
	"greaterThanEqual": ast.OpGreaterEqual,
	"equal":            ast.OpEqual,
	"notEqual":         ast.OpNotEqual,
}

// engineHandled reports whether a call is converted structurally rather
// than by table rule, so findUnsupported leaves it alone.
func (e *engine) engineHandled(n *ast.Node) bool {
	if n.Method {
		return false
	}
	switch n.Name {
	case "select":
		return len(n.Kids) == 3 && e.table.Target != ast.LangWGSL
	case "not":
		return len(n.Kids) == 1 && !glslShaped(e.table.Target)
	case "mul", "fmod":
		return len(n.Kids) == 2 && e.table.Source == ast.LangHLSL
	case "bitcast":
		return true
	case "asfloat", "asint", "asuint":
		return e.table.Target == ast.LangWGSL
	}
	if _, ok := relationalOps[n.Name]; ok {
		return len(n.Kids) == 2 && !glslShaped(e.table.Target)
	}
	return false
}

// rewriteStructural converts the calls whose target form is not a call:
// operators, ternaries, and type-directed bit reinterpretation.
func (e *engine) rewriteStructural(id ast.NodeID) bool {
	n := e.m.Node(id)
	if !e.engineHandled(n) {
		return false
	}
	switch n.Name {
	case "select":
		// select(false_value, true_value, cond) -> cond ? t : f
		n.Kind = ast.KindTernary
		n.Kids = []ast.NodeID{n.Kids[2], n.Kids[1], n.Kids[0]}
		n.Name = ""
	case "not":
		n.Kind = ast.KindUnary
		n.Op = ast.OpNot
		n.Name = ""
	case "mul":
		n.Kind = ast.KindBinary
		n.Op = ast.OpMul
		n.Name = ""
	case "fmod":
		if glslShaped(e.table.Target) {
			n.Name = "mod"
			e.diags.Warnf(diag.CodeUnsupported, n.Span,
				"fmod: GLSL mod and HLSL fmod disagree for negative operands")
			return true
		}
		n.Kind = ast.KindBinary
		n.Op = ast.OpMod
		n.Name = ""
	case "bitcast":
		n.Name = bitcastName(n.Type, e.table.Target)
	case "asfloat", "asint", "asuint":
		switch n.Name {
		case "asfloat":
			n.Type = ast.Scalar(ast.ScalarF32)
		case "asint":
			n.Type = ast.Scalar(ast.ScalarI32)
		default:
			n.Type = ast.Scalar(ast.ScalarU32)
		}
		n.Name = "bitcast"
	default:
		if op, ok := relationalOps[n.Name]; ok {
			n.Kind = ast.KindBinary
			n.Op = op
			n.Name = ""
		}
	}
	return true
}

// bitcastName picks the target's bit-reinterpretation spelling from the
// destination scalar type.
func bitcastName(t ast.TypeSpec, target ast.Language) string {
	if target == ast.LangHLSL {
		switch t.Scalar {
		case ast.ScalarI32:
			return "asint"
		case ast.ScalarU32:
			return "asuint"
		default:
			return "asfloat"
		}
	}
	switch t.Scalar {
	case ast.ScalarI32:
		return "floatBitsToInt"
	case ast.ScalarU32:
		return "floatBitsToUint"
	default:
		return "intBitsToFloat"
	}
}

// rewriteMatrixProduct turns a * with a matrix operand into mul() when
// the target is HLSL, where operator * is component-wise.
func (e *engine) rewriteMatrixProduct(id ast.NodeID) {
	if e.table.Target != ast.LangHLSL {
		return
	}
	n := e.m.Node(id)
	if n.Op != ast.OpMul {
		return
	}
	if !e.isMatrix(n.Kids[0]) && !e.isMatrix(n.Kids[1]) {
		return
	}
	n.Kind = ast.KindCall
	n.Name = "mul"
	n.Op = ast.OpNone
}

// isMatrix is a shallow structural check against declared types; it
// does not chase member or index expressions.
func (e *engine) isMatrix(id ast.NodeID) bool {
	if !id.Valid() {
		return false
	}
	n := e.m.Node(id)
	switch n.Kind {
	case ast.KindIdent:
		return e.varTypes[n.Name].Kind == ast.TypeMatrix
	case ast.KindConstruct:
		return n.Type.Kind == ast.TypeMatrix
	case ast.KindBinary:
		return n.Op == ast.OpMul && (e.isMatrix(n.Kids[0]) && e.isMatrix(n.Kids[1]))
	case ast.KindCall:
		return n.Name == "mul" && e.isMatrix(n.Kids[0]) && e.isMatrix(n.Kids[1])
	default:
		return false
	}
}
