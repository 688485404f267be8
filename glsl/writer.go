package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/internal/litfmt"
	"github.com/gogpu/shaderconv/internal/namer"
)

// Options controls GLSL generation.
type Options struct {
	// Version is the #version directive value, e.g. 330 or 450.
	Version int

	// ES selects the OpenGL ES profile, which requires a default
	// precision in fragment shaders.
	ES bool

	// NoVersion omits the #version directive. ISF bodies are versionless;
	// the host prepends its own preamble.
	NoVersion bool
}

// DefaultVersion is the #version emitted when the caller does not
// choose one. 330 is the floor for explicit attribute locations.
const DefaultVersion = 330

// Generate renders a unified AST as GLSL text. Generation is pure and
// deterministic; identifiers colliding with GLSL reserved words are
// renamed and reported as Info diagnostics.
func Generate(m *ast.Module, opts Options) (string, diag.List) {
	if opts.Version == 0 {
		opts.Version = DefaultVersion
	}
	w := &writer{
		m:       m,
		opts:    opts,
		names:   namer.New(Keywords, false),
		renames: make(map[string]string),
	}
	w.header()
	w.renameDecls()
	for _, id := range m.Decls {
		w.decl(id)
	}
	return w.sb.String(), w.diags
}

type writer struct {
	m       *ast.Module
	opts    Options
	sb      strings.Builder
	indent  int
	diags   diag.List
	names   *namer.Namer
	renames map[string]string
}

func (w *writer) header() {
	if w.opts.NoVersion {
		return
	}
	if w.opts.ES {
		fmt.Fprintf(&w.sb, "#version %d es\n", w.opts.Version)
	} else if w.opts.Version >= 150 {
		fmt.Fprintf(&w.sb, "#version %d core\n", w.opts.Version)
	} else {
		fmt.Fprintf(&w.sb, "#version %d\n", w.opts.Version)
	}

	if w.opts.ES && !w.hasPrecisionDecl() {
		w.sb.WriteString("precision mediump float;\n")
	}
	w.sb.WriteString("\n")
}

func (w *writer) hasPrecisionDecl() bool {
	for _, id := range w.m.Decls {
		if w.m.Node(id).Kind == ast.KindPrecisionDecl {
			return true
		}
	}
	return false
}

// renameDecls assigns output names to every module-scope declaration
// up front so references anywhere in the module resolve consistently.
// main keeps its name: it is the entry point, not an identifier choice.
func (w *writer) renameDecls() {
	for _, id := range w.m.Decls {
		n := w.m.Node(id)
		switch n.Kind {
		case ast.KindVarDecl, ast.KindFunctionDef, ast.KindStructDecl:
			if n.Kind == ast.KindFunctionDef && n.Name == "main" {
				w.renames["main"] = "main"
				continue
			}
			w.declName(n.Name, n.Span)
		}
	}
}

func (w *writer) declName(name string, span ast.Span) string {
	if out, ok := w.renames[name]; ok {
		return out
	}
	out, renamed := w.names.Call(name)
	if !renamed && strings.HasPrefix(out, "gl_") {
		// The gl_ prefix is reserved for builtin variables.
		out, _ = w.names.Call(strings.TrimPrefix(out, "gl_") + "_")
		renamed = true
	}
	w.renames[name] = out
	if renamed {
		w.diags.Infof(diag.CodeRename, span,
			"renamed %q to %q: reserved in GLSL", name, out)
	}
	return out
}

// ref resolves an identifier reference through the rename table.
// Builtin variables (gl_FragCoord and friends) are never declared, so
// they pass through untouched.
func (w *writer) ref(name string) string {
	if out, ok := w.renames[name]; ok {
		return out
	}
	return name
}

func (w *writer) decl(id ast.NodeID) {
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindPrecisionDecl:
		fmt.Fprintf(&w.sb, "precision %s;\n", n.Text)
	case ast.KindStructDecl:
		w.structDecl(n)
	case ast.KindVarDecl:
		w.globalVar(n)
	case ast.KindFunctionDef:
		w.function(id, n)
	case ast.KindComment:
		w.comment(n.Text)
	}
}

func (w *writer) comment(text string) {
	for _, line := range strings.Split(text, "\n") {
		w.writeIndent()
		w.sb.WriteString("// ")
		w.sb.WriteString(line)
		w.sb.WriteString("\n")
	}
}

func (w *writer) structDecl(n *ast.Node) {
	fmt.Fprintf(&w.sb, "struct %s {\n", w.ref(n.Name))
	for _, fid := range n.Kids {
		f := w.m.Node(fid)
		w.sb.WriteString("    ")
		w.sb.WriteString(w.declString(f.Type, f.Name))
		w.sb.WriteString(";\n")
	}
	w.sb.WriteString("};\n\n")
}

func (w *writer) globalVar(n *ast.Node) {
	name := w.declName(n.Name, n.Span)

	switch {
	case n.Qual.Const:
		fmt.Fprintf(&w.sb, "const %s", w.declString(n.Type, name))
		w.initializer(n)
		w.sb.WriteString(";\n")

	case n.Type.Kind == ast.TypeSampler:
		// GLSL has no separate samplers; the transform stage folds them
		// into combined textures. One surviving here paired with no
		// texture cannot be expressed.
		fmt.Fprintf(&w.sb, "// separate sampler %q has no GLSL equivalent\n", name)
		w.diags.Warnf(diag.CodeUnsupported, n.Span,
			"separate sampler %q dropped: GLSL samplers are combined", name)

	case n.Type.Kind == ast.TypeTexture:
		w.layoutBinding(n)
		fmt.Fprintf(&w.sb, "uniform %s;\n", w.declString(n.Type, name))

	case n.Qual.AddressSpace == "storage":
		w.blockVar(n, name, "buffer", "std430")

	case n.Qual.AddressSpace == "uniform":
		if n.Type.Kind == ast.TypeStruct {
			w.blockVar(n, name, "uniform", "std140")
			return
		}
		w.layoutBinding(n)
		fmt.Fprintf(&w.sb, "uniform %s;\n", w.declString(n.Type, name))

	case n.Qual.InOut != "":
		if n.Qual.Location != ast.NoLocation {
			fmt.Fprintf(&w.sb, "layout(location = %d) ", n.Qual.Location)
		}
		if n.Qual.Interpolation != "" {
			fmt.Fprintf(&w.sb, "%s ", n.Qual.Interpolation)
		}
		fmt.Fprintf(&w.sb, "%s %s;\n", n.Qual.InOut, w.declString(n.Type, name))

	default:
		w.sb.WriteString(w.declString(n.Type, name))
		w.initializer(n)
		w.sb.WriteString(";\n")
	}
}

// blockVar renders a struct-typed resource as an interface block with a
// single member. Unnamed block members are globally scoped, so
// references of the form name.field keep working.
func (w *writer) blockVar(n *ast.Node, name, kind, layout string) {
	fmt.Fprintf(&w.sb, "layout(%s", layout)
	if n.Binding != nil && n.Binding.HasLayout {
		fmt.Fprintf(&w.sb, ", binding = %d", n.Binding.Layout)
	}
	blockName := name + "_block"
	if n.Type.Kind == ast.TypeStruct {
		blockName = n.Type.Struct + "_block"
	}
	fmt.Fprintf(&w.sb, ") %s %s {\n    %s;\n};\n", kind, blockName, w.declString(n.Type, name))
}

func (w *writer) layoutBinding(n *ast.Node) {
	if n.Binding != nil && n.Binding.HasLayout {
		fmt.Fprintf(&w.sb, "layout(binding = %d) ", n.Binding.Layout)
	}
}

func (w *writer) initializer(n *ast.Node) {
	if len(n.Kids) > 0 && n.Kids[0].Valid() {
		w.sb.WriteString(" = ")
		w.expr(n.Kids[0])
	}
}

func (w *writer) function(id ast.NodeID, n *ast.Node) {
	if n.Qual.Stage == ast.StageCompute {
		wg := n.Qual.Workgroup
		if wg == [3]uint32{} {
			wg = [3]uint32{1, 1, 1}
		}
		fmt.Fprintf(&w.sb, "layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;\n",
			wg[0], wg[1], wg[2])
	}

	fmt.Fprintf(&w.sb, "%s %s(", w.typeString(n.Type), w.declName(n.Name, n.Span))
	for i, pid := range w.m.Params(id) {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		p := w.m.Node(pid)
		if p.Qual.InOut != "" && p.Qual.InOut != "in" {
			fmt.Fprintf(&w.sb, "%s ", p.Qual.InOut)
		}
		w.sb.WriteString(w.declString(p.Type, w.declName(p.Name, p.Span)))
	}
	w.sb.WriteString(") ")

	body := w.m.Body(id)
	if body.Valid() {
		w.block(body)
	} else {
		w.sb.WriteString("{\n}\n")
	}
	w.sb.WriteString("\n")
}

func (w *writer) block(id ast.NodeID) {
	w.sb.WriteString("{\n")
	w.indent++
	for _, sid := range w.m.Node(id).Kids {
		w.stmt(sid)
	}
	w.indent--
	w.writeIndent()
	w.sb.WriteString("}\n")
}

func (w *writer) stmt(id ast.NodeID) {
	if !id.Valid() {
		return
	}
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindVarDecl:
		w.writeIndent()
		w.localVar(n)
		w.sb.WriteString(";\n")
	case ast.KindReturn:
		w.writeIndent()
		w.sb.WriteString("return")
		if len(n.Kids) > 0 && n.Kids[0].Valid() {
			w.sb.WriteString(" ")
			w.expr(n.Kids[0])
		}
		w.sb.WriteString(";\n")
	case ast.KindIf:
		w.writeIndent()
		w.ifStmt(n)
	case ast.KindFor:
		w.writeIndent()
		w.sb.WriteString("for (")
		w.inlineStmt(n.Kids[0])
		w.sb.WriteString("; ")
		if n.Kids[1].Valid() {
			w.expr(n.Kids[1])
		}
		w.sb.WriteString("; ")
		w.inlineStmt(n.Kids[2])
		w.sb.WriteString(") ")
		w.block(n.Kids[3])
	case ast.KindWhile:
		w.writeIndent()
		w.sb.WriteString("while (")
		w.expr(n.Kids[0])
		w.sb.WriteString(") ")
		w.block(n.Kids[1])
	case ast.KindAssign:
		w.writeIndent()
		w.assign(n)
		w.sb.WriteString(";\n")
	case ast.KindExprStmt:
		w.writeIndent()
		w.expr(n.Kids[0])
		w.sb.WriteString(";\n")
	case ast.KindBreak:
		w.writeIndent()
		w.sb.WriteString("break;\n")
	case ast.KindContinue:
		w.writeIndent()
		w.sb.WriteString("continue;\n")
	case ast.KindDiscard:
		w.writeIndent()
		w.sb.WriteString("discard;\n")
	case ast.KindBlock:
		w.writeIndent()
		w.block(id)
	case ast.KindComment:
		w.comment(n.Text)
	}
}

// inlineStmt renders a statement without indentation or trailing
// punctuation, for for-loop headers.
func (w *writer) inlineStmt(id ast.NodeID) {
	if !id.Valid() {
		return
	}
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindVarDecl:
		w.localVar(n)
	case ast.KindAssign:
		w.assign(n)
	case ast.KindExprStmt:
		w.expr(n.Kids[0])
	case ast.KindBlock:
		for i, kid := range n.Kids {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.inlineStmt(kid)
		}
	}
}

// localVar renders a local declaration without the trailing ';'. GLSL
// requires a type; declarations that reach generation untyped fall back
// to a type inferred from the initializer.
func (w *writer) localVar(n *ast.Node) {
	ty := n.Type
	if ty.IsVoid() && len(n.Kids) > 0 && n.Kids[0].Valid() {
		ty = w.inferType(n.Kids[0])
	}
	if n.Qual.Const {
		w.sb.WriteString("const ")
	}
	w.sb.WriteString(w.declString(ty, w.declName(n.Name, n.Span)))
	w.initializer(n)
}

// inferType is a shallow structural type guess for initializers whose
// declarations carry no type. Semantic analysis fills declaration types
// before generation; this is the fallback when it could not.
func (w *writer) inferType(id ast.NodeID) ast.TypeSpec {
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindConstruct:
		return n.Type
	case ast.KindLiteral:
		switch n.Lit {
		case ast.LitInt:
			return ast.Scalar(ast.ScalarI32)
		case ast.LitBool:
			return ast.Scalar(ast.ScalarBool)
		default:
			return ast.Scalar(ast.ScalarF32)
		}
	case ast.KindBinary, ast.KindUnary:
		return w.inferType(n.Kids[0])
	case ast.KindTernary:
		return w.inferType(n.Kids[1])
	default:
		w.diags.Warnf(diag.CodeValidation, n.Span,
			"untyped declaration defaulted to float")
		return ast.Scalar(ast.ScalarF32)
	}
}

func (w *writer) ifStmt(n *ast.Node) {
	w.sb.WriteString("if (")
	w.expr(n.Kids[0])
	w.sb.WriteString(") ")
	w.block(n.Kids[1])
	if len(n.Kids) > 2 && n.Kids[2].Valid() {
		trimNewline(&w.sb)
		w.sb.WriteString(" else ")
		els := w.m.Node(n.Kids[2])
		if els.Kind == ast.KindIf {
			w.ifStmt(els)
		} else {
			w.block(n.Kids[2])
		}
	}
}

func (w *writer) assign(n *ast.Node) {
	w.expr(n.Kids[0])
	fmt.Fprintf(&w.sb, " %s ", n.Op.Symbol())
	w.expr(n.Kids[1])
}

// Expressions

func (w *writer) expr(id ast.NodeID) {
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindIdent:
		w.sb.WriteString(w.ref(n.Name))
	case ast.KindLiteral:
		w.literal(n)
	case ast.KindBinary:
		w.child(n.Kids[0], n.Op, false)
		fmt.Fprintf(&w.sb, " %s ", n.Op.Symbol())
		w.child(n.Kids[1], n.Op, true)
	case ast.KindUnary:
		w.sb.WriteString(n.Op.Symbol())
		operand := w.m.Node(n.Kids[0])
		if operand.Kind == ast.KindBinary || operand.Kind == ast.KindTernary {
			w.sb.WriteString("(")
			w.expr(n.Kids[0])
			w.sb.WriteString(")")
		} else {
			w.expr(n.Kids[0])
		}
	case ast.KindCall:
		w.call(n)
	case ast.KindConstruct:
		w.sb.WriteString(w.typeString(n.Type))
		w.args(n.Kids)
	case ast.KindIndex:
		w.expr(n.Kids[0])
		w.sb.WriteString("[")
		w.expr(n.Kids[1])
		w.sb.WriteString("]")
	case ast.KindMember:
		w.expr(n.Kids[0])
		w.sb.WriteString(".")
		w.sb.WriteString(n.Name)
	case ast.KindTernary:
		// Always parenthesized; the precedence table stops at binary
		// operators.
		w.sb.WriteString("(")
		w.expr(n.Kids[0])
		w.sb.WriteString(" ? ")
		w.expr(n.Kids[1])
		w.sb.WriteString(" : ")
		w.expr(n.Kids[2])
		w.sb.WriteString(")")
	}
}

func (w *writer) child(id ast.NodeID, parent ast.Op, right bool) {
	n := w.m.Node(id)
	need := false
	if n.Kind == ast.KindBinary {
		cp, pp := n.Op.Precedence(), parent.Precedence()
		need = cp < pp || (cp == pp && right)
	}
	if need {
		w.sb.WriteString("(")
		w.expr(id)
		w.sb.WriteString(")")
	} else {
		w.expr(id)
	}
}

func (w *writer) call(n *ast.Node) {
	// GLSL has no method calls; the transform stage rewrites them to
	// free calls. A survivor degrades to free-call form with the
	// receiver first.
	if _, builtin := Builtins[n.Name]; builtin {
		w.sb.WriteString(n.Name)
	} else {
		w.sb.WriteString(w.ref(n.Name))
	}
	w.args(n.Kids)
}

func (w *writer) args(kids []ast.NodeID) {
	w.sb.WriteString("(")
	for i, arg := range kids {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.expr(arg)
	}
	w.sb.WriteString(")")
}

func (w *writer) literal(n *ast.Node) {
	switch n.Lit {
	case ast.LitFloat:
		w.sb.WriteString(litfmt.Float(n.Text))
	case ast.LitInt:
		w.sb.WriteString(litfmt.Int(n.Text))
	default:
		w.sb.WriteString(n.Text)
	}
}

// declString renders "type name", folding array dimensions onto the
// name as GLSL requires: "float weights[4]".
func (w *writer) declString(t ast.TypeSpec, name string) string {
	if t.Kind == ast.TypeArray && t.Elem != nil {
		suffix := "[]"
		if t.Len > 0 {
			suffix = fmt.Sprintf("[%d]", t.Len)
		}
		return w.declString(*t.Elem, name) + suffix
	}
	return w.typeString(t) + " " + name
}

// typeString renders a TypeSpec in GLSL syntax.
func (w *writer) typeString(t ast.TypeSpec) string {
	switch t.Kind {
	case ast.TypeVoid:
		return "void"
	case ast.TypeScalar:
		return scalarName(t.Scalar)
	case ast.TypeVector:
		return fmt.Sprintf("%svec%d", vectorPrefix(t.Scalar), t.Size)
	case ast.TypeMatrix:
		if t.Cols == t.Rows {
			return fmt.Sprintf("mat%d", t.Cols)
		}
		return fmt.Sprintf("mat%dx%d", t.Cols, t.Rows)
	case ast.TypeTexture:
		return samplerName(t)
	case ast.TypeSampler:
		// Unreachable through globalVar; kept for diagnostics paths.
		return "sampler2D"
	case ast.TypeArray:
		if t.Elem == nil {
			return "float[]"
		}
		if t.Len > 0 {
			return fmt.Sprintf("%s[%d]", w.typeString(*t.Elem), t.Len)
		}
		return w.typeString(*t.Elem) + "[]"
	case ast.TypeStruct:
		return w.ref(t.Struct)
	default:
		return "float"
	}
}

func scalarName(k ast.ScalarKind) string {
	switch k {
	case ast.ScalarI32:
		return "int"
	case ast.ScalarU32:
		return "uint"
	case ast.ScalarBool:
		return "bool"
	default:
		// f16 widens to float; GLSL core has no half type.
		return "float"
	}
}

func vectorPrefix(k ast.ScalarKind) string {
	switch k {
	case ast.ScalarI32:
		return "i"
	case ast.ScalarU32:
		return "u"
	case ast.ScalarBool:
		return "b"
	default:
		return ""
	}
}

// samplerName renders a texture type as the combined GLSL sampler.
func samplerName(t ast.TypeSpec) string {
	var dim string
	switch t.Dim {
	case ast.Dim1D:
		dim = "1D"
	case ast.Dim3D:
		dim = "3D"
	case ast.DimCube:
		dim = "Cube"
	default:
		dim = "2D"
	}
	name := vectorPrefix(t.Scalar) + "sampler" + dim
	if t.Comparison {
		name += "Shadow"
	}
	return name
}

func (w *writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
}

// trimNewline removes a single trailing newline so "} else" joins.
func trimNewline(sb *strings.Builder) {
	s := sb.String()
	if strings.HasSuffix(s, "\n") {
		sb.Reset()
		sb.WriteString(s[:len(s)-1])
	}
}
