package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/internal/litfmt"
	"github.com/gogpu/shaderconv/internal/namer"
)

// Options controls HLSL generation.
type Options struct {
	// ShaderModel is the target model, e.g. "5.0" or "6.0". Register
	// spaces are only emitted from 5.1 up.
	ShaderModel string
}

// DefaultShaderModel is used when the caller does not choose one.
const DefaultShaderModel = "5.0"

// Generate renders a unified AST as HLSL text. Generation is pure and
// deterministic; identifiers colliding with HLSL reserved words are
// renamed and reported as Info diagnostics.
func Generate(m *ast.Module, opts Options) (string, diag.List) {
	if opts.ShaderModel == "" {
		opts.ShaderModel = DefaultShaderModel
	}
	w := &writer{
		m:       m,
		opts:    opts,
		names:   namer.New(Keywords, false),
		renames: make(map[string]string),
	}
	w.renameDecls()
	for i, id := range m.Decls {
		if i > 0 {
			w.sb.WriteString("\n")
		}
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

// spacesSupported reports whether register spaces can be emitted.
func (w *writer) spacesSupported() bool {
	return w.opts.ShaderModel >= "5.1"
}

func (w *writer) renameDecls() {
	for _, id := range w.m.Decls {
		n := w.m.Node(id)
		switch n.Kind {
		case ast.KindVarDecl, ast.KindFunctionDef, ast.KindStructDecl:
			w.declName(n.Name, n.Span)
		}
	}
}

func (w *writer) declName(name string, span ast.Span) string {
	if out, ok := w.renames[name]; ok {
		return out
	}
	out, renamed := w.names.Call(name)
	w.renames[name] = out
	if renamed {
		w.diags.Infof(diag.CodeRename, span,
			"renamed %q to %q: reserved word in HLSL", name, out)
	}
	return out
}

func (w *writer) ref(name string) string {
	if out, ok := w.renames[name]; ok {
		return out
	}
	return name
}

func (w *writer) decl(id ast.NodeID) {
	n := w.m.Node(id)
	switch n.Kind {
	case ast.KindStructDecl:
		w.structDecl(n)
	case ast.KindVarDecl:
		w.globalVar(n)
	case ast.KindFunctionDef:
		w.function(id, n)
	case ast.KindPrecisionDecl:
		// HLSL has no precision statements; the transform stage drops
		// them before generation.
		fmt.Fprintf(&w.sb, "// precision %s;\n", n.Text)
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
		if sem := fieldSemantic(f.Qual); sem != "" {
			fmt.Fprintf(&w.sb, " : %s", sem)
		}
		w.sb.WriteString(";\n")
	}
	w.sb.WriteString("};\n")
}

// fieldSemantic renders the semantic of a struct field or parameter.
func fieldSemantic(q ast.Qualifiers) string {
	if q.Builtin != "" {
		if sem, ok := builtinSemantics[q.Builtin]; ok {
			return sem
		}
		return strings.ToUpper(q.Builtin)
	}
	if q.Location != ast.NoLocation {
		return fmt.Sprintf("TEXCOORD%d", q.Location)
	}
	return ""
}

func (w *writer) register(b *ast.ResourceBinding) string {
	if b == nil || !b.HasRegister {
		return ""
	}
	if b.Space > 0 && w.spacesSupported() {
		return fmt.Sprintf(" : register(%c%d, space%d)", b.Class.RegisterClass(), b.Slot, b.Space)
	}
	return fmt.Sprintf(" : register(%c%d)", b.Class.RegisterClass(), b.Slot)
}

func (w *writer) globalVar(n *ast.Node) {
	name := w.declName(n.Name, n.Span)

	switch {
	case n.Qual.Const:
		fmt.Fprintf(&w.sb, "static const %s", w.declString(n.Type, name))
		w.initializer(n)
		w.sb.WriteString(";\n")

	case n.Type.Kind == ast.TypeTexture:
		fmt.Fprintf(&w.sb, "%s %s%s;\n", w.typeString(n.Type), name, w.register(n.Binding))

	case n.Type.Kind == ast.TypeSampler:
		kind := "SamplerState"
		if n.Type.Comparison {
			kind = "SamplerComparisonState"
		}
		fmt.Fprintf(&w.sb, "%s %s%s;\n", kind, name, w.register(n.Binding))

	case n.Qual.AddressSpace == "storage":
		w.storageBuffer(n, name)

	case n.Qual.AddressSpace == "uniform":
		w.cbuffer(n, name)

	case n.Qual.AddressSpace == "workgroup":
		fmt.Fprintf(&w.sb, "groupshared %s;\n", w.declString(n.Type, name))

	default:
		fmt.Fprintf(&w.sb, "static %s", w.declString(n.Type, name))
		w.initializer(n)
		w.sb.WriteString(";\n")
	}
}

// cbuffer wraps a uniform variable in a single-member constant buffer;
// cbuffer members are globally scoped, so references keep working.
func (w *writer) cbuffer(n *ast.Node, name string) {
	bufName := name + "_cb"
	if n.Type.Kind == ast.TypeStruct {
		bufName = n.Type.Struct + "_cb"
	}
	fmt.Fprintf(&w.sb, "cbuffer %s%s {\n    %s;\n};\n",
		bufName, w.register(n.Binding), w.declString(n.Type, name))
}

// storageBuffer renders a storage resource as a structured buffer. The
// register letter follows the unified storage class, so read-only
// buffers keep their UAV slot rather than moving to the t namespace.
func (w *writer) storageBuffer(n *ast.Node, name string) {
	elem := n.Type
	if elem.Kind == ast.TypeArray && elem.Elem != nil {
		elem = *elem.Elem
	}
	fmt.Fprintf(&w.sb, "RWStructuredBuffer<%s> %s%s;\n",
		w.typeString(elem), name, w.register(n.Binding))
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
		fmt.Fprintf(&w.sb, "[numthreads(%d, %d, %d)]\n", wg[0], wg[1], wg[2])
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
		if sem := fieldSemantic(p.Qual); sem != "" {
			fmt.Fprintf(&w.sb, " : %s", sem)
		}
	}
	w.sb.WriteString(")")

	if sem := w.returnSemantic(n); sem != "" {
		fmt.Fprintf(&w.sb, " : %s", sem)
	}
	w.sb.WriteString(" ")

	body := w.m.Body(id)
	if body.Valid() {
		w.block(body)
	} else {
		w.sb.WriteString("{\n}\n")
	}
}

// returnSemantic picks the semantic of an entry point's return value.
func (w *writer) returnSemantic(n *ast.Node) string {
	if n.Type.IsVoid() || n.Type.Kind == ast.TypeStruct {
		return ""
	}
	if n.Qual.Builtin != "" {
		if sem, ok := builtinSemantics[n.Qual.Builtin]; ok {
			return sem
		}
	}
	switch n.Qual.Stage {
	case ast.StageFragment:
		loc := n.Qual.Location
		if loc == ast.NoLocation {
			loc = 0
		}
		return fmt.Sprintf("SV_Target%d", loc)
	case ast.StageVertex:
		return "SV_Position"
	}
	if n.Qual.Location != ast.NoLocation {
		return fmt.Sprintf("TEXCOORD%d", n.Qual.Location)
	}
	return ""
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
	if n.Method && len(n.Kids) > 0 {
		// Object method form: receiver.Name(rest).
		w.expr(n.Kids[0])
		w.sb.WriteString(".")
		w.sb.WriteString(n.Name)
		w.args(n.Kids[1:])
		return
	}
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
// name: "float weights[4]".
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

// typeString renders a TypeSpec in HLSL syntax.
func (w *writer) typeString(t ast.TypeSpec) string {
	switch t.Kind {
	case ast.TypeVoid:
		return "void"
	case ast.TypeScalar:
		return scalarName(t.Scalar)
	case ast.TypeVector:
		return fmt.Sprintf("%s%d", scalarName(t.Scalar), t.Size)
	case ast.TypeMatrix:
		// HLSL spells matrices rows-first.
		return fmt.Sprintf("%s%dx%d", scalarName(t.Scalar), t.Rows, t.Cols)
	case ast.TypeTexture:
		return textureName(t)
	case ast.TypeSampler:
		if t.Comparison {
			return "SamplerComparisonState"
		}
		return "SamplerState"
	case ast.TypeArray:
		if t.Elem == nil {
			return "float"
		}
		return w.typeString(*t.Elem)
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
	case ast.ScalarF16:
		return "half"
	default:
		return "float"
	}
}

func textureName(t ast.TypeSpec) string {
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
	return fmt.Sprintf("Texture%s<%s4>", dim, scalarName(t.Scalar))
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
