package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/internal/litfmt"
	"github.com/gogpu/shaderconv/internal/namer"
)

// Generate renders a unified AST as WGSL text. Generation is pure and
// deterministic; identifiers colliding with WGSL reserved words are
// renamed and reported as Info diagnostics.
func Generate(m *ast.Module) (string, diag.List) {
	w := &writer{
		m:       m,
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
	sb      strings.Builder
	indent  int
	diags   diag.List
	names   *namer.Namer
	renames map[string]string
}

// renameDecls assigns output names to every module-scope declaration
// up front so references anywhere in the module resolve consistently.
func (w *writer) renameDecls() {
	for _, id := range w.m.Decls {
		n := w.m.Node(id)
		switch n.Kind {
		case ast.KindVarDecl, ast.KindFunctionDef, ast.KindStructDecl:
			w.declName(n.Name, n.Span)
		}
	}
}

// declName reserves an output name for a declaration, renaming it when
// it collides with a reserved word or a previous rename.
func (w *writer) declName(name string, span ast.Span) string {
	if out, ok := w.renames[name]; ok {
		return out
	}
	out, renamed := w.names.Call(name)
	w.renames[name] = out
	if renamed {
		w.diags.Infof(diag.CodeRename, span,
			"renamed %q to %q: reserved word in WGSL", name, out)
	}
	return out
}

// ref resolves an identifier reference through the rename table.
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
		// WGSL has no precision statements; transform drops them
		// before generation, so reaching one here is a leftover.
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
		if f.Qual.Builtin != "" {
			fmt.Fprintf(&w.sb, "@builtin(%s) ", f.Qual.Builtin)
		} else if f.Qual.Location != ast.NoLocation {
			fmt.Fprintf(&w.sb, "@location(%d) ", f.Qual.Location)
		}
		fmt.Fprintf(&w.sb, "%s: %s,\n", f.Name, w.typeString(f.Type))
	}
	w.sb.WriteString("}\n")
}

func (w *writer) globalVar(n *ast.Node) {
	if n.Binding != nil && n.Binding.HasGroupBinding {
		fmt.Fprintf(&w.sb, "@group(%d) @binding(%d) ", n.Binding.Group, n.Binding.Binding)
	}

	name := w.declName(n.Name, n.Span)
	switch {
	case n.Qual.Const:
		fmt.Fprintf(&w.sb, "const %s", name)
	case n.Type.Kind == ast.TypeTexture || n.Type.Kind == ast.TypeSampler:
		fmt.Fprintf(&w.sb, "var %s", name)
	case n.Qual.AddressSpace == "storage":
		access := n.Qual.AccessMode
		if access == "" {
			access = "read"
		}
		fmt.Fprintf(&w.sb, "var<storage, %s> %s", access, name)
	case n.Qual.AddressSpace != "" && n.Qual.AddressSpace != "function":
		fmt.Fprintf(&w.sb, "var<%s> %s", n.Qual.AddressSpace, name)
	default:
		fmt.Fprintf(&w.sb, "var<private> %s", name)
	}

	if !n.Type.IsVoid() {
		fmt.Fprintf(&w.sb, ": %s", w.typeString(n.Type))
	}
	if len(n.Kids) > 0 && n.Kids[0].Valid() {
		w.sb.WriteString(" = ")
		w.expr(n.Kids[0])
	}
	w.sb.WriteString(";\n")
}

func (w *writer) function(id ast.NodeID, n *ast.Node) {
	switch n.Qual.Stage {
	case ast.StageVertex:
		w.sb.WriteString("@vertex\n")
	case ast.StageFragment:
		w.sb.WriteString("@fragment\n")
	case ast.StageCompute:
		wg := n.Qual.Workgroup
		if wg == [3]uint32{} {
			wg = [3]uint32{1, 1, 1}
		}
		fmt.Fprintf(&w.sb, "@compute @workgroup_size(%d, %d, %d)\n", wg[0], wg[1], wg[2])
	}

	fmt.Fprintf(&w.sb, "fn %s(", w.declName(n.Name, n.Span))
	params := w.m.Params(id)
	for i, pid := range params {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		p := w.m.Node(pid)
		if p.Qual.Builtin != "" {
			fmt.Fprintf(&w.sb, "@builtin(%s) ", p.Qual.Builtin)
		} else if p.Qual.Location != ast.NoLocation {
			fmt.Fprintf(&w.sb, "@location(%d) ", p.Qual.Location)
		}
		name := w.declName(p.Name, p.Span)
		fmt.Fprintf(&w.sb, "%s: %s", name, w.typeString(p.Type))
	}
	w.sb.WriteString(")")

	if !n.Type.IsVoid() {
		w.sb.WriteString(" -> ")
		if n.Qual.Builtin != "" {
			fmt.Fprintf(&w.sb, "@builtin(%s) ", n.Qual.Builtin)
		} else if n.Qual.Location != ast.NoLocation {
			fmt.Fprintf(&w.sb, "@location(%d) ", n.Qual.Location)
		} else if n.Qual.Stage == ast.StageFragment {
			w.sb.WriteString("@location(0) ")
		} else if n.Qual.Stage == ast.StageVertex && n.Type.Kind != ast.TypeStruct {
			w.sb.WriteString("@builtin(position) ")
		}
		w.sb.WriteString(w.typeString(n.Type))
	}
	w.sb.WriteString(" ")

	body := w.m.Body(id)
	if body.Valid() {
		w.block(body)
	} else {
		w.sb.WriteString("{\n}\n")
	}
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
		w.sb.WriteString("while ")
		w.expr(n.Kids[0])
		w.sb.WriteString(" ")
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
		name := w.declName(n.Name, n.Span)
		if n.Qual.Const {
			fmt.Fprintf(&w.sb, "let %s", name)
		} else {
			fmt.Fprintf(&w.sb, "var %s", name)
		}
		if !n.Type.IsVoid() {
			fmt.Fprintf(&w.sb, ": %s", w.typeString(n.Type))
		}
		if len(n.Kids) > 0 && n.Kids[0].Valid() {
			w.sb.WriteString(" = ")
			w.expr(n.Kids[0])
		}
	case ast.KindAssign:
		w.assign(n)
	case ast.KindExprStmt:
		w.expr(n.Kids[0])
	}
}

func (w *writer) localVar(n *ast.Node) {
	name := w.declName(n.Name, n.Span)
	if n.Qual.Const {
		fmt.Fprintf(&w.sb, "let %s", name)
	} else {
		fmt.Fprintf(&w.sb, "var %s", name)
	}
	if !n.Type.IsVoid() {
		fmt.Fprintf(&w.sb, ": %s", w.typeString(n.Type))
	}
	if len(n.Kids) > 0 && n.Kids[0].Valid() {
		w.sb.WriteString(" = ")
		w.expr(n.Kids[0])
	}
	w.sb.WriteString(";\n")
}

func (w *writer) ifStmt(n *ast.Node) {
	w.sb.WriteString("if ")
	w.expr(n.Kids[0])
	w.sb.WriteString(" ")
	w.block(n.Kids[1])
	if len(n.Kids) > 2 && n.Kids[2].Valid() {
		// Splice "else" before the else branch.
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
		if operand.Kind == ast.KindBinary {
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
		// WGSL has no conditional operator; select(f, t, cond) is the
		// equivalent for shader-legal operand types.
		w.sb.WriteString("select(")
		w.expr(n.Kids[2])
		w.sb.WriteString(", ")
		w.expr(n.Kids[1])
		w.sb.WriteString(", ")
		w.expr(n.Kids[0])
		w.sb.WriteString(")")
	}
}

// child emits a binary operand, parenthesizing only when precedence
// demands it.
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
	args := n.Kids
	if n.Method {
		// WGSL has no method calls; the transform stage rewrites
		// method-form calls before generation. Degrade to free-call
		// form with the receiver first.
		w.sb.WriteString(w.ref(n.Name))
		w.args(args)
		return
	}
	if n.Name == "bitcast" && n.Type.Kind != ast.TypeVoid {
		fmt.Fprintf(&w.sb, "bitcast<%s>", w.typeString(n.Type))
		w.args(args)
		return
	}
	if _, builtin := Builtins[n.Name]; builtin {
		w.sb.WriteString(n.Name)
	} else {
		w.sb.WriteString(w.ref(n.Name))
	}
	w.args(args)
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

// typeString renders a TypeSpec in WGSL syntax.
func (w *writer) typeString(t ast.TypeSpec) string {
	switch t.Kind {
	case ast.TypeStruct:
		return w.ref(t.Struct)
	case ast.TypeArray:
		var sb strings.Builder
		sb.WriteString("array<")
		if t.Elem != nil {
			sb.WriteString(w.typeString(*t.Elem))
		}
		if t.Len > 0 {
			fmt.Fprintf(&sb, ", %d", t.Len)
		}
		sb.WriteString(">")
		return sb.String()
	default:
		// The debug notation is already valid WGSL for scalars,
		// vectors, matrices, textures, and samplers.
		return t.String()
	}
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
