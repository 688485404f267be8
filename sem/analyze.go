package sem

import (
	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/glsl"
	"github.com/gogpu/shaderconv/hlsl"
	"github.com/gogpu/shaderconv/wgsl"
)

// Info is the result of semantic analysis.
type Info struct {
	// Globals is the module-level scope, kept for later passes.
	Globals *Scope

	// StructFields maps struct name to field name to field type.
	StructFields map[string]map[string]ast.TypeSpec

	// FnErrors collects the errors attributed to each function body.
	// A function present here is excluded from conversion; the rest of
	// the module proceeds.
	FnErrors map[ast.NodeID]diag.List

	// ModuleDiags holds the diagnostics not attributable to any one
	// function: duplicate globals and binding collisions. Errors here
	// fail the whole conversion.
	ModuleDiags diag.List
}

// Errored reports whether the function accumulated semantic errors.
func (i *Info) Errored(fn ast.NodeID) bool {
	return len(i.FnErrors[fn]) > 0
}

// Analyze resolves identifiers, infers missing declaration types,
// checks operator and constructor arities, and detects binding
// collisions. The module is annotated in place: local declarations
// without a type receive the inferred one.
//
// The returned list holds module-level diagnostics plus every
// function's, in declaration order.
func Analyze(m *ast.Module, lang ast.Language) (*Info, diag.List) {
	a := &analyzer{
		m:    m,
		lang: lang,
		info: &Info{
			Globals:      NewScope(nil),
			StructFields: make(map[string]map[string]ast.TypeSpec),
			FnErrors:     make(map[ast.NodeID]diag.List),
		},
		curFn: ast.InvalidNode,
	}

	for _, sym := range predeclared {
		a.info.Globals.Declare(sym)
	}
	a.collectGlobals()
	a.checkBindings()

	for _, fn := range m.Functions() {
		a.function(fn)
	}

	a.info.ModuleDiags = a.diags
	diags := a.diags
	for _, fn := range m.Functions() {
		diags = append(diags, a.info.FnErrors[fn]...)
	}
	return a.info, diags
}

type analyzer struct {
	m     *ast.Module
	lang  ast.Language
	info  *Info
	diags diag.List
	curFn ast.NodeID
}

// errorf records a semantic error against the current function, or the
// module when emitted outside a body.
func (a *analyzer) errorf(span ast.Span, format string, args ...any) {
	if a.curFn.Valid() {
		list := a.info.FnErrors[a.curFn]
		list.Errorf(diag.CodeSemantic, span, format, args...)
		a.info.FnErrors[a.curFn] = list
		return
	}
	a.diags.Errorf(diag.CodeSemantic, span, format, args...)
}

// collectGlobals declares all module-scope names before any body is
// analyzed, so declaration order between functions does not matter.
func (a *analyzer) collectGlobals() {
	for _, id := range a.m.Decls {
		n := a.m.Node(id)
		switch n.Kind {
		case ast.KindStructDecl:
			fields := make(map[string]ast.TypeSpec, len(n.Kids))
			for _, fid := range n.Kids {
				f := a.m.Node(fid)
				fields[f.Name] = f.Type
			}
			a.info.StructFields[n.Name] = fields
			if !a.info.Globals.Declare(Symbol{Name: n.Name, Kind: SymStruct, Node: id}) {
				a.diags.Errorf(diag.CodeSemantic, n.Span, "duplicate declaration of %q", n.Name)
			}
		case ast.KindVarDecl:
			kind := SymVar
			if n.Qual.Const {
				kind = SymConst
			}
			ty := n.Type
			if ty.IsVoid() && len(n.Kids) > 0 && n.Kids[0].Valid() {
				ty = a.exprType(a.info.Globals, n.Kids[0])
				a.m.Node(id).Type = ty
			}
			if !a.info.Globals.Declare(Symbol{Name: n.Name, Kind: kind, Type: ty, Node: id}) {
				a.diags.Errorf(diag.CodeSemantic, n.Span, "duplicate declaration of %q", n.Name)
			}
		case ast.KindFunctionDef:
			if !a.info.Globals.Declare(Symbol{Name: n.Name, Kind: SymFunc, Type: n.Type, Node: id}) {
				a.diags.Errorf(diag.CodeSemantic, n.Span, "duplicate declaration of %q", n.Name)
			}
		}
	}
}

// checkBindings enforces binding uniqueness: no two resources may share
// an effective slot in the source language's binding model.
func (a *analyzer) checkBindings() {
	seen := make(map[string]string)
	for _, id := range a.m.Resources() {
		n := a.m.Node(id)
		if n.Binding == nil {
			continue
		}
		slot, explicit := n.Binding.EffectiveSlot(a.lang)
		if !explicit {
			continue
		}
		if other, dup := seen[slot]; dup {
			a.diags.Errorf(diag.CodeSemantic, n.Span,
				"binding collision: %q and %q both use %s", other, n.Name, slot)
			continue
		}
		seen[slot] = n.Name
	}
}

func (a *analyzer) function(fn ast.NodeID) {
	a.curFn = fn
	defer func() { a.curFn = ast.InvalidNode }()

	scope := NewScope(a.info.Globals)
	for _, pid := range a.m.Params(fn) {
		p := a.m.Node(pid)
		if !scope.Declare(Symbol{Name: p.Name, Kind: SymVar, Type: p.Type, Node: pid}) {
			a.errorf(p.Span, "duplicate parameter %q", p.Name)
		}
	}

	body := a.m.Body(fn)
	if body.Valid() {
		a.block(scope, body)
	}
}

func (a *analyzer) block(parent *Scope, id ast.NodeID) {
	scope := NewScope(parent)
	for _, sid := range a.m.Node(id).Kids {
		a.stmt(scope, sid)
	}
}

func (a *analyzer) stmt(scope *Scope, id ast.NodeID) {
	if !id.Valid() {
		return
	}
	n := a.m.Node(id)
	switch n.Kind {
	case ast.KindVarDecl:
		if len(n.Kids) > 0 && n.Kids[0].Valid() {
			a.expr(scope, n.Kids[0])
		}
		ty := n.Type
		if ty.IsVoid() && len(n.Kids) > 0 && n.Kids[0].Valid() {
			ty = a.exprType(scope, n.Kids[0])
			a.m.Node(id).Type = ty
		}
		kind := SymVar
		if n.Qual.Const {
			kind = SymConst
		}
		if !scope.Declare(Symbol{Name: n.Name, Kind: kind, Type: ty, Node: id}) {
			a.errorf(n.Span, "duplicate declaration of %q", n.Name)
		}
	case ast.KindAssign:
		a.assign(scope, n)
	case ast.KindExprStmt:
		a.expr(scope, n.Kids[0])
	case ast.KindReturn:
		a.returnStmt(scope, n)
	case ast.KindIf:
		a.expr(scope, n.Kids[0])
		a.block(scope, n.Kids[1])
		if len(n.Kids) > 2 && n.Kids[2].Valid() {
			els := a.m.Node(n.Kids[2])
			if els.Kind == ast.KindIf {
				a.stmt(scope, n.Kids[2])
			} else {
				a.block(scope, n.Kids[2])
			}
		}
	case ast.KindFor:
		inner := NewScope(scope)
		a.stmt(inner, n.Kids[0])
		if n.Kids[1].Valid() {
			a.expr(inner, n.Kids[1])
		}
		a.stmt(inner, n.Kids[2])
		if n.Kids[3].Valid() {
			a.block(inner, n.Kids[3])
		}
	case ast.KindWhile:
		a.expr(scope, n.Kids[0])
		a.block(scope, n.Kids[1])
	case ast.KindBlock:
		a.block(scope, id)
	case ast.KindBreak, ast.KindContinue, ast.KindDiscard, ast.KindComment:
		// Nothing to resolve.
	}
}

func (a *analyzer) assign(scope *Scope, n *ast.Node) {
	lhs := a.m.Node(n.Kids[0])
	switch lhs.Kind {
	case ast.KindIdent, ast.KindMember, ast.KindIndex:
	default:
		a.errorf(lhs.Span, "cannot assign to this expression")
	}
	a.expr(scope, n.Kids[0])
	a.expr(scope, n.Kids[1])

	lt := a.exprType(scope, n.Kids[0])
	rt := a.exprType(scope, n.Kids[1])
	if !arityCompatible(lt, rt) {
		a.errorf(n.Span, "cannot assign %s to %s: component counts differ",
			rt.String(), lt.String())
	}
	if sym, ok := scope.Resolve(lhs.Name); ok && lhs.Kind == ast.KindIdent && sym.Kind == SymConst {
		a.errorf(lhs.Span, "cannot assign to constant %q", lhs.Name)
	}
}

func (a *analyzer) returnStmt(scope *Scope, n *ast.Node) {
	if !a.curFn.Valid() {
		return
	}
	fn := a.m.Node(a.curFn)
	hasValue := len(n.Kids) > 0 && n.Kids[0].Valid()
	if hasValue {
		a.expr(scope, n.Kids[0])
	}
	switch {
	case fn.Type.IsVoid() && hasValue:
		a.errorf(n.Span, "%q returns no value", fn.Name)
	case !fn.Type.IsVoid() && !hasValue:
		a.errorf(n.Span, "%q must return %s", fn.Name, fn.Type.String())
	case hasValue:
		rt := a.exprType(scope, n.Kids[0])
		if !arityCompatible(fn.Type, rt) {
			a.errorf(n.Span, "returning %s from function of type %s", rt.String(), fn.Type.String())
		}
	}
}

// expr resolves identifiers and checks arities throughout an
// expression tree.
func (a *analyzer) expr(scope *Scope, id ast.NodeID) {
	if !id.Valid() {
		return
	}
	n := a.m.Node(id)
	switch n.Kind {
	case ast.KindIdent:
		if _, ok := scope.Resolve(n.Name); !ok {
			a.errorf(n.Span, "unknown identifier %q", n.Name)
		}
	case ast.KindBinary:
		a.expr(scope, n.Kids[0])
		a.expr(scope, n.Kids[1])
		a.checkBinary(scope, n)
	case ast.KindUnary:
		a.expr(scope, n.Kids[0])
	case ast.KindCall:
		a.call(scope, n)
	case ast.KindConstruct:
		for _, arg := range n.Kids {
			a.expr(scope, arg)
		}
		a.checkConstruct(scope, n)
	case ast.KindIndex:
		a.expr(scope, n.Kids[0])
		a.expr(scope, n.Kids[1])
	case ast.KindMember:
		a.expr(scope, n.Kids[0])
	case ast.KindTernary:
		a.expr(scope, n.Kids[0])
		a.expr(scope, n.Kids[1])
		a.expr(scope, n.Kids[2])
	}
}

func (a *analyzer) call(scope *Scope, n *ast.Node) {
	for _, arg := range n.Kids {
		a.expr(scope, arg)
	}
	if n.Method {
		if _, ok := hlsl.Methods[n.Name]; !ok {
			a.errorf(n.Span, "unknown method %q", n.Name)
		}
		return
	}
	if sym, ok := scope.Resolve(n.Name); ok && sym.Kind == SymFunc {
		return
	}
	if _, ok := builtinFuncs[n.Name]; !ok {
		a.errorf(n.Span, "unknown function %q", n.Name)
	}
}

// checkBinary enforces the broadcast rule: operands must have equal
// component counts, or one side must be a scalar. Matrix operands are
// exempt; matrix-vector products mix arities legally.
func (a *analyzer) checkBinary(scope *Scope, n *ast.Node) {
	lt := a.exprType(scope, n.Kids[0])
	rt := a.exprType(scope, n.Kids[1])
	if lt.Kind == ast.TypeMatrix || rt.Kind == ast.TypeMatrix {
		return
	}
	if !arityCompatible(lt, rt) {
		a.errorf(n.Span, "operands of %q have mismatched component counts (%s vs %s)",
			n.Op.Symbol(), lt.String(), rt.String())
	}
}

// checkConstruct verifies constructor argument arity: the components
// supplied must equal the type's arity, or be a single scalar splat.
func (a *analyzer) checkConstruct(scope *Scope, n *ast.Node) {
	want := n.Type.Arity()
	if want == 0 || len(n.Kids) == 0 {
		return
	}
	sum := uint8(0)
	for _, arg := range n.Kids {
		at := a.exprType(scope, arg).Arity()
		if at == 0 {
			return // unknown operand; do not guess
		}
		sum += at
	}
	if sum != want && sum != 1 {
		a.errorf(n.Span, "%s constructor needs %d components, got %d",
			n.Type.String(), want, sum)
	}
}

// arityCompatible implements the broadcast rule for assignments and
// operators.
func arityCompatible(l, r ast.TypeSpec) bool {
	la, ra := l.Arity(), r.Arity()
	if la == 0 || ra == 0 {
		return true // at least one side unknown; benefit of the doubt
	}
	return la == ra || la == 1 || ra == 1
}

// exprType infers the structural type of an expression. An unknown
// type comes back as void; callers treat void as "no information", not
// as an error.
func (a *analyzer) exprType(scope *Scope, id ast.NodeID) ast.TypeSpec {
	if !id.Valid() {
		return ast.Void()
	}
	n := a.m.Node(id)
	switch n.Kind {
	case ast.KindLiteral:
		switch n.Lit {
		case ast.LitInt:
			return ast.Scalar(ast.ScalarI32)
		case ast.LitBool:
			return ast.Scalar(ast.ScalarBool)
		default:
			return ast.Scalar(ast.ScalarF32)
		}
	case ast.KindIdent:
		if sym, ok := scope.Resolve(n.Name); ok {
			return sym.Type
		}
		return ast.Void()
	case ast.KindConstruct:
		return n.Type
	case ast.KindBinary:
		return a.binaryType(scope, n)
	case ast.KindUnary:
		return a.exprType(scope, n.Kids[0])
	case ast.KindTernary:
		return a.exprType(scope, n.Kids[1])
	case ast.KindCall:
		return a.callType(scope, n)
	case ast.KindMember:
		return a.memberType(scope, n)
	case ast.KindIndex:
		return a.indexType(scope, n)
	default:
		return ast.Void()
	}
}

func (a *analyzer) binaryType(scope *Scope, n *ast.Node) ast.TypeSpec {
	lt := a.exprType(scope, n.Kids[0])
	rt := a.exprType(scope, n.Kids[1])
	switch n.Op {
	case ast.OpEqual, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual,
		ast.OpGreater, ast.OpGreaterEqual, ast.OpLogicalAnd, ast.OpLogicalOr:
		return ast.Scalar(ast.ScalarBool)
	}
	// Matrix-vector products yield the vector side.
	if lt.Kind == ast.TypeMatrix && rt.Kind == ast.TypeVector {
		return rt
	}
	if lt.Kind == ast.TypeVector && rt.Kind == ast.TypeMatrix {
		return lt
	}
	// Broadcast: the wider operand wins.
	if lt.Arity() >= rt.Arity() {
		return lt
	}
	return rt
}

func (a *analyzer) callType(scope *Scope, n *ast.Node) ast.TypeSpec {
	if sym, ok := scope.Resolve(n.Name); ok && sym.Kind == SymFunc {
		return sym.Type
	}
	if ty, ok := builtinReturn(n.Name); ok {
		return ty
	}
	// Most math builtins are component-wise; mirror the first value
	// argument.
	start := 0
	if n.Method {
		start = 1
	}
	if len(n.Kids) > start {
		return a.exprType(scope, n.Kids[start])
	}
	return ast.Void()
}

func (a *analyzer) memberType(scope *Scope, n *ast.Node) ast.TypeSpec {
	base := a.exprType(scope, n.Kids[0])
	switch base.Kind {
	case ast.TypeVector, ast.TypeScalar:
		// Swizzle: the member length is the result arity.
		if len(n.Name) == 1 {
			return ast.Scalar(base.Scalar)
		}
		if len(n.Name) >= 2 && len(n.Name) <= 4 {
			return ast.Vector(base.Scalar, uint8(len(n.Name)))
		}
	case ast.TypeStruct:
		if fields, ok := a.info.StructFields[base.Struct]; ok {
			if ty, ok := fields[n.Name]; ok {
				return ty
			}
			a.errorf(n.Span, "struct %q has no field %q", base.Struct, n.Name)
		}
	}
	return ast.Void()
}

func (a *analyzer) indexType(scope *Scope, n *ast.Node) ast.TypeSpec {
	base := a.exprType(scope, n.Kids[0])
	switch base.Kind {
	case ast.TypeArray:
		if base.Elem != nil {
			return *base.Elem
		}
	case ast.TypeVector:
		return ast.Scalar(base.Scalar)
	case ast.TypeMatrix:
		return ast.Vector(base.Scalar, base.Rows)
	}
	return ast.Void()
}

// builtinFuncs is the union of every dialect's builtin set. Resolution
// is cross-dialect on purpose: the transform stage renames calls to the
// target's spelling, so at analysis time any dialect's name is valid.
var builtinFuncs = func() map[string]struct{} {
	out := make(map[string]struct{}, 256)
	for name := range wgsl.Builtins {
		out[name] = struct{}{}
	}
	for name := range glsl.Builtins {
		out[name] = struct{}{}
	}
	for name := range hlsl.Builtins {
		out[name] = struct{}{}
	}
	for _, name := range isfFuncs {
		out[name] = struct{}{}
	}
	return out
}()

// isfFuncs are the ISF host-provided sampling helpers.
var isfFuncs = []string{"IMG_PIXEL", "IMG_NORM_PIXEL", "IMG_THIS_PIXEL", "IMG_THIS_NORM_PIXEL", "IMG_SIZE"}

// builtinReturn gives return types for builtins that are not
// component-wise mirrors of their first argument.
func builtinReturn(name string) (ast.TypeSpec, bool) {
	switch name {
	case "texture", "texture2D", "textureCube", "textureLod", "texelFetch",
		"textureSample", "textureSampleLevel", "textureLoad",
		"Sample", "SampleLevel", "SampleBias", "SampleGrad", "Load",
		"IMG_PIXEL", "IMG_NORM_PIXEL", "IMG_THIS_PIXEL", "IMG_THIS_NORM_PIXEL":
		return ast.Vector(ast.ScalarF32, 4), true
	case "dot", "distance", "length", "determinant":
		return ast.Scalar(ast.ScalarF32), true
	case "all", "any", "isnan", "isinf":
		return ast.Scalar(ast.ScalarBool), true
	case "textureSize", "textureDimensions", "IMG_SIZE":
		return ast.Vector(ast.ScalarF32, 2), true
	case "arrayLength", "countbits", "countOneBits", "bitCount":
		return ast.Scalar(ast.ScalarU32), true
	default:
		return ast.TypeSpec{}, false
	}
}
