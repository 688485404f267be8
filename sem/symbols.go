// Package sem implements semantic analysis over the unified AST:
// identifier resolution through a scope chain, structural type
// inference, arity checks on operators and constructors, and resource
// binding collision detection.
//
// Errors inside a function body are attributed to that function so a
// conversion can proceed for the rest of the module.
package sem

import "github.com/gogpu/shaderconv/ast"

// SymKind classifies a symbol table entry.
type SymKind uint8

const (
	SymVar SymKind = iota
	SymConst
	SymFunc
	SymStruct
	SymBuiltin
)

// Symbol is one named entity visible in a scope.
type Symbol struct {
	Name string
	Kind SymKind
	Type ast.TypeSpec // value type, or return type for functions
	Node ast.NodeID   // declaring node, InvalidNode for builtins
}

// Scope is one level of the lexical scope chain.
type Scope struct {
	parent *Scope
	syms   map[string]Symbol
}

// NewScope returns a scope nested in parent (nil for the global scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, syms: make(map[string]Symbol)}
}

// Declare adds a symbol to this scope. It reports false when the name
// is already declared at this level; shadowing an outer scope is fine.
func (s *Scope) Declare(sym Symbol) bool {
	if _, exists := s.syms[sym.Name]; exists {
		return false
	}
	s.syms[sym.Name] = sym
	return true
}

// Resolve looks a name up through the scope chain.
func (s *Scope) Resolve(name string) (Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.syms[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// predeclared are the stage builtin variables any front-end may leave
// as bare identifiers. Declaring the union is harmless: a dialect that
// never produces a name never resolves it.
var predeclared = []Symbol{
	{Name: "gl_FragCoord", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarF32, 4), Node: ast.InvalidNode},
	{Name: "gl_FragColor", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarF32, 4), Node: ast.InvalidNode},
	{Name: "gl_FragDepth", Kind: SymBuiltin, Type: ast.Scalar(ast.ScalarF32), Node: ast.InvalidNode},
	{Name: "gl_Position", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarF32, 4), Node: ast.InvalidNode},
	{Name: "gl_VertexID", Kind: SymBuiltin, Type: ast.Scalar(ast.ScalarI32), Node: ast.InvalidNode},
	{Name: "gl_InstanceID", Kind: SymBuiltin, Type: ast.Scalar(ast.ScalarI32), Node: ast.InvalidNode},
	{Name: "gl_GlobalInvocationID", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarU32, 3), Node: ast.InvalidNode},
	{Name: "gl_LocalInvocationID", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarU32, 3), Node: ast.InvalidNode},
	{Name: "gl_WorkGroupID", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarU32, 3), Node: ast.InvalidNode},
	{Name: "isf_FragNormCoord", Kind: SymBuiltin, Type: ast.Vector(ast.ScalarF32, 2), Node: ast.InvalidNode},
}
