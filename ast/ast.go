package ast

// NodeID is an index into a Module's node arena.
type NodeID uint32

// InvalidNode marks an absent child (e.g. a for loop with no condition).
const InvalidNode NodeID = ^NodeID(0)

// Valid reports whether the id refers to a node.
func (id NodeID) Valid() bool { return id != InvalidNode }

// NodeKind tags the variant of a Node.
type NodeKind uint8

const (
	KindInvalid NodeKind = iota

	// Declarations
	KindVarDecl       // Name, Type, Qual, Binding; Kids[0] = optional initializer
	KindFunctionDef   // Name, Type = return type, Qual; Kids = params..., body block last
	KindParam         // Name, Type, Qual
	KindStructDecl    // Name; Kids = fields
	KindField         // Name, Type, Qual
	KindPrecisionDecl // GLSL precision statement; Text = "mediump float" etc.

	// Statements
	KindBlock    // Kids = statements
	KindReturn   // Kids[0] = optional value
	KindIf       // Kids[0] = cond, Kids[1] = then block, Kids[2] = optional else
	KindFor      // Kids[0..3] = init, cond, update, body (InvalidNode for absent parts)
	KindWhile    // Kids[0] = cond, Kids[1] = body
	KindAssign   // Op; Kids[0] = lhs, Kids[1] = rhs
	KindExprStmt // Kids[0] = expression
	KindBreak
	KindContinue
	KindDiscard
	KindComment // Text emitted verbatim as a comment (unsupported-feature placeholder)

	// Expressions
	KindIdent     // Name
	KindLiteral   // Lit, Text = lexeme
	KindBinary    // Op; Kids[0], Kids[1]
	KindUnary     // Op; Kids[0]
	KindCall      // Name = callee; Kids = args; Method: Kids[0] is the receiver
	KindConstruct // Type; Kids = args
	KindIndex     // Kids[0] = base, Kids[1] = index
	KindMember    // Name = member/swizzle; Kids[0] = base
	KindTernary   // Kids[0] = cond, Kids[1] = then, Kids[2] = else
)

// IsDecl reports whether the kind is a declaration.
func (k NodeKind) IsDecl() bool {
	return k >= KindVarDecl && k <= KindPrecisionDecl
}

// IsExpr reports whether the kind is an expression.
func (k NodeKind) IsExpr() bool {
	return k >= KindIdent && k <= KindTernary
}

// LitKind classifies literal tokens.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
)

// Stage represents the shader stage of an entry point.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageFragment
	StageCompute
)

// String returns the WGSL attribute name for the stage.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "none"
	}
}

// Qualifiers carries declaration qualifiers from any dialect. Fields a
// dialect does not use stay zero.
type Qualifiers struct {
	// AddressSpace: "uniform", "storage", "private", "workgroup",
	// "function", or "" for plain locals.
	AddressSpace string

	// AccessMode: "read", "write", "read_write" for storage resources.
	AccessMode string

	// InOut: "in", "out", "inout" for parameters and stage IO globals.
	InOut string

	// Stage marks entry points.
	Stage Stage

	// Workgroup is the compute workgroup size when Stage == StageCompute.
	Workgroup [3]uint32

	// Location is the IO location index, -1 when absent.
	Location int32

	// Builtin names a stage builtin in WGSL spelling ("position",
	// "vertex_index", "frag_depth", ...), "" when absent.
	Builtin string

	// Interpolation: "flat", "linear", "perspective", "" for default.
	Interpolation string

	// Precision: GLSL "lowp", "mediump", "highp", "" for default.
	Precision string

	// Const marks let/const declarations.
	Const bool
}

// NoLocation is the Location value for declarations without one.
const NoLocation int32 = -1

// Node is the tagged variant stored in the arena. Which fields are
// meaningful depends on Kind; see the kind constants.
type Node struct {
	Kind    NodeKind
	Span    Span
	Name    string
	Type    TypeSpec
	Qual    Qualifiers
	Binding *ResourceBinding
	Op      Op
	Lit     LitKind
	Method  bool
	Text    string
	Kids    []NodeID
}

// Module owns the node arena and the ordered list of top-level
// declarations. Declaration order is significant: binding remapping
// allocates slots in this order.
type Module struct {
	nodes []Node

	// Decls are the top-level declarations in source order.
	Decls []NodeID
}

// NewModule returns an empty module with a small preallocated arena.
func NewModule() *Module {
	return &Module{nodes: make([]Node, 0, 64)}
}

// Add appends a node to the arena and returns its id.
func (m *Module) Add(n Node) NodeID {
	m.nodes = append(m.nodes, n)
	return NodeID(len(m.nodes) - 1)
}

// Node returns a pointer to the node with the given id. The pointer is
// invalidated by the next Add.
func (m *Module) Node(id NodeID) *Node {
	return &m.nodes[id]
}

// Len returns the number of nodes in the arena.
func (m *Module) Len() int { return len(m.nodes) }

// WithDecls returns a view of the module sharing the node arena but
// exposing a different top-level declaration list. Back-ends use it to
// generate a subset of the module without copying the arena.
func (m *Module) WithDecls(decls []NodeID) *Module {
	return &Module{nodes: m.nodes, Decls: decls}
}

// Functions returns the ids of all top-level function definitions in
// declaration order.
func (m *Module) Functions() []NodeID {
	var out []NodeID
	for _, id := range m.Decls {
		if m.Node(id).Kind == KindFunctionDef {
			out = append(out, id)
		}
	}
	return out
}

// Resources returns the ids of all top-level declarations that carry a
// resource binding or declare a texture/sampler, in declaration order.
func (m *Module) Resources() []NodeID {
	var out []NodeID
	for _, id := range m.Decls {
		n := m.Node(id)
		if n.Kind != KindVarDecl {
			continue
		}
		if n.Binding != nil || n.Type.Kind == TypeTexture || n.Type.Kind == TypeSampler {
			out = append(out, id)
		}
	}
	return out
}

// Body returns the body block of a function definition, or InvalidNode.
func (m *Module) Body(fn NodeID) NodeID {
	n := m.Node(fn)
	if n.Kind != KindFunctionDef || len(n.Kids) == 0 {
		return InvalidNode
	}
	last := n.Kids[len(n.Kids)-1]
	if last.Valid() && m.Node(last).Kind == KindBlock {
		return last
	}
	return InvalidNode
}

// Params returns the parameter ids of a function definition.
func (m *Module) Params(fn NodeID) []NodeID {
	n := m.Node(fn)
	if n.Kind != KindFunctionDef {
		return nil
	}
	var out []NodeID
	for _, kid := range n.Kids {
		if kid.Valid() && m.Node(kid).Kind == KindParam {
			out = append(out, kid)
		}
	}
	return out
}

// Walk visits id and all nodes reachable from it in depth-first
// preorder. The visit function may return false to skip a subtree.
func (m *Module) Walk(id NodeID, visit func(NodeID) bool) {
	if !id.Valid() {
		return
	}
	if !visit(id) {
		return
	}
	for _, kid := range m.Node(id).Kids {
		m.Walk(kid, visit)
	}
}
