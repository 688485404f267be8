package ast

// Op identifies an operator in unary, binary, and assignment nodes.
type Op uint8

const (
	OpNone Op = iota

	// Binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLogicalAnd
	OpLogicalOr
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Unary
	OpNegate
	OpNot
	OpBitNot

	// Assignment
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign
)

// Symbol returns the operator's spelling. All four dialects agree on
// operator syntax.
func (o Op) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpLogicalAnd:
		return "&&"
	case OpLogicalOr:
		return "||"
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpNegate:
		return "-"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	case OpAssign:
		return "="
	case OpAddAssign:
		return "+="
	case OpSubAssign:
		return "-="
	case OpMulAssign:
		return "*="
	case OpDivAssign:
		return "/="
	case OpModAssign:
		return "%="
	case OpAndAssign:
		return "&="
	case OpOrAssign:
		return "|="
	case OpXorAssign:
		return "^="
	case OpShlAssign:
		return "<<="
	case OpShrAssign:
		return ">>="
	default:
		return "?"
	}
}

// Precedence returns the binding strength of a binary operator.
// Higher binds tighter. Used by back-ends to decide where parentheses
// are required; unary and postfix expressions sit above this scale.
func (o Op) Precedence() int {
	switch o {
	case OpMul, OpDiv, OpMod:
		return 10
	case OpAdd, OpSub:
		return 9
	case OpShl, OpShr:
		return 8
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return 7
	case OpEqual, OpNotEqual:
		return 6
	case OpBitAnd:
		return 5
	case OpBitXor:
		return 4
	case OpBitOr:
		return 3
	case OpLogicalAnd:
		return 2
	case OpLogicalOr:
		return 1
	default:
		return -1
	}
}

// IsAssign reports whether the operator is an assignment form.
func (o Op) IsAssign() bool {
	return o >= OpAssign && o <= OpShrAssign
}
