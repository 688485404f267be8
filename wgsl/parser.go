package wgsl

import (
	"strconv"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Parse parses WGSL source into the unified AST. It never panics on
// malformed input: syntax errors are recorded as diagnostics, parsing
// resumes at the next declaration or statement boundary, and a
// best-effort partial AST is always returned.
func Parse(source string) (*ast.Module, diag.List) {
	tokens := newLexer(source).tokenize()

	p := &parser{m: ast.NewModule()}
	for _, tok := range tokens {
		if tok.Kind == ast.TokenError {
			p.diags.Errorf(diag.CodeLex, tok.Span, "invalid character %q", tok.Lexeme)
			continue
		}
		p.tokens = append(p.tokens, tok)
	}

	for !p.isAtEnd() {
		before := p.current
		id, ok := p.declaration()
		if !ok {
			p.synchronize()
			if p.current == before {
				p.advance()
			}
			continue
		}
		if id.Valid() {
			p.m.Decls = append(p.m.Decls, id)
		}
	}
	return p.m, p.diags
}

type parser struct {
	tokens  []ast.Token
	current int
	m       *ast.Module
	diags   diag.List
}

// attribute is a parsed @name(args) annotation, applied to the next
// declaration.
type attribute struct {
	name string
	args []string
	span ast.Span
}

func (p *parser) declaration() (ast.NodeID, bool) {
	attrs := p.attributes()

	switch {
	case p.checkKeyword("fn"):
		return p.functionDecl(attrs)
	case p.checkKeyword("struct"):
		return p.structDecl()
	case p.checkKeyword("var"):
		return p.varDecl(attrs, true)
	case p.checkKeyword("let"), p.checkKeyword("const"), p.checkKeyword("override"):
		return p.constDecl()
	case p.checkKeyword("enable"), p.checkKeyword("requires"),
		p.checkKeyword("diagnostic"), p.checkKeyword("const_assert"),
		p.checkKeyword("alias"):
		// Directives carry no convertible semantics; skip to ';'.
		p.skipToSemicolon()
		return ast.InvalidNode, true
	case p.check(ast.TokenEOF):
		p.advance()
		return ast.InvalidNode, true
	default:
		p.errorAtCurrent("expected declaration, found %q", p.peek().Lexeme)
		return ast.InvalidNode, false
	}
}

// attributes parses a run of @name or @name(arg, ...) annotations.
func (p *parser) attributes() []attribute {
	var attrs []attribute
	for p.check(ast.TokenAt) {
		at := p.advance()
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected attribute name after '@'")
			continue
		}
		name := p.advance()
		attr := attribute{name: name.Lexeme, span: at.Span}
		if p.match(ast.TokenLeftParen) {
			for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
				tok := p.advance()
				attr.args = append(attr.args, tok.Lexeme)
				if !p.match(ast.TokenComma) {
					break
				}
			}
			p.expect(ast.TokenRightParen)
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

func (p *parser) applyAttrs(attrs []attribute, qual *ast.Qualifiers, binding **ast.ResourceBinding) {
	for _, a := range attrs {
		switch a.name {
		case "group":
			b := ensureBinding(binding)
			b.Group = attrUint(a, 0)
			b.HasGroupBinding = true
		case "binding":
			b := ensureBinding(binding)
			b.Binding = attrUint(a, 0)
			b.HasGroupBinding = true
		case "vertex":
			qual.Stage = ast.StageVertex
		case "fragment":
			qual.Stage = ast.StageFragment
		case "compute":
			qual.Stage = ast.StageCompute
		case "workgroup_size":
			qual.Workgroup = [3]uint32{1, 1, 1}
			for i := 0; i < 3 && i < len(a.args); i++ {
				qual.Workgroup[i] = parseUint(a.args[i], 1)
			}
		case "location":
			qual.Location = int32(attrUint(a, 0))
		case "builtin":
			if len(a.args) > 0 {
				qual.Builtin = a.args[0]
			}
		case "interpolate":
			if len(a.args) > 0 {
				qual.Interpolation = a.args[0]
			}
		default:
			p.diags.Warnf(diag.CodeSyntax, a.span, "ignoring unknown attribute @%s", a.name)
		}
	}
}

func ensureBinding(b **ast.ResourceBinding) *ast.ResourceBinding {
	if *b == nil {
		*b = &ast.ResourceBinding{}
	}
	return *b
}

func attrUint(a attribute, def uint32) uint32 {
	if len(a.args) == 0 {
		return def
	}
	return parseUint(a.args[0], def)
}

func parseUint(s string, def uint32) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

func (p *parser) functionDecl(attrs []attribute) (ast.NodeID, bool) {
	start := p.advance() // fn

	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected function name")
		return ast.InvalidNode, false
	}
	name := p.advance()

	if !p.expect(ast.TokenLeftParen) {
		return ast.InvalidNode, false
	}

	fn := ast.Node{
		Kind: ast.KindFunctionDef,
		Name: name.Lexeme,
		Span: start.Span,
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	}
	p.applyAttrs(attrs, &fn.Qual, new(*ast.ResourceBinding))

	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		param, ok := p.parameter()
		if !ok {
			return ast.InvalidNode, false
		}
		fn.Kids = append(fn.Kids, param)
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}

	fn.Type = ast.Void()
	if p.match(ast.TokenArrow) {
		retAttrs := p.attributes()
		retQual := ast.Qualifiers{Location: ast.NoLocation}
		p.applyAttrs(retAttrs, &retQual, new(*ast.ResourceBinding))
		if retQual.Location != ast.NoLocation {
			fn.Qual.Location = retQual.Location
		}
		if retQual.Builtin != "" {
			fn.Qual.Builtin = retQual.Builtin
		}
		rt, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		fn.Type = rt
	}

	body, ok := p.block()
	if !ok {
		return ast.InvalidNode, false
	}
	fn.Kids = append(fn.Kids, body)
	return p.m.Add(fn), true
}

func (p *parser) parameter() (ast.NodeID, bool) {
	attrs := p.attributes()
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected parameter name")
		return ast.InvalidNode, false
	}
	name := p.advance()
	if !p.expect(ast.TokenColon) {
		return ast.InvalidNode, false
	}
	ty, ok := p.typeSpec()
	if !ok {
		return ast.InvalidNode, false
	}
	param := ast.Node{
		Kind: ast.KindParam,
		Name: name.Lexeme,
		Type: ty,
		Span: name.Span,
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	}
	p.applyAttrs(attrs, &param.Qual, new(*ast.ResourceBinding))
	return p.m.Add(param), true
}

func (p *parser) structDecl() (ast.NodeID, bool) {
	start := p.advance() // struct
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected struct name")
		return ast.InvalidNode, false
	}
	name := p.advance()
	if !p.expect(ast.TokenLeftBrace) {
		return ast.InvalidNode, false
	}

	decl := ast.Node{Kind: ast.KindStructDecl, Name: name.Lexeme, Span: start.Span}
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		attrs := p.attributes()
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected struct member name")
			return ast.InvalidNode, false
		}
		fieldName := p.advance()
		if !p.expect(ast.TokenColon) {
			return ast.InvalidNode, false
		}
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		field := ast.Node{
			Kind: ast.KindField,
			Name: fieldName.Lexeme,
			Type: ty,
			Span: fieldName.Span,
			Qual: ast.Qualifiers{Location: ast.NoLocation},
		}
		p.applyAttrs(attrs, &field.Qual, new(*ast.ResourceBinding))
		decl.Kids = append(decl.Kids, p.m.Add(field))
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightBrace) {
		return ast.InvalidNode, false
	}
	p.match(ast.TokenSemicolon) // optional trailing ';'
	return p.m.Add(decl), true
}

// varDecl parses var declarations, global or local.
func (p *parser) varDecl(attrs []attribute, global bool) (ast.NodeID, bool) {
	start := p.advance() // var

	decl := ast.Node{
		Kind: ast.KindVarDecl,
		Span: start.Span,
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	}
	p.applyAttrs(attrs, &decl.Qual, &decl.Binding)

	// var<uniform>, var<storage, read_write>, var<private>, ...
	if p.match(ast.TokenLess) {
		if p.check(ast.TokenIdent) {
			decl.Qual.AddressSpace = p.advance().Lexeme
		}
		if p.match(ast.TokenComma) && p.check(ast.TokenIdent) {
			decl.Qual.AccessMode = p.advance().Lexeme
		}
		if !p.expect(ast.TokenGreater) {
			return ast.InvalidNode, false
		}
	} else if global {
		// Module-scope var without an address space is a handle
		// (texture/sampler) or private variable; leave space empty and
		// classify after the type is known.
	} else {
		decl.Qual.AddressSpace = "function"
	}

	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected variable name")
		return ast.InvalidNode, false
	}
	decl.Name = p.advance().Lexeme

	if p.match(ast.TokenColon) {
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		decl.Type = ty
	}

	init := ast.InvalidNode
	if p.match(ast.TokenEqual) {
		e, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		init = e
	}
	if !p.expect(ast.TokenSemicolon) {
		return ast.InvalidNode, false
	}
	if init.Valid() {
		decl.Kids = append(decl.Kids, init)
	}

	if decl.Binding != nil {
		decl.Binding.Class = classify(decl.Qual.AddressSpace, decl.Type)
	}
	return p.m.Add(decl), true
}

// classify maps a WGSL address space and type to a resource class.
func classify(space string, ty ast.TypeSpec) ast.ResourceClass {
	switch {
	case ty.Kind == ast.TypeTexture:
		return ast.ClassTexture
	case ty.Kind == ast.TypeSampler:
		return ast.ClassSampler
	case space == "storage":
		return ast.ClassStorageBuffer
	default:
		return ast.ClassUniformBuffer
	}
}

// constDecl parses let/const/override declarations.
func (p *parser) constDecl() (ast.NodeID, bool) {
	start := p.advance() // let | const | override

	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected name after %q", start.Lexeme)
		return ast.InvalidNode, false
	}
	decl := ast.Node{
		Kind: ast.KindVarDecl,
		Name: p.advance().Lexeme,
		Span: start.Span,
		Qual: ast.Qualifiers{Const: true, Location: ast.NoLocation},
	}
	if p.match(ast.TokenColon) {
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		decl.Type = ty
	}
	if p.match(ast.TokenEqual) {
		e, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		decl.Kids = append(decl.Kids, e)
	}
	if !p.expect(ast.TokenSemicolon) {
		return ast.InvalidNode, false
	}
	return p.m.Add(decl), true
}

// typeSpec parses a type.
func (p *parser) typeSpec() (ast.TypeSpec, bool) {
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected type, found %q", p.peek().Lexeme)
		return ast.TypeSpec{}, false
	}
	name := p.advance()

	if sk, ok := scalarKinds[name.Lexeme]; ok {
		return ast.Scalar(sk), true
	}
	if size, ok := vectorSizes[name.Lexeme]; ok {
		sk, ok := p.typeParam()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Vector(sk, size), true
	}
	if dims, ok := matrixDims[name.Lexeme]; ok {
		sk, ok := p.typeParam()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Matrix(sk, dims[0], dims[1]), true
	}
	if dim, ok := textureDims[name.Lexeme]; ok {
		sk, ok := p.typeParam()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Texture(dim, sk), true
	}
	switch name.Lexeme {
	case "sampler":
		return ast.Sampler(false), true
	case "sampler_comparison":
		return ast.Sampler(true), true
	case "array":
		if !p.expect(ast.TokenLess) {
			return ast.TypeSpec{}, false
		}
		elem, ok := p.typeSpec()
		if !ok {
			return ast.TypeSpec{}, false
		}
		var length uint32
		if p.match(ast.TokenComma) {
			if p.check(ast.TokenIntLiteral) {
				length = parseUint(p.advance().Lexeme, 0)
			}
		}
		if !p.expect(ast.TokenGreater) {
			return ast.TypeSpec{}, false
		}
		return ast.Array(elem, length), true
	default:
		return ast.Struct(name.Lexeme), true
	}
}

// typeParam parses the <scalar> suffix on generic types. WGSL allows
// omitting it in some contexts; f32 is the default element type.
func (p *parser) typeParam() (ast.ScalarKind, bool) {
	if !p.match(ast.TokenLess) {
		return ast.ScalarF32, true
	}
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected scalar type parameter")
		return 0, false
	}
	name := p.advance()
	sk, ok := scalarKinds[name.Lexeme]
	if !ok {
		p.diags.Errorf(diag.CodeSyntax, name.Span, "unknown scalar type %q", name.Lexeme)
		return 0, false
	}
	if !p.expect(ast.TokenGreater) {
		return 0, false
	}
	return sk, true
}

var scalarKinds = map[string]ast.ScalarKind{
	"f32":  ast.ScalarF32,
	"i32":  ast.ScalarI32,
	"u32":  ast.ScalarU32,
	"bool": ast.ScalarBool,
	"f16":  ast.ScalarF16,
}

var vectorSizes = map[string]uint8{
	"vec2": 2, "vec3": 3, "vec4": 4,
}

// matrixDims maps type names to [cols, rows].
var matrixDims = map[string][2]uint8{
	"mat2x2": {2, 2}, "mat2x3": {2, 3}, "mat2x4": {2, 4},
	"mat3x2": {3, 2}, "mat3x3": {3, 3}, "mat3x4": {3, 4},
	"mat4x2": {4, 2}, "mat4x3": {4, 3}, "mat4x4": {4, 4},
}

var textureDims = map[string]ast.TextureDim{
	"texture_1d":   ast.Dim1D,
	"texture_2d":   ast.Dim2D,
	"texture_3d":   ast.Dim3D,
	"texture_cube": ast.DimCube,
}

// isTypeName reports whether an identifier starts a type constructor.
func isTypeName(name string) bool {
	if _, ok := scalarKinds[name]; ok {
		return true
	}
	if _, ok := vectorSizes[name]; ok {
		return true
	}
	if _, ok := matrixDims[name]; ok {
		return true
	}
	return name == "array"
}

// Statements

func (p *parser) block() (ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftBrace) {
		return ast.InvalidNode, false
	}
	return p.blockBody()
}

func (p *parser) blockBody() (ast.NodeID, bool) {
	start := p.previous()
	blk := ast.Node{Kind: ast.KindBlock, Span: start.Span}
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		before := p.current
		stmt, ok := p.statement()
		if !ok {
			p.synchronizeStatement()
			if p.current == before {
				p.advance()
			}
			continue
		}
		if stmt.Valid() {
			blk.Kids = append(blk.Kids, stmt)
		}
	}
	if !p.expect(ast.TokenRightBrace) {
		return ast.InvalidNode, false
	}
	return p.m.Add(blk), true
}

func (p *parser) statement() (ast.NodeID, bool) {
	switch {
	case p.checkKeyword("var"):
		return p.varDecl(nil, false)
	case p.checkKeyword("let"), p.checkKeyword("const"):
		return p.constDecl()
	case p.checkKeyword("return"):
		tok := p.advance()
		ret := ast.Node{Kind: ast.KindReturn, Span: tok.Span}
		if !p.check(ast.TokenSemicolon) {
			e, ok := p.expression()
			if !ok {
				return ast.InvalidNode, false
			}
			ret.Kids = append(ret.Kids, e)
		}
		if !p.expect(ast.TokenSemicolon) {
			return ast.InvalidNode, false
		}
		return p.m.Add(ret), true
	case p.checkKeyword("if"):
		return p.ifStatement()
	case p.checkKeyword("for"):
		return p.forStatement()
	case p.checkKeyword("while"):
		tok := p.advance()
		cond, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		body, ok := p.block()
		if !ok {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{Kind: ast.KindWhile, Span: tok.Span, Kids: []ast.NodeID{cond, body}}), true
	case p.checkKeyword("break"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{Kind: ast.KindBreak, Span: tok.Span}), true
	case p.checkKeyword("continue"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{Kind: ast.KindContinue, Span: tok.Span}), true
	case p.checkKeyword("discard"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{Kind: ast.KindDiscard, Span: tok.Span}), true
	case p.check(ast.TokenLeftBrace):
		return p.block()
	default:
		stmt, ok := p.simpleStatement()
		if !ok {
			return ast.InvalidNode, false
		}
		if !p.expect(ast.TokenSemicolon) {
			return ast.InvalidNode, false
		}
		return stmt, true
	}
}

func (p *parser) ifStatement() (ast.NodeID, bool) {
	tok := p.advance() // if
	cond, ok := p.expression()
	if !ok {
		return ast.InvalidNode, false
	}
	then, ok := p.block()
	if !ok {
		return ast.InvalidNode, false
	}
	elseBranch := ast.InvalidNode
	if p.checkKeyword("else") {
		p.advance()
		if p.checkKeyword("if") {
			elseBranch, ok = p.ifStatement()
		} else {
			elseBranch, ok = p.block()
		}
		if !ok {
			return ast.InvalidNode, false
		}
	}
	kids := []ast.NodeID{cond, then}
	if elseBranch.Valid() {
		kids = append(kids, elseBranch)
	}
	return p.m.Add(ast.Node{Kind: ast.KindIf, Span: tok.Span, Kids: kids}), true
}

func (p *parser) forStatement() (ast.NodeID, bool) {
	tok := p.advance() // for
	if !p.expect(ast.TokenLeftParen) {
		return ast.InvalidNode, false
	}

	init := ast.InvalidNode
	if !p.check(ast.TokenSemicolon) {
		var ok bool
		if p.checkKeyword("var") {
			init, ok = p.varDecl(nil, false)
			if !ok {
				return ast.InvalidNode, false
			}
			// varDecl consumed the ';'.
		} else if p.checkKeyword("let") {
			init, ok = p.constDecl()
			if !ok {
				return ast.InvalidNode, false
			}
		} else {
			init, ok = p.simpleStatement()
			if !ok || !p.expect(ast.TokenSemicolon) {
				return ast.InvalidNode, false
			}
		}
	} else {
		p.advance()
	}

	cond := ast.InvalidNode
	if !p.check(ast.TokenSemicolon) {
		c, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		cond = c
	}
	if !p.expect(ast.TokenSemicolon) {
		return ast.InvalidNode, false
	}

	update := ast.InvalidNode
	if !p.check(ast.TokenRightParen) {
		u, ok := p.simpleStatement()
		if !ok {
			return ast.InvalidNode, false
		}
		update = u
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}

	body, ok := p.block()
	if !ok {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindFor,
		Span: tok.Span,
		Kids: []ast.NodeID{init, cond, update, body},
	}), true
}

// simpleStatement parses an assignment, increment, or call statement
// (no trailing ';').
func (p *parser) simpleStatement() (ast.NodeID, bool) {
	start := p.peek()
	lhs, ok := p.expression()
	if !ok {
		return ast.InvalidNode, false
	}

	if op, isAssign := assignOps[p.peek().Kind]; isAssign {
		p.advance()
		rhs, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{
			Kind: ast.KindAssign, Op: op, Span: start.Span,
			Kids: []ast.NodeID{lhs, rhs},
		}), true
	}

	// i++ / i-- normalize to compound assignment.
	if p.check(ast.TokenPlusPlus) || p.check(ast.TokenMinusMinus) {
		tok := p.advance()
		op := ast.OpAddAssign
		if tok.Kind == ast.TokenMinusMinus {
			op = ast.OpSubAssign
		}
		one := p.m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitInt, Text: "1", Span: tok.Span})
		return p.m.Add(ast.Node{
			Kind: ast.KindAssign, Op: op, Span: start.Span,
			Kids: []ast.NodeID{lhs, one},
		}), true
	}

	return p.m.Add(ast.Node{Kind: ast.KindExprStmt, Span: start.Span, Kids: []ast.NodeID{lhs}}), true
}

var assignOps = map[ast.TokenKind]ast.Op{
	ast.TokenEqual:               ast.OpAssign,
	ast.TokenPlusEqual:           ast.OpAddAssign,
	ast.TokenMinusEqual:          ast.OpSubAssign,
	ast.TokenStarEqual:           ast.OpMulAssign,
	ast.TokenSlashEqual:          ast.OpDivAssign,
	ast.TokenPercentEqual:        ast.OpModAssign,
	ast.TokenAmpEqual:            ast.OpAndAssign,
	ast.TokenPipeEqual:           ast.OpOrAssign,
	ast.TokenCaretEqual:          ast.OpXorAssign,
	ast.TokenLessLessEqual:       ast.OpShlAssign,
	ast.TokenGreaterGreaterEqual: ast.OpShrAssign,
}

// Expressions

var binaryOps = map[ast.TokenKind]ast.Op{
	ast.TokenPipePipe:       ast.OpLogicalOr,
	ast.TokenAmpAmp:         ast.OpLogicalAnd,
	ast.TokenPipe:           ast.OpBitOr,
	ast.TokenCaret:          ast.OpBitXor,
	ast.TokenAmpersand:      ast.OpBitAnd,
	ast.TokenEqualEqual:     ast.OpEqual,
	ast.TokenBangEqual:      ast.OpNotEqual,
	ast.TokenLess:           ast.OpLess,
	ast.TokenLessEqual:      ast.OpLessEqual,
	ast.TokenGreater:        ast.OpGreater,
	ast.TokenGreaterEqual:   ast.OpGreaterEqual,
	ast.TokenLessLess:       ast.OpShl,
	ast.TokenGreaterGreater: ast.OpShr,
	ast.TokenPlus:           ast.OpAdd,
	ast.TokenMinus:          ast.OpSub,
	ast.TokenStar:           ast.OpMul,
	ast.TokenSlash:          ast.OpDiv,
	ast.TokenPercent:        ast.OpMod,
}

func (p *parser) expression() (ast.NodeID, bool) {
	return p.binaryExpr(0)
}

// binaryExpr implements precedence climbing over the shared operator
// table.
func (p *parser) binaryExpr(minPrec int) (ast.NodeID, bool) {
	left, ok := p.unaryExpr()
	if !ok {
		return ast.InvalidNode, false
	}
	for {
		op, isOp := binaryOps[p.peek().Kind]
		if !isOp || op.Precedence() < minPrec {
			return left, true
		}
		tok := p.advance()
		right, ok := p.binaryExpr(op.Precedence() + 1)
		if !ok {
			return ast.InvalidNode, false
		}
		left = p.m.Add(ast.Node{
			Kind: ast.KindBinary, Op: op, Span: tok.Span,
			Kids: []ast.NodeID{left, right},
		})
	}
}

func (p *parser) unaryExpr() (ast.NodeID, bool) {
	var op ast.Op
	switch p.peek().Kind {
	case ast.TokenMinus:
		op = ast.OpNegate
	case ast.TokenBang:
		op = ast.OpNot
	case ast.TokenTilde:
		op = ast.OpBitNot
	default:
		return p.postfixExpr()
	}
	tok := p.advance()
	operand, ok := p.unaryExpr()
	if !ok {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindUnary, Op: op, Span: tok.Span,
		Kids: []ast.NodeID{operand},
	}), true
}

func (p *parser) postfixExpr() (ast.NodeID, bool) {
	expr, ok := p.primaryExpr()
	if !ok {
		return ast.InvalidNode, false
	}
	for {
		switch {
		case p.match(ast.TokenDot):
			if !p.check(ast.TokenIdent) {
				p.errorAtCurrent("expected member name after '.'")
				return ast.InvalidNode, false
			}
			member := p.advance()
			expr = p.m.Add(ast.Node{
				Kind: ast.KindMember, Name: member.Lexeme, Span: member.Span,
				Kids: []ast.NodeID{expr},
			})
		case p.match(ast.TokenLeftBracket):
			idx, ok := p.expression()
			if !ok {
				return ast.InvalidNode, false
			}
			if !p.expect(ast.TokenRightBracket) {
				return ast.InvalidNode, false
			}
			expr = p.m.Add(ast.Node{
				Kind: ast.KindIndex, Span: p.previous().Span,
				Kids: []ast.NodeID{expr, idx},
			})
		default:
			return expr, true
		}
	}
}

func (p *parser) primaryExpr() (ast.NodeID, bool) {
	tok := p.peek()
	switch tok.Kind {
	case ast.TokenIntLiteral:
		p.advance()
		return p.m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitInt, Text: tok.Lexeme, Span: tok.Span}), true
	case ast.TokenFloatLiteral:
		p.advance()
		return p.m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitFloat, Text: tok.Lexeme, Span: tok.Span}), true
	case ast.TokenLeftParen:
		p.advance()
		expr, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		if !p.expect(ast.TokenRightParen) {
			return ast.InvalidNode, false
		}
		return expr, true
	case ast.TokenIdent:
		switch tok.Lexeme {
		case "true", "false":
			p.advance()
			return p.m.Add(ast.Node{Kind: ast.KindLiteral, Lit: ast.LitBool, Text: tok.Lexeme, Span: tok.Span}), true
		case "bitcast":
			// bitcast<T>(e) converts without changing bits; keep the
			// call form so transform rules can map it.
			p.advance()
			var target ast.TypeSpec
			if p.match(ast.TokenLess) {
				ty, ok := p.typeSpec()
				if !ok {
					return ast.InvalidNode, false
				}
				target = ty
				if !p.expect(ast.TokenGreater) {
					return ast.InvalidNode, false
				}
			}
			id, ok := p.callArgs("bitcast", tok, false, ast.InvalidNode)
			if ok && id.Valid() {
				p.m.Node(id).Type = target
			}
			return id, ok
		}
		if isTypeName(tok.Lexeme) {
			ty, ok := p.typeSpec()
			if !ok {
				return ast.InvalidNode, false
			}
			return p.constructArgs(ty, tok)
		}
		p.advance()
		if p.check(ast.TokenLeftParen) {
			return p.callArgs(tok.Lexeme, tok, false, ast.InvalidNode)
		}
		return p.m.Add(ast.Node{Kind: ast.KindIdent, Name: tok.Lexeme, Span: tok.Span}), true
	default:
		p.errorAtCurrent("expected expression, found %q", tok.Lexeme)
		return ast.InvalidNode, false
	}
}

func (p *parser) callArgs(name string, start ast.Token, method bool, receiver ast.NodeID) (ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftParen) {
		return ast.InvalidNode, false
	}
	call := ast.Node{Kind: ast.KindCall, Name: name, Span: start.Span, Method: method}
	if method {
		call.Kids = append(call.Kids, receiver)
	}
	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		arg, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		call.Kids = append(call.Kids, arg)
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}
	return p.m.Add(call), true
}

func (p *parser) constructArgs(ty ast.TypeSpec, start ast.Token) (ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftParen) {
		return ast.InvalidNode, false
	}
	ctor := ast.Node{Kind: ast.KindConstruct, Type: ty, Span: start.Span}
	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		arg, ok := p.expression()
		if !ok {
			return ast.InvalidNode, false
		}
		ctor.Kids = append(ctor.Kids, arg)
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}
	return p.m.Add(ctor), true
}

// Token plumbing

func (p *parser) peek() ast.Token {
	if p.current >= len(p.tokens) {
		return ast.Token{Kind: ast.TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *parser) previous() ast.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *parser) advance() ast.Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}

func (p *parser) check(kind ast.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *parser) checkKeyword(word string) bool {
	tok := p.peek()
	return tok.Kind == ast.TokenIdent && tok.Lexeme == word
}

func (p *parser) match(kind ast.TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind ast.TokenKind) bool {
	if p.match(kind) {
		return true
	}
	p.errorAtCurrent("expected %q, found %q", kind.String(), p.peek().Lexeme)
	return false
}

func (p *parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.peek().Kind == ast.TokenEOF
}

func (p *parser) errorAtCurrent(format string, args ...any) {
	p.diags.Errorf(diag.CodeSyntax, p.peek().Span, format, args...)
}

func (p *parser) skipToSemicolon() {
	for !p.isAtEnd() && !p.check(ast.TokenSemicolon) {
		p.advance()
	}
	p.match(ast.TokenSemicolon)
}

// synchronize skips to the next top-level declaration boundary.
func (p *parser) synchronize() {
	for !p.isAtEnd() {
		if p.match(ast.TokenSemicolon) {
			return
		}
		if p.check(ast.TokenAt) {
			return
		}
		if p.check(ast.TokenIdent) {
			switch p.peek().Lexeme {
			case "fn", "struct", "var", "let", "const", "alias":
				return
			}
		}
		if p.match(ast.TokenRightBrace) {
			return
		}
		p.advance()
	}
}

// synchronizeStatement skips to the next statement boundary inside a
// block without consuming the block's closing brace.
func (p *parser) synchronizeStatement() {
	for !p.isAtEnd() && !p.check(ast.TokenRightBrace) {
		if p.match(ast.TokenSemicolon) {
			return
		}
		p.advance()
	}
}
