package hlsl

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Parse parses HLSL source into the unified AST. It never panics on
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
		ids, ok := p.declaration()
		if !ok {
			p.synchronize()
			if p.current == before {
				p.advance()
			}
			continue
		}
		for _, id := range ids {
			if id.Valid() {
				p.m.Decls = append(p.m.Decls, id)
			}
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

// fnAttrs carries [numthreads(...)]-style attributes to the next
// function declaration.
type fnAttrs struct {
	stage     ast.Stage
	workgroup [3]uint32
}

func (p *parser) declaration() ([]ast.NodeID, bool) {
	var attrs fnAttrs
	for p.check(ast.TokenLeftBracket) {
		p.bracketAttr(&attrs)
	}

	switch {
	case p.check(ast.TokenHash):
		return p.directive()
	case p.checkKeyword("struct"):
		return p.structDecl()
	case p.checkKeyword("cbuffer"), p.checkKeyword("tbuffer"):
		return p.cbufferDecl()
	case p.check(ast.TokenEOF):
		p.advance()
		return nil, true
	case p.check(ast.TokenSemicolon):
		p.advance()
		return nil, true
	}

	quals := p.qualifiers()
	typeName := p.peek().Lexeme
	ty, ok := p.typeSpec()
	if !ok {
		return nil, false
	}
	switch typeName {
	case "StructuredBuffer":
		quals.AddressSpace = "storage"
		quals.AccessMode = "read"
	case "RWStructuredBuffer":
		quals.AddressSpace = "storage"
		quals.AccessMode = "read_write"
	}
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected name, found %q", p.peek().Lexeme)
		return nil, false
	}
	name := p.advance()

	if p.check(ast.TokenLeftParen) {
		id, ok := p.functionDef(ty, name, attrs)
		return []ast.NodeID{id}, ok
	}
	return p.varDecls(quals, ty, name, true)
}

// bracketAttr parses one [...] attribute. numthreads marks the compute
// entry; the rest ([unroll], [branch]) carry no convertible semantics.
func (p *parser) bracketAttr(attrs *fnAttrs) {
	p.advance() // [
	if p.check(ast.TokenIdent) && p.peek().Lexeme == "numthreads" {
		p.advance()
		attrs.stage = ast.StageCompute
		attrs.workgroup = [3]uint32{1, 1, 1}
		if p.match(ast.TokenLeftParen) {
			for i := 0; i < 3 && p.check(ast.TokenIntLiteral); i++ {
				attrs.workgroup[i] = parseUint(p.advance().Lexeme, 1)
				if !p.match(ast.TokenComma) {
					break
				}
			}
			p.expect(ast.TokenRightParen)
		}
	}
	for !p.isAtEnd() && !p.match(ast.TokenRightBracket) {
		p.advance()
	}
}

// directive handles one preprocessor line; object-like #define becomes
// a constant, mirroring the GLSL front-end.
func (p *parser) directive() ([]ast.NodeID, bool) {
	tok := p.advance()
	fields := strings.Fields(strings.TrimPrefix(tok.Lexeme, "#"))
	if len(fields) == 0 {
		return nil, true
	}
	switch fields[0] {
	case "include", "pragma", "line":
		return nil, true
	case "define":
		if id, ok := p.defineConst(tok, fields); ok {
			return []ast.NodeID{id}, true
		}
		return nil, true
	default:
		p.diags.Warnf(diag.CodeUnsupported, tok.Span,
			"preprocessor directive #%s is not expanded", fields[0])
		return nil, true
	}
}

func (p *parser) defineConst(tok ast.Token, fields []string) (ast.NodeID, bool) {
	if len(fields) < 3 {
		return ast.InvalidNode, false
	}
	name := fields[1]
	if strings.Contains(name, "(") {
		p.diags.Warnf(diag.CodeUnsupported, tok.Span,
			"function-like macro %q is not expanded", name)
		return ast.InvalidNode, false
	}
	body := strings.Join(fields[2:], " ")

	sub := &parser{m: p.m}
	for _, t := range newLexer(body).tokenize() {
		if t.Kind != ast.TokenError {
			sub.tokens = append(sub.tokens, t)
		}
	}
	expr, ok := sub.expression()
	if !ok || !sub.isAtEnd() {
		p.diags.Warnf(diag.CodeUnsupported, tok.Span,
			"macro %q has a non-expression body and is not expanded", name)
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindVarDecl,
		Name: name,
		Span: tok.Span,
		Qual: ast.Qualifiers{Const: true, Location: ast.NoLocation},
		Kids: []ast.NodeID{expr},
	}), true
}

// qualifiers consumes the declaration qualifier prefix.
func (p *parser) qualifiers() ast.Qualifiers {
	q := ast.Qualifiers{Location: ast.NoLocation}
	for p.check(ast.TokenIdent) {
		switch p.peek().Lexeme {
		case "static", "precise", "inline", "extern", "uniform",
			"row_major", "column_major", "volatile", "shared":
			p.advance()
		case "const":
			p.advance()
			q.Const = true
		case "groupshared":
			p.advance()
			q.AddressSpace = "workgroup"
		default:
			return q
		}
	}
	return q
}

func (p *parser) structDecl() ([]ast.NodeID, bool) {
	start := p.advance() // struct
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected struct name")
		return nil, false
	}
	name := p.advance()
	fields, ok := p.fieldList()
	if !ok {
		return nil, false
	}
	p.match(ast.TokenSemicolon)
	return []ast.NodeID{p.m.Add(ast.Node{
		Kind: ast.KindStructDecl, Name: name.Lexeme, Span: start.Span, Kids: fields,
	})}, true
}

// fieldList parses "{ type name [: SEMANTIC]; ... }".
func (p *parser) fieldList() ([]ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftBrace) {
		return nil, false
	}
	var fields []ast.NodeID
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		ty, ok := p.typeSpec()
		if !ok {
			return nil, false
		}
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected member name")
			return nil, false
		}
		name := p.advance()
		fty, ok := p.arraySuffix(ty)
		if !ok {
			return nil, false
		}
		field := ast.Node{
			Kind: ast.KindField,
			Name: name.Lexeme,
			Type: fty,
			Span: name.Span,
			Qual: ast.Qualifiers{Location: ast.NoLocation},
		}
		if p.match(ast.TokenColon) {
			if p.check(ast.TokenIdent) {
				semanticQual(p.advance().Lexeme, &field.Qual)
			}
		}
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		fields = append(fields, p.m.Add(field))
	}
	if !p.expect(ast.TokenRightBrace) {
		return nil, false
	}
	return fields, true
}

// cbufferDecl parses a constant buffer. cbuffer members are globally
// scoped in HLSL, so they become individual uniform variables; the
// buffer's register stays on the first member and remapping assigns
// the rest.
func (p *parser) cbufferDecl() ([]ast.NodeID, bool) {
	p.advance() // cbuffer
	if p.check(ast.TokenIdent) {
		p.advance() // buffer name, not referenced by member accesses
	}

	var binding *ast.ResourceBinding
	if p.match(ast.TokenColon) {
		binding = p.registerBinding()
	}

	if !p.expect(ast.TokenLeftBrace) {
		return nil, false
	}
	var ids []ast.NodeID
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		ty, ok := p.typeSpec()
		if !ok {
			return nil, false
		}
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected member name")
			return nil, false
		}
		name := p.advance()
		mty, ok := p.arraySuffix(ty)
		if !ok {
			return nil, false
		}
		// packoffset annotations do not survive conversion.
		if p.match(ast.TokenColon) {
			p.skipAnnotation()
		}
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}

		v := ast.Node{
			Kind: ast.KindVarDecl,
			Name: name.Lexeme,
			Type: mty,
			Span: name.Span,
			Qual: ast.Qualifiers{AddressSpace: "uniform", Location: ast.NoLocation},
		}
		v.Binding = &ast.ResourceBinding{Class: ast.ClassUniformBuffer}
		if len(ids) == 0 && binding != nil {
			*v.Binding = *binding
			v.Binding.Class = ast.ClassUniformBuffer
		}
		ids = append(ids, p.m.Add(v))
	}
	if !p.expect(ast.TokenRightBrace) {
		return nil, false
	}
	p.match(ast.TokenSemicolon)
	return ids, true
}

// registerBinding parses "register(b0)" or "register(t2, space1)".
// Returns nil for other annotations (packoffset).
func (p *parser) registerBinding() *ast.ResourceBinding {
	if !p.checkKeyword("register") {
		p.skipAnnotation()
		return nil
	}
	p.advance()
	if !p.expect(ast.TokenLeftParen) {
		return nil
	}
	b := &ast.ResourceBinding{}
	if p.check(ast.TokenIdent) {
		reg := p.advance().Lexeme
		if len(reg) >= 2 {
			b.Slot = parseUint(reg[1:], 0)
			b.HasRegister = true
			switch reg[0] {
			case 'b':
				b.Class = ast.ClassUniformBuffer
			case 't':
				b.Class = ast.ClassTexture
			case 's':
				b.Class = ast.ClassSampler
			case 'u':
				b.Class = ast.ClassStorageBuffer
			default:
				p.diags.Warnf(diag.CodeSyntax, p.previous().Span,
					"unknown register class %q", string(reg[0]))
			}
		}
	}
	if p.match(ast.TokenComma) && p.check(ast.TokenIdent) {
		space := p.advance().Lexeme
		b.Space = parseUint(strings.TrimPrefix(space, "space"), 0)
	}
	p.expect(ast.TokenRightParen)
	return b
}

// skipAnnotation consumes an annotation after ':' up to but not
// including the terminating ';' or '='.
func (p *parser) skipAnnotation() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case ast.TokenLeftParen:
			depth++
		case ast.TokenRightParen:
			depth--
		case ast.TokenSemicolon, ast.TokenEqual, ast.TokenLeftBrace:
			if depth <= 0 {
				return
			}
		}
		p.advance()
	}
}

// varDecls parses the declarator list of a global or local variable
// declaration, including register bindings on globals.
func (p *parser) varDecls(quals ast.Qualifiers, ty ast.TypeSpec, first ast.Token, global bool) ([]ast.NodeID, bool) {
	var ids []ast.NodeID
	name := first
	for {
		dty, ok := p.arraySuffix(ty)
		if !ok {
			return nil, false
		}
		decl := ast.Node{
			Kind: ast.KindVarDecl,
			Name: name.Lexeme,
			Type: dty,
			Span: name.Span,
			Qual: quals,
		}
		if p.match(ast.TokenColon) {
			decl.Binding = p.registerBinding()
		}
		if p.match(ast.TokenEqual) {
			init, ok := p.expression()
			if !ok {
				return nil, false
			}
			decl.Kids = append(decl.Kids, init)
		}
		if global {
			p.classifyGlobal(&decl)
		}
		ids = append(ids, p.m.Add(decl))

		if !p.match(ast.TokenComma) {
			break
		}
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected name after ','")
			return nil, false
		}
		name = p.advance()
	}
	if !p.expect(ast.TokenSemicolon) {
		return nil, false
	}
	return ids, true
}

// classifyGlobal attaches binding class and address space to global
// resource declarations.
func (p *parser) classifyGlobal(decl *ast.Node) {
	var class ast.ResourceClass
	switch {
	case decl.Type.Kind == ast.TypeTexture:
		class = ast.ClassTexture
	case decl.Type.Kind == ast.TypeSampler:
		class = ast.ClassSampler
	case decl.Qual.AddressSpace == "storage":
		class = ast.ClassStorageBuffer
	default:
		// Plain globals outside cbuffers are compile-time constants or
		// $Globals members; treated as private state.
		return
	}
	if decl.Binding == nil {
		decl.Binding = &ast.ResourceBinding{}
	}
	decl.Binding.Class = class
}

// arraySuffix wraps ty in an array type for each [N] following the
// declarator name.
func (p *parser) arraySuffix(ty ast.TypeSpec) (ast.TypeSpec, bool) {
	for p.check(ast.TokenLeftBracket) && !p.bracketIsAttr() {
		p.advance()
		var length uint32
		if p.check(ast.TokenIntLiteral) {
			length = parseUint(p.advance().Lexeme, 0)
		} else if p.check(ast.TokenIdent) {
			p.advance()
		}
		if !p.expect(ast.TokenRightBracket) {
			return ty, false
		}
		ty = ast.Array(ty, length)
	}
	return ty, true
}

// bracketIsAttr distinguishes "[unroll]" from an array dimension.
func (p *parser) bracketIsAttr() bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	next := p.tokens[p.current+1]
	if next.Kind != ast.TokenIdent {
		return false
	}
	switch next.Lexeme {
	case "unroll", "loop", "branch", "flatten", "numthreads":
		return true
	}
	return false
}

func (p *parser) functionDef(ret ast.TypeSpec, name ast.Token, attrs fnAttrs) (ast.NodeID, bool) {
	p.advance() // (

	fn := ast.Node{
		Kind: ast.KindFunctionDef,
		Name: name.Lexeme,
		Type: ret,
		Span: name.Span,
		Qual: ast.Qualifiers{Location: ast.NoLocation, Stage: attrs.stage, Workgroup: attrs.workgroup},
	}

	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		pq := p.paramQualifiers()
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		if ty.IsVoid() && p.check(ast.TokenRightParen) {
			break
		}
		if !p.check(ast.TokenIdent) {
			p.errorAtCurrent("expected parameter name")
			return ast.InvalidNode, false
		}
		pname := p.advance()
		pty, ok := p.arraySuffix(ty)
		if !ok {
			return ast.InvalidNode, false
		}
		param := ast.Node{
			Kind: ast.KindParam,
			Name: pname.Lexeme,
			Type: pty,
			Span: pname.Span,
			Qual: pq,
		}
		if p.match(ast.TokenColon) {
			if p.check(ast.TokenIdent) {
				semanticQual(p.advance().Lexeme, &param.Qual)
			}
		}
		fn.Kids = append(fn.Kids, p.m.Add(param))
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}

	retSemantic := ""
	if p.match(ast.TokenColon) {
		if p.check(ast.TokenIdent) {
			retSemantic = p.advance().Lexeme
			semanticQual(retSemantic, &fn.Qual)
		}
	}

	// Forward declaration.
	if p.match(ast.TokenSemicolon) {
		return ast.InvalidNode, true
	}

	body, ok := p.block()
	if !ok {
		return ast.InvalidNode, false
	}
	fn.Kids = append(fn.Kids, body)

	if fn.Qual.Stage == ast.StageNone {
		fn.Qual.Stage = p.inferStage(&fn, retSemantic)
	}
	return p.m.Add(fn), true
}

// inferStage classifies an entry point from its return semantic; HLSL
// has no other stage marker outside [numthreads]. Functions with no
// semantics anywhere stay plain helpers.
func (p *parser) inferStage(fn *ast.Node, retSemantic string) ast.Stage {
	upper := strings.ToUpper(retSemantic)
	switch {
	case strings.HasPrefix(upper, "SV_TARGET"), strings.HasPrefix(upper, "SV_DEPTH"):
		return ast.StageFragment
	case strings.HasPrefix(upper, "SV_POSITION"):
		return ast.StageVertex
	}
	if fn.Type.Kind == ast.TypeStruct {
		if s := p.structStage(fn.Type.Struct); s != ast.StageNone {
			return s
		}
	}
	return ast.StageNone
}

// structStage inspects a struct's field semantics: SV_Target output
// means fragment, SV_Position output means vertex.
func (p *parser) structStage(name string) ast.Stage {
	for _, id := range p.m.Decls {
		n := p.m.Node(id)
		if n.Kind != ast.KindStructDecl || n.Name != name {
			continue
		}
		stage := ast.StageNone
		for _, fid := range n.Kids {
			f := p.m.Node(fid)
			if f.Qual.Builtin == "position" {
				stage = ast.StageVertex
			}
			if f.Qual.Builtin == "frag_depth" {
				return ast.StageFragment
			}
		}
		return stage
	}
	return ast.StageNone
}

// paramQualifiers consumes in/out/inout on parameters.
func (p *parser) paramQualifiers() ast.Qualifiers {
	q := ast.Qualifiers{Location: ast.NoLocation}
	for p.check(ast.TokenIdent) {
		switch p.peek().Lexeme {
		case "in", "out", "inout":
			q.InOut = p.advance().Lexeme
		case "uniform", "precise", "const":
			p.advance()
		default:
			return q
		}
	}
	return q
}

// typeSpec parses a type, including template-style texture and buffer
// types.
func (p *parser) typeSpec() (ast.TypeSpec, bool) {
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected type, found %q", p.peek().Lexeme)
		return ast.TypeSpec{}, false
	}
	name := p.advance()

	switch name.Lexeme {
	case "void":
		return ast.Void(), true
	case "SamplerState", "sampler":
		return ast.Sampler(false), true
	case "SamplerComparisonState":
		return ast.Sampler(true), true
	case "matrix":
		sk, dims, ok := p.matrixTemplate()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Matrix(sk, dims[1], dims[0]), true
	case "vector":
		sk, size, ok := p.vectorTemplate()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Vector(sk, size), true
	case "StructuredBuffer", "RWStructuredBuffer":
		elem, ok := p.templateType()
		if !ok {
			return ast.TypeSpec{}, false
		}
		return ast.Array(elem, 0), true
	}

	if sk, ok := scalarTypes[name.Lexeme]; ok {
		return ast.Scalar(sk), true
	}
	if v, ok := vectorTypes[name.Lexeme]; ok {
		return ast.Vector(v.Scalar, v.Size), true
	}
	if dims, ok := matrixTypes[name.Lexeme]; ok {
		// dims is [rows, cols]; the unified form is columns-first.
		return ast.Matrix(ast.ScalarF32, dims[1], dims[0]), true
	}
	if dim, ok := textureTypes[name.Lexeme]; ok {
		sampled := ast.ScalarF32
		if p.check(ast.TokenLess) {
			t, ok := p.templateType()
			if !ok {
				return ast.TypeSpec{}, false
			}
			sampled = t.Scalar
		}
		return ast.Texture(dim, sampled), true
	}
	return ast.Struct(name.Lexeme), true
}

// templateType parses "<type>".
func (p *parser) templateType() (ast.TypeSpec, bool) {
	if !p.expect(ast.TokenLess) {
		return ast.TypeSpec{}, false
	}
	ty, ok := p.typeSpec()
	if !ok {
		return ast.TypeSpec{}, false
	}
	if !p.expect(ast.TokenGreater) {
		return ast.TypeSpec{}, false
	}
	return ty, true
}

// matrixTemplate parses "<float, R, C>", defaulting to float4x4.
func (p *parser) matrixTemplate() (ast.ScalarKind, [2]uint8, bool) {
	if !p.check(ast.TokenLess) {
		return ast.ScalarF32, [2]uint8{4, 4}, true
	}
	p.advance()
	sk := ast.ScalarF32
	if p.check(ast.TokenIdent) {
		if k, ok := scalarTypes[p.peek().Lexeme]; ok {
			sk = k
		}
		p.advance()
	}
	dims := [2]uint8{4, 4}
	for i := 0; i < 2 && p.match(ast.TokenComma); i++ {
		if p.check(ast.TokenIntLiteral) {
			dims[i] = uint8(parseUint(p.advance().Lexeme, 4))
		}
	}
	if !p.expect(ast.TokenGreater) {
		return sk, dims, false
	}
	return sk, dims, true
}

// vectorTemplate parses "<float, N>", defaulting to float4.
func (p *parser) vectorTemplate() (ast.ScalarKind, uint8, bool) {
	if !p.check(ast.TokenLess) {
		return ast.ScalarF32, 4, true
	}
	p.advance()
	sk := ast.ScalarF32
	if p.check(ast.TokenIdent) {
		if k, ok := scalarTypes[p.peek().Lexeme]; ok {
			sk = k
		}
		p.advance()
	}
	size := uint8(4)
	if p.match(ast.TokenComma) && p.check(ast.TokenIntLiteral) {
		size = uint8(parseUint(p.advance().Lexeme, 4))
	}
	if !p.expect(ast.TokenGreater) {
		return sk, size, false
	}
	return sk, size, true
}

func parseUint(s string, def uint32) uint32 {
	s = strings.TrimRight(s, "uUlL")
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

// Statements

func (p *parser) block() (ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftBrace) {
		return ast.InvalidNode, false
	}
	start := p.previous()
	blk := ast.Node{Kind: ast.KindBlock, Span: start.Span}
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		before := p.current
		stmts, ok := p.statement()
		if !ok {
			p.synchronizeStatement()
			if p.current == before {
				p.advance()
			}
			continue
		}
		blk.Kids = append(blk.Kids, stmts...)
	}
	if !p.expect(ast.TokenRightBrace) {
		return ast.InvalidNode, false
	}
	return p.m.Add(blk), true
}

func (p *parser) stmtAsBlock() (ast.NodeID, bool) {
	if p.check(ast.TokenLeftBrace) {
		return p.block()
	}
	tok := p.peek()
	stmts, ok := p.statement()
	if !ok {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{Kind: ast.KindBlock, Span: tok.Span, Kids: stmts}), true
}

func (p *parser) statement() ([]ast.NodeID, bool) {
	// Loop attributes like [unroll] decorate the next statement.
	for p.check(ast.TokenLeftBracket) && p.bracketIsAttr() {
		var ignored fnAttrs
		p.bracketAttr(&ignored)
	}

	switch {
	case p.checkKeyword("return"):
		tok := p.advance()
		ret := ast.Node{Kind: ast.KindReturn, Span: tok.Span}
		if !p.check(ast.TokenSemicolon) {
			e, ok := p.expression()
			if !ok {
				return nil, false
			}
			ret.Kids = append(ret.Kids, e)
		}
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		return p.one(p.m.Add(ret))
	case p.checkKeyword("if"):
		id, ok := p.ifStatement()
		return p.oneOK(id, ok)
	case p.checkKeyword("for"):
		id, ok := p.forStatement()
		return p.oneOK(id, ok)
	case p.checkKeyword("while"):
		tok := p.advance()
		cond, ok := p.parenExpr()
		if !ok {
			return nil, false
		}
		body, ok := p.stmtAsBlock()
		if !ok {
			return nil, false
		}
		return p.one(p.m.Add(ast.Node{Kind: ast.KindWhile, Span: tok.Span, Kids: []ast.NodeID{cond, body}}))
	case p.checkKeyword("do"):
		return p.doStatement()
	case p.checkKeyword("switch"):
		return p.switchStatement()
	case p.checkKeyword("break"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		return p.one(p.m.Add(ast.Node{Kind: ast.KindBreak, Span: tok.Span}))
	case p.checkKeyword("continue"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		return p.one(p.m.Add(ast.Node{Kind: ast.KindContinue, Span: tok.Span}))
	case p.checkKeyword("discard"):
		tok := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		return p.one(p.m.Add(ast.Node{Kind: ast.KindDiscard, Span: tok.Span}))
	case p.check(ast.TokenLeftBrace):
		id, ok := p.block()
		return p.oneOK(id, ok)
	case p.isDeclStart():
		return p.localDecl()
	default:
		stmt, ok := p.simpleStatement()
		if !ok {
			return nil, false
		}
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		return p.one(stmt)
	}
}

func (p *parser) one(id ast.NodeID) ([]ast.NodeID, bool) {
	return []ast.NodeID{id}, true
}

func (p *parser) oneOK(id ast.NodeID, ok bool) ([]ast.NodeID, bool) {
	if !ok {
		return nil, false
	}
	return []ast.NodeID{id}, true
}

func (p *parser) isDeclStart() bool {
	tok := p.peek()
	if tok.Kind != ast.TokenIdent {
		return false
	}
	switch tok.Lexeme {
	case "const", "static", "precise":
		return true
	}
	if isTypeName(tok.Lexeme) {
		next := p.peekNextKind()
		return next == ast.TokenIdent || next == ast.TokenLess
	}
	return p.peekNextKind() == ast.TokenIdent
}

func (p *parser) localDecl() ([]ast.NodeID, bool) {
	quals := p.qualifiers()
	ty, ok := p.typeSpec()
	if !ok {
		return nil, false
	}
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected name, found %q", p.peek().Lexeme)
		return nil, false
	}
	name := p.advance()
	return p.varDecls(quals, ty, name, false)
}

func (p *parser) ifStatement() (ast.NodeID, bool) {
	tok := p.advance() // if
	cond, ok := p.parenExpr()
	if !ok {
		return ast.InvalidNode, false
	}
	then, ok := p.stmtAsBlock()
	if !ok {
		return ast.InvalidNode, false
	}
	elseBranch := ast.InvalidNode
	if p.checkKeyword("else") {
		p.advance()
		if p.checkKeyword("if") {
			elseBranch, ok = p.ifStatement()
		} else {
			elseBranch, ok = p.stmtAsBlock()
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
		if p.isDeclStart() {
			ids, ok := p.localDecl()
			if !ok {
				return ast.InvalidNode, false
			}
			if len(ids) == 1 {
				init = ids[0]
			} else {
				init = p.m.Add(ast.Node{Kind: ast.KindBlock, Span: tok.Span, Kids: ids})
			}
		} else {
			var ok bool
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

	body, ok := p.stmtAsBlock()
	if !ok {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindFor,
		Span: tok.Span,
		Kids: []ast.NodeID{init, cond, update, body},
	}), true
}

// doStatement converts do-while to while with a warning, mirroring the
// GLSL front-end.
func (p *parser) doStatement() ([]ast.NodeID, bool) {
	tok := p.advance() // do
	body, ok := p.stmtAsBlock()
	if !ok {
		return nil, false
	}
	if !p.checkKeyword("while") {
		p.errorAtCurrent("expected 'while' after do block")
		return nil, false
	}
	p.advance()
	cond, ok := p.parenExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(ast.TokenSemicolon) {
		return nil, false
	}
	p.diags.Warnf(diag.CodeUnsupported, tok.Span,
		"do-while converted to while; the body may run zero times")
	return p.one(p.m.Add(ast.Node{Kind: ast.KindWhile, Span: tok.Span, Kids: []ast.NodeID{cond, body}}))
}

// switchStatement skips a switch, leaving a placeholder comment.
func (p *parser) switchStatement() ([]ast.NodeID, bool) {
	tok := p.advance() // switch
	if _, ok := p.parenExpr(); !ok {
		return nil, false
	}
	if !p.expect(ast.TokenLeftBrace) {
		return nil, false
	}
	depth := 1
	for depth > 0 && !p.isAtEnd() {
		switch p.advance().Kind {
		case ast.TokenLeftBrace:
			depth++
		case ast.TokenRightBrace:
			depth--
		}
	}
	p.diags.Warnf(diag.CodeUnsupported, tok.Span, "switch statement omitted")
	return p.one(p.m.Add(ast.Node{
		Kind: ast.KindComment,
		Text: "unsupported: switch statement",
		Span: tok.Span,
	}))
}

func (p *parser) parenExpr() (ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftParen) {
		return ast.InvalidNode, false
	}
	e, ok := p.expression()
	if !ok {
		return ast.InvalidNode, false
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
	}
	return e, true
}

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
	cond, ok := p.binaryExpr(0)
	if !ok {
		return ast.InvalidNode, false
	}
	if !p.check(ast.TokenQuestion) {
		return cond, true
	}
	tok := p.advance()
	then, ok := p.expression()
	if !ok {
		return ast.InvalidNode, false
	}
	if !p.expect(ast.TokenColon) {
		return ast.InvalidNode, false
	}
	els, ok := p.expression()
	if !ok {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindTernary, Span: tok.Span,
		Kids: []ast.NodeID{cond, then, els},
	}), true
}

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
	// C-style cast: "(float3)expr" becomes a constructor.
	if p.check(ast.TokenLeftParen) && p.castAhead() {
		p.advance() // (
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		start := p.previous()
		if !p.expect(ast.TokenRightParen) {
			return ast.InvalidNode, false
		}
		operand, ok := p.unaryExpr()
		if !ok {
			return ast.InvalidNode, false
		}
		return p.m.Add(ast.Node{
			Kind: ast.KindConstruct, Type: ty, Span: start.Span,
			Kids: []ast.NodeID{operand},
		}), true
	}

	var op ast.Op
	switch p.peek().Kind {
	case ast.TokenMinus:
		op = ast.OpNegate
	case ast.TokenBang:
		op = ast.OpNot
	case ast.TokenTilde:
		op = ast.OpBitNot
	case ast.TokenPlus:
		p.advance()
		return p.unaryExpr()
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

// castAhead reports whether the '(' at the cursor starts a C-style
// cast: "(typename)" followed by an operand.
func (p *parser) castAhead() bool {
	if p.current+2 >= len(p.tokens) {
		return false
	}
	name := p.tokens[p.current+1]
	return name.Kind == ast.TokenIdent && isTypeName(name.Lexeme) &&
		p.tokens[p.current+2].Kind == ast.TokenRightParen
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
			if p.check(ast.TokenLeftParen) {
				// Object method: tex.Sample(samp, uv).
				expr, ok = p.callArgs(member.Lexeme, member, true, expr)
				if !ok {
					return ast.InvalidNode, false
				}
				continue
			}
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
		}
		if isTypeName(tok.Lexeme) && tok.Lexeme != "void" {
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

func (p *parser) peekNextKind() ast.TokenKind {
	if p.current+1 >= len(p.tokens) {
		return ast.TokenEOF
	}
	return p.tokens[p.current+1].Kind
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

// synchronize skips to the next top-level declaration boundary.
func (p *parser) synchronize() {
	for !p.isAtEnd() {
		if p.match(ast.TokenSemicolon) {
			return
		}
		if p.check(ast.TokenHash) || p.check(ast.TokenLeftBracket) {
			return
		}
		if p.check(ast.TokenIdent) {
			switch p.peek().Lexeme {
			case "struct", "cbuffer", "void", "static", "const":
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
