package glsl

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Parse parses GLSL source into the unified AST. It never panics on
// malformed input: syntax errors are recorded as diagnostics, parsing
// resumes at the next declaration or statement boundary, and a
// best-effort partial AST is always returned.
//
// GLSL entry points carry no stage marker in source, so the stage of
// main is inferred: a local_size layout means compute, gl_Position
// means vertex, and everything else is treated as a fragment shader.
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
	p.inferStage()
	return p.m, p.diags
}

type parser struct {
	tokens  []ast.Token
	current int
	m       *ast.Module
	diags   diag.List

	// workgroup is set by a layout(local_size_x = ...) declaration and
	// applied to main.
	workgroup    [3]uint32
	hasWorkgroup bool
}

// declQuals accumulates the qualifier prefix of a declaration.
type declQuals struct {
	qual    ast.Qualifiers
	binding *ast.ResourceBinding
}

func (p *parser) declaration() ([]ast.NodeID, bool) {
	switch {
	case p.check(ast.TokenHash):
		return p.directive()
	case p.checkKeyword("precision"):
		id, ok := p.precisionDecl()
		return []ast.NodeID{id}, ok
	case p.checkKeyword("struct"):
		return p.structDecl()
	case p.check(ast.TokenEOF):
		p.advance()
		return nil, true
	case p.check(ast.TokenSemicolon):
		p.advance()
		return nil, true
	}

	quals := p.qualifiers()

	// A bare qualifier declaration, e.g. the compute-stage marker
	// "layout(local_size_x = 8) in;".
	if p.match(ast.TokenSemicolon) {
		return nil, true
	}

	// Interface block: "uniform Name { ... } [instance];".
	if (quals.qual.AddressSpace == "uniform" || quals.qual.AddressSpace == "storage") &&
		p.check(ast.TokenIdent) && !isTypeName(p.peek().Lexeme) && p.peekNextKind() == ast.TokenLeftBrace {
		return p.interfaceBlock(quals)
	}

	ty, ok := p.typeSpec()
	if !ok {
		return nil, false
	}
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected name, found %q", p.peek().Lexeme)
		return nil, false
	}
	name := p.advance()

	if p.check(ast.TokenLeftParen) {
		id, ok := p.functionDef(ty, name)
		return []ast.NodeID{id}, ok
	}
	return p.varDecls(quals, ty, name, true)
}

// directive handles one preprocessor line. #version, #extension,
// #pragma, and #line carry nothing the pipeline needs. Object-like
// #define becomes a constant; anything else is reported and skipped
// since macros are not expanded.
func (p *parser) directive() ([]ast.NodeID, bool) {
	tok := p.advance()
	fields := strings.Fields(strings.TrimPrefix(tok.Lexeme, "#"))
	if len(fields) == 0 {
		return nil, true
	}
	switch fields[0] {
	case "version", "extension", "pragma", "line":
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

// defineConst lowers "#define NAME <expr>" to a constant declaration.
// Function-like macros and empty defines are skipped with a warning.
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

func (p *parser) precisionDecl() (ast.NodeID, bool) {
	start := p.advance() // precision
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected precision qualifier")
		return ast.InvalidNode, false
	}
	prec := p.advance()
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected type after precision qualifier")
		return ast.InvalidNode, false
	}
	ty := p.advance()
	if !p.expect(ast.TokenSemicolon) {
		return ast.InvalidNode, false
	}
	return p.m.Add(ast.Node{
		Kind: ast.KindPrecisionDecl,
		Text: prec.Lexeme + " " + ty.Lexeme,
		Span: start.Span,
		Qual: ast.Qualifiers{Precision: prec.Lexeme, Location: ast.NoLocation},
	}), true
}

// qualifiers parses the qualifier prefix of a declaration, including
// layout(...) lists.
func (p *parser) qualifiers() declQuals {
	q := declQuals{qual: ast.Qualifiers{Location: ast.NoLocation}}
	for p.check(ast.TokenIdent) {
		switch p.peek().Lexeme {
		case "layout":
			p.advance()
			p.layoutList(&q)
		case "uniform":
			p.advance()
			q.qual.AddressSpace = "uniform"
		case "buffer":
			p.advance()
			q.qual.AddressSpace = "storage"
		case "shared":
			p.advance()
			q.qual.AddressSpace = "workgroup"
		case "in", "attribute":
			p.advance()
			q.qual.InOut = "in"
		case "out":
			p.advance()
			q.qual.InOut = "out"
		case "inout":
			p.advance()
			q.qual.InOut = "inout"
		case "varying":
			// Legacy IO qualifier; direction depends on the stage, which
			// is unknown here. Treated as "in" and flipped during stage
			// inference if main writes it.
			p.advance()
			q.qual.InOut = "in"
		case "const":
			p.advance()
			q.qual.Const = true
		case "flat", "smooth", "noperspective":
			tok := p.advance()
			if tok.Lexeme != "smooth" {
				q.qual.Interpolation = tok.Lexeme
			}
		case "highp", "mediump", "lowp":
			q.qual.Precision = p.advance().Lexeme
		case "readonly":
			p.advance()
			q.qual.AccessMode = "read"
		case "writeonly":
			p.advance()
			q.qual.AccessMode = "write"
		case "invariant", "centroid", "coherent", "restrict", "volatile":
			p.advance()
		default:
			return q
		}
	}
	return q
}

// layoutList parses the items of layout(...). Unknown items are
// skipped: GLSL layout qualifiers are numerous and most carry no
// meaning for conversion.
func (p *parser) layoutList(q *declQuals) {
	if !p.expect(ast.TokenLeftParen) {
		return
	}
	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		if !p.check(ast.TokenIdent) {
			p.advance()
			continue
		}
		name := p.advance().Lexeme
		var value uint32
		hasValue := false
		if p.match(ast.TokenEqual) {
			if p.check(ast.TokenIntLiteral) {
				value = parseUint(p.advance().Lexeme, 0)
				hasValue = true
			} else {
				p.advance()
			}
		}
		switch name {
		case "binding":
			b := ensureBinding(&q.binding)
			b.Layout = value
			b.HasLayout = true
		case "location":
			if hasValue {
				q.qual.Location = int32(value)
			}
		case "local_size_x":
			p.setWorkgroup(0, value)
		case "local_size_y":
			p.setWorkgroup(1, value)
		case "local_size_z":
			p.setWorkgroup(2, value)
		}
		if !p.match(ast.TokenComma) {
			break
		}
	}
	p.expect(ast.TokenRightParen)
}

func (p *parser) setWorkgroup(axis int, v uint32) {
	if !p.hasWorkgroup {
		p.workgroup = [3]uint32{1, 1, 1}
		p.hasWorkgroup = true
	}
	if v > 0 {
		p.workgroup[axis] = v
	}
}

func ensureBinding(b **ast.ResourceBinding) *ast.ResourceBinding {
	if *b == nil {
		*b = &ast.ResourceBinding{}
	}
	return *b
}

func parseUint(s string, def uint32) uint32 {
	s = strings.TrimRight(s, "uU")
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return def
	}
	return uint32(v)
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
	decl := ast.Node{Kind: ast.KindStructDecl, Name: name.Lexeme, Span: start.Span, Kids: fields}
	ids := []ast.NodeID{p.m.Add(decl)}

	// "struct S { ... } s;" also declares a variable.
	if p.check(ast.TokenIdent) {
		inst := p.advance()
		ids = append(ids, p.m.Add(ast.Node{
			Kind: ast.KindVarDecl,
			Name: inst.Lexeme,
			Type: ast.Struct(name.Lexeme),
			Span: inst.Span,
			Qual: ast.Qualifiers{Location: ast.NoLocation},
		}))
	}
	if !p.expect(ast.TokenSemicolon) {
		return nil, false
	}
	return ids, true
}

// fieldList parses "{ type name; ... }" member lists shared by structs
// and interface blocks.
func (p *parser) fieldList() ([]ast.NodeID, bool) {
	if !p.expect(ast.TokenLeftBrace) {
		return nil, false
	}
	var fields []ast.NodeID
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		fq := p.qualifiers()
		ty, ok := p.typeSpec()
		if !ok {
			return nil, false
		}
		for {
			if !p.check(ast.TokenIdent) {
				p.errorAtCurrent("expected member name")
				return nil, false
			}
			name := p.advance()
			fty, ok := p.arraySuffix(ty)
			if !ok {
				return nil, false
			}
			fields = append(fields, p.m.Add(ast.Node{
				Kind: ast.KindField,
				Name: name.Lexeme,
				Type: fty,
				Span: name.Span,
				Qual: fq.qual,
			}))
			if !p.match(ast.TokenComma) {
				break
			}
		}
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
	}
	if !p.expect(ast.TokenRightBrace) {
		return nil, false
	}
	return fields, true
}

// interfaceBlock parses uniform/buffer blocks. A named instance keeps
// the block as a struct plus one variable. An unnamed block scopes its
// members globally in GLSL, so they become individual resource
// variables; the block's explicit binding stays on the first member and
// remapping assigns the rest.
func (p *parser) interfaceBlock(quals declQuals) ([]ast.NodeID, bool) {
	name := p.advance()
	fields, ok := p.fieldList()
	if !ok {
		return nil, false
	}

	class := ast.ClassUniformBuffer
	if quals.qual.AddressSpace == "storage" {
		class = ast.ClassStorageBuffer
	}

	if p.check(ast.TokenIdent) {
		inst := p.advance()
		if !p.expect(ast.TokenSemicolon) {
			return nil, false
		}
		strct := p.m.Add(ast.Node{Kind: ast.KindStructDecl, Name: name.Lexeme, Span: name.Span, Kids: fields})
		v := ast.Node{
			Kind:    ast.KindVarDecl,
			Name:    inst.Lexeme,
			Type:    ast.Struct(name.Lexeme),
			Span:    inst.Span,
			Qual:    quals.qual,
			Binding: ensureBinding(&quals.binding),
		}
		v.Binding.Class = class
		return []ast.NodeID{strct, p.m.Add(v)}, true
	}
	if !p.expect(ast.TokenSemicolon) {
		return nil, false
	}

	var ids []ast.NodeID
	for i, fid := range fields {
		f := p.m.Node(fid)
		v := ast.Node{
			Kind: ast.KindVarDecl,
			Name: f.Name,
			Type: f.Type,
			Span: f.Span,
			Qual: quals.qual,
		}
		v.Binding = &ast.ResourceBinding{Class: class}
		if i == 0 && quals.binding != nil {
			*v.Binding = *quals.binding
			v.Binding.Class = class
		}
		ids = append(ids, p.m.Add(v))
	}
	return ids, true
}

// varDecls parses the declarator list of a variable declaration.
func (p *parser) varDecls(quals declQuals, ty ast.TypeSpec, first ast.Token, global bool) ([]ast.NodeID, bool) {
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
			Qual: quals.qual,
		}
		if p.match(ast.TokenEqual) {
			init, ok := p.assignExpr()
			if !ok {
				return nil, false
			}
			decl.Kids = append(decl.Kids, init)
		}
		if global {
			p.bindResource(&decl, quals)
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

// bindResource attaches binding info to global resource declarations.
func (p *parser) bindResource(decl *ast.Node, quals declQuals) {
	isResource := decl.Qual.AddressSpace == "uniform" ||
		decl.Qual.AddressSpace == "storage" ||
		decl.Type.Kind == ast.TypeTexture ||
		decl.Type.Kind == ast.TypeSampler
	if !isResource {
		return
	}
	b := &ast.ResourceBinding{}
	if quals.binding != nil {
		*b = *quals.binding
	}
	switch {
	case decl.Type.Kind == ast.TypeTexture:
		b.Class = ast.ClassTexture
	case decl.Type.Kind == ast.TypeSampler:
		b.Class = ast.ClassSampler
	case decl.Qual.AddressSpace == "storage":
		b.Class = ast.ClassStorageBuffer
	default:
		b.Class = ast.ClassUniformBuffer
	}
	decl.Binding = b
	if decl.Qual.AddressSpace == "" {
		decl.Qual.AddressSpace = "uniform"
	}
}

// arraySuffix wraps ty in an array type for each [N] following the
// declarator name.
func (p *parser) arraySuffix(ty ast.TypeSpec) (ast.TypeSpec, bool) {
	for p.match(ast.TokenLeftBracket) {
		var length uint32
		if p.check(ast.TokenIntLiteral) {
			length = parseUint(p.advance().Lexeme, 0)
		} else if p.check(ast.TokenIdent) {
			// Constant-expression sizes degrade to runtime-sized.
			p.advance()
		}
		if !p.expect(ast.TokenRightBracket) {
			return ty, false
		}
		ty = ast.Array(ty, length)
	}
	return ty, true
}

func (p *parser) functionDef(ret ast.TypeSpec, name ast.Token) (ast.NodeID, bool) {
	p.advance() // (

	fn := ast.Node{
		Kind: ast.KindFunctionDef,
		Name: name.Lexeme,
		Type: ret,
		Span: name.Span,
		Qual: ast.Qualifiers{Location: ast.NoLocation},
	}

	for !p.check(ast.TokenRightParen) && !p.isAtEnd() {
		pq := p.qualifiers()
		ty, ok := p.typeSpec()
		if !ok {
			return ast.InvalidNode, false
		}
		// "void main(void)"
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
		fn.Kids = append(fn.Kids, p.m.Add(ast.Node{
			Kind: ast.KindParam,
			Name: pname.Lexeme,
			Type: pty,
			Span: pname.Span,
			Qual: pq.qual,
		}))
		if !p.match(ast.TokenComma) {
			break
		}
	}
	if !p.expect(ast.TokenRightParen) {
		return ast.InvalidNode, false
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
	return p.m.Add(fn), true
}

// typeSpec parses a type name.
func (p *parser) typeSpec() (ast.TypeSpec, bool) {
	if !p.check(ast.TokenIdent) {
		p.errorAtCurrent("expected type, found %q", p.peek().Lexeme)
		return ast.TypeSpec{}, false
	}
	name := p.advance()
	return p.namedType(name.Lexeme), true
}

func (p *parser) namedType(name string) ast.TypeSpec {
	if name == "void" {
		return ast.Void()
	}
	if sk, ok := scalarTypes[name]; ok {
		return ast.Scalar(sk)
	}
	if v, ok := vectorTypes[name]; ok {
		return ast.Vector(v.Scalar, v.Size)
	}
	if dims, ok := matrixTypes[name]; ok {
		return ast.Matrix(ast.ScalarF32, dims[0], dims[1])
	}
	if t, ok := samplerTypes[name]; ok {
		return t
	}
	return ast.Struct(name)
}

// inferStage determines the stage of main after parsing. GLSL sources
// carry no explicit stage marker.
func (p *parser) inferStage() {
	for _, id := range p.m.Functions() {
		fn := p.m.Node(id)
		if fn.Name != "main" {
			continue
		}
		if p.hasWorkgroup {
			fn.Qual.Stage = ast.StageCompute
			fn.Qual.Workgroup = p.workgroup
			return
		}
		stage := ast.StageFragment
		p.m.Walk(p.m.Body(id), func(nid ast.NodeID) bool {
			n := p.m.Node(nid)
			if n.Kind == ast.KindIdent && n.Name == "gl_Position" {
				stage = ast.StageVertex
			}
			return true
		})
		fn.Qual.Stage = stage
		return
	}
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

// stmtAsBlock parses a statement, wrapping non-block statements in a
// block so control-flow bodies are uniform.
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

// isDeclStart reports whether the current token begins a local
// declaration: a type keyword, a qualifier, or the "Ident Ident"
// pattern of a user struct type.
func (p *parser) isDeclStart() bool {
	tok := p.peek()
	if tok.Kind != ast.TokenIdent {
		return false
	}
	switch tok.Lexeme {
	case "const", "highp", "mediump", "lowp":
		return true
	}
	// "vec3 x" is a declaration; "vec3(...)" is a constructor. The same
	// Ident Ident pattern covers user struct types.
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
			// localDecl consumed the ';'. Multiple declarators in a for
			// header are folded into the first slot via a block.
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

// doStatement converts do-while to while, which runs the body zero
// times when the condition is initially false. The shape is preserved;
// the first-iteration guarantee is not, so a warning is reported.
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

// switchStatement skips a switch, leaving a placeholder comment. No
// target dialect in the pipeline shares GLSL's fallthrough rules, so a
// faithful conversion is not attempted.
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

// expression parses a full expression including the conditional
// operator.
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

// assignExpr parses an initializer expression (no comma operator).
func (p *parser) assignExpr() (ast.NodeID, bool) {
	return p.expression()
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
	var op ast.Op
	switch p.peek().Kind {
	case ast.TokenMinus:
		op = ast.OpNegate
	case ast.TokenBang:
		op = ast.OpNot
	case ast.TokenTilde:
		op = ast.OpBitNot
	case ast.TokenPlus:
		// Unary plus is a no-op.
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
				// ".length()" and friends parse as method calls.
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
			p.advance()
			return p.constructArgs(p.namedType(tok.Lexeme), tok)
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
		if p.check(ast.TokenHash) {
			return
		}
		if p.check(ast.TokenIdent) {
			switch p.peek().Lexeme {
			case "uniform", "layout", "in", "out", "struct", "precision", "const", "void":
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
