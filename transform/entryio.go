package transform

import (
	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
)

// Entry-point IO reshaping. GLSL entry points are void main() reading
// global in-variables and builtin gl_* names and writing global
// out-variables; WGSL and HLSL entry points take stage inputs as
// parameters and return stage outputs. Conversion between the two
// shapes rewrites the entry function's signature, declares or removes
// the IO globals, and redirects every reference in the body.

// builtinInput describes how a GLSL builtin input becomes an entry
// parameter.
type builtinInput struct {
	param   string
	builtin string
	ty      ast.TypeSpec
}

// glslInputOrder fixes the synthesized parameter order; map iteration
// would make generation nondeterministic.
var glslInputOrder = []string{
	"gl_FragCoord", "gl_VertexID", "gl_InstanceID",
	"gl_GlobalInvocationID", "gl_LocalInvocationID", "gl_WorkGroupID",
}

var glslInputs = map[string]builtinInput{
	"gl_FragCoord":          {"frag_coord", "position", ast.Vector(ast.ScalarF32, 4)},
	"gl_VertexID":           {"vertex_index", "vertex_index", ast.Scalar(ast.ScalarU32)},
	"gl_InstanceID":         {"instance_index", "instance_index", ast.Scalar(ast.ScalarU32)},
	"gl_GlobalInvocationID": {"global_id", "global_invocation_id", ast.Vector(ast.ScalarU32, 3)},
	"gl_LocalInvocationID":  {"local_id", "local_invocation_id", ast.Vector(ast.ScalarU32, 3)},
	"gl_WorkGroupID":        {"group_id", "workgroup_id", ast.Vector(ast.ScalarU32, 3)},
}

// glslOutputs maps the writable GLSL builtins to output descriptions.
var glslOutputs = map[string]stageOutput{
	"gl_Position":  {name: "position", builtin: "position", ty: ast.Vector(ast.ScalarF32, 4)},
	"gl_FragColor": {name: "frag_color", location: 0, ty: ast.Vector(ast.ScalarF32, 4)},
	"gl_FragDepth": {name: "frag_depth", builtin: "frag_depth", ty: ast.Scalar(ast.ScalarF32)},
}

// builtinGLName is the inverse mapping for explicit-IO parameters.
func builtinGLName(builtin string, stage ast.Stage) string {
	switch builtin {
	case "position":
		if stage == ast.StageFragment {
			return "gl_FragCoord"
		}
		return "gl_Position"
	case "vertex_index":
		return "gl_VertexID"
	case "instance_index":
		return "gl_InstanceID"
	case "global_invocation_id":
		return "gl_GlobalInvocationID"
	case "local_invocation_id":
		return "gl_LocalInvocationID"
	case "workgroup_id":
		return "gl_WorkGroupID"
	case "frag_depth":
		return "gl_FragDepth"
	default:
		return ""
	}
}

type stageOutput struct {
	name     string
	ty       ast.TypeSpec
	builtin  string
	location int32
}

// toExplicitIO rewrites the entry point from GLSL shape to
// parameter-and-return shape.
func (e *engine) toExplicitIO() {
	entries := e.entryPoints()
	if len(entries) == 0 {
		return
	}
	fn := entries[0]
	body := e.m.Body(fn)
	if !body.Valid() {
		return
	}

	// Stage inputs: global in-variables plus any gl_* builtin the body
	// reads.
	var params []ast.NodeID
	usedLoc := map[int32]bool{}
	removed := map[ast.NodeID]bool{}
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind != ast.KindVarDecl || n.Qual.InOut != "in" {
			continue
		}
		loc := n.Qual.Location
		if loc != ast.NoLocation {
			usedLoc[loc] = true
		}
		removed[id] = true
		params = append(params, e.m.Add(ast.Node{
			Kind: ast.KindParam,
			Span: n.Span,
			Name: n.Name,
			Type: n.Type,
			Qual: ast.Qualifiers{Location: loc, Interpolation: n.Qual.Interpolation},
		}))
	}
	next := int32(0)
	for _, pid := range params {
		p := e.m.Node(pid)
		if p.Qual.Location == ast.NoLocation && p.Qual.Builtin == "" {
			for usedLoc[next] {
				next++
			}
			p.Qual.Location = next
			usedLoc[next] = true
		}
	}
	for _, name := range glslInputOrder {
		in := glslInputs[name]
		if !e.bodyReferences(body, name) {
			continue
		}
		params = append(params, e.m.Add(ast.Node{
			Kind: ast.KindParam,
			Span: e.m.Node(fn).Span,
			Name: in.param,
			Type: in.ty,
			Qual: ast.Qualifiers{Location: ast.NoLocation, Builtin: in.builtin},
		}))
		e.renameIdents(body, name, in.param)
	}

	// Stage outputs: global out-variables plus any writable builtin the
	// body references.
	var outs []stageOutput
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind != ast.KindVarDecl || n.Qual.InOut != "out" {
			continue
		}
		removed[id] = true
		loc := n.Qual.Location
		if loc == ast.NoLocation {
			loc = int32(len(outs))
		}
		outs = append(outs, stageOutput{name: n.Name, ty: n.Type, location: loc})
	}
	stage := e.m.Node(fn).Qual.Stage
	for _, gl := range []string{"gl_Position", "gl_FragColor", "gl_FragDepth"} {
		if !e.bodyReferences(body, gl) {
			continue
		}
		out := glslOutputs[gl]
		e.renameIdents(body, gl, out.name)
		outs = append(outs, out)
	}

	if len(removed) > 0 {
		kept := e.m.Decls[:0]
		for _, id := range e.m.Decls {
			if !removed[id] {
				kept = append(kept, id)
			}
		}
		e.m.Decls = kept
	}

	e.attachOutputs(fn, body, outs, stage)

	n := e.m.Node(fn)
	n.Kids = append(params, body)
}

// attachOutputs gives the entry function its return shape: nothing,
// a single qualified value, or a synthesized output struct.
func (e *engine) attachOutputs(fn, body ast.NodeID, outs []stageOutput, stage ast.Stage) {
	switch len(outs) {
	case 0:
		return

	case 1:
		o := outs[0]
		local := e.m.Add(ast.Node{
			Kind: ast.KindVarDecl,
			Span: e.m.Node(fn).Span,
			Name: o.name,
			Type: o.ty,
			Qual: ast.Qualifiers{Location: ast.NoLocation},
		})
		b := e.m.Node(body)
		b.Kids = append([]ast.NodeID{local}, b.Kids...)
		e.returnValue(body, func(span ast.Span) ast.NodeID {
			return e.m.Add(ast.Node{Kind: ast.KindIdent, Span: span, Name: o.name})
		})
		n := e.m.Node(fn)
		n.Type = o.ty
		n.Qual.Builtin = o.builtin
		if o.builtin != "" {
			n.Qual.Location = ast.NoLocation
		} else {
			n.Qual.Location = o.location
		}

	default:
		structName := "FragmentOutput"
		if stage == ast.StageVertex {
			structName = "VertexOutput"
		}
		span := e.m.Node(fn).Span
		fields := make([]ast.NodeID, 0, len(outs))
		for _, o := range outs {
			q := ast.Qualifiers{Location: ast.NoLocation}
			if o.builtin != "" {
				q.Builtin = o.builtin
			} else {
				q.Location = o.location
			}
			fields = append(fields, e.m.Add(ast.Node{
				Kind: ast.KindField, Span: span, Name: o.name, Type: o.ty, Qual: q,
			}))
		}
		st := e.m.Add(ast.Node{Kind: ast.KindStructDecl, Span: span, Name: structName, Kids: fields})

		// Declare the struct ahead of the entry function.
		decls := make([]ast.NodeID, 0, len(e.m.Decls)+1)
		for _, id := range e.m.Decls {
			if id == fn {
				decls = append(decls, st)
			}
			decls = append(decls, id)
		}
		e.m.Decls = decls

		local := e.m.Add(ast.Node{
			Kind: ast.KindVarDecl,
			Span: span,
			Name: "shader_out",
			Type: ast.Struct(structName),
			Qual: ast.Qualifiers{Location: ast.NoLocation},
		})
		b := e.m.Node(body)
		b.Kids = append([]ast.NodeID{local}, b.Kids...)

		// Redirect every former out-variable reference through the
		// struct local.
		for _, o := range outs {
			e.memberize(body, o.name, "shader_out")
		}
		e.returnValue(body, func(s ast.Span) ast.NodeID {
			return e.m.Add(ast.Node{Kind: ast.KindIdent, Span: s, Name: "shader_out"})
		})
		n := e.m.Node(fn)
		n.Type = ast.Struct(structName)
		n.Qual.Location = ast.NoLocation
		n.Qual.Builtin = ""
	}
}

// returnValue gives every bare return a value and appends a trailing
// return when control can fall off the end.
func (e *engine) returnValue(body ast.NodeID, value func(ast.Span) ast.NodeID) {
	var returns []ast.NodeID
	e.m.Walk(body, func(id ast.NodeID) bool {
		if e.m.Node(id).Kind == ast.KindReturn {
			returns = append(returns, id)
		}
		return true
	})
	for _, rid := range returns {
		n := e.m.Node(rid)
		if len(n.Kids) == 0 || !n.Kids[0].Valid() {
			v := value(n.Span)
			e.m.Node(rid).Kids = []ast.NodeID{v}
		}
	}

	kids := e.m.Node(body).Kids
	if len(kids) > 0 && e.m.Node(kids[len(kids)-1]).Kind == ast.KindReturn {
		return
	}
	span := e.m.Node(body).Span
	v := value(span)
	ret := e.m.Add(ast.Node{Kind: ast.KindReturn, Span: span, Kids: []ast.NodeID{v}})
	b := e.m.Node(body)
	b.Kids = append(b.Kids, ret)
}

// toVaryingIO rewrites entry points from parameter-and-return shape to
// GLSL shape. GLSL has a single entry point; extra entries lose their
// stage marking and convert as plain functions.
func (e *engine) toVaryingIO() {
	entries := e.entryPoints()
	if len(entries) == 0 {
		return
	}
	for _, extra := range entries[1:] {
		n := e.m.Node(extra)
		e.diags.Warnf(diag.CodeUnsupported, n.Span,
			"entry point %q demoted to a plain function: GLSL allows a single main", n.Name)
		n.Qual.Stage = ast.StageNone
	}
	fn := entries[0]
	body := e.m.Body(fn)
	if !body.Valid() {
		return
	}
	stage := e.m.Node(fn).Qual.Stage

	// Parameters become in-variables; builtin parameters become their
	// gl_* spellings.
	var inDecls []ast.NodeID
	for _, pid := range e.m.Params(fn) {
		p := e.m.Node(pid)
		if p.Qual.Builtin != "" {
			gl := builtinGLName(p.Qual.Builtin, stage)
			if gl == "" {
				e.diags.Warnf(diag.CodeUnsupported, p.Span,
					"builtin %q has no GLSL equivalent", p.Qual.Builtin)
				continue
			}
			e.renameIdents(body, p.Name, gl)
			continue
		}
		name := p.Name
		span := p.Span
		ty := p.Type
		loc := p.Qual.Location
		interp := p.Qual.Interpolation
		inDecls = append(inDecls, e.m.Add(ast.Node{
			Kind: ast.KindVarDecl,
			Span: span,
			Name: name,
			Type: ty,
			Qual: ast.Qualifiers{InOut: "in", Location: loc, Interpolation: interp},
		}))
	}

	e.detachOutputs(fn, body, stage, &inDecls)

	// Insert the IO globals ahead of the entry function, then strip the
	// parameters and rename the entry to main.
	if len(inDecls) > 0 {
		decls := make([]ast.NodeID, 0, len(e.m.Decls)+len(inDecls))
		for _, id := range e.m.Decls {
			if id == fn {
				decls = append(decls, inDecls...)
			}
			decls = append(decls, id)
		}
		e.m.Decls = decls
	}

	n := e.m.Node(fn)
	n.Kids = []ast.NodeID{body}
	n.Type = ast.Void()
	n.Qual.Location = ast.NoLocation
	n.Qual.Builtin = ""
	if n.Name != "main" {
		e.diags.Infof(diag.CodeRename, n.Span,
			"entry point %q renamed to main", n.Name)
		n.Name = "main"
	}
}

// detachOutputs turns the entry's return value into out-variables or
// gl_* builtin writes, rewriting every return statement.
func (e *engine) detachOutputs(fn, body ast.NodeID, stage ast.Stage, outDecls *[]ast.NodeID) {
	n := e.m.Node(fn)
	ty := n.Type
	if ty.IsVoid() {
		return
	}
	span := n.Span

	if ty.Kind == ast.TypeStruct {
		st := e.findStruct(ty.Struct)
		if !st.Valid() {
			e.diags.Warnf(diag.CodeUnsupported, span,
				"output struct %q not found; return left as is", ty.Struct)
			return
		}
		type fieldOut struct {
			field  string
			target string
		}
		var plan []fieldOut
		for _, fid := range e.m.Node(st).Kids {
			f := e.m.Node(fid)
			if f.Qual.Builtin != "" {
				gl := builtinGLName(f.Qual.Builtin, ast.StageVertex)
				if f.Qual.Builtin == "frag_depth" {
					gl = "gl_FragDepth"
				}
				if gl == "" {
					e.diags.Warnf(diag.CodeUnsupported, f.Span,
						"output builtin %q has no GLSL equivalent", f.Qual.Builtin)
					continue
				}
				plan = append(plan, fieldOut{f.Name, gl})
				continue
			}
			*outDecls = append(*outDecls, e.m.Add(ast.Node{
				Kind: ast.KindVarDecl,
				Span: f.Span,
				Name: f.Name,
				Type: f.Type,
				Qual: ast.Qualifiers{InOut: "out", Location: f.Qual.Location},
			}))
			plan = append(plan, fieldOut{f.Name, f.Name})
		}
		e.expandReturns(body, func(value ast.NodeID, s ast.Span) []ast.NodeID {
			var stmts []ast.NodeID
			src := value
			if e.m.Node(value).Kind != ast.KindIdent {
				tmp := e.m.Add(ast.Node{
					Kind: ast.KindVarDecl, Span: s, Name: "shader_out",
					Type: ty, Qual: ast.Qualifiers{Location: ast.NoLocation},
					Kids: []ast.NodeID{value},
				})
				stmts = append(stmts, tmp)
				src = e.m.Add(ast.Node{Kind: ast.KindIdent, Span: s, Name: "shader_out"})
			}
			for _, p := range plan {
				base := e.m.Add(ast.Node{Kind: ast.KindIdent, Span: s, Name: e.m.Node(src).Name})
				member := e.m.Add(ast.Node{Kind: ast.KindMember, Span: s, Name: p.field, Kids: []ast.NodeID{base}})
				lhs := e.m.Add(ast.Node{Kind: ast.KindIdent, Span: s, Name: p.target})
				stmts = append(stmts, e.m.Add(ast.Node{
					Kind: ast.KindAssign, Span: s, Op: ast.OpAssign,
					Kids: []ast.NodeID{lhs, member},
				}))
			}
			stmts = append(stmts, e.m.Add(ast.Node{Kind: ast.KindReturn, Span: s}))
			return stmts
		})
		return
	}

	// Single value: a builtin write or one out-variable.
	target := ""
	switch {
	case n.Qual.Builtin == "frag_depth":
		target = "gl_FragDepth"
	case stage == ast.StageVertex:
		target = "gl_Position"
	default:
		loc := n.Qual.Location
		if loc == ast.NoLocation {
			loc = 0
		}
		target = "frag_color"
		*outDecls = append(*outDecls, e.m.Add(ast.Node{
			Kind: ast.KindVarDecl,
			Span: span,
			Name: target,
			Type: ty,
			Qual: ast.Qualifiers{InOut: "out", Location: loc},
		}))
	}
	e.expandReturns(body, func(value ast.NodeID, s ast.Span) []ast.NodeID {
		lhs := e.m.Add(ast.Node{Kind: ast.KindIdent, Span: s, Name: target})
		assign := e.m.Add(ast.Node{
			Kind: ast.KindAssign, Span: s, Op: ast.OpAssign,
			Kids: []ast.NodeID{lhs, value},
		})
		ret := e.m.Add(ast.Node{Kind: ast.KindReturn, Span: s})
		return []ast.NodeID{assign, ret}
	})
}

// expandReturns replaces every valued return in the block tree with the
// statements expand produces.
func (e *engine) expandReturns(block ast.NodeID, expand func(value ast.NodeID, span ast.Span) []ast.NodeID) {
	kids := e.m.Node(block).Kids
	var out []ast.NodeID
	for _, sid := range kids {
		n := e.m.Node(sid)
		switch n.Kind {
		case ast.KindReturn:
			if len(n.Kids) > 0 && n.Kids[0].Valid() {
				out = append(out, expand(n.Kids[0], n.Span)...)
				continue
			}
		case ast.KindIf:
			e.expandReturns(n.Kids[1], expand)
			if len(n.Kids) > 2 && n.Kids[2].Valid() {
				els := e.m.Node(n.Kids[2])
				if els.Kind == ast.KindBlock {
					e.expandReturns(n.Kids[2], expand)
				} else if els.Kind == ast.KindIf {
					e.expandReturnsInIf(n.Kids[2], expand)
				}
			}
		case ast.KindFor:
			if n.Kids[3].Valid() {
				e.expandReturns(n.Kids[3], expand)
			}
		case ast.KindWhile:
			e.expandReturns(n.Kids[1], expand)
		case ast.KindBlock:
			e.expandReturns(sid, expand)
		}
		out = append(out, sid)
	}
	e.m.Node(block).Kids = out
}

func (e *engine) expandReturnsInIf(ifID ast.NodeID, expand func(ast.NodeID, ast.Span) []ast.NodeID) {
	n := e.m.Node(ifID)
	e.expandReturns(n.Kids[1], expand)
	if len(n.Kids) > 2 && n.Kids[2].Valid() {
		els := e.m.Node(n.Kids[2])
		if els.Kind == ast.KindBlock {
			e.expandReturns(n.Kids[2], expand)
		} else if els.Kind == ast.KindIf {
			e.expandReturnsInIf(n.Kids[2], expand)
		}
	}
}

// Helpers shared by both directions.

func (e *engine) entryPoints() []ast.NodeID {
	var out []ast.NodeID
	for _, fn := range e.m.Functions() {
		if e.m.Node(fn).Qual.Stage != ast.StageNone {
			out = append(out, fn)
		}
	}
	return out
}

func (e *engine) bodyReferences(body ast.NodeID, name string) bool {
	found := false
	e.m.Walk(body, func(id ast.NodeID) bool {
		if found {
			return false
		}
		n := e.m.Node(id)
		if n.Kind == ast.KindIdent && n.Name == name {
			found = true
			return false
		}
		return true
	})
	return found
}

func (e *engine) renameIdents(body ast.NodeID, from, to string) {
	e.m.Walk(body, func(id ast.NodeID) bool {
		n := e.m.Node(id)
		if n.Kind == ast.KindIdent && n.Name == from {
			n.Name = to
		}
		return true
	})
}

// memberize rewrites every identifier reference of name into
// base.name.
func (e *engine) memberize(body ast.NodeID, name, base string) {
	var hits []ast.NodeID
	e.m.Walk(body, func(id ast.NodeID) bool {
		n := e.m.Node(id)
		if n.Kind == ast.KindIdent && n.Name == name {
			hits = append(hits, id)
		}
		return true
	})
	for _, id := range hits {
		span := e.m.Node(id).Span
		baseID := e.m.Add(ast.Node{Kind: ast.KindIdent, Span: span, Name: base})
		n := e.m.Node(id)
		n.Kind = ast.KindMember
		n.Kids = []ast.NodeID{baseID}
	}
}

func (e *engine) findStruct(name string) ast.NodeID {
	for _, id := range e.m.Decls {
		n := e.m.Node(id)
		if n.Kind == ast.KindStructDecl && n.Name == name {
			return id
		}
	}
	return ast.InvalidNode
}
