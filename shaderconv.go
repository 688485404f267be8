// Package shaderconv converts shader source between WGSL, GLSL, HLSL,
// and ISF, preserving resource bindings, type arities, and control-flow
// shape. A conversion is a pure, linear pipeline: parse, analyze,
// transform, generate, validate. Requests share no state beyond the
// once-loaded rule tables, so conversions may run concurrently.
package shaderconv

import (
	"context"
	"fmt"

	"github.com/gogpu/shaderconv/ast"
	"github.com/gogpu/shaderconv/diag"
	"github.com/gogpu/shaderconv/glsl"
	"github.com/gogpu/shaderconv/hlsl"
	"github.com/gogpu/shaderconv/isf"
	"github.com/gogpu/shaderconv/sem"
	"github.com/gogpu/shaderconv/transform"
	"github.com/gogpu/shaderconv/validate"
	"github.com/gogpu/shaderconv/wgsl"
)

// Language aliases the AST language enum so callers need only this
// package for the common path.
type Language = ast.Language

const (
	LangWGSL = ast.LangWGSL
	LangGLSL = ast.LangGLSL
	LangHLSL = ast.LangHLSL
	LangISF  = ast.LangISF
)

// ParseLanguage maps a name or file extension to a Language.
func ParseLanguage(name string) (Language, error) { return ast.ParseLanguage(name) }

// Options tunes a conversion.
type Options struct {
	// Strict fails the conversion on the first construct the target
	// cannot express, instead of emitting a commented placeholder.
	Strict bool

	// GLSLVersion selects the #version directive and gates
	// version-dependent builtins. Defaults to 330.
	GLSLVersion int

	// HLSLShaderModel gates model-dependent output. Defaults to "5.0".
	HLSLShaderModel string

	// Description and Credit seed ISF metadata when converting to ISF.
	Description string
	Credit      string

	// Optimize is accepted for forward compatibility and currently
	// inert.
	Optimize bool
}

func (o Options) withDefaults() Options {
	if o.GLSLVersion == 0 {
		o.GLSLVersion = glsl.DefaultVersion
	}
	if o.HLSLShaderModel == "" {
		o.HLSLShaderModel = hlsl.DefaultShaderModel
	}
	return o
}

// Request is one conversion job.
type Request struct {
	Source     string
	SourceLang Language
	TargetLang Language
	Options    Options
}

// Status is the terminal state of a conversion.
type Status uint8

const (
	// StatusSuccess: the whole module converted cleanly.
	StatusSuccess Status = iota

	// StatusPartialSuccess: output was produced, but parts of the
	// module were omitted or degraded; the diagnostics say which.
	StatusPartialSuccess

	// StatusFailure: no usable output.
	StatusFailure
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartialSuccess:
		return "partial"
	default:
		return "failure"
	}
}

// Result is the outcome of a conversion.
type Result struct {
	Status      Status
	TargetCode  string
	Diagnostics diag.List
}

// Convert runs the pipeline. The error is non-nil only for faults
// outside the input's control: context cancellation or a broken rule
// table. Everything about the shader itself is a diagnostic.
func Convert(ctx context.Context, req Request) (Result, error) {
	opts := req.Options.withDefaults()
	var diags diag.List

	m, parseDiags := parseSource(req.Source, req.SourceLang)
	diags = append(diags, parseDiags...)
	if m == nil || parseDiags.HasErrors() {
		return Result{Status: StatusFailure, Diagnostics: diags}, nil
	}

	info, semDiags := sem.Analyze(m, req.SourceLang)
	diags = append(diags, semDiags...)
	if info.ModuleDiags.HasErrors() {
		return Result{Status: StatusFailure, Diagnostics: diags}, nil
	}

	// Functions with semantic errors drop out; the rest of the module
	// converts. Each omission leaves a marker in the output.
	partial := false
	total, errored := 0, 0
	decls := make([]ast.NodeID, 0, len(m.Decls))
	for _, id := range m.Decls {
		n := m.Node(id)
		if n.Kind == ast.KindFunctionDef {
			total++
			if info.Errored(id) {
				errored++
				decls = append(decls, m.Add(ast.Node{
					Kind: ast.KindComment,
					Span: n.Span,
					Text: fmt.Sprintf("function %q omitted: semantic errors", n.Name),
				}))
				partial = true
				continue
			}
		}
		decls = append(decls, id)
	}
	if total > 0 && errored == total {
		return Result{Status: StatusFailure, Diagnostics: diags}, nil
	}
	view := m.WithDecls(decls)

	table, err := transform.TableFor(req.SourceLang, req.TargetLang)
	if err != nil {
		return Result{}, err
	}
	view, tDiags, err := transform.Apply(ctx, view, table, transform.Options{
		Strict:      opts.Strict,
		GLSLVersion: opts.GLSLVersion,
		ShaderModel: opts.HLSLShaderModel,
	})
	diags = append(diags, tDiags...)
	if err != nil {
		return Result{}, err
	}
	if opts.Strict && tDiags.HasErrors() {
		return Result{Status: StatusFailure, Diagnostics: diags}, nil
	}

	code, genDiags := generate(view, req.TargetLang, opts)
	diags = append(diags, genDiags...)

	vDiags := validate.Check(code, req.TargetLang)
	diags = append(diags, vDiags...)
	if opts.Strict && diags.HasErrors() {
		return Result{Status: StatusFailure, Diagnostics: diags}, nil
	}
	if vDiags.HasErrors() {
		partial = true
	}

	status := StatusSuccess
	if partial {
		status = StatusPartialSuccess
	}
	return Result{Status: status, TargetCode: code, Diagnostics: diags}, nil
}

// ValidateSource parses and analyzes a shader without converting it,
// for callers that only want the diagnostics.
func ValidateSource(source string, lang Language) diag.List {
	m, diags := parseSource(source, lang)
	if m == nil || diags.HasErrors() {
		return diags
	}
	_, semDiags := sem.Analyze(m, lang)
	return append(diags, semDiags...)
}

func parseSource(source string, lang Language) (*ast.Module, diag.List) {
	switch lang {
	case ast.LangWGSL:
		return wgsl.Parse(source)
	case ast.LangGLSL:
		return glsl.Parse(source)
	case ast.LangHLSL:
		return hlsl.Parse(source)
	case ast.LangISF:
		return isf.Parse(source)
	default:
		var diags diag.List
		diags.Errorf(diag.CodeSyntax, ast.Span{}, "unknown source language %d", lang)
		return nil, diags
	}
}

func generate(m *ast.Module, lang Language, opts Options) (string, diag.List) {
	switch lang {
	case ast.LangWGSL:
		return wgsl.Generate(m)
	case ast.LangGLSL:
		return glsl.Generate(m, glsl.Options{Version: opts.GLSLVersion})
	case ast.LangHLSL:
		return hlsl.Generate(m, hlsl.Options{ShaderModel: opts.HLSLShaderModel})
	case ast.LangISF:
		return isf.Generate(m, isf.Options{Description: opts.Description, Credit: opts.Credit})
	default:
		var diags diag.List
		diags.Errorf(diag.CodeValidation, ast.Span{}, "unknown target language %d", lang)
		return "", diags
	}
}
