package transform

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderconv/ast"
)

//go:embed tables/*.yaml
var tableFS embed.FS

type pair struct {
	src, dst ast.Language
}

var tableFiles = map[pair]string{
	{ast.LangWGSL, ast.LangGLSL}: "tables/wgsl_to_glsl.yaml",
	{ast.LangGLSL, ast.LangWGSL}: "tables/glsl_to_wgsl.yaml",
	{ast.LangWGSL, ast.LangHLSL}: "tables/wgsl_to_hlsl.yaml",
	{ast.LangHLSL, ast.LangWGSL}: "tables/hlsl_to_wgsl.yaml",
	{ast.LangGLSL, ast.LangHLSL}: "tables/glsl_to_hlsl.yaml",
	{ast.LangHLSL, ast.LangGLSL}: "tables/hlsl_to_glsl.yaml",
}

var (
	loadOnce sync.Once
	loaded   map[pair]*Table
	loadErr  error
)

func loadTables() {
	loaded = make(map[pair]*Table, len(tableFiles))
	for p, path := range tableFiles {
		data, err := tableFS.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("rule table %s: %w", path, err)
			return
		}
		t := &Table{Source: p.src, Target: p.dst}
		if err := yaml.Unmarshal(data, t); err != nil {
			loadErr = fmt.Errorf("rule table %s: %w", path, err)
			return
		}
		if err := t.build(); err != nil {
			loadErr = fmt.Errorf("rule table %s: %w", path, err)
			return
		}
		loaded[p] = t
	}
}

// TableFor returns the rule table for a language pair. ISF is a GLSL
// dialect, so ISF pairs resolve to the GLSL tables. Same-language pairs
// get an empty table: conversion to the source language is identity.
func TableFor(src, dst ast.Language) (*Table, error) {
	loadOnce.Do(loadTables)
	if loadErr != nil {
		return nil, loadErr
	}
	s, d := normalize(src), normalize(dst)
	if s == d {
		t := &Table{Source: src, Target: dst}
		if err := t.build(); err != nil {
			return nil, err
		}
		return t, nil
	}
	t, ok := loaded[pair{s, d}]
	if !ok {
		return nil, fmt.Errorf("no rule table for %s -> %s", src, dst)
	}
	// Copy the header so callers see the languages they asked for; the
	// rule index is shared and immutable after load.
	view := *t
	view.Source, view.Target = src, dst
	return &view, nil
}

func normalize(l ast.Language) ast.Language {
	if l == ast.LangISF {
		return ast.LangGLSL
	}
	return l
}
