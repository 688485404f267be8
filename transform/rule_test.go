package transform

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
)

func TestBuildRejectsEmptyMatch(t *testing.T) {
	tbl := &Table{Source: ast.LangGLSL, Target: ast.LangWGSL, Rules: []Rule{{Match: ""}}}
	if err := tbl.build(); err == nil {
		t.Fatal("expected an error for the empty match")
	}
}

func TestBuildRejectsAmbiguousRules(t *testing.T) {
	tbl := &Table{
		Source: ast.LangGLSL,
		Target: ast.LangWGSL,
		Rules: []Rule{
			{Match: "mod", Replace: "a"},
			{Match: "mod", Replace: "b"},
		},
	}
	err := tbl.build()
	if err == nil {
		t.Fatal("expected an ambiguity error")
	}
	if !strings.Contains(err.Error(), `ambiguous rules for "mod"`) {
		t.Errorf("unexpected error %q", err)
	}
}

func TestBuildAllowsArgcDisambiguation(t *testing.T) {
	tbl := &Table{
		Source: ast.LangGLSL,
		Target: ast.LangWGSL,
		Rules: []Rule{
			{Match: "atan", Argc: 2, Replace: "atan2", Priority: 1},
			{Match: "atan"},
		},
	}
	if err := tbl.build(); err != nil {
		t.Fatalf("expected argc-specific rules to coexist, got %v", err)
	}
}

func TestLookupPrefersHigherPriority(t *testing.T) {
	tbl := &Table{
		Source: ast.LangGLSL,
		Target: ast.LangWGSL,
		Rules: []Rule{
			{Match: "atan"},
			{Match: "atan", Argc: 2, Replace: "atan2", Priority: 1},
		},
	}
	if err := tbl.build(); err != nil {
		t.Fatal(err)
	}

	r, ok := tbl.lookup("atan", false, 2)
	if !ok || r.Replace != "atan2" {
		t.Errorf("expected the two-argument rule, got %+v (ok=%v)", r, ok)
	}
	r, ok = tbl.lookup("atan", false, 1)
	if !ok || r.Replace != "" {
		t.Errorf("expected the generic rule, got %+v (ok=%v)", r, ok)
	}
}

func TestLookupSeparatesMethodCalls(t *testing.T) {
	tbl := &Table{
		Source: ast.LangHLSL,
		Target: ast.LangWGSL,
		Rules: []Rule{
			{Match: "Sample", FromMethod: true, Replace: "textureSample"},
		},
	}
	if err := tbl.build(); err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.lookup("Sample", false, 3); ok {
		t.Error("a method rule must not match a plain call")
	}
	if r, ok := tbl.lookup("Sample", true, 3); !ok || r.Replace != "textureSample" {
		t.Errorf("expected the method rule, got %+v (ok=%v)", r, ok)
	}
}

func TestLookupUnknownName(t *testing.T) {
	tbl := &Table{Source: ast.LangGLSL, Target: ast.LangWGSL}
	if err := tbl.build(); err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.lookup("nothing", false, 1); ok {
		t.Error("expected no rule for an unknown name")
	}
}

func TestTableForLoadsAllPairs(t *testing.T) {
	langs := []ast.Language{ast.LangWGSL, ast.LangGLSL, ast.LangHLSL}
	for _, src := range langs {
		for _, dst := range langs {
			if src == dst {
				continue
			}
			tbl, err := TableFor(src, dst)
			if err != nil {
				t.Fatalf("TableFor(%s, %s): %v", src, dst, err)
			}
			if tbl.Source != src || tbl.Target != dst {
				t.Errorf("expected %s->%s header, got %s->%s", src, dst, tbl.Source, tbl.Target)
			}
		}
	}
}

func TestTableForISFUsesGLSLRules(t *testing.T) {
	tbl, err := TableFor(ast.LangISF, ast.LangWGSL)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Source != ast.LangISF {
		t.Errorf("expected the requested source language, got %s", tbl.Source)
	}
	if _, ok := tbl.lookup("texture2D", false, 2); !ok {
		t.Error("expected the GLSL texture rules to apply to ISF")
	}
}

func TestTableForSamePairIsEmpty(t *testing.T) {
	tbl, err := TableFor(ast.LangWGSL, ast.LangWGSL)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rules) != 0 {
		t.Errorf("expected an identity table, got %d rules", len(tbl.Rules))
	}
}
