package ast

import "testing"

func TestParseLanguage(t *testing.T) {
	cases := []struct {
		name string
		want Language
	}{
		{"wgsl", LangWGSL},
		{"glsl", LangGLSL},
		{"frag", LangGLSL},
		{"vert", LangGLSL},
		{"comp", LangGLSL},
		{"hlsl", LangHLSL},
		{"isf", LangISF},
		{"fs", LangISF},
	}
	for _, c := range cases {
		got, err := ParseLanguage(c.name)
		if err != nil {
			t.Errorf("ParseLanguage(%q): unexpected error: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseLanguage(%q): expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestParseLanguageUnknown(t *testing.T) {
	if _, err := ParseLanguage("metal"); err == nil {
		t.Error("expected an error for an unknown language")
	}
}

func TestLanguageString(t *testing.T) {
	cases := []struct {
		lang Language
		want string
	}{
		{LangWGSL, "wgsl"},
		{LangGLSL, "glsl"},
		{LangHLSL, "hlsl"},
		{LangISF, "isf"},
	}
	for _, c := range cases {
		if got := c.lang.String(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}
