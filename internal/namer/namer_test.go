package namer

import "testing"

func reserved(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func TestCallPassesFreeNames(t *testing.T) {
	n := New(reserved("return"), false)
	got, renamed := n.Call("color")
	if renamed {
		t.Error("expected no rename for a free name")
	}
	if got != "color" {
		t.Errorf("expected %q, got %q", "color", got)
	}
}

func TestCallRenamesReservedWords(t *testing.T) {
	n := New(reserved("sample"), false)
	got, renamed := n.Call("sample")
	if !renamed {
		t.Fatal("expected a rename for a reserved word")
	}
	if got != "sample_" {
		t.Errorf("expected %q, got %q", "sample_", got)
	}
}

func TestCallDisambiguatesCollisions(t *testing.T) {
	n := New(nil, false)
	first, _ := n.Call("uv")
	second, renamed := n.Call("uv")
	if first != "uv" {
		t.Errorf("expected first name unchanged, got %q", first)
	}
	if !renamed {
		t.Fatal("expected second claim of the same name to rename")
	}
	if second == first {
		t.Errorf("expected a distinct name, got %q twice", second)
	}
}

func TestCallFoldsCase(t *testing.T) {
	n := New(nil, true)
	n.Call("Color")
	got, renamed := n.Call("color")
	if !renamed {
		t.Fatal("expected case-folded collision to rename")
	}
	if got == "color" {
		t.Errorf("expected a distinct name, got %q", got)
	}
}

func TestIsReservedFoldsCase(t *testing.T) {
	n := New(reserved("texture2d"), true)
	if !n.IsReserved("Texture2D") {
		t.Error("expected case-insensitive reserved match")
	}
}

func TestReserveBlocksName(t *testing.T) {
	n := New(nil, false)
	n.Reserve("main")
	got, renamed := n.Call("main")
	if !renamed {
		t.Fatal("expected reserved name to rename")
	}
	if got == "main" {
		t.Errorf("expected a distinct name, got %q", got)
	}
}
