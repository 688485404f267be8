package diag

import (
	"strings"
	"testing"

	"github.com/gogpu/shaderconv/ast"
)

func at(line, col int) ast.Span {
	return ast.Span{
		Start: ast.Position{Line: line, Column: col},
		End:   ast.Position{Line: line, Column: col + 1},
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Code:     CodeSyntax,
		Message:  "expected ';'",
		Span:     at(3, 12),
	}
	want := "3:12: error[SYNTAX]: expected ';'"
	if got := d.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDiagnosticStringWithoutPosition(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Code: CodeUnsupported, Message: "no equivalent"}
	want := "warning[UNSUP]: no equivalent"
	if got := d.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatWithContext(t *testing.T) {
	source := "uniform float time;\nvoid main() {}\n"
	d := Diagnostic{
		Severity: SeverityError,
		Code:     CodeSemantic,
		Message:  "unknown type",
		Span:     at(1, 9),
	}
	got := d.FormatWithContext(source)
	for _, want := range []string{
		"error[SEM]: unknown type",
		"--> line 1:9",
		"  1| uniform float time;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
	// Caret sits under column 9.
	if !strings.Contains(got, "   | "+strings.Repeat(" ", 8)+"^") {
		t.Errorf("caret misplaced:\n%s", got)
	}
}

func TestFormatWithContextFallsBackWithoutSource(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Code: CodeLex, Message: "bad token", Span: at(1, 1)}
	if got := d.FormatWithContext(""); got != d.String() {
		t.Errorf("expected plain form %q, got %q", d.String(), got)
	}
}

func TestListAppendAndCount(t *testing.T) {
	var l List
	l.Errorf(CodeSyntax, at(1, 1), "bad %s", "token")
	l.Warnf(CodeUnsupported, at(2, 1), "dropped")
	l.Infof(CodeRename, at(3, 1), "renamed")

	if len(l) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(l))
	}
	if !l.HasErrors() {
		t.Error("expected HasErrors to be true")
	}
	if got := l.Count(SeverityError); got != 1 {
		t.Errorf("expected 1 error, got %d", got)
	}
	if got := l.Count(SeverityWarning); got != 1 {
		t.Errorf("expected 1 warning, got %d", got)
	}
	if got := l.Count(SeverityInfo); got != 1 {
		t.Errorf("expected 1 info, got %d", got)
	}
	if l[0].Message != "bad token" {
		t.Errorf("expected formatted message, got %q", l[0].Message)
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	var l List
	l.Warnf(CodeUnsupported, at(1, 1), "dropped")
	if l.HasErrors() {
		t.Error("expected HasErrors to be false for warnings only")
	}
}

func TestSeverityString(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{SeverityError, "error"},
		{SeverityWarning, "warning"},
		{SeverityInfo, "info"},
	}
	for _, c := range cases {
		if got := c.sev.String(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}
