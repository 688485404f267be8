// Package diag defines the diagnostic type shared by every pipeline
// stage. Nothing in the pipeline panics; all failure paths surface as
// diagnostics with a severity, a stable code, and a source span.
package diag

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/ast"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// Stable diagnostic codes. Codes are part of the external contract:
// editors key gutter markers and quick fixes off them.
const (
	CodeLex         = "LEX"    // invalid token
	CodeSyntax      = "SYNTAX" // parse failure
	CodeSemantic    = "SEM"    // type mismatch, unresolved identifier, binding collision
	CodeUnsupported = "UNSUP"  // no equivalent construct in the target language
	CodeValidation  = "VALID"  // round-trip re-parse failure
	CodeRename      = "RENAME" // identifier renamed to avoid a target reserved word
	CodeSynth       = "SYNTH"  // resource synthesized during conversion (e.g. a sampler)
)

// Diagnostic is a single message tied to a source location.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     ast.Span
}

// Error renders the diagnostic in "line:col: severity[CODE]: message"
// form. Diagnostic intentionally does not implement the error
// interface; diagnostics are data, not control flow.
func (d Diagnostic) String() string {
	if d.Span.Start.Line == 0 {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s[%s]: %s",
		d.Span.Start.Line, d.Span.Start.Column, d.Severity, d.Code, d.Message)
}

// FormatWithContext renders the diagnostic with the offending source
// line and a caret under the error column.
func (d Diagnostic) FormatWithContext(source string) string {
	if source == "" || d.Span.Start.Line == 0 {
		return d.String()
	}
	lines := strings.Split(source, "\n")
	lineNum := d.Span.Start.Line
	if lineNum < 1 || lineNum > len(lines) {
		return d.String()
	}
	line := lines[lineNum-1]
	col := d.Span.Start.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Errorf appends an error diagnostic with a formatted message.
func (l *List) Errorf(code string, span ast.Span, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Warnf appends a warning diagnostic with a formatted message.
func (l *List) Warnf(code string, span ast.Span, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Infof appends an info diagnostic with a formatted message.
func (l *List) Infof(code string, span ast.Span, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// HasErrors reports whether the list contains any error diagnostics.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics at the given severity.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// FormatAll renders every diagnostic with source context.
func (l List) FormatAll(source string) string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(d.FormatWithContext(source))
	}
	return sb.String()
}
