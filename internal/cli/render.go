package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/shaderconv/diag"
)

// Severity styling for terminal diagnostics.
var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// renderDiagnostics writes diagnostics with severity coloring and, when
// the source is available, the offending line with a caret.
func renderDiagnostics(w io.Writer, diags diag.List, source string, color bool) {
	for _, d := range diags {
		label := fmt.Sprintf("%s[%s]", d.Severity, d.Code)
		if color {
			switch d.Severity {
			case diag.SeverityError:
				label = errStyle.Render(label)
			case diag.SeverityWarning:
				label = warnStyle.Render(label)
			default:
				label = infoStyle.Render(label)
			}
		}

		loc := ""
		if d.Span.Start.Line > 0 {
			loc = fmt.Sprintf(" --> %d:%d", d.Span.Start.Line, d.Span.Start.Column)
			if color {
				loc = dimStyle.Render(loc)
			}
		}
		fmt.Fprintf(w, "%s: %s%s\n", label, d.Message, loc)

		if source != "" && d.Span.Start.Line > 0 {
			if line, ok := sourceLine(source, d.Span.Start.Line); ok {
				caret := strings.Repeat(" ", max(d.Span.Start.Column-1, 0)) + "^"
				if color {
					line = dimStyle.Render(line)
				}
				fmt.Fprintf(w, "    %s\n    %s\n", line, caret)
			}
		}
	}
}

func sourceLine(source string, n int) (string, bool) {
	lines := strings.Split(source, "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}
