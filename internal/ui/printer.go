// Package ui renders driver output: the diagnostic printer and the
// watch-mode progress model.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"ripple/internal/diag"
)

// PrintOptions controls diagnostic rendering.
type PrintOptions struct {
	Color bool
	// Max bounds the number of printed diagnostics; 0 means no bound.
	Max int
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// PrintDiagnostics writes diagnostics to w, one per line, and returns how
// many were printed.
func PrintDiagnostics(w io.Writer, diags []diag.Diagnostic, opts PrintOptions) int {
	printed := 0
	for _, d := range diags {
		if opts.Max > 0 && printed >= opts.Max {
			fmt.Fprintf(w, "... and %d more\n", len(diags)-printed)
			break
		}
		label := d.Severity.String()
		if opts.Color {
			label = severityColor(d.Severity).Sprint(label)
		}
		loc := string(d.Path)
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", label, d.Code, loc, d.Message)
		printed++
	}
	return printed
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

var (
	summaryOkStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	summaryFailStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Summary renders the one-line result of a check or build round.
func Summary(files, errors, warnings int, colorize bool) string {
	text := fmt.Sprintf("%d files, %d errors, %d warnings", files, errors, warnings)
	if !colorize {
		return text
	}
	if errors > 0 {
		return summaryFailStyle.Render(text)
	}
	return summaryOkStyle.Render(text)
}
