package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ReportMarkdown formats a validation report as a markdown document.
func ReportMarkdown(title string, r *domain.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	status := "✅ compilable"
	if !r.Compilable() {
		status = "❌ not compilable"
	}
	fmt.Fprintf(&sb, "**%s**: %d error(s), %d warning(s)", status, len(r.Errors), len(r.Warnings))
	if r.Start != "" {
		fmt.Fprintf(&sb, ", start `%s`", r.Start)
	}
	sb.WriteString("\n\n")

	section := func(name string, fs []domain.Finding) {
		if len(fs) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s\n\n| code | node | edge | detail |\n|---|---|---|---|\n", name)
		for _, f := range fs {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", f.Code, cell(f.NodeID), cell(f.EdgeID), cell(f.Message))
		}
		sb.WriteString("\n")
	}
	section("Errors", r.Errors)
	section("Warnings", r.Warnings)
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

// FormatFinding renders one finding as a single line, coloured by severity when the
// terminal supports it.
func FormatFinding(f domain.Finding) string {
	p := termenv.ColorProfile()
	tag := termenv.String(fmt.Sprintf("%-7s", f.Severity))
	switch f.Severity {
	case domain.SeverityError:
		tag = tag.Foreground(p.Color("#ef4444")).Bold()
	case domain.SeverityWarning:
		tag = tag.Foreground(p.Color("#f59e0b"))
	}
	return fmt.Sprintf("%s %s", tag, f.String())
}
