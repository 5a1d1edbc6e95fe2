package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestReportMarkdown(t *testing.T) {
	r := &domain.Report{Start: "P1"}
	r.Add(domain.Finding{Code: domain.CodeIllegalOutgoingEdge, NodeID: "H1", EdgeID: "e1", Message: "a | b"})
	r.Add(domain.Finding{Code: domain.CodeDeadBranch, Severity: domain.SeverityWarning, NodeID: "K1", Message: "option 2"})

	md := ReportMarkdown("main.json", r)
	assert.Contains(t, md, "# main.json")
	assert.Contains(t, md, "not compilable")
	assert.Contains(t, md, "1 error(s), 1 warning(s), start `P1`")
	assert.Contains(t, md, "| IllegalOutgoingEdge | H1 | e1 | a \\| b |")
	assert.Contains(t, md, "## Warnings")

	clean := ReportMarkdown("ok", &domain.Report{})
	assert.Contains(t, clean, "compilable")
	assert.NotContains(t, clean, "## Errors")
}

func TestFormatFinding(t *testing.T) {
	line := FormatFinding(domain.Finding{Code: domain.CodeDeadBranch, Severity: domain.SeverityWarning, NodeID: "K1", Message: "m"})
	assert.Contains(t, line, "DeadBranch(K1): m")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
