package domain

import "fmt"

// Severity separates findings that block compilation from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code identifies the kind of a validation finding.
type Code string

const (
	CodeDanglingEdge        Code = "DanglingEdge"
	CodeIncompleteConfig    Code = "IncompleteConfig"
	CodeDuplicateBranch     Code = "DuplicateBranch"
	CodeIllegalOutgoingEdge Code = "IllegalOutgoingEdge"
	CodeMissingHandle       Code = "MissingHandle"
	CodeUnknownBranch       Code = "UnknownBranch"
	CodeUnexpectedHandle    Code = "UnexpectedHandle"
	CodeIllegalSelfLoop     Code = "IllegalSelfLoop"
	CodeAmbiguousStart      Code = "AmbiguousStart"

	CodeUnsupportedBlock Code = "UnsupportedBlock"
	CodeCycleDetected    Code = "CycleDetected"
	CodeUnreachableNode  Code = "UnreachableNode"
	CodeDeadBranch       Code = "DeadBranch"
)

// Finding is one validation result.
type Finding struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	NodeID   string   `json:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty"`
	Field    string   `json:"field,omitempty"`
	Handle   string   `json:"handle,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	switch {
	case f.NodeID != "":
		return fmt.Sprintf("%s(%s): %s", f.Code, f.NodeID, f.Message)
	case f.EdgeID != "":
		return fmt.Sprintf("%s(edge %s): %s", f.Code, f.EdgeID, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Report is the outcome of validating a graph.
// Start is the resolved start node id, empty when it could not be determined.
type Report struct {
	Start    string    `json:"start,omitempty"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// Compilable reports whether the graph has zero errors.
func (r *Report) Compilable() bool {
	return len(r.Errors) == 0
}

// Add appends a finding to the list matching its severity.
func (r *Report) Add(f Finding) {
	if f.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, f)
		return
	}
	f.Severity = SeverityError
	r.Errors = append(r.Errors, f)
}

// Find returns every finding with the given code, errors first.
func (r *Report) Find(code Code) []Finding {
	var out []Finding
	for _, f := range r.Errors {
		if f.Code == code {
			out = append(out, f)
		}
	}
	for _, f := range r.Warnings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether any finding carries the given code.
func (r *Report) Has(code Code) bool {
	return len(r.Find(code)) > 0
}
