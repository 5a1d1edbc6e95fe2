package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidBlockType is returned when a block type is not in the closed set.
	ErrInvalidBlockType = errors.New("invalid block type")

	// ErrNodeNotFound is returned when an operation names a node id that does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateBranch is returned when (source, handle) already has an edge.
	ErrDuplicateBranch = errors.New("duplicate branch")

	// ErrConfigMismatch is returned when a config variant does not belong to the node's block type.
	ErrConfigMismatch = errors.New("config does not match block type")

	// ErrMalformedDocument is returned when an interchange document has the wrong shape.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrGraphNotCompilable is returned when compile is attempted on a graph with validation errors.
	ErrGraphNotCompilable = errors.New("graph not compilable")

	// ErrUnsupportedBlockType is returned when the compiler reaches a block it cannot emit.
	ErrUnsupportedBlockType = errors.New("unsupported block type")

	// ErrMissingDeadBranchPolicy is returned when compile is called without a dead-branch policy.
	ErrMissingDeadBranchPolicy = errors.New("dead-branch policy is required")

	// ErrInvalidDeadBranchPolicy is returned for a dead-branch policy other than reprompt or hangup.
	ErrInvalidDeadBranchPolicy = errors.New("invalid dead-branch policy")

	// ErrStaleVersion is returned when a save is based on a version that is no longer current.
	ErrStaleVersion = errors.New("stale version")

	// ErrFlowNotFound is returned when a stored flow id cannot be found.
	ErrFlowNotFound = errors.New("flow not found")
)

// CompileError is returned by the compiler when the graph fails its pre-check.
// It unwraps to ErrGraphNotCompilable and carries every blocking finding.
type CompileError struct {
	Findings []Finding
}

func (e *CompileError) Error() string {
	if len(e.Findings) == 0 {
		return ErrGraphNotCompilable.Error()
	}
	msgs := make([]string, 0, len(e.Findings))
	for _, f := range e.Findings {
		msgs = append(msgs, f.String())
	}
	return fmt.Sprintf("%s: %s", ErrGraphNotCompilable, strings.Join(msgs, "; "))
}

func (e *CompileError) Unwrap() error {
	return ErrGraphNotCompilable
}
