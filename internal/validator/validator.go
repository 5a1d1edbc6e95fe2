// Package validator checks a call-flow graph for structural and semantic problems.
//
// Every check runs on every call; findings are collected into a domain.Report whose
// errors block compilation and whose warnings are advisory.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// Validate checks the graph and returns every finding.
func Validate(g *domain.Graph) *domain.Report {
	return ValidateSnapshot(g.Snapshot())
}

// ValidateSnapshot checks a detached graph snapshot. It is pure: the same snapshot
// always yields the same report.
func ValidateSnapshot(s domain.Snapshot) *domain.Report {
	v := newView(s)
	r := &domain.Report{}

	v.checkDangling(r)
	v.checkConfig(r)
	v.checkDuplicateBranches(r)
	v.checkTerminals(r)
	v.checkHandles(r)

	start := v.resolveStart(r)
	if start != "" {
		r.Start = start
		v.checkCycles(r, start)
		v.checkReachability(r, start)
	}
	v.checkDeadBranches(r)

	return r
}

// view indexes a snapshot for the checks.
type view struct {
	s     domain.Snapshot
	nodes map[string]domain.Node
	live  []domain.Edge            // edges whose endpoints both exist
	out   map[string][]domain.Edge // live edges by source, in branch order
}

func newView(s domain.Snapshot) *view {
	v := &view{
		s:     s,
		nodes: make(map[string]domain.Node, len(s.Nodes)),
		out:   make(map[string][]domain.Edge),
	}
	for _, n := range s.Nodes {
		v.nodes[n.ID] = n
	}
	for _, e := range s.Edges {
		if v.has(e.Source) && v.has(e.Target) {
			v.live = append(v.live, e)
			v.out[e.Source] = append(v.out[e.Source], e)
		}
	}
	for id, edges := range v.out {
		v.out[id] = SortEdges(edges)
	}
	return v
}

func (v *view) has(id string) bool {
	_, ok := v.nodes[id]
	return ok
}

// SortEdges returns a copy of edges ordered by handle (see domain.CompareHandles),
// keeping insertion order between equal handles.
func SortEdges(edges []domain.Edge) []domain.Edge {
	sorted := append([]domain.Edge(nil), edges...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && domain.CompareHandles(sorted[j-1].SourceHandle, sorted[j].SourceHandle) > 0; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted
}

func (v *view) checkDangling(r *domain.Report) {
	for _, e := range v.s.Edges {
		var missing []string
		if !v.has(e.Source) {
			missing = append(missing, fmt.Sprintf("source %q", e.Source))
		}
		if !v.has(e.Target) {
			missing = append(missing, fmt.Sprintf("target %q", e.Target))
		}
		if len(missing) > 0 {
			r.Add(domain.Finding{
				Code:    domain.CodeDanglingEdge,
				EdgeID:  e.ID,
				Message: "edge references missing " + strings.Join(missing, " and "),
			})
		}
	}
}

func (v *view) checkConfig(r *domain.Report) {
	for _, n := range v.s.Nodes {
		if !n.BlockType.Known() {
			r.Add(domain.Finding{
				Code:     domain.CodeUnsupportedBlock,
				Severity: domain.SeverityWarning,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("block type %q is not supported by this version and cannot be compiled", n.Tag()),
			})
			continue
		}
		for _, m := range MissingFields(n.Config) {
			r.Add(domain.Finding{
				Code:    domain.CodeIncompleteConfig,
				NodeID:  n.ID,
				Field:   m.Field,
				Message: m.Message,
			})
		}
	}
}

func (v *view) checkDuplicateBranches(r *domain.Report) {
	type branch struct{ source, handle string }
	seen := make(map[branch]string)
	for _, e := range v.s.Edges {
		if !v.has(e.Source) {
			continue
		}
		key := branch{e.Source, e.SourceHandle}
		first, dup := seen[key]
		if !dup {
			seen[key] = e.ID
			continue
		}
		r.Add(domain.Finding{
			Code:    domain.CodeDuplicateBranch,
			NodeID:  e.Source,
			EdgeID:  e.ID,
			Handle:  e.SourceHandle,
			Message: fmt.Sprintf("branch %s is already taken by edge %s", describeHandle(e.SourceHandle), first),
		})
	}
}

func (v *view) checkTerminals(r *domain.Report) {
	for _, e := range v.s.Edges {
		n, ok := v.nodes[e.Source]
		if !ok || !n.BlockType.Terminal() {
			continue
		}
		r.Add(domain.Finding{
			Code:    domain.CodeIllegalOutgoingEdge,
			NodeID:  n.ID,
			EdgeID:  e.ID,
			Message: fmt.Sprintf("%s blocks end the call and cannot have outgoing edges", n.BlockType),
		})
	}
}

func (v *view) checkHandles(r *domain.Report) {
	for _, e := range v.s.Edges {
		n, ok := v.nodes[e.Source]
		if !ok || !n.BlockType.Known() || n.BlockType.Terminal() {
			continue
		}
		bt := n.BlockType
		switch {
		case bt.Branching() && e.SourceHandle == "":
			r.Add(domain.Finding{
				Code:    domain.CodeMissingHandle,
				NodeID:  n.ID,
				EdgeID:  e.ID,
				Message: fmt.Sprintf("edges out of a %s block must name an option", bt),
			})
		case bt.Branching() && !domain.OptionsOf(n.Config).Has(e.SourceHandle):
			r.Add(domain.Finding{
				Code:    domain.CodeUnknownBranch,
				NodeID:  n.ID,
				EdgeID:  e.ID,
				Handle:  e.SourceHandle,
				Message: fmt.Sprintf("handle %q is not one of the block's options", e.SourceHandle),
			})
		case !bt.AcceptsHandles() && e.SourceHandle != "":
			r.Add(domain.Finding{
				Code:    domain.CodeUnexpectedHandle,
				NodeID:  n.ID,
				EdgeID:  e.ID,
				Handle:  e.SourceHandle,
				Message: fmt.Sprintf("%s blocks have a single successor and take no handle", bt),
			})
		}
		if e.SelfLoop() && !bt.Branching() {
			r.Add(domain.Finding{
				Code:    domain.CodeIllegalSelfLoop,
				NodeID:  n.ID,
				EdgeID:  e.ID,
				Message: fmt.Sprintf("only branching blocks may loop to themselves, not %s", bt),
			})
		}
	}
}

// resolveStart returns the start node id, or "" after reporting AmbiguousStart.
func (v *view) resolveStart(r *domain.Report) string {
	if v.s.Start != "" {
		if v.has(v.s.Start) {
			return v.s.Start
		}
		r.Add(domain.Finding{
			Code:    domain.CodeAmbiguousStart,
			NodeID:  v.s.Start,
			Message: "start marker references a missing node",
		})
		return ""
	}
	if len(v.s.Nodes) == 0 {
		r.Add(domain.Finding{
			Code:    domain.CodeAmbiguousStart,
			Message: "graph has no nodes",
		})
		return ""
	}

	incoming := make(map[string]int, len(v.nodes))
	for _, e := range v.live {
		if !e.SelfLoop() {
			incoming[e.Target]++
		}
	}

	var entries, roots []string
	for _, n := range v.s.Nodes {
		if incoming[n.ID] > 0 {
			continue
		}
		roots = append(roots, n.ID)
		if len(v.out[n.ID]) > 0 {
			entries = append(entries, n.ID)
		}
	}
	candidates := entries
	if len(candidates) == 0 {
		candidates = roots
	}
	switch len(candidates) {
	case 0:
		// Every node has a predecessor (a closed loop): the first node created is the entry.
		return v.s.Nodes[0].ID
	case 1:
		return candidates[0]
	}
	r.Add(domain.Finding{
		Code:    domain.CodeAmbiguousStart,
		Message: fmt.Sprintf("%d candidate start nodes (%s); mark one explicitly", len(candidates), strings.Join(candidates, ", ")),
	})
	return ""
}

// checkCycles reports every back-edge reachable from start, using white/gray/black
// depth-first colouring. Self-loops are not cycles here: branching self-loops are
// legal repeats and other self-loops are already errors.
func (v *view) checkCycles(r *domain.Report, start string) {
	const (
		white = iota
		gray
		black
	)
	colour := make(map[string]int, len(v.nodes))

	var visit func(id string)
	visit = func(id string) {
		colour[id] = gray
		for _, e := range v.out[id] {
			if e.SelfLoop() {
				continue
			}
			switch colour[e.Target] {
			case white:
				visit(e.Target)
			case gray:
				r.Add(domain.Finding{
					Code:     domain.CodeCycleDetected,
					Severity: domain.SeverityWarning,
					NodeID:   e.Target,
					EdgeID:   e.ID,
					Message:  fmt.Sprintf("edge from %s loops back to %s; guard it with a retry limit", e.Source, e.Target),
				})
			}
		}
		colour[id] = black
	}
	visit(start)
}

func (v *view) checkReachability(r *domain.Report, start string) {
	seen := Reachable(v.out, start)
	for _, n := range v.s.Nodes {
		if !seen[n.ID] {
			r.Add(domain.Finding{
				Code:     domain.CodeUnreachableNode,
				Severity: domain.SeverityWarning,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s is not reachable from the start node", n.Name),
			})
		}
	}
}

// Reachable returns the set of node ids reachable from start along the given adjacency.
func Reachable(out map[string][]domain.Edge, start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range out[id] {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return seen
}

func (v *view) checkDeadBranches(r *domain.Report) {
	for _, n := range v.s.Nodes {
		if !n.BlockType.Branching() {
			continue
		}
		connected := make(map[string]bool)
		for _, e := range v.out[n.ID] {
			connected[e.SourceHandle] = true
		}
		for _, opt := range domain.OptionsOf(n.Config) {
			if connected[opt.Key] {
				continue
			}
			r.Add(domain.Finding{
				Code:     domain.CodeDeadBranch,
				Severity: domain.SeverityWarning,
				NodeID:   n.ID,
				Handle:   opt.Key,
				Message:  fmt.Sprintf("option %q (%s) has no outgoing edge", opt.Key, opt.Label),
			})
		}
	}
}

func describeHandle(h string) string {
	if h == "" {
		return "default"
	}
	return fmt.Sprintf("%q", h)
}
