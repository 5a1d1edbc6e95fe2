// Package compiler turns a validated call-flow graph into an ordered call-control script.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/aretw0/ivrflow/pkg/domain"
)

// Options controls compilation.
type Options struct {
	// DeadBranch decides what branching units do on input with no connected branch.
	// It is required.
	DeadBranch domain.DeadBranchPolicy
}

// Compile validates g and, when it has no errors, emits one unit per node reachable
// from the start node in depth-first, branch-ordered first-visit order.
//
// Nodes reached along more than one path, including back-edges of cycles, are emitted
// once and referenced by label. Compile is a pure function of the graph's content.
func Compile(g *domain.Graph, opts Options) (*domain.Script, error) {
	policy, err := domain.ParseDeadBranchPolicy(string(opts.DeadBranch))
	if err != nil {
		return nil, err
	}

	snap := g.Snapshot()
	report := validator.ValidateSnapshot(snap)
	if !report.Compilable() {
		return nil, &domain.CompileError{Findings: report.Errors}
	}

	p := newProgram(snap)
	order, err := p.visit(report.Start)
	if err != nil {
		return nil, err
	}

	units := make([]domain.Unit, 0, len(order))
	for _, id := range order {
		units = append(units, p.emit(id, policy))
	}

	script := &domain.Script{
		Start:      p.labels[report.Start],
		DeadBranch: policy,
		Units:      units,
	}
	script.Checksum, err = Checksum(script)
	if err != nil {
		return nil, err
	}
	return script, nil
}

type program struct {
	nodes  map[string]domain.Node
	out    map[string][]domain.Edge
	labels map[string]string
}

func newProgram(s domain.Snapshot) *program {
	p := &program{
		nodes:  make(map[string]domain.Node, len(s.Nodes)),
		out:    make(map[string][]domain.Edge),
		labels: make(map[string]string, len(s.Nodes)),
	}
	for _, n := range s.Nodes {
		p.nodes[n.ID] = n
	}
	for _, e := range s.Edges {
		p.out[e.Source] = append(p.out[e.Source], e)
	}
	for id, edges := range p.out {
		p.out[id] = validator.SortEdges(edges)
	}
	return p
}

// visit assigns labels L1, L2, ... in depth-first preorder and returns the node order.
func (p *program) visit(start string) ([]string, error) {
	var order []string
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := p.labels[id]; done {
			continue
		}
		n := p.nodes[id]
		if !n.BlockType.Known() {
			return nil, fmt.Errorf("%w: node %s (%q)", domain.ErrUnsupportedBlockType, id, n.Tag())
		}
		order = append(order, id)
		p.labels[id] = fmt.Sprintf("L%d", len(order))

		edges := p.out[id]
		for i := len(edges) - 1; i >= 0; i-- {
			if _, done := p.labels[edges[i].Target]; !done {
				stack = append(stack, edges[i].Target)
			}
		}
	}
	return order, nil
}

func (p *program) emit(id string, policy domain.DeadBranchPolicy) domain.Unit {
	n := p.nodes[id]
	u := domain.Unit{
		Label:    p.labels[id],
		NodeID:   n.ID,
		Name:     n.Name,
		Terminal: n.BlockType.Terminal(),
	}

	var options domain.Options
	for _, e := range p.out[id] {
		if e.SourceHandle == "" {
			u.Next = p.labels[e.Target]
			continue
		}
		if options == nil {
			options = domain.OptionsOf(n.Config)
		}
		label, _ := options.Get(e.SourceHandle)
		u.Branches = append(u.Branches, domain.Branch{
			Key:    e.SourceHandle,
			Label:  label,
			Target: p.labels[e.Target],
		})
	}

	ps := params{}
	switch cfg := n.Config.(type) {
	case domain.PromptConfig:
		u.Op = domain.OpPlay
		ps.set("message", cfg.Message).set("audioUrl", cfg.AudioURL).set("summary", cfg.Summary)
	case domain.KeyConfig:
		u.Op = domain.OpCollect
		u.Default = string(policy)
		ps.set("summary", cfg.Summary)
	case domain.LanguageConfig:
		u.Op = domain.OpLanguage
		u.Default = string(policy)
	case domain.TransferConfig:
		u.Op = domain.OpTransfer
		ps.set("destination", cfg.Destination).set("conditions", cfg.Conditions)
	case domain.HangupConfig:
		u.Op = domain.OpHangup
	case domain.APIConfig:
		u.Op = domain.OpHTTP
		ps.set("apiMock", cfg.APIMock).set("endpoint", cfg.Endpoint).set("method", cfg.Method).set("conditions", cfg.Conditions)
		if len(u.Branches) > 0 && u.Next == "" {
			u.Default = string(domain.DeadBranchHangup)
		}
	case domain.RecordConfig:
		u.Op = domain.OpRecord
		ps.set("summary", cfg.Summary)
	case domain.MenuConfig:
		u.Op = domain.OpMenu
		ps.set("summary", cfg.Summary).set("destination", cfg.Destination).set("conditions", cfg.Conditions)
	case domain.QueueConfig:
		u.Op = domain.OpQueue
		ps.set("summary", cfg.Summary).set("destination", cfg.Destination).set("conditions", cfg.Conditions)
	case domain.VoicemailConfig:
		u.Op = domain.OpVoicemail
		ps.set("summary", cfg.Summary).set("destination", cfg.Destination).set("conditions", cfg.Conditions)
	}
	if len(ps) > 0 {
		u.Params = ps
	}
	return u
}

type params map[string]string

func (p params) set(key, value string) params {
	if value != "" {
		p[key] = value
	}
	return p
}

// Checksum hashes the canonical JSON form of a script's start, policy and units.
func Checksum(s *domain.Script) (string, error) {
	data, err := json.Marshal(struct {
		Start      string                  `json:"start"`
		DeadBranch domain.DeadBranchPolicy `json:"deadBranch"`
		Units      []domain.Unit           `json:"units"`
	}{s.Start, s.DeadBranch, s.Units})
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
