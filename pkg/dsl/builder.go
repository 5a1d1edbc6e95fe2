package dsl

import (
	"fmt"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	nodes []*NodeBuilder
	index map[string]*NodeBuilder
	start string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.index[id] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Start marks the entry node explicitly.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// EdgeID derives the id of the edge leaving source through handle toward target.
func EdgeID(source, handle, target string) string {
	return fmt.Sprintf("%s:%s->%s", source, handle, target)
}

// Build assembles the graph. Edge targets are not checked; the validator reports
// dangling edges.
func (b *Builder) Build(opts ...domain.GraphOption) (*domain.Graph, error) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	var edges []domain.Edge

	for i, nb := range b.nodes {
		n := nb.node
		if !n.BlockType.Known() {
			return nil, fmt.Errorf("node %s: %w: block type not set", n.ID, domain.ErrInvalidBlockType)
		}
		if n.Name == "" {
			n.Name = fmt.Sprintf("%s-%d", n.BlockType, i+1)
		}
		nodes = append(nodes, n)

		taken := make(map[string]bool, len(nb.edges))
		for _, e := range nb.edges {
			if taken[e.handle] {
				return nil, fmt.Errorf("node %s: %w: handle %q", n.ID, domain.ErrDuplicateBranch, e.handle)
			}
			taken[e.handle] = true
			edges = append(edges, domain.Edge{
				ID:           EdgeID(n.ID, e.handle, e.target),
				Source:       n.ID,
				Target:       e.target,
				SourceHandle: e.handle,
			})
		}
	}

	g, err := domain.Restore(nodes, edges, b.start, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

// MustBuild is like Build but panics on error. Intended for static templates and tests.
func (b *Builder) MustBuild(opts ...domain.GraphOption) *domain.Graph {
	g, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return g
}
