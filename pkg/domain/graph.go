package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Graph is the call-flow aggregate: nodes keyed by id, edges, and an optional start marker.
//
// Every mutation is an indivisible call guarded by the graph's lock, bumps Version and
// stamps ModifiedAt. Readers receive copies; internal containers are never exposed.
type Graph struct {
	mu sync.RWMutex

	nodes map[string]*Node
	order []string
	edges []Edge

	start   string
	ordinal int

	version    uint64
	modifiedAt time.Time

	newID func() string
	now   func() time.Time
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithIDGenerator replaces the uuid generator used for new node and edge ids.
func WithIDGenerator(fn func() string) GraphOption {
	return func(g *Graph) {
		g.newID = fn
	}
}

// WithClock replaces the time source used for ModifiedAt.
func WithClock(fn func() time.Time) GraphOption {
	return func(g *Graph) {
		g.now = fn
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes: make(map[string]*Node),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Restore rebuilds a graph from already-identified nodes and edges (e.g. a loaded document).
// Ids are taken as given. Edges are not checked against the nodes: dangling or duplicate
// branches are the validator's concern. Node ids must be non-empty and unique.
func Restore(nodes []Node, edges []Edge, start string, opts ...GraphOption) (*Graph, error) {
	g := NewGraph(opts...)
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("restore: node with empty id")
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("restore: duplicate node id %q", n.ID)
		}
		if cfg, ok := normalize(n.Config); ok {
			n.Config = cfg
		} else {
			n.Config = NewConfig(n.BlockType)
			if n.Config == nil {
				n.Config = UnknownConfig{Tag: string(n.BlockType)}
				n.BlockType = BlockUnknown
			}
		}
		cp := n.clone()
		g.nodes[n.ID] = &cp
		g.order = append(g.order, n.ID)
	}
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.ID == "" {
			return nil, fmt.Errorf("restore: edge with empty id")
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("restore: duplicate edge id %q", e.ID)
		}
		seen[e.ID] = true
		g.edges = append(g.edges, e)
	}
	g.start = start
	g.ordinal = len(nodes)
	for _, n := range nodes {
		if k, ok := defaultOrdinal(n.Name); ok && k > g.ordinal {
			g.ordinal = k
		}
	}
	return g, nil
}

// defaultOrdinal parses the ordinal out of a default name such as "prompt-3".
func defaultOrdinal(name string) (int, bool) {
	prefix, suffix, ok := cutLast(name, "-")
	if !ok || !BlockType(prefix).Known() {
		return 0, false
	}
	k, err := strconv.Atoi(suffix)
	if err != nil || k <= 0 {
		return 0, false
	}
	return k, true
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

func (g *Graph) touch() {
	g.version++
	g.modifiedAt = g.now()
}

// Version is the modification counter used for optimistic concurrency.
func (g *Graph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// ModifiedAt is the time of the last mutation (zero for a pristine graph).
func (g *Graph) ModifiedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.modifiedAt
}

// AddNode creates a block with a fresh id and a default name of "<blockType>-<ordinal>".
// A nil config means the empty configuration of the block type.
func (g *Graph) AddNode(bt BlockType, cfg Config) (Node, error) {
	if !bt.Known() {
		return Node{}, fmt.Errorf("%w: %q", ErrInvalidBlockType, bt)
	}
	if cfg == nil {
		cfg = NewConfig(bt)
	}
	norm, ok := normalize(cfg)
	if !ok || norm.BlockType() != bt {
		return Node{}, fmt.Errorf("%w: %T given for %s block", ErrConfigMismatch, cfg, bt)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.ordinal++
	n := &Node{
		ID:        g.newID(),
		BlockType: bt,
		Name:      fmt.Sprintf("%s-%d", bt, g.ordinal),
		Config:    norm,
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.touch()
	return n.clone(), nil
}

// UpdateNodeConfig merges the set fields of patch into the node's config.
// It does not check completeness.
func (g *Graph) UpdateNodeConfig(id string, patch Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if patch == nil {
		return nil
	}
	norm, ok := normalize(patch)
	if !ok || norm.BlockType() != n.BlockType {
		return fmt.Errorf("%w: %T given for %s block", ErrConfigMismatch, patch, n.BlockType)
	}
	n.Config = n.Config.merge(norm)
	g.touch()
	return nil
}

// SetNodeConfig replaces the node's config wholesale.
func (g *Graph) SetNodeConfig(id string, cfg Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	cfg, ok = normalize(cfg)
	if !ok || cfg.BlockType() != n.BlockType {
		return fmt.Errorf("%w: config does not match %s block", ErrConfigMismatch, n.BlockType)
	}
	n.Config = cfg
	g.touch()
	return nil
}

// RenameNode changes the human label of a node.
func (g *Graph) RenameNode(id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.Name = name
	g.touch()
	return nil
}

// MoveNode records a canvas position. Layout is not flow content, so the version is unchanged.
func (g *Graph) MoveNode(id string, pos Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.Position = pos
	return nil
}

// RemoveNode deletes a node and every edge touching it.
// Removing a missing id is a no-op.
func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	for i, nid := range g.order {
		if nid == id {
			g.order = append(g.order[:i:i], g.order[i+1:]...)
			break
		}
	}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	if g.start == id {
		g.start = ""
	}
	g.touch()
}

// Connect adds an edge. handle may be empty for single-successor blocks.
func (g *Graph) Connect(source, target, handle string) (Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[source]; !ok {
		return Edge{}, fmt.Errorf("%w: source %s", ErrNodeNotFound, source)
	}
	if _, ok := g.nodes[target]; !ok {
		return Edge{}, fmt.Errorf("%w: target %s", ErrNodeNotFound, target)
	}
	for _, e := range g.edges {
		if e.Source == source && e.SourceHandle == handle {
			return Edge{}, fmt.Errorf("%w: %s already has an edge for handle %q", ErrDuplicateBranch, source, handle)
		}
	}
	e := Edge{
		ID:           g.newID(),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	}
	g.edges = append(g.edges, e)
	g.touch()
	return e, nil
}

// Disconnect removes an edge. Removing a missing id is a no-op.
func (g *Graph) Disconnect(edgeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, e := range g.edges {
		if e.ID == edgeID {
			g.edges = append(g.edges[:i:i], g.edges[i+1:]...)
			g.touch()
			return
		}
	}
}

// SetStart marks the entry node explicitly. An empty id clears the marker.
func (g *Graph) SetStart(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id != "" {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}
	g.start = id
	g.touch()
	return nil
}

// Start returns the explicit start marker, or "" when none is set.
func (g *Graph) Start() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.start
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in creation order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodesLocked()
}

func (g *Graph) nodesLocked() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Edges returns a copy of all edges in creation order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Snapshot is a consistent, detached copy of a graph's content.
type Snapshot struct {
	Nodes []Node
	Edges []Edge
	Start string
}

// Snapshot copies the graph's content under a single read lock.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{
		Nodes: g.nodesLocked(),
		Edges: append([]Edge(nil), g.edges...),
		Start: g.start,
	}
}

// Clone returns a deep copy with the same ids, version and generators.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := &Graph{
		nodes:      make(map[string]*Node, len(g.nodes)),
		order:      append([]string(nil), g.order...),
		edges:      append([]Edge(nil), g.edges...),
		start:      g.start,
		ordinal:    g.ordinal,
		version:    g.version,
		modifiedAt: g.modifiedAt,
		newID:      g.newID,
		now:        g.now,
	}
	for id, n := range g.nodes {
		cp := n.clone()
		c.nodes[id] = &cp
	}
	return c
}

// Equal reports structural equality: same nodes (ids, types, names, configs, positions)
// in the same order, same edges and handles, same start marker. Versions are ignored.
func Equal(a, b *Graph) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.Start != sb.Start || len(sa.Nodes) != len(sb.Nodes) || len(sa.Edges) != len(sb.Edges) {
		return false
	}
	for i := range sa.Nodes {
		if !reflect.DeepEqual(sa.Nodes[i], sb.Nodes[i]) {
			return false
		}
	}
	for i := range sa.Edges {
		if sa.Edges[i] != sb.Edges[i] {
			return false
		}
	}
	return true
}
