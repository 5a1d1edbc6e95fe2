package codec

import "github.com/aretw0/ivrflow/pkg/domain"

// Document is the interchange form of a graph.
type Document struct {
	Nodes []DocNode `json:"nodes" yaml:"nodes"`
	Edges []DocEdge `json:"edges" yaml:"edges"`
	Start string    `json:"start,omitempty" yaml:"start,omitempty"`
}

// DocNode is the interchange form of a node.
type DocNode struct {
	ID        string          `json:"id" yaml:"id"`
	BlockType string          `json:"blockType" yaml:"blockType"`
	Name      string          `json:"name" yaml:"name"`
	Config    map[string]any  `json:"config" yaml:"config"`
	Position  domain.Position `json:"position" yaml:"position"`
}

// DocEdge is the interchange form of an edge.
type DocEdge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
}
