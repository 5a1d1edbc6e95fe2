package domain

// Position is the canvas coordinate of a node. It belongs to the editor and is
// ignored by validation and compilation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a call-handling block.
type Node struct {
	ID        string
	BlockType BlockType
	Name      string
	Config    Config
	Position  Position
}

// Tag returns the blockType string as written in documents.
// For unknown blocks this is the original tag, not "unknown".
func (n Node) Tag() string {
	if u, ok := n.Config.(UnknownConfig); ok && u.Tag != "" {
		return u.Tag
	}
	return string(n.BlockType)
}

func (n Node) clone() Node {
	if n.Config != nil {
		n.Config = n.Config.clone()
	}
	return n
}

// Edge is a directed transition between two nodes.
// SourceHandle names the branch of a multi-output node that the edge represents.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
}

// SelfLoop reports whether the edge returns to its own source.
func (e Edge) SelfLoop() bool {
	return e.Source == e.Target
}
