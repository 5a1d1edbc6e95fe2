package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/aretw0/ivrflow/pkg/domain"
)

// GraphOverlay contains call-path data to visualize on the graph (e.g. a simulation run).
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for a call flow.
// Shapes follow the block's role:
// - Start: ((Circle))
// - Key / Language: {{Hexagon}}
// - API: [[Subroutine]]
// - Prompt: [/Parallelogram/]
// - Terminal blocks: ([Stadium])
// - Default: [Rectangle]
// Branch edges are labelled with their handle. Overlay styles mark visited and current nodes.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	s := g.Snapshot()
	start := validator.ValidateSnapshot(s).Start

	out := make(map[string][]domain.Edge)
	for _, e := range s.Edges {
		out[e.Source] = append(out[e.Source], e)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range s.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == start:
			opener, closer = "((", "))"
		case node.BlockType.Branching():
			opener, closer = "{{", "}}"
		case node.BlockType == domain.BlockAPI:
			opener, closer = "[[", "]]"
		case node.BlockType == domain.BlockPrompt:
			opener, closer = "[/", "/]"
		case node.BlockType.Terminal():
			opener, closer = "([", "])"
		}

		name := node.Name
		if name == "" {
			name = node.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> <i>%s</i>\"%s\n", safeID, opener, escape(name), escape(node.Tag()), closer)

		for _, e := range validator.SortEdges(out[node.ID]) {
			safeTo := sanitizeMermaidID(e.Target)
			arrow := "-->"
			if e.SourceHandle != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escape(e.SourceHandle))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
