package codec

import "github.com/aretw0/ivrflow/pkg/domain"

// Serialize converts a graph to its interchange document.
func Serialize(g *domain.Graph) *Document {
	s := g.Snapshot()
	doc := &Document{
		Nodes: make([]DocNode, 0, len(s.Nodes)),
		Edges: make([]DocEdge, 0, len(s.Edges)),
		Start: s.Start,
	}
	for _, n := range s.Nodes {
		doc.Nodes = append(doc.Nodes, DocNode{
			ID:        n.ID,
			BlockType: n.Tag(),
			Name:      n.Name,
			Config:    configFields(n.Config),
			Position:  n.Position,
		})
	}
	for _, e := range s.Edges {
		doc.Edges = append(doc.Edges, DocEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
		})
	}
	return doc
}

type fields map[string]any

func (f fields) str(key, v string) fields {
	if v != "" {
		f[key] = v
	}
	return f
}

func (f fields) opts(key string, v domain.Options) fields {
	if len(v) > 0 {
		f[key] = v
	}
	return f
}

// configFields lists the set fields of a config; unset optional fields are absent.
func configFields(c domain.Config) map[string]any {
	f := fields{}
	switch cfg := c.(type) {
	case domain.PromptConfig:
		f.str("message", cfg.Message).str("audioUrl", cfg.AudioURL).str("summary", cfg.Summary)
	case domain.KeyConfig:
		f.opts("options", cfg.Options).str("summary", cfg.Summary)
	case domain.TransferConfig:
		f.str("destination", cfg.Destination).str("conditions", cfg.Conditions)
	case domain.APIConfig:
		f.str("apiMock", cfg.APIMock).str("endpoint", cfg.Endpoint).str("method", cfg.Method).str("conditions", cfg.Conditions)
	case domain.RecordConfig:
		f.str("summary", cfg.Summary)
	case domain.LanguageConfig:
		f.opts("options", cfg.Options)
	case domain.MenuConfig:
		f.str("summary", cfg.Summary).str("destination", cfg.Destination).str("conditions", cfg.Conditions)
	case domain.QueueConfig:
		f.str("summary", cfg.Summary).str("destination", cfg.Destination).str("conditions", cfg.Conditions)
	case domain.VoicemailConfig:
		f.str("summary", cfg.Summary).str("destination", cfg.Destination).str("conditions", cfg.Conditions)
	case domain.UnknownConfig:
		for k, v := range cfg.Fields {
			f[k] = v
		}
	}
	return f
}
