package codec

import (
	"fmt"
	"reflect"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Deserialize builds a new graph from a document. On error no graph is returned.
func Deserialize(doc *Document, opts ...domain.GraphOption) (*domain.Graph, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrMalformedDocument)
	}

	nodes := make([]domain.Node, 0, len(doc.Nodes))
	seen := make(map[string]bool, len(doc.Nodes))
	for i, dn := range doc.Nodes {
		if dn.ID == "" {
			return nil, fmt.Errorf("%w: node %d has no id", domain.ErrMalformedDocument, i)
		}
		if seen[dn.ID] {
			return nil, fmt.Errorf("%w: duplicate node id %q", domain.ErrMalformedDocument, dn.ID)
		}
		seen[dn.ID] = true
		if dn.BlockType == "" {
			return nil, fmt.Errorf("%w: node %q has no blockType", domain.ErrMalformedDocument, dn.ID)
		}

		n := domain.Node{ID: dn.ID, Name: dn.Name, Position: dn.Position}
		bt, known := domain.ParseBlockType(dn.BlockType)
		if !known {
			n.BlockType = domain.BlockUnknown
			n.Config = domain.UnknownConfig{Tag: dn.BlockType, Fields: normalize(dn.Config).(map[string]any)}
		} else {
			cfg, err := decodeConfig(bt, dn.Config)
			if err != nil {
				return nil, fmt.Errorf("%w: node %q config: %v", domain.ErrMalformedDocument, dn.ID, err)
			}
			n.BlockType = bt
			n.Config = cfg
		}
		nodes = append(nodes, n)
	}

	edges := make([]domain.Edge, 0, len(doc.Edges))
	for i, de := range doc.Edges {
		if de.Source == "" || de.Target == "" {
			return nil, fmt.Errorf("%w: edge %d needs a source and a target", domain.ErrMalformedDocument, i)
		}
		id := de.ID
		if id == "" {
			id = fmt.Sprintf("%s:%s->%s", de.Source, de.SourceHandle, de.Target)
		}
		edges = append(edges, domain.Edge{
			ID:           id,
			Source:       de.Source,
			Target:       de.Target,
			SourceHandle: de.SourceHandle,
		})
	}

	g, err := domain.Restore(nodes, edges, doc.Start, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}
	return g, nil
}

var decoders = map[domain.BlockType]func(map[string]any) (domain.Config, error){
	domain.BlockPrompt:    decodeAs[domain.PromptConfig],
	domain.BlockKey:       decodeAs[domain.KeyConfig],
	domain.BlockTransfer:  decodeAs[domain.TransferConfig],
	domain.BlockHangup:    decodeAs[domain.HangupConfig],
	domain.BlockAPI:       decodeAs[domain.APIConfig],
	domain.BlockRecord:    decodeAs[domain.RecordConfig],
	domain.BlockLanguage:  decodeAs[domain.LanguageConfig],
	domain.BlockMenu:      decodeAs[domain.MenuConfig],
	domain.BlockQueue:     decodeAs[domain.QueueConfig],
	domain.BlockVoicemail: decodeAs[domain.VoicemailConfig],
}

func decodeConfig(bt domain.BlockType, raw map[string]any) (domain.Config, error) {
	s, _ := schema.ForBlock(bt)
	if err := schema.Validate(s, raw); err != nil {
		return nil, err
	}
	return decoders[bt](raw)
}

func decodeAs[T domain.Config](raw map[string]any) (domain.Config, error) {
	var cfg T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: optionsHook,
		Result:     &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

var optionsType = reflect.TypeOf(domain.Options{})

// optionsHook turns a decoded label object into domain.Options. YAML hands digit keys
// over as integers, so keys are formatted back to their text.
func optionsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != optionsType {
		return data, nil
	}
	switch m := data.(type) {
	case domain.Options:
		return m, nil
	case map[string]string:
		return domain.OptionsFrom(m), nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = fmt.Sprint(v)
		}
		return domain.OptionsFrom(out), nil
	case map[any]any:
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = fmt.Sprint(v)
		}
		return domain.OptionsFrom(out), nil
	}
	return data, nil
}

// normalize rewrites YAML's map[any]any into map[string]any so raw fields re-encode as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	}
	return v
}
