package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is an encoding of the interchange document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension; anything but .yaml/.yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Sniff guesses the format of data: a leading '{' or '[' means JSON.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// MarshalJSON encodes a graph as an indented JSON document.
func MarshalJSON(g *domain.Graph) ([]byte, error) {
	return json.MarshalIndent(Serialize(g), "", "  ")
}

// MarshalYAML encodes a graph as a YAML document.
func MarshalYAML(g *domain.Graph) ([]byte, error) {
	return yaml.Marshal(Serialize(g))
}

// Encode encodes a graph in the given format.
func Encode(g *domain.Graph, format Format) ([]byte, error) {
	if format == FormatYAML {
		return MarshalYAML(g)
	}
	return MarshalJSON(g)
}

// DecodeDocument parses data into a document, checking that it is an object.
// An empty format sniffs the encoding.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	if format == "" {
		format = Sniff(data)
	}
	var doc Document
	switch format {
	case FormatJSON:
		var probe any
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
		if _, ok := probe.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: document is not an object", domain.ErrMalformedDocument)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
		if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: document is not an object", domain.ErrMalformedDocument)
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &doc, nil
}

// Decode parses and deserializes a document in one step.
func Decode(data []byte, format Format, opts ...domain.GraphOption) (*domain.Graph, error) {
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	return Deserialize(doc, opts...)
}

// UnmarshalJSON decodes a JSON document into a new graph.
func UnmarshalJSON(data []byte, opts ...domain.GraphOption) (*domain.Graph, error) {
	return Decode(data, FormatJSON, opts...)
}

// UnmarshalYAML decodes a YAML document into a new graph.
func UnmarshalYAML(data []byte, opts ...domain.GraphOption) (*domain.Graph, error) {
	return Decode(data, FormatYAML, opts...)
}
