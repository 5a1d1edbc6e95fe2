package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Option is one declared branch of a key or language block.
// Label is informative only (e.g. "Sales"); routing is defined by edges.
type Option struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Options is an ordered mapping from option key to label, always kept in
// CompareHandles order. On the wire it is a plain object: {"1": "Sales"}.
type Options []Option

// OptionsFrom builds Options from a map.
func OptionsFrom(m map[string]string) Options {
	if len(m) == 0 {
		return nil
	}
	opts := make(Options, 0, len(m))
	for k, v := range m {
		opts = append(opts, Option{Key: k, Label: v})
	}
	opts.sort()
	return opts
}

// NewOptions builds Options from alternating key/label pairs.
// A trailing key without a label gets an empty label.
func NewOptions(pairs ...string) Options {
	m := make(map[string]string, len(pairs)/2+1)
	for i := 0; i < len(pairs); i += 2 {
		label := ""
		if i+1 < len(pairs) {
			label = pairs[i+1]
		}
		m[pairs[i]] = label
	}
	return OptionsFrom(m)
}

func (o Options) sort() {
	for i := 1; i < len(o); i++ {
		for j := i; j > 0 && CompareHandles(o[j-1].Key, o[j].Key) > 0; j-- {
			o[j-1], o[j] = o[j], o[j-1]
		}
	}
}

// Get returns the label declared for key.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Label, true
		}
	}
	return "", false
}

// Has reports whether key is declared.
func (o Options) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the declared keys in branch order.
func (o Options) Keys() []string {
	keys := make([]string, len(o))
	for i, opt := range o {
		keys[i] = opt.Key
	}
	return keys
}

// With returns a copy of o with key set to label.
func (o Options) With(key, label string) Options {
	m := o.Map()
	if m == nil {
		m = make(map[string]string, 1)
	}
	m[key] = label
	return OptionsFrom(m)
}

// Without returns a copy of o without key.
func (o Options) Without(key string) Options {
	m := o.Map()
	delete(m, key)
	return OptionsFrom(m)
}

// Map returns the options as a plain map.
func (o Options) Map() map[string]string {
	if len(o) == 0 {
		return nil
	}
	m := make(map[string]string, len(o))
	for _, opt := range o {
		m[opt.Key] = opt.Label
	}
	return m
}

func (o Options) clone() Options {
	if len(o) == 0 {
		return nil
	}
	out := make(Options, len(o))
	copy(out, o)
	return out
}

// MarshalJSON writes the options as an object in branch order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of string labels.
func (o *Options) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	*o = OptionsFrom(m)
	return nil
}

// MarshalYAML writes the options as a mapping in branch order with quoted keys,
// so "1" does not come back as an integer.
func (o Options) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, opt := range o {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Key, Style: yaml.DoubleQuotedStyle},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Label},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping; scalar keys are taken verbatim, so 1: and "1": agree.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("options: expected mapping, got %v", value.Tag)
	}
	m := make(map[string]string, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("options: line %d: keys and labels must be scalars", k.Line)
		}
		m[k.Value] = v.Value
	}
	*o = OptionsFrom(m)
	return nil
}
