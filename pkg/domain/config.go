package domain

import "reflect"

// Config is the block-specific configuration of a node.
// It is a closed sum type: one variant per BlockType, each carrying only its own fields.
type Config interface {
	BlockType() BlockType
	clone() Config
	merge(patch Config) Config
}

// PromptConfig plays a recorded file or speaks a message.
type PromptConfig struct {
	Message  string `json:"message,omitempty" mapstructure:"message"`
	AudioURL string `json:"audioUrl,omitempty" mapstructure:"audioUrl"`
	Summary  string `json:"summary,omitempty" mapstructure:"summary"`
}

// KeyConfig collects one DTMF digit.
type KeyConfig struct {
	Options Options `json:"options,omitempty" mapstructure:"options"`
	Summary string  `json:"summary,omitempty" mapstructure:"summary"`
}

// TransferConfig hands the call to another destination.
type TransferConfig struct {
	Destination string `json:"destination,omitempty" mapstructure:"destination"`
	Conditions  string `json:"conditions,omitempty" mapstructure:"conditions"`
}

// HangupConfig ends the call. It has no fields.
type HangupConfig struct{}

// APIConfig calls an external endpoint. APIMock holds a canned response used when
// no live endpoint is configured.
type APIConfig struct {
	APIMock    string `json:"apiMock,omitempty" mapstructure:"apiMock"`
	Endpoint   string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	Method     string `json:"method,omitempty" mapstructure:"method"`
	Conditions string `json:"conditions,omitempty" mapstructure:"conditions"`
}

// RecordConfig records the caller.
type RecordConfig struct {
	Summary string `json:"summary,omitempty" mapstructure:"summary"`
}

// LanguageConfig branches by language code.
type LanguageConfig struct {
	Options Options `json:"options,omitempty" mapstructure:"options"`
}

// MenuConfig presents a menu.
type MenuConfig struct {
	Summary     string `json:"summary,omitempty" mapstructure:"summary"`
	Destination string `json:"destination,omitempty" mapstructure:"destination"`
	Conditions  string `json:"conditions,omitempty" mapstructure:"conditions"`
}

// QueueConfig parks the caller in a queue.
type QueueConfig struct {
	Summary     string `json:"summary,omitempty" mapstructure:"summary"`
	Destination string `json:"destination,omitempty" mapstructure:"destination"`
	Conditions  string `json:"conditions,omitempty" mapstructure:"conditions"`
}

// VoicemailConfig sends the caller to a mailbox.
type VoicemailConfig struct {
	Summary     string `json:"summary,omitempty" mapstructure:"summary"`
	Destination string `json:"destination,omitempty" mapstructure:"destination"`
	Conditions  string `json:"conditions,omitempty" mapstructure:"conditions"`
}

// UnknownConfig keeps a block from a newer schema verbatim.
// Tag is the original blockType string; Fields is the raw config object.
type UnknownConfig struct {
	Tag    string
	Fields map[string]any
}

func (PromptConfig) BlockType() BlockType    { return BlockPrompt }
func (KeyConfig) BlockType() BlockType       { return BlockKey }
func (TransferConfig) BlockType() BlockType  { return BlockTransfer }
func (HangupConfig) BlockType() BlockType    { return BlockHangup }
func (APIConfig) BlockType() BlockType       { return BlockAPI }
func (RecordConfig) BlockType() BlockType    { return BlockRecord }
func (LanguageConfig) BlockType() BlockType  { return BlockLanguage }
func (MenuConfig) BlockType() BlockType      { return BlockMenu }
func (QueueConfig) BlockType() BlockType     { return BlockQueue }
func (VoicemailConfig) BlockType() BlockType { return BlockVoicemail }
func (UnknownConfig) BlockType() BlockType   { return BlockUnknown }

// NewConfig returns the empty configuration for a block type, or nil if the type is not known.
func NewConfig(bt BlockType) Config {
	switch bt {
	case BlockPrompt:
		return PromptConfig{}
	case BlockKey:
		return KeyConfig{}
	case BlockTransfer:
		return TransferConfig{}
	case BlockHangup:
		return HangupConfig{}
	case BlockAPI:
		return APIConfig{}
	case BlockRecord:
		return RecordConfig{}
	case BlockLanguage:
		return LanguageConfig{}
	case BlockMenu:
		return MenuConfig{}
	case BlockQueue:
		return QueueConfig{}
	case BlockVoicemail:
		return VoicemailConfig{}
	}
	return nil
}

// normalize returns a detached value copy of cfg, dereferencing a pointer to a variant.
// It reports false for a nil config or a nil pointer.
func normalize(cfg Config) (Config, bool) {
	if cfg == nil {
		return nil, false
	}
	if rv := reflect.ValueOf(cfg); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	return cfg.clone(), true
}

// OptionsOf returns the declared branches of a key or language config.
func OptionsOf(c Config) Options {
	switch v := c.(type) {
	case KeyConfig:
		return v.Options
	case LanguageConfig:
		return v.Options
	}
	return nil
}

func (c PromptConfig) clone() Config    { return c }
func (c TransferConfig) clone() Config  { return c }
func (c HangupConfig) clone() Config    { return c }
func (c APIConfig) clone() Config       { return c }
func (c RecordConfig) clone() Config    { return c }
func (c MenuConfig) clone() Config      { return c }
func (c QueueConfig) clone() Config     { return c }
func (c VoicemailConfig) clone() Config { return c }

func (c KeyConfig) clone() Config {
	c.Options = c.Options.clone()
	return c
}

func (c LanguageConfig) clone() Config {
	c.Options = c.Options.clone()
	return c
}

func (c UnknownConfig) clone() Config {
	c.Fields = cloneFields(c.Fields)
	return c
}

func cloneFields(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

func pick(cur, patch string) string {
	if patch != "" {
		return patch
	}
	return cur
}

func (c PromptConfig) merge(p Config) Config {
	q := p.(PromptConfig)
	c.Message = pick(c.Message, q.Message)
	c.AudioURL = pick(c.AudioURL, q.AudioURL)
	c.Summary = pick(c.Summary, q.Summary)
	return c
}

func (c KeyConfig) merge(p Config) Config {
	q := p.(KeyConfig)
	if q.Options != nil {
		c.Options = q.Options.clone()
	}
	c.Summary = pick(c.Summary, q.Summary)
	return c
}

func (c TransferConfig) merge(p Config) Config {
	q := p.(TransferConfig)
	c.Destination = pick(c.Destination, q.Destination)
	c.Conditions = pick(c.Conditions, q.Conditions)
	return c
}

func (c HangupConfig) merge(Config) Config { return c }

func (c APIConfig) merge(p Config) Config {
	q := p.(APIConfig)
	c.APIMock = pick(c.APIMock, q.APIMock)
	c.Endpoint = pick(c.Endpoint, q.Endpoint)
	c.Method = pick(c.Method, q.Method)
	c.Conditions = pick(c.Conditions, q.Conditions)
	return c
}

func (c RecordConfig) merge(p Config) Config {
	c.Summary = pick(c.Summary, p.(RecordConfig).Summary)
	return c
}

func (c LanguageConfig) merge(p Config) Config {
	if q := p.(LanguageConfig); q.Options != nil {
		c.Options = q.Options.clone()
	}
	return c
}

func (c MenuConfig) merge(p Config) Config {
	q := p.(MenuConfig)
	c.Summary = pick(c.Summary, q.Summary)
	c.Destination = pick(c.Destination, q.Destination)
	c.Conditions = pick(c.Conditions, q.Conditions)
	return c
}

func (c QueueConfig) merge(p Config) Config {
	q := p.(QueueConfig)
	c.Summary = pick(c.Summary, q.Summary)
	c.Destination = pick(c.Destination, q.Destination)
	c.Conditions = pick(c.Conditions, q.Conditions)
	return c
}

func (c VoicemailConfig) merge(p Config) Config {
	q := p.(VoicemailConfig)
	c.Summary = pick(c.Summary, q.Summary)
	c.Destination = pick(c.Destination, q.Destination)
	c.Conditions = pick(c.Conditions, q.Conditions)
	return c
}

func (c UnknownConfig) merge(p Config) Config {
	q := p.(UnknownConfig)
	fields := cloneFields(c.Fields)
	if fields == nil && len(q.Fields) > 0 {
		fields = make(map[string]any, len(q.Fields))
	}
	for k, v := range q.Fields {
		fields[k] = cloneValue(v)
	}
	c.Fields = fields
	return c
}
