package schema

import "github.com/aretw0/ivrflow/pkg/domain"

var (
	text    = Optional(String())
	options = Optional(StringMap())
)

// Shapes only: which fields are required for a block to compile is the validator's call.
var blockSchemas = map[domain.BlockType]Schema{
	domain.BlockPrompt:    {"message": text, "audioUrl": text, "summary": text},
	domain.BlockKey:       {"options": options, "summary": text},
	domain.BlockTransfer:  {"destination": text, "conditions": text},
	domain.BlockHangup:    {},
	domain.BlockAPI:       {"apiMock": text, "endpoint": text, "method": text, "conditions": text},
	domain.BlockRecord:    {"summary": text},
	domain.BlockLanguage:  {"options": options},
	domain.BlockMenu:      {"summary": text, "destination": text, "conditions": text},
	domain.BlockQueue:     {"summary": text, "destination": text, "conditions": text},
	domain.BlockVoicemail: {"summary": text, "destination": text, "conditions": text},
}

// ForBlock returns the config schema of a known block type.
func ForBlock(bt domain.BlockType) (Schema, bool) {
	s, ok := blockSchemas[bt]
	return s, ok
}

// BlockInfo describes a block type for palettes and tool clients.
type BlockInfo struct {
	Type           domain.BlockType `json:"type"`
	Terminal       bool             `json:"terminal"`
	Branching      bool             `json:"branching"`
	AcceptsHandles bool             `json:"acceptsHandles"`
	Config         Schema           `json:"config"`
}

// Catalog lists every known block type in palette order.
func Catalog() []BlockInfo {
	out := make([]BlockInfo, 0, len(domain.BlockTypes))
	for _, bt := range domain.BlockTypes {
		out = append(out, BlockInfo{
			Type:           bt,
			Terminal:       bt.Terminal(),
			Branching:      bt.Branching(),
			AcceptsHandles: bt.AcceptsHandles(),
			Config:         blockSchemas[bt],
		})
	}
	return out
}
