package domain

// BlockType identifies the kind of call-handling step a node performs.
type BlockType string

// Block types understood by the validator and the compiler.
const (
	BlockPrompt    BlockType = "prompt"
	BlockKey       BlockType = "key"
	BlockTransfer  BlockType = "transfer"
	BlockHangup    BlockType = "hangup"
	BlockAPI       BlockType = "api"
	BlockRecord    BlockType = "record"
	BlockLanguage  BlockType = "language"
	BlockMenu      BlockType = "menu"
	BlockQueue     BlockType = "queue"
	BlockVoicemail BlockType = "voicemail"

	// BlockUnknown tags nodes loaded from a document whose blockType this version does
	// not know. They survive save/load but are rejected by the compiler.
	BlockUnknown BlockType = "unknown"
)

// BlockTypes lists the closed set in palette order.
var BlockTypes = []BlockType{
	BlockPrompt,
	BlockKey,
	BlockTransfer,
	BlockHangup,
	BlockAPI,
	BlockRecord,
	BlockLanguage,
	BlockMenu,
	BlockQueue,
	BlockVoicemail,
}

// ParseBlockType maps a tag to a known BlockType.
// The second return value is false for tags outside the closed set (including "unknown").
func ParseBlockType(tag string) (BlockType, bool) {
	for _, bt := range BlockTypes {
		if string(bt) == tag {
			return bt, true
		}
	}
	return BlockUnknown, false
}

// Known reports whether b belongs to the closed set.
func (b BlockType) Known() bool {
	_, ok := ParseBlockType(string(b))
	return ok
}

// Terminal reports whether the block ends a call path.
func (b BlockType) Terminal() bool {
	switch b {
	case BlockTransfer, BlockHangup, BlockQueue, BlockVoicemail:
		return true
	}
	return false
}

// Branching reports whether every outgoing edge must name one of the node's options.
func (b BlockType) Branching() bool {
	return b == BlockKey || b == BlockLanguage
}

// AcceptsHandles reports whether outgoing edges may carry a sourceHandle.
// API blocks accept response-code handles next to one unhandled default edge.
func (b BlockType) AcceptsHandles() bool {
	return b.Branching() || b == BlockAPI
}
