package dsl

import "github.com/aretw0/ivrflow/pkg/domain"

type edge struct {
	handle string
	target string
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	edges   []edge
	builder *Builder
}

func (n *NodeBuilder) block(bt domain.BlockType, cfg domain.Config) *NodeBuilder {
	n.node.BlockType = bt
	n.node.Config = cfg
	return n
}

// Prompt makes the node a prompt speaking message.
func (n *NodeBuilder) Prompt(message string) *NodeBuilder {
	return n.block(domain.BlockPrompt, domain.PromptConfig{Message: message})
}

// Audio makes the node a prompt playing a recorded file.
func (n *NodeBuilder) Audio(url string) *NodeBuilder {
	return n.block(domain.BlockPrompt, domain.PromptConfig{AudioURL: url})
}

// Key makes the node a digit collector with options given as key/label pairs.
func (n *NodeBuilder) Key(pairs ...string) *NodeBuilder {
	return n.block(domain.BlockKey, domain.KeyConfig{Options: domain.NewOptions(pairs...)})
}

// Language makes the node a language selector with options given as code/label pairs.
func (n *NodeBuilder) Language(pairs ...string) *NodeBuilder {
	return n.block(domain.BlockLanguage, domain.LanguageConfig{Options: domain.NewOptions(pairs...)})
}

// Transfer makes the node a transfer to destination.
func (n *NodeBuilder) Transfer(destination string) *NodeBuilder {
	return n.block(domain.BlockTransfer, domain.TransferConfig{Destination: destination})
}

// Hangup makes the node a hangup.
func (n *NodeBuilder) Hangup() *NodeBuilder {
	return n.block(domain.BlockHangup, domain.HangupConfig{})
}

// API makes the node an external call answered by a canned response.
func (n *NodeBuilder) API(mock string) *NodeBuilder {
	return n.block(domain.BlockAPI, domain.APIConfig{APIMock: mock})
}

// Endpoint makes the node a live external call.
func (n *NodeBuilder) Endpoint(method, url string) *NodeBuilder {
	return n.block(domain.BlockAPI, domain.APIConfig{Method: method, Endpoint: url})
}

// Record makes the node a recording step.
func (n *NodeBuilder) Record() *NodeBuilder {
	return n.block(domain.BlockRecord, domain.RecordConfig{})
}

// Menu makes the node a menu presentation.
func (n *NodeBuilder) Menu(summary string) *NodeBuilder {
	return n.block(domain.BlockMenu, domain.MenuConfig{Summary: summary})
}

// Queue makes the node a queue hand-off.
func (n *NodeBuilder) Queue(destination string) *NodeBuilder {
	return n.block(domain.BlockQueue, domain.QueueConfig{Destination: destination})
}

// Voicemail makes the node a voicemail drop into mailbox.
func (n *NodeBuilder) Voicemail(mailbox string) *NodeBuilder {
	return n.block(domain.BlockVoicemail, domain.VoicemailConfig{Destination: mailbox})
}

// Config sets a raw config; the block type follows the config variant.
func (n *NodeBuilder) Config(cfg domain.Config) *NodeBuilder {
	return n.block(cfg.BlockType(), cfg)
}

// Name sets the human label.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Summary sets the summary on blocks that carry one.
func (n *NodeBuilder) Summary(s string) *NodeBuilder {
	switch c := n.node.Config.(type) {
	case domain.PromptConfig:
		c.Summary = s
		n.node.Config = c
	case domain.KeyConfig:
		c.Summary = s
		n.node.Config = c
	case domain.RecordConfig:
		c.Summary = s
		n.node.Config = c
	case domain.MenuConfig:
		c.Summary = s
		n.node.Config = c
	case domain.QueueConfig:
		c.Summary = s
		n.node.Config = c
	case domain.VoicemailConfig:
		c.Summary = s
		n.node.Config = c
	}
	return n
}

// Conditions sets the routing conditions on blocks that carry them.
func (n *NodeBuilder) Conditions(s string) *NodeBuilder {
	switch c := n.node.Config.(type) {
	case domain.TransferConfig:
		c.Conditions = s
		n.node.Config = c
	case domain.APIConfig:
		c.Conditions = s
		n.node.Config = c
	case domain.MenuConfig:
		c.Conditions = s
		n.node.Config = c
	case domain.QueueConfig:
		c.Conditions = s
		n.node.Config = c
	case domain.VoicemailConfig:
		c.Conditions = s
		n.node.Config = c
	}
	return n
}

// At sets the canvas position.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	return n
}

// Go adds the single unhandled successor.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.On("", target)
}

// On adds a handled branch to the target node.
func (n *NodeBuilder) On(handle, target string) *NodeBuilder {
	n.edges = append(n.edges, edge{handle: handle, target: target})
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
