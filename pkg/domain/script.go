package domain

import "fmt"

// Op is the kind of instruction a script unit carries.
type Op string

const (
	OpPlay      Op = "play"
	OpCollect   Op = "collect"
	OpTransfer  Op = "transfer"
	OpHangup    Op = "hangup"
	OpQueue     Op = "queue"
	OpVoicemail Op = "voicemail"
	OpHTTP      Op = "http"
	OpRecord    Op = "record"
	OpLanguage  Op = "language"
	OpMenu      Op = "menu"
)

// DeadBranchPolicy decides what a branching unit does when the caller's input
// matches no connected branch.
type DeadBranchPolicy string

const (
	DeadBranchReprompt DeadBranchPolicy = "reprompt"
	DeadBranchHangup   DeadBranchPolicy = "hangup"
)

// ParseDeadBranchPolicy validates a policy name.
func ParseDeadBranchPolicy(s string) (DeadBranchPolicy, error) {
	switch p := DeadBranchPolicy(s); p {
	case DeadBranchReprompt, DeadBranchHangup:
		return p, nil
	case "":
		return "", ErrMissingDeadBranchPolicy
	default:
		return "", fmt.Errorf("%w: %q (want reprompt or hangup)", ErrInvalidDeadBranchPolicy, s)
	}
}

// Branch is one entry of a unit's branch table.
type Branch struct {
	Key    string `json:"key"`
	Label  string `json:"label,omitempty"`
	Target string `json:"target"`
}

// Unit is one emitted instruction, corresponding to exactly one node.
//
// Next is the fall-through target label. A non-terminal unit with an empty Next ends
// the call. Default is what a branching unit does on unmatched input: a dead-branch
// policy name for collect/language units, or "hangup" for http units without a
// default edge.
type Unit struct {
	Label    string            `json:"label"`
	NodeID   string            `json:"nodeId"`
	Name     string            `json:"name,omitempty"`
	Op       Op                `json:"op"`
	Params   map[string]string `json:"params,omitempty"`
	Branches []Branch          `json:"branches,omitempty"`
	Default  string            `json:"default,omitempty"`
	Next     string            `json:"next,omitempty"`
	Terminal bool              `json:"terminal,omitempty"`
}

// Target returns the label reached with the given input, and whether a branch matched.
func (u Unit) Target(key string) (string, bool) {
	for _, b := range u.Branches {
		if b.Key == key {
			return b.Target, true
		}
	}
	return "", false
}

// Script is the compiled, ordered sequence of units.
// Units are in first-visit order; Start is the label of the entry unit.
type Script struct {
	Start      string           `json:"start"`
	DeadBranch DeadBranchPolicy `json:"deadBranch"`
	Units      []Unit           `json:"units"`
	Checksum   string           `json:"checksum"`
}

// Unit returns the unit with the given label.
func (s *Script) Unit(label string) (Unit, bool) {
	for _, u := range s.Units {
		if u.Label == label {
			return u, true
		}
	}
	return Unit{}, false
}

// UnitFor returns the unit compiled from the given node.
func (s *Script) UnitFor(nodeID string) (Unit, bool) {
	for _, u := range s.Units {
		if u.NodeID == nodeID {
			return u, true
		}
	}
	return Unit{}, false
}
