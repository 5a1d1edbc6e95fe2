// Package simulator walks a compiled script the way a telephony runtime would, feeding it
// caller input one step at a time. It backs the "simulate" command and the path overlay
// of the Mermaid export.
package simulator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
)

// DefaultMaxSteps bounds the units visited between two inputs.
const DefaultMaxSteps = 1000

var (
	// ErrNotWaiting is returned when input is given to a call that is not waiting for it.
	ErrNotWaiting = errors.New("call is not waiting for input")

	// ErrStepLimit is returned when a call runs more units than allowed without input.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrUnknownLabel is returned when a script references a label it does not define.
	ErrUnknownLabel = errors.New("unknown label")
)

// Status is the phase of a simulated call.
type Status string

const (
	StatusActive  Status = "active"
	StatusWaiting Status = "waiting_for_input"
	StatusEnded   Status = "ended"
)

// State is a snapshot of a simulated call. Steps never mutate a state they are given.
type State struct {
	Current string   `json:"current"`
	Status  Status   `json:"status"`
	Path    []string `json:"path"`
	Steps   int      `json:"steps"`
	Reason  string   `json:"reason,omitempty"`
}

func (s *State) clone() *State {
	c := *s
	c.Path = append([]string(nil), s.Path...)
	return &c
}

// Event describes what one unit did during a step.
type Event struct {
	Label  string    `json:"label"`
	NodeID string    `json:"nodeId"`
	Op     domain.Op `json:"op"`
	Input  string    `json:"input,omitempty"`
	Detail string    `json:"detail"`
}

// Responder picks the response code of an http unit.
type Responder func(u domain.Unit) string

// Option configures a Simulator.
type Option func(*Simulator)

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		s.maxSteps = n
	}
}

// WithResponder sets how http units are answered. The default answers "200".
func WithResponder(r Responder) Option {
	return func(s *Simulator) {
		s.respond = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// Simulator steps a compiled script.
type Simulator struct {
	script   *domain.Script
	units    map[string]domain.Unit
	maxSteps int
	respond  Responder
	logger   *slog.Logger
}

// New creates a simulator for script.
func New(script *domain.Script, opts ...Option) *Simulator {
	s := &Simulator{
		script:   script,
		units:    make(map[string]domain.Unit, len(script.Units)),
		maxSteps: DefaultMaxSteps,
		respond:  func(domain.Unit) string { return "200" },
		logger:   logging.NewNop(),
	}
	for _, u := range script.Units {
		s.units[u.Label] = u
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a call at the script's entry unit and runs until it needs input or ends.
func (s *Simulator) Start() (*State, []Event, error) {
	st := &State{Current: s.script.Start, Status: StatusActive}
	return s.run(st, nil)
}

// Step feeds caller input to a waiting call.
func (s *Simulator) Step(current *State, input string) (*State, []Event, error) {
	if current.Status != StatusWaiting {
		return nil, nil, ErrNotWaiting
	}
	u, ok := s.units[current.Current]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownLabel, current.Current)
	}

	st := current.clone()
	st.Status = StatusActive
	ev := Event{Label: u.Label, NodeID: u.NodeID, Op: u.Op, Input: input}

	if target, ok := u.Target(input); ok {
		ev.Detail = "branch " + input
		st.Current = target
		return s.run(st, []Event{ev})
	}

	switch domain.DeadBranchPolicy(u.Default) {
	case domain.DeadBranchReprompt:
		ev.Detail = "no branch for input, reprompting"
		st.Status = StatusWaiting
		return st, []Event{ev}, nil
	default:
		ev.Detail = "no branch for input, hanging up"
		st.Status = StatusEnded
		st.Reason = "dead branch"
		return st, []Event{ev}, nil
	}
}

// run advances through units that need no input.
func (s *Simulator) run(st *State, events []Event) (*State, []Event, error) {
	for steps := 0; ; steps++ {
		if steps >= s.maxSteps {
			return nil, events, fmt.Errorf("%w: %d units without input", ErrStepLimit, s.maxSteps)
		}
		u, ok := s.units[st.Current]
		if !ok {
			return nil, events, fmt.Errorf("%w: %s", ErrUnknownLabel, st.Current)
		}
		st.Path = append(st.Path, u.NodeID)
		st.Steps++
		ev := Event{Label: u.Label, NodeID: u.NodeID, Op: u.Op}
		s.logger.Debug("simulate unit", "label", u.Label, "op", u.Op, "node", u.NodeID)

		switch {
		case u.Op == domain.OpCollect || u.Op == domain.OpLanguage:
			ev.Detail = "waiting for input"
			st.Status = StatusWaiting
			return st, append(events, ev), nil

		case u.Terminal:
			ev.Detail = describe(u)
			st.Status = StatusEnded
			st.Reason = string(u.Op)
			return st, append(events, ev), nil

		case u.Op == domain.OpHTTP && len(u.Branches) > 0:
			code := s.respond(u)
			ev.Input = code
			if target, ok := u.Target(code); ok {
				ev.Detail = "response " + code
				st.Current = target
				events = append(events, ev)
				continue
			}
		}

		if u.Next == "" {
			ev.Detail = describe(u) + ", no successor: hang up"
			st.Status = StatusEnded
			st.Reason = "end of path"
			return st, append(events, ev), nil
		}
		ev.Detail = describe(u)
		st.Current = u.Next
		events = append(events, ev)
	}
}

func describe(u domain.Unit) string {
	switch u.Op {
	case domain.OpPlay:
		if a := u.Params["audioUrl"]; a != "" {
			return "play " + a
		}
		return "say " + u.Params["message"]
	case domain.OpTransfer:
		return "transfer to " + u.Params["destination"]
	case domain.OpQueue:
		return "enqueue " + first(u.Params["destination"], u.Params["summary"])
	case domain.OpVoicemail:
		return "voicemail " + first(u.Params["destination"], u.Params["summary"])
	case domain.OpHTTP:
		return "call " + first(u.Params["endpoint"], "mock")
	}
	return string(u.Op)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
