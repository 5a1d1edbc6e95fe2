package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventValidate EventType = "validate"
	EventCompile  EventType = "compile"
	EventSave     EventType = "save"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	FlowID    string        `json:"flow_id,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ValidateEvent is emitted after a graph has been validated.
type ValidateEvent struct {
	EventBase
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// CompileEvent is emitted after a compile attempt.
type CompileEvent struct {
	EventBase
	Units int   `json:"units"`
	Err   error `json:"-"`
}

// SaveEvent is emitted after a flow save attempt.
type SaveEvent struct {
	EventBase
	Version uint64 `json:"version"`
	Err     error  `json:"-"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnValidate func(context.Context, *ValidateEvent)
	OnCompile  func(context.Context, *CompileEvent)
	OnSave     func(context.Context, *SaveEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnValidate: chain(h.OnValidate, other.OnValidate),
		OnCompile:  chain(h.OnCompile, other.OnCompile),
		OnSave:     chain(h.OnSave, other.OnSave),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
