package ivrflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/ivrflow/internal/compiler"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/internal/presentation/agi"
	"github.com/aretw0/ivrflow/internal/presentation/graph"
	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
)

type settings struct {
	deadBranch domain.DeadBranchPolicy
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	flowID     string
	agiContext string
}

// Option configures Validate, Compile and the exporters.
type Option func(*settings)

// WithDeadBranch sets the dead-branch policy required by Compile.
func WithDeadBranch(p domain.DeadBranchPolicy) Option {
	return func(s *settings) {
		s.deadBranch = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithFlowID tags emitted events with the id of a stored flow.
func WithFlowID(id string) Option {
	return func(s *settings) {
		s.flowID = id
	}
}

// WithAGIContext names the dialplan context written by ExportAGI.
func WithAGIContext(name string) Option {
	return func(s *settings) {
		s.agiContext = name
	}
}

func apply(opts []Option) *settings {
	s := &settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *settings) base(t domain.EventType, start time.Time) domain.EventBase {
	now := time.Now()
	return domain.EventBase{Timestamp: now, Type: t, FlowID: s.flowID, Duration: now.Sub(start)}
}

// Validate reports every finding on g. It never fails and never mutates g.
func Validate(ctx context.Context, g *domain.Graph, opts ...Option) *domain.Report {
	s := apply(opts)
	start := time.Now()
	report := validator.Validate(g)

	s.logger.Debug("validated flow", "flow_id", s.flowID, "errors", len(report.Errors), "warnings", len(report.Warnings))
	if s.hooks.OnValidate != nil {
		s.hooks.OnValidate(ctx, &domain.ValidateEvent{
			EventBase: s.base(domain.EventValidate, start),
			Errors:    len(report.Errors),
			Warnings:  len(report.Warnings),
		})
	}
	return report
}

// Compile validates g and emits its script. The dead-branch policy is required.
// A graph with blocking findings fails with a *domain.CompileError.
func Compile(ctx context.Context, g *domain.Graph, opts ...Option) (*domain.Script, error) {
	s := apply(opts)
	start := time.Now()
	script, err := compiler.Compile(g, compiler.Options{DeadBranch: s.deadBranch})

	units := 0
	if script != nil {
		units = len(script.Units)
	}
	if err != nil {
		s.logger.Debug("compile failed", "flow_id", s.flowID, "err", err)
	}
	if s.hooks.OnCompile != nil {
		s.hooks.OnCompile(ctx, &domain.CompileEvent{
			EventBase: s.base(domain.EventCompile, start),
			Units:     units,
			Err:       err,
		})
	}
	return script, err
}

// Export writes g as an interchange document.
func Export(g *domain.Graph, format codec.Format) ([]byte, error) {
	return codec.Encode(g, format)
}

// Import reads an interchange document. An empty format is sniffed from the data.
func Import(data []byte, format codec.Format) (*domain.Graph, error) {
	if format == "" {
		format = codec.Sniff(data)
	}
	return codec.Decode(data, format)
}

// ExportAGI renders a compiled script as an Asterisk dialplan.
func ExportAGI(script *domain.Script, opts ...Option) string {
	s := apply(opts)
	var aopts []agi.Option
	if s.agiContext != "" {
		aopts = append(aopts, agi.WithContext(s.agiContext))
	}
	return agi.Render(script, aopts...)
}

// ExportMermaid renders g as a Mermaid flowchart. visited and current highlight a
// call path, e.g. the Path of a simulation; both may be empty.
func ExportMermaid(g *domain.Graph, visited []string, current string) string {
	var overlay *graph.GraphOverlay
	if len(visited) > 0 || current != "" {
		overlay = &graph.GraphOverlay{VisitedNodes: visited, CurrentNode: current}
	}
	return graph.GenerateMermaid(g, overlay)
}
