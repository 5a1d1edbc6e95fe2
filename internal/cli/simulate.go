package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/registry"
	"github.com/aretw0/ivrflow/pkg/simulator"
)

// SimulateOptions configures RunSimulation.
type SimulateOptions struct {
	// Inputs are consumed first, in order; then In is read line by line.
	Inputs []string
	// In may be nil for a fully scripted run.
	In       io.Reader
	Out      io.Writer
	JSON     bool
	Quiet    bool
	MaxSteps int
	// Responses answers api units; nil answers every call with registry.DefaultCode.
	Responses *registry.Registry
	Logger    *slog.Logger
}

// RunSimulation walks script with caller input until the call ends or input runs out.
// It returns the last state reached.
func RunSimulation(ctx context.Context, script *domain.Script, opts SimulateOptions) (*simulator.State, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	simOpts := []simulator.Option{simulator.WithLogger(opts.Logger)}
	if opts.MaxSteps > 0 {
		simOpts = append(simOpts, simulator.WithMaxSteps(opts.MaxSteps))
	}
	if opts.Responses != nil {
		simOpts = append(simOpts, simulator.WithResponder(opts.Responses.Respond))
	}
	sim := simulator.New(script, simOpts...)
	out := newEventWriter(opts.Out, opts.JSON)

	state, events, err := sim.Start()
	if err != nil {
		return nil, err
	}
	out.events(events)

	var lines *bufio.Scanner
	if opts.In != nil {
		lines = bufio.NewScanner(NewInterruptibleReader(opts.In, ctx.Done()))
	}
	queued := opts.Inputs

	for state.Status == simulator.StatusWaiting {
		var input string
		switch {
		case len(queued) > 0:
			input, queued = queued[0], queued[1:]
		case lines != nil:
			if !opts.JSON && !opts.Quiet {
				fmt.Fprint(opts.Out, "> ")
			}
			if !lines.Scan() {
				if err := lines.Err(); err != nil && !IsInterrupted(err) {
					return state, err
				}
				return state, nil
			}
			input = strings.TrimSpace(lines.Text())
			if input == "exit" || input == "quit" {
				return state, nil
			}
		default:
			return state, nil
		}

		next, evs, err := sim.Step(state, input)
		out.events(evs)
		if err != nil {
			return state, err
		}
		state = next
	}

	if !opts.Quiet {
		out.end(state)
	}
	return state, nil
}

type eventWriter struct {
	w    io.Writer
	json *json.Encoder
}

func newEventWriter(w io.Writer, asJSON bool) *eventWriter {
	ew := &eventWriter{w: w}
	if asJSON {
		ew.json = json.NewEncoder(w)
	}
	return ew
}

func (ew *eventWriter) events(evs []simulator.Event) {
	for _, e := range evs {
		if ew.json != nil {
			_ = ew.json.Encode(e)
			continue
		}
		fmt.Fprintf(ew.w, "[%s] %-9s %s", e.Label, e.Op, e.NodeID)
		if e.Detail != "" {
			fmt.Fprintf(ew.w, ": %s", e.Detail)
		}
		fmt.Fprintln(ew.w)
	}
}

func (ew *eventWriter) end(state *simulator.State) {
	if ew.json != nil {
		_ = ew.json.Encode(state)
		return
	}
	last := state.Current
	if len(state.Path) > 0 {
		last = state.Path[len(state.Path)-1]
	}
	printSystemMessage(ew.w, "Call ended at '%s' (%s). Path: %s",
		last, state.Reason, strings.Join(state.Path, " -> "))
}
