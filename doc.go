/*
Package ivrflow models interactive-voice-response call flows and compiles them into
call-control scripts.

A flow is a graph of typed call-handling blocks (prompt, key, transfer, hangup, api,
record, language, menu, queue, voicemail) joined by edges. Branching blocks route on
the handle of each outgoing edge: the digit pressed, the language chosen, or the
response code of an api call.

# Concept

The package keeps authoring and execution apart. The graph is edited freely and may be
incomplete at any time; Validate reports what is wrong without refusing anything.
Compile only accepts graphs with no blocking findings and produces a deterministic,
labelled Script that a telephony runtime can interpret. How the runtime does so is
outside this module; the AGI exporter and the simulator are two reference readings.

# Usage

	b := dsl.New()
	b.Add("welcome").Prompt("Welcome to Acme").Go("menu")
	b.Add("menu").Key("1", "Sales", "2", "Support").On("1", "sales").On("2", "support")
	b.Add("sales").Transfer("SIP/100")
	b.Add("support").Queue("support")
	g := b.MustBuild()

	report := ivrflow.Validate(ctx, g)
	if !report.Compilable() {
		// show report.Errors
	}

	script, err := ivrflow.Compile(ctx, g, ivrflow.WithDeadBranch(domain.DeadBranchReprompt))

# Interchange

Export and Import convert graphs to and from the JSON or YAML interchange document.
Import accepts documents from newer editors: unknown block types are kept verbatim and
reported as warnings.
*/
package ivrflow
