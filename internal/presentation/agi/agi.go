// Package agi renders a compiled script as an Asterisk dialplan, the "Export AGI" artifact.
package agi

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// DefaultContext is the dialplan context the flow is written into.
const DefaultContext = "ivrflow"

// Option configures rendering.
type Option func(*renderer)

// WithContext sets the dialplan context name.
func WithContext(name string) Option {
	return func(r *renderer) {
		r.context = name
	}
}

type renderer struct {
	context string
	sb      strings.Builder
}

// Render writes one extension per script unit. Each unit's label is its extension,
// so re-entries and back-edges become plain Gotos.
func Render(s *domain.Script, opts ...Option) string {
	r := &renderer{context: DefaultContext}
	for _, opt := range opts {
		opt(r)
	}

	fmt.Fprintf(&r.sb, "; generated by ivrflow\n; checksum %s\n", s.Checksum)
	fmt.Fprintf(&r.sb, "[%s]\n", r.context)
	fmt.Fprintf(&r.sb, "exten => s,1,Answer()\n")
	r.line(r.gotoLabel(s.Start))

	for _, u := range s.Units {
		r.unit(u)
	}
	return r.sb.String()
}

func (r *renderer) unit(u domain.Unit) {
	fmt.Fprintf(&r.sb, "\n; %s %s (%s)\n", u.Label, u.Op, u.Name)
	first := true
	app := func(format string, args ...any) {
		cmd := fmt.Sprintf(format, args...)
		if first {
			fmt.Fprintf(&r.sb, "exten => %s,1,%s\n", u.Label, cmd)
			first = false
			return
		}
		r.line(cmd)
	}

	switch u.Op {
	case domain.OpPlay:
		app("Playback(%s)", arg(firstOf(u.Params["audioUrl"], u.Params["message"])))
	case domain.OpMenu:
		app("Background(%s)", arg(firstOf(u.Params["summary"], u.Params["destination"])))
	case domain.OpRecord:
		app("Record(%s.wav)", arg(u.Label))
	case domain.OpCollect:
		app("Read(DIGIT,%s,1)", arg(u.Params["summary"]))
		r.branches(app, "DIGIT", u)
	case domain.OpLanguage:
		app("Set(LANG=${CHANNEL(language)})")
		r.branches(app, "LANG", u)
	case domain.OpHTTP:
		if ep := u.Params["endpoint"]; ep != "" {
			app("AGI(ivrflow-http,%s,%s)", arg(firstOf(u.Params["method"], "GET")), arg(ep))
		} else {
			app("Set(HTTP_RESPONSE=%s)", arg(u.Params["apiMock"]))
			app("Set(HTTP_STATUS=200)")
		}
		if len(u.Branches) > 0 {
			r.branches(app, "HTTP_STATUS", u)
			return
		}
	case domain.OpTransfer:
		app("Dial(%s)", arg(u.Params["destination"]))
	case domain.OpQueue:
		app("Queue(%s)", arg(firstOf(u.Params["destination"], u.Params["summary"])))
	case domain.OpVoicemail:
		app("VoiceMail(%s)", arg(firstOf(u.Params["destination"], u.Params["summary"])))
	case domain.OpHangup:
		app("Hangup()")
		return
	}

	if u.Next != "" && !u.Terminal {
		app("%s", r.gotoLabel(u.Next))
		return
	}
	app("Hangup()")
}

// branches emits one GotoIf per branch, then the unmatched-input fallback.
func (r *renderer) branches(app func(string, ...any), variable string, u domain.Unit) {
	for _, b := range u.Branches {
		app(`GotoIf($["${%s}" = "%s"]?%s,%s,1)`, variable, arg(b.Key), r.context, b.Target)
	}
	switch {
	case u.Next != "":
		app("%s", r.gotoLabel(u.Next))
	case u.Default == string(domain.DeadBranchReprompt):
		app("%s", r.gotoLabel(u.Label))
	default:
		app("Hangup()")
	}
}

func (r *renderer) line(cmd string) {
	fmt.Fprintf(&r.sb, " same => n,%s\n", cmd)
}

func (r *renderer) gotoLabel(label string) string {
	return fmt.Sprintf("Goto(%s,%s,1)", r.context, label)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var argEscaper = strings.NewReplacer(",", `\,`, "\n", " ", "\r", "", ")", `\)`)

func arg(s string) string {
	return argEscaper.Replace(s)
}
