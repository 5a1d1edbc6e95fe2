// Package templates provides built-in starter flows.
//
// Every call to Get builds a fresh graph, so callers may edit the result freely.
package templates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
)

// ErrTemplateNotFound is returned by Get for an unknown name.
var ErrTemplateNotFound = errors.New("template not found")

// Template describes a starter flow.
type Template struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	build       func() *dsl.Builder
}

var registry = map[string]Template{
	"main-menu": {
		Name:        "main-menu",
		Description: "Greeting and a three-way digit menu: sales, support queue, voicemail.",
		build:       mainMenu,
	},
	"language-select": {
		Name:        "language-select",
		Description: "Language choice up front, then a per-language greeting and transfer.",
		build:       languageSelect,
	},
	"account-lookup": {
		Name:        "account-lookup",
		Description: "Caller lookup against an external API, routed by response code.",
		build:       accountLookup,
	},
	"after-hours": {
		Name:        "after-hours",
		Description: "Closed-office message, optional recorded message, then hangup.",
		build:       afterHours,
	},
}

// All lists the templates by name.
func All() []Template {
	out := make([]Template, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get builds the named template.
func Get(name string, opts ...domain.GraphOption) (*domain.Graph, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return t.build().Build(opts...)
}

func mainMenu() *dsl.Builder {
	b := dsl.New()
	b.Add("welcome").Name("Welcome").Prompt("Thank you for calling.").At(0, 0).Go("menu")
	b.Add("menu").Name("Main menu").Key("1", "Sales", "2", "Support", "3", "Leave a message").
		Summary("Press 1 for sales, 2 for support, 3 to leave a message.").At(0, 120).
		On("1", "sales").On("2", "support").On("3", "mailbox")
	b.Add("sales").Name("Sales").Transfer("SIP/sales").At(-200, 240)
	b.Add("support").Name("Support queue").Queue("support").Summary("All agents are busy.").At(0, 240)
	b.Add("mailbox").Name("Voicemail").Voicemail("100").At(200, 240)
	return b.Start("welcome")
}

func languageSelect() *dsl.Builder {
	b := dsl.New()
	b.Add("language").Name("Language").Language("en", "English", "es", "Español").At(0, 0).
		On("en", "greet-en").On("es", "greet-es")
	b.Add("greet-en").Name("Greeting (en)").Prompt("Welcome, connecting you now.").At(-150, 120).Go("agent")
	b.Add("greet-es").Name("Greeting (es)").Prompt("Bienvenido, le comunicamos ahora.").At(150, 120).Go("agent")
	b.Add("agent").Name("Agent").Transfer("SIP/100").At(0, 240)
	return b.Start("language")
}

func accountLookup() *dsl.Builder {
	b := dsl.New()
	b.Add("greet").Name("Greeting").Prompt("Please hold while we find your account.").At(0, 0).Go("lookup")
	b.Add("lookup").Name("Account lookup").Endpoint("GET", "https://crm.example.com/accounts?ani=${CALLERID(num)}").
		At(0, 120).On("200", "known").On("404", "unknown")
	b.Add("known").Name("Account manager").Transfer("SIP/account-manager").At(-150, 240)
	b.Add("unknown").Name("New caller").Prompt("We could not find your account.").At(150, 240).Go("frontdesk")
	b.Add("frontdesk").Name("Front desk").Queue("frontdesk").At(150, 360)
	return b.Start("greet")
}

func afterHours() *dsl.Builder {
	b := dsl.New()
	b.Add("closed").Name("Closed").Prompt("Our office is closed.").At(0, 0).Go("choice")
	b.Add("choice").Name("Leave a message?").Key("1", "Record", "2", "Hang up").At(0, 120).
		On("1", "record").On("2", "bye")
	b.Add("record").Name("Record message").Record().Summary("Record after the tone.").At(-150, 240).Go("bye")
	b.Add("bye").Name("Goodbye").Hangup().At(0, 360)
	return b.Start("closed")
}
