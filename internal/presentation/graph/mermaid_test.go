package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/ivrflow/internal/presentation/graph"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	b := dsl.New()
	b.Add("welcome").Prompt("Hi").Name(`Say "hi"`).Go("main-menu")
	b.Add("main-menu").Key("1", "Sales", "2", "Lookup").On("2", "crm.lookup").On("1", "sales")
	b.Add("crm.lookup").API("{}").Go("prompt2")
	b.Add("prompt2").Prompt("Thanks").Go("sales")
	b.Add("sales").Transfer("SIP/sales")

	got := graph.GenerateMermaid(b.MustBuild(), nil)

	for _, want := range []string{
		"graph TD\n",
		`welcome(("Say 'hi' <br/> <i>prompt</i>"))`,
		`main_menu{{"key-2 <br/> <i>key</i>"}}`,
		`crm_lookup[["api-3 <br/> <i>api</i>"]]`,
		`prompt2[/"prompt-4 <br/> <i>prompt</i>"/]`,
		`sales(["transfer-5 <br/> <i>transfer</i>"])`,
		`welcome --> main_menu`,
		`main_menu -- "1" --> sales`,
	} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, `main_menu -- "1"`), strings.Index(got, `main_menu -- "2"`), "branches are listed in branch order")
	assert.NotContains(t, got, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	b := dsl.New()
	b.Add("a").Prompt("x").Go("b")
	b.Add("b").Hangup()

	got := graph.GenerateMermaid(b.MustBuild(), &graph.GraphOverlay{
		VisitedNodes: []string{"a", "a", "b"},
		CurrentNode:  "b",
	})
	assert.Equal(t, 1, strings.Count(got, "class a visited;"))
	assert.Contains(t, got, "class b current;")
}
