package dsl

import (
	"testing"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Add("welcome").
		Prompt("Thanks for calling.").
		Summary("greeting").
		At(10, 20).
		Go("menu")

	b.Add("menu").
		Key("2", "Support", "1", "Sales").
		On("1", "sales").
		On("2", "bye")

	b.Add("sales").Transfer("SIP/sales").Conditions("office-hours").Name("Sales desk")
	b.Add("bye").Hangup()
	b.Start("welcome")

	g, err := b.Build()
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"welcome", "menu", "sales", "bye"}, []string{nodes[0].ID, nodes[1].ID, nodes[2].ID, nodes[3].ID})
	assert.Equal(t, "prompt-1", nodes[0].Name)
	assert.Equal(t, "Sales desk", nodes[2].Name)
	assert.Equal(t, domain.PromptConfig{Message: "Thanks for calling.", Summary: "greeting"}, nodes[0].Config)
	assert.Equal(t, domain.Position{X: 10, Y: 20}, nodes[0].Position)
	assert.Equal(t, []string{"1", "2"}, domain.OptionsOf(nodes[1].Config).Keys())
	assert.Equal(t, domain.TransferConfig{Destination: "SIP/sales", Conditions: "office-hours"}, nodes[2].Config)
	assert.Equal(t, "welcome", g.Start())

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, domain.Edge{ID: "menu:1->sales", Source: "menu", Target: "sales", SourceHandle: "1"}, edges[1])
}

func TestBuilder_Errors(t *testing.T) {
	b := New()
	b.Add("blank")
	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidBlockType)

	b = New()
	b.Add("k").Key("1", "A").On("1", "x").On("1", "y")
	_, err = b.Build()
	assert.ErrorIs(t, err, domain.ErrDuplicateBranch)

	assert.Panics(t, func() { New().Add("blank").builder.MustBuild() })
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	first := b.Add("a").Hangup()
	assert.Same(t, first, b.Add("a"))
}
