package compiler

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/ivrflow/internal/testutils"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reprompt = Options{DeadBranch: domain.DeadBranchReprompt}

func nodeIDs(s *domain.Script) []string {
	ids := make([]string, len(s.Units))
	for i, u := range s.Units {
		ids[i] = u.NodeID
	}
	return ids
}

func TestCompile_ScenarioA(t *testing.T) {
	s, err := Compile(testutils.ScenarioA().MustBuild(), reprompt)
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "K1", "T1", "H1"}, nodeIDs(s))
	assert.Equal(t, "L1", s.Start)

	p := s.Units[0]
	assert.Equal(t, domain.OpPlay, p.Op)
	assert.Equal(t, map[string]string{"message": "Welcome"}, p.Params)
	assert.Equal(t, "L2", p.Next)

	k := s.Units[1]
	assert.Equal(t, domain.OpCollect, k.Op)
	assert.Equal(t, []domain.Branch{
		{Key: "1", Label: "TransferNode", Target: "L3"},
		{Key: "2", Label: "HangupNode", Target: "L4"},
	}, k.Branches)
	assert.Equal(t, "reprompt", k.Default)

	assert.Equal(t, domain.OpTransfer, s.Units[2].Op)
	assert.True(t, s.Units[2].Terminal)
	assert.Equal(t, "SIP/100", s.Units[2].Params["destination"])
	assert.Equal(t, domain.OpHangup, s.Units[3].Op)
	assert.True(t, s.Units[3].Terminal)
}

func TestCompile_ScenarioB_DeadBranchStillCompiles(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("Welcome").Go("K1")
	b.Add("K1").Key("1", "TransferNode", "2", "HangupNode").On("1", "T1")
	b.Add("T1").Transfer("SIP/100")

	s, err := Compile(b.MustBuild(), Options{DeadBranch: domain.DeadBranchHangup})
	require.NoError(t, err)
	k, ok := s.UnitFor("K1")
	require.True(t, ok)
	assert.Len(t, k.Branches, 1)
	assert.Equal(t, "hangup", k.Default)
	assert.Equal(t, domain.DeadBranchHangup, s.DeadBranch)
}

func TestCompile_ScenarioC_NotCompilable(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("Bye").Go("H1")
	b.Add("H1").Hangup().Go("P2")
	b.Add("P2").Prompt("never")

	s, err := Compile(b.MustBuild(), reprompt)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrGraphNotCompilable)

	var ce *domain.CompileError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Findings, 1)
	assert.Equal(t, domain.CodeIllegalOutgoingEdge, ce.Findings[0].Code)
	assert.Contains(t, err.Error(), "IllegalOutgoingEdge")
}

func TestCompile_ScenarioE_BackEdgeIsAJump(t *testing.T) {
	s, err := Compile(testutils.ScenarioE().MustBuild(), reprompt)
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "K2"}, nodeIDs(s))
	assert.Equal(t, "L1", s.Start)

	k2, _ := s.UnitFor("K2")
	assert.Equal(t, []domain.Branch{{Key: "1", Label: "back", Target: "L1"}}, k2.Branches)

	k1Units := 0
	for _, u := range s.Units {
		if u.NodeID == "K1" {
			k1Units++
		}
	}
	assert.Equal(t, 1, k1Units, "the back-edge jumps to K1 instead of emitting it again")
}

func TestCompile_SharedSuccessorEmittedOnce(t *testing.T) {
	b := dsl.New()
	b.Add("K1").Key("1", "a", "2", "b", "3", "c").On("3", "H1").On("1", "P1").On("2", "P2")
	b.Add("P1").Prompt("one").Go("H1")
	b.Add("P2").Prompt("two").Go("H1")
	b.Add("H1").Hangup()
	b.Add("orphan").Hangup()
	b.Start("K1")

	s, err := Compile(b.MustBuild(), reprompt)
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "P1", "H1", "P2"}, nodeIDs(s), "branch order, first visit; unreachable nodes are not emitted")

	p2, _ := s.UnitFor("P2")
	assert.Equal(t, "L3", p2.Next)
}

func TestCompile_BranchOrder(t *testing.T) {
	b := dsl.New()
	b.Add("K1").Key("#", "h", "0", "z", "*", "s", "2", "two").
		On("#", "A").On("0", "B").On("*", "C").On("2", "D")
	for _, id := range []string{"A", "B", "C", "D"} {
		b.Add(id).Hangup()
	}

	s, err := Compile(b.MustBuild(), reprompt)
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "D", "B", "C", "A"}, nodeIDs(s))
}

func TestCompile_APIBranches(t *testing.T) {
	b := dsl.New()
	b.Add("A1").API(`{"status":"vip"}`).On("404", "H1").On("200", "T1")
	b.Add("T1").Transfer("SIP/vip")
	b.Add("H1").Hangup()

	s, err := Compile(b.MustBuild(), reprompt)
	require.NoError(t, err)
	a := s.Units[0]
	assert.Equal(t, domain.OpHTTP, a.Op)
	assert.Equal(t, []domain.Branch{{Key: "200", Target: "L2"}, {Key: "404", Target: "L3"}}, a.Branches)
	assert.Equal(t, "hangup", a.Default)
	assert.Empty(t, a.Next)

	b2 := dsl.New()
	b2.Add("A1").API("{}").Go("H1")
	b2.Add("H1").Hangup()
	s, err = Compile(b2.MustBuild(), reprompt)
	require.NoError(t, err)
	assert.Equal(t, "L2", s.Units[0].Next)
	assert.Empty(t, s.Units[0].Default)
}

func TestCompile_EveryOp(t *testing.T) {
	b := dsl.New()
	b.Add("L").Language("en", "English", "fr", "Français").On("en", "M").On("fr", "Q")
	b.Add("M").Menu("main").Go("R")
	b.Add("R").Record().Go("V")
	b.Add("V").Voicemail("200")
	b.Add("Q").Queue("support")

	s, err := Compile(b.MustBuild(), reprompt)
	require.NoError(t, err)
	var ops []domain.Op
	for _, u := range s.Units {
		ops = append(ops, u.Op)
	}
	assert.Equal(t, []domain.Op{domain.OpLanguage, domain.OpMenu, domain.OpRecord, domain.OpVoicemail, domain.OpQueue}, ops)
	assert.True(t, s.Units[3].Terminal)
	assert.True(t, s.Units[4].Terminal)
	assert.False(t, s.Units[1].Terminal)
}

func TestCompile_Deterministic(t *testing.T) {
	g := testutils.ScenarioA().MustBuild()
	s1, err := Compile(g, reprompt)
	require.NoError(t, err)
	s2, err := Compile(g, reprompt)
	require.NoError(t, err)

	j1, _ := json.Marshal(s1)
	j2, _ := json.Marshal(s2)
	assert.Equal(t, string(j1), string(j2))
	assert.Len(t, s1.Checksum, 64)

	s3, err := Compile(testutils.ScenarioA().MustBuild(), Options{DeadBranch: domain.DeadBranchHangup})
	require.NoError(t, err)
	assert.NotEqual(t, s1.Checksum, s3.Checksum)
}

func TestCompile_RequiresPolicy(t *testing.T) {
	_, err := Compile(testutils.ScenarioA().MustBuild(), Options{})
	assert.ErrorIs(t, err, domain.ErrMissingDeadBranchPolicy)

	_, err = Compile(testutils.ScenarioA().MustBuild(), Options{DeadBranch: "retry"})
	assert.Error(t, err)
}

func TestCompile_UnknownBlockIsFatal(t *testing.T) {
	nodes := []domain.Node{
		{ID: "P1", BlockType: domain.BlockPrompt, Config: domain.PromptConfig{Message: "hi"}},
		{ID: "X1", BlockType: domain.BlockUnknown, Config: domain.UnknownConfig{Tag: "sms"}},
	}
	g, err := domain.Restore(nodes, []domain.Edge{{ID: "e", Source: "P1", Target: "X1"}}, "")
	require.NoError(t, err)

	s, err := Compile(g, reprompt)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrUnsupportedBlockType)
}
