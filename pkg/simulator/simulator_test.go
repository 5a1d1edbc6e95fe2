package simulator

import (
	"testing"

	"github.com/aretw0/ivrflow/internal/compiler"
	"github.com/aretw0/ivrflow/internal/testutils"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, b *dsl.Builder, policy domain.DeadBranchPolicy) *domain.Script {
	t.Helper()
	s, err := compiler.Compile(b.MustBuild(), compiler.Options{DeadBranch: policy})
	require.NoError(t, err)
	return s
}

func TestSimulator_ScenarioA(t *testing.T) {
	sim := New(compile(t, testutils.ScenarioA(), domain.DeadBranchReprompt))

	st, events, err := sim.Start()
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, st.Status)
	assert.Equal(t, []string{"P1", "K1"}, st.Path)
	require.Len(t, events, 2)
	assert.Equal(t, "say Welcome", events[0].Detail)

	ended, events, err := sim.Step(st, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, ended.Status)
	assert.Equal(t, "transfer", ended.Reason)
	assert.Equal(t, []string{"P1", "K1", "T1"}, ended.Path)
	assert.Equal(t, "transfer to SIP/100", events[len(events)-1].Detail)
	assert.Equal(t, []string{"P1", "K1"}, st.Path, "the previous state is untouched")

	_, _, err = sim.Step(ended, "2")
	assert.ErrorIs(t, err, ErrNotWaiting)
}

func TestSimulator_DeadBranchPolicy(t *testing.T) {
	reprompt := New(compile(t, testutils.ScenarioA(), domain.DeadBranchReprompt))
	st, _, _ := reprompt.Start()
	again, events, err := reprompt.Step(st, "9")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, again.Status)
	assert.Equal(t, st.Current, again.Current)
	assert.Contains(t, events[0].Detail, "reprompting")

	hangup := New(compile(t, testutils.ScenarioA(), domain.DeadBranchHangup))
	st, _, _ = hangup.Start()
	ended, _, err := hangup.Step(st, "9")
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, ended.Status)
	assert.Equal(t, "dead branch", ended.Reason)
}

func TestSimulator_ScenarioE_Cycle(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("Welcome").Go("K1")
	b.Add("K1").Key("1", "next").On("1", "K2")
	b.Add("K2").Key("1", "back").On("1", "K1")
	sim := New(compile(t, b, domain.DeadBranchHangup))

	st, _, err := sim.Start()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		st, _, err = sim.Step(st, "1")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"P1", "K1", "K2", "K1", "K2", "K1"}, st.Path)
	assert.Equal(t, StatusWaiting, st.Status)
}

func TestSimulator_StepLimit(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("one").Go("M1")
	b.Add("M1").Menu("loop").Go("P1")
	b.Start("P1")
	sim := New(compile(t, b, domain.DeadBranchHangup), WithMaxSteps(10))

	_, _, err := sim.Start()
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestSimulator_APIResponder(t *testing.T) {
	b := dsl.New()
	b.Add("A1").API("{}").On("404", "H1").Go("T1")
	b.Add("T1").Transfer("SIP/1")
	b.Add("H1").Hangup()
	script := compile(t, b, domain.DeadBranchHangup)

	st, _, err := New(script).Start()
	require.NoError(t, err)
	assert.Equal(t, "transfer", st.Reason, "unmatched codes fall through to the default edge")

	st, events, err := New(script, WithResponder(func(domain.Unit) string { return "404" })).Start()
	require.NoError(t, err)
	assert.Equal(t, "hangup", st.Reason)
	assert.Equal(t, "404", events[0].Input)
}

func TestSimulator_EndOfPath(t *testing.T) {
	b := dsl.New()
	b.Add("R1").Record().Summary("leave a message")
	st, _, err := New(compile(t, b, domain.DeadBranchHangup)).Start()
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, st.Status)
	assert.Equal(t, "end of path", st.Reason)
}
