package ivrflow_test

import (
	"context"
	"testing"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuFlow() *domain.Graph {
	b := dsl.New()
	b.Add("P1").Prompt("Welcome").Go("K1")
	b.Add("K1").Key("1", "Sales", "2", "Bye").On("1", "T1").On("2", "H1")
	b.Add("T1").Transfer("SIP/100")
	b.Add("H1").Hangup()
	return b.MustBuild()
}

func TestValidateAndCompile_FireHooks(t *testing.T) {
	var validated, compiled int
	hooks := domain.LifecycleHooks{
		OnValidate: func(_ context.Context, e *domain.ValidateEvent) {
			validated++
			assert.Equal(t, "main", e.FlowID)
			assert.Zero(t, e.Errors)
		},
		OnCompile: func(_ context.Context, e *domain.CompileEvent) {
			compiled++
			assert.Equal(t, 4, e.Units)
			assert.NoError(t, e.Err)
		},
	}
	ctx := context.Background()
	g := menuFlow()

	report := ivrflow.Validate(ctx, g, ivrflow.WithLifecycleHooks(hooks), ivrflow.WithFlowID("main"))
	assert.True(t, report.Compilable())

	script, err := ivrflow.Compile(ctx, g,
		ivrflow.WithDeadBranch(domain.DeadBranchReprompt),
		ivrflow.WithLifecycleHooks(hooks),
		ivrflow.WithFlowID("main"))
	require.NoError(t, err)
	assert.Equal(t, "L1", script.Start)
	assert.Equal(t, 1, validated)
	assert.Equal(t, 1, compiled)
}

func TestCompile_RequiresPolicy(t *testing.T) {
	_, err := ivrflow.Compile(context.Background(), menuFlow())
	assert.ErrorIs(t, err, domain.ErrMissingDeadBranchPolicy)
}

func TestCompile_InvalidGraphReportsFindings(t *testing.T) {
	b := dsl.New()
	b.Add("T1").Transfer("")
	var failed error
	_, err := ivrflow.Compile(context.Background(), b.MustBuild(),
		ivrflow.WithDeadBranch(domain.DeadBranchHangup),
		ivrflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnCompile: func(_ context.Context, e *domain.CompileEvent) { failed = e.Err },
		}))

	var cerr *domain.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, domain.CodeIncompleteConfig, cerr.Findings[0].Code)
	assert.ErrorIs(t, failed, domain.ErrGraphNotCompilable)
}

func TestExportImport(t *testing.T) {
	g := menuFlow()
	for _, f := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		data, err := ivrflow.Export(g, f)
		require.NoError(t, err)

		back, err := ivrflow.Import(data, "")
		require.NoError(t, err, f)
		assert.True(t, domain.Equal(g, back), f)
	}
}

func TestExportAGIAndMermaid(t *testing.T) {
	g := menuFlow()
	script, err := ivrflow.Compile(context.Background(), g, ivrflow.WithDeadBranch(domain.DeadBranchHangup))
	require.NoError(t, err)

	dialplan := ivrflow.ExportAGI(script, ivrflow.WithAGIContext("acme"))
	assert.Contains(t, dialplan, "[acme]")
	assert.Contains(t, dialplan, "Dial(SIP/100)")

	chart := ivrflow.ExportMermaid(g, []string{"P1", "K1"}, "K1")
	assert.Contains(t, chart, "graph TD")
	assert.Contains(t, chart, "class K1 current")
}
