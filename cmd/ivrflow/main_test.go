package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/ivrflow/internal/testutils"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFlow(t *testing.T, dir string, b *dsl.Builder) string {
	return testutils.WriteFlow(t, dir, "flow.yaml", b)
}

func menuFlow() *dsl.Builder {
	return testutils.ScenarioA()
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeFlow(t, dir, menuFlow())

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 error(s)")

	out, err = run(t, "validate", "--json", path)
	require.NoError(t, err)
	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "P1", report.Start)

	broken := dsl.New()
	broken.Add("T1").Transfer("")
	out, err = run(t, "validate", writeFlow(t, t.TempDir(), broken))
	assert.ErrorIs(t, err, errNotCompilable)
	assert.Contains(t, out, string(domain.CodeIncompleteConfig))
}

func TestCompileCmd(t *testing.T) {
	path := writeFlow(t, t.TempDir(), menuFlow())

	_, err := run(t, "compile", path)
	assert.ErrorIs(t, err, domain.ErrMissingDeadBranchPolicy)

	out, err := run(t, "compile", "--dead-branch", "hangup", path)
	require.NoError(t, err)
	var script domain.Script
	require.NoError(t, json.Unmarshal([]byte(out), &script))
	assert.Equal(t, "L1", script.Start)
	assert.Len(t, script.Units, 4)
}

func TestExportCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeFlow(t, dir, menuFlow())

	out, err := run(t, "export", "--dead-branch", "reprompt", "--context", "sales", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[sales]")

	target := filepath.Join(dir, "flow.json")
	_, err = run(t, "export", "-f", "json", "-o", target, path)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, codec.FormatJSON, codec.Sniff(data))

	_, err = run(t, "export", "-f", "xml", path)
	assert.Error(t, err)
}

func TestGraphAndSimulateCmds(t *testing.T) {
	path := writeFlow(t, t.TempDir(), menuFlow())

	out, err := run(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = run(t, "graph", "--dead-branch", "reprompt", "--input", "1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = run(t, "simulate", "--dead-branch", "reprompt", "--input", "9,2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reprompting")
	assert.Contains(t, out, "Call ended at 'H1'")
}

func TestTemplateCmds(t *testing.T) {
	out, err := run(t, "template", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "main-menu")

	target := filepath.Join(t.TempDir(), "menu.json")
	_, err = run(t, "template", "new", "main-menu", "-o", target)
	require.NoError(t, err)

	_, err = run(t, "validate", target)
	assert.NoError(t, err)

	_, err = run(t, "template", "new", "missing")
	assert.Error(t, err)
}

func TestFlowCmds(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ivrflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: sqlite\n  path: "+filepath.Join(dir, "flows.db")+"\n"), 0644))
	path := writeFlow(t, dir, menuFlow())

	out, err := run(t, "-c", cfgPath, "flow", "push", "--name", "Main", path)
	require.NoError(t, err)
	id := strings.Fields(out)[0]
	assert.Contains(t, out, "version 1")

	out, err = run(t, "-c", cfgPath, "flow", "push", "--id", id, "--version", "1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "version 2")

	_, err = run(t, "-c", cfgPath, "flow", "push", "--id", id, "--version", "1", path)
	assert.ErrorIs(t, err, domain.ErrStaleVersion)

	out, err = run(t, "-c", cfgPath, "flow", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Main")

	out, err = run(t, "-c", cfgPath, "flow", "pull", "-f", "json", id)
	require.NoError(t, err)
	g, err := codec.UnmarshalJSON([]byte(out))
	require.NoError(t, err)
	assert.True(t, domain.Equal(menuFlow().MustBuild(), g))

	_, err = run(t, "-c", cfgPath, "flow", "delete", id)
	require.NoError(t, err)
	_, err = run(t, "-c", cfgPath, "flow", "pull", id)
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ivrflow version")
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	assert.Error(t, err)
}
