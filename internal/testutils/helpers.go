// Package testutils holds flow fixtures shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// ScenarioA is the canonical menu: P1 -> K1 {1: T1 transfer, 2: H1 hangup}.
func ScenarioA() *dsl.Builder {
	b := dsl.New()
	b.Add("P1").Prompt("Welcome").Go("K1")
	b.Add("K1").Key("1", "TransferNode", "2", "HangupNode").On("1", "T1").On("2", "H1")
	b.Add("T1").Transfer("SIP/100")
	b.Add("H1").Hangup()
	return b
}

// ScenarioE is a closed two-node loop with no marker and no terminal: K1 -1-> K2 -1-> K1.
func ScenarioE() *dsl.Builder {
	b := dsl.New()
	b.Add("K1").Key("1", "next").On("1", "K2")
	b.Add("K2").Key("1", "back").On("1", "K1")
	return b
}

// APIRouting answers A1 by response code: 200 -> T1, 404 -> H1.
func APIRouting() *dsl.Builder {
	b := dsl.New()
	b.Add("A1").Endpoint("GET", "https://crm/x").On("200", "T1").On("404", "H1")
	b.Add("T1").Transfer("SIP/100")
	b.Add("H1").Hangup()
	return b
}

// WriteFlow encodes the built graph into dir/name, the format following the extension.
// It fails the test immediately on error.
func WriteFlow(t *testing.T, dir, name string, b *dsl.Builder) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data, err := codec.Encode(b.MustBuild(), codec.FormatForPath(path))
	require.NoError(t, err, "Failed to encode flow")
	require.NoError(t, os.WriteFile(path, data, 0644), "Failed to write flow file")
	return path
}
