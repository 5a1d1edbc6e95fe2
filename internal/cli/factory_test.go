package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ivrflow/internal/config"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/aretw0/ivrflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	drivers := map[string]config.Store{
		"memory": {Driver: config.DriverMemory},
		"file":   {Driver: config.DriverFile, Path: filepath.Join(t.TempDir(), "flows")},
		"sqlite": {Driver: config.DriverSQLite, Path: ":memory:"},
		"redis":  {Driver: config.DriverRedis, Redis: mr.Addr(), Prefix: "test:flow:"},
	}
	for name, cfg := range drivers {
		t.Run(name, func(t *testing.T) {
			b, err := OpenBackend(cfg)
			require.NoError(t, err)
			defer b.Close()

			tests.FlowStoreContractTest(t, b.Store)
		})
	}

	_, err := OpenBackend(config.Store{Driver: "postgres"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOpenBackend_Middleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	dir := filepath.Join(t.TempDir(), "flows")

	b, err := OpenBackend(config.Store{
		Driver:        config.DriverFile,
		Path:          dir,
		EncryptionKey: key,
		Redact:        []string{"^destination$"},
	})
	require.NoError(t, err)
	defer b.Close()

	g := dsl.New()
	g.Add("T1").Transfer("+15551234")
	cfg := config.Default()
	mgr := NewManager(b, cfg, logging.NewNop(), nilHooks())
	rec, err := mgr.Create(context.Background(), "secret", "", g.MustBuild())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, rec.ID+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "+15551234")

	flow, err := mgr.Load(context.Background(), rec.ID)
	require.NoError(t, err)
	n, _ := flow.Graph.Node("T1")
	assert.Equal(t, "***", n.Config.(domain.TransferConfig).Destination)

	_, err = OpenBackend(config.Store{Driver: config.DriverMemory, EncryptionKey: "c2hvcnQ="})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewManager(t *testing.T) {
	b, err := OpenBackend(config.Store{Driver: config.DriverMemory})
	require.NoError(t, err)

	cfg := config.Default()
	logger, err := CreateLogger(cfg, false)
	require.NoError(t, err)

	b2 := dsl.New()
	b2.Add("H1").Hangup()
	mgr := NewManager(b, cfg, logger, nilHooks())
	rec, err := mgr.Create(context.Background(), "bye", "", b2.MustBuild())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.Version)
}

func TestLoadGraph(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("Hi").Go("H1")
	b.Add("H1").Hangup()
	g := b.MustBuild()

	dir := t.TempDir()
	js, err := codec.MarshalJSON(g)
	require.NoError(t, err)
	yml, err := codec.MarshalYAML(g)
	require.NoError(t, err)

	paths := map[string][]byte{
		"flow.json": js,
		"flow.yaml": yml,
		"flow.ivr":  yml,
	}
	for name, data := range paths {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		loaded, err := LoadGraph(path, nil)
		require.NoError(t, err, name)
		assert.Len(t, loaded.Nodes(), 2)
	}

	loaded, err := LoadGraph("-", strings.NewReader(string(js)))
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes(), 2)

	_, err = LoadGraph(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)
}

func TestCreateLogger_BadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, err := CreateLogger(cfg, false)
	assert.Error(t, err)
}
