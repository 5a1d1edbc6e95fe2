package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ivrflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log_level: debug
dead_branch: hangup
server:
  addr: ":9090"
  metrics: false
  lock_ttl: 10s
store:
  driver: sqlite
  path: flows.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "hangup", cfg.DeadBranch)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.False(t, cfg.Server.Metrics)
	assert.Equal(t, 10*time.Second, cfg.Server.LockTTL)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "flows.db", cfg.Store.Path)
	assert.Equal(t, 8081, cfg.Server.MCPPort, "unset fields keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "store:\n  driver: file\n  path: ./flows\n")
	t.Setenv("IVRFLOW_STORE", "redis")
	t.Setenv("IVRFLOW_REDIS_ADDR", "localhost:6379")
	t.Setenv("IVRFLOW_STORE_TTL", "1h")
	t.Setenv("IVRFLOW_METRICS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.False(t, cfg.Server.Metrics)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{name: "unknown driver", content: "store:\n  driver: postgres\n", want: "Config.Store.Driver"},
		{name: "file without path", content: "store:\n  driver: file\n", want: "Config.Store.Path"},
		{name: "redis without addr", content: "store:\n  driver: redis\n", want: "Config.Store.Redis"},
		{name: "bad policy", content: "dead_branch: ignore\n", want: "Config.DeadBranch"},
		{name: "bad level", content: "log_level: loud\n", want: "Config.LogLevel"},
		{name: "malformed yaml", content: "server: [\n", want: "ivrflow.yaml"},
		{name: "bad key", content: "store:\n  encryption_key: \"not base64!\"\n", want: "Config.Store.EncryptionKey"},
		{name: "bad env bool", content: "", env: map[string]string{"IVRFLOW_METRICS": "maybe"}, want: "IVRFLOW_METRICS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
