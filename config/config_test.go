package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, core.GranularityYear, cfg.Granularity())

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
  read_timeout: 5s
  allowed_origins: ["https://sim.example.go.id"]
database:
  path: /var/lib/honor/honor.db
assignment:
  period_granularity: month
  ceiling_policy: confirm
import:
  default_volume: 2
scheduler:
  interval: 15m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, []string{"https://sim.example.go.id"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/var/lib/honor/honor.db", cfg.Database.Path)
	assert.Equal(t, core.GranularityMonth, cfg.Granularity())
	assert.Equal(t, CeilingConfirm, cfg.Assignment.CeilingPolicy)
	assert.EqualValues(t, 2, cfg.Import.DefaultVolume)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, ":9090", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9090\n")
	t.Setenv("MITRA_PORT", "7000")
	t.Setenv("MITRA_DB", ":memory:")
	t.Setenv("MITRA_CEILING_POLICY", "CONFIRM")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, CeilingConfirm, cfg.Assignment.CeilingPolicy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "server: [unclosed"},
		{name: "bad granularity", body: "assignment:\n  period_granularity: week\n"},
		{name: "bad policy", body: "assignment:\n  ceiling_policy: warn\n"},
		{name: "bad port", body: "server:\n  port: 70000\n"},
		{name: "bad env port", env: map[string]string{"MITRA_PORT": "http"}},
		{name: "zero default volume", body: "import:\n  default_volume: 0\n"},
		{name: "zero scheduler interval", body: "scheduler:\n  interval: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}
