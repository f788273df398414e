package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(contents), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"9090\"\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Sweep.Interval.Std())
	assert.Equal(t, 33.34, cfg.Weights.Physical)
	require.NoError(t, cfg.ProgressWeights().Validate())
}

func TestLoadParsesDurations(t *testing.T) {
	dir := writeConfig(t, `
sweep:
  interval: 15m
  run_timeout: 2m30s
  dedup_ttl: 48h
  run_on_startup: true
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Sweep.Interval.Std())
	assert.Equal(t, 2*time.Minute+30*time.Second, cfg.Sweep.RunTimeout.Std())
	assert.Equal(t, 48*time.Hour, cfg.Sweep.DedupTTL.Std())
	assert.True(t, cfg.Sweep.RunOnStartup)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := writeConfig(t, "sweep:\n  interval: soon\n")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	dir := writeConfig(t, `
weights:
  timeline: 50
  budget: 30
  physical: 10
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := writeConfig(t, "db:\n  host: base-host\n")
	t.Setenv("DB_HOST", "override-host")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "override-host", cfg.DB.Host)
}
