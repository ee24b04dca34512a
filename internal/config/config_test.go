package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"esparcraft/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.json"))
	assert.Equal(t, 23010, cfg.Port)
	assert.Equal(t, filepath.Join(dir, "servers.json"), cfg.ServersFile)
	assert.Equal(t, 80*time.Millisecond, cfg.DrainInterval())
	assert.Equal(t, 1200*time.Millisecond, cfg.SampleWindow())
	assert.Equal(t, 120*time.Second, cfg.StopTimeout())
	assert.Equal(t, 5000, cfg.LogCap)
	assert.Equal(t, 3000, cfg.LogKeep)

	again, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"port": 9000, "stop_timeout_seconds": 0, "log_cap": 100, "log_keep": 500}`), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.StopTimeout())
	assert.Equal(t, 100, cfg.LogCap)
	assert.Equal(t, 60, cfg.LogKeep)
	assert.Equal(t, "utf-8", cfg.ConsoleEncoding)
}

func TestGetPortEnvOverride(t *testing.T) {
	cfg := &Config{Port: 23010}
	t.Setenv("ESPARCRAFT_PORT", "25000")
	assert.Equal(t, 25000, cfg.GetPort())
	t.Setenv("ESPARCRAFT_PORT", "nope")
	assert.Equal(t, 23010, cfg.GetPort())
}

func TestIsDev(t *testing.T) {
	t.Setenv("ESPARCRAFT_DEV", "true")
	assert.True(t, IsDev())
	t.Setenv("ESPARCRAFT_DEV", "")
	assert.False(t, IsDev())
}

func TestServersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "servers.json")
	f := NewServersFile(path)

	servers, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, servers)

	want := []domain.ServerConfig{
		{ID: "a", Name: "Survival", Jar: "server.jar", RAMMin: 1, RAMMax: 4, Path: "/srv/a", AutoRestart: true},
		{ID: "b", Name: "Creative", Jar: "paper.jar", RAMMin: 2, RAMMax: 2, Path: "/srv/b"},
	}
	require.NoError(t, f.Save(want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"a\"")
	assert.Contains(t, string(data), `"ram_max": 4`)

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = f.Load()
	assert.Error(t, err)
}
