package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Server.HTTPPort)
	assert.Equal(t, 10, cfg.Window.MaxMessages)
	assert.Equal(t, 3, cfg.Warming.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  http_port: 9100
window:
  max_messages: 25
warming:
  concurrency: 8
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, 25, cfg.Window.MaxMessages)
	assert.Equal(t, 8, cfg.Warming.Concurrency)
	// Untouched sections keep defaults.
	assert.Equal(t, "cj", cfg.Agent.Name)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	path := writeTempConfig(t, "server:\n  http_port: 9100\n")
	t.Setenv("AGENTSIM_HTTP_PORT", "9200")
	t.Setenv("AGENTSIM_WINDOW_MAX_MESSAGES", "4")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.HTTPPort)
	assert.Equal(t, 4, cfg.Window.MaxMessages)
}

func TestLoader_MissingFileFails(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warming.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Window.MaxMessages = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.HTTPPort = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadWindowConfig_NeverFails(t *testing.T) {
	// Missing path: defaults.
	win := LoadWindowConfig("")
	assert.Equal(t, 10, win.MaxMessages)

	// Nonexistent file: defaults.
	win = LoadWindowConfig("/nonexistent/config.yaml")
	assert.Equal(t, 10, win.MaxMessages)

	// Malformed YAML: defaults.
	path := writeTempConfig(t, "window: [not a mapping")
	win = LoadWindowConfig(path)
	assert.Equal(t, 10, win.MaxMessages)

	// Nonsense value: defaults.
	path = writeTempConfig(t, "window:\n  max_messages: -3\n")
	win = LoadWindowConfig(path)
	assert.Equal(t, 10, win.MaxMessages)

	// Valid value: honored.
	path = writeTempConfig(t, "window:\n  max_messages: 7\n")
	win = LoadWindowConfig(path)
	assert.Equal(t, 7, win.MaxMessages)
}
