package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.True(t, cfg.Memory.Enabled)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"llm":{"provider":"openai","model":"gpt-5"},"gateway":{"port":9090}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SWITCHBOARD_LLM_MODEL", "gpt-5-mini")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider, "file value")
	assert.Equal(t, "gpt-5-mini", cfg.LLM.Model, "env wins over file")
	assert.Equal(t, 9090, cfg.Gateway.Port)
	assert.Equal(t, "127.0.0.1", cfg.Gateway.Host, "untouched defaults survive")
}

func TestLoadConfigRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.CRM.APIKey = "k"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "k", loaded.CRM.APIKey)
}

func TestSessionsDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/sb"
	assert.Equal(t, filepath.Join("/tmp/sb", "sessions"), cfg.SessionsDir())
}
