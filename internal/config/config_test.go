package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logger.Level)
	assert.Equal(t, "en", cfg.Base())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rdapschema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
  jsonFormat: true
language: ja-JP
datasets: [bundle.yaml]
maxDepth: 64
`), 0o644))

	t.Setenv(EnvRuleSetDir, "/etc/rdap/rulesets")
	t.Setenv(EnvMaxDepth, "32")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSONFormat)
	assert.Equal(t, "ja", cfg.Base())
	assert.Equal(t, []string{"bundle.yaml"}, cfg.Datasets)
	assert.Equal(t, "/etc/rdap/rulesets", cfg.RuleSetDir)
	assert.Equal(t, 32, cfg.MaxDepth)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger: {level: loud}\nlanguage: \"!!\"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")

	t.Setenv(EnvMaxDepth, "deep")
	_, err = Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
