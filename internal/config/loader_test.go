package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "propsage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	ResetConfig()

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDataPath, cfg.DataPath)
	assert.Equal(t, DefaultModelDir, cfg.ModelDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
data_path: listings.csv
model_dir: artifacts
environment: prod
server:
  port: 9000
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	base := filepath.Dir(path)
	assert.Equal(t, filepath.Join(base, "listings.csv"), cfg.DataPath)
	assert.Equal(t, filepath.Join(base, "artifacts"), cfg.ModelDir)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadEnvVarsOverrideFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "environment: prod\n")
	t.Setenv("PROPSAGE_ENVIRONMENT", "staging")
	t.Setenv("PROPSAGE_SERVER__PORT", "8080")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "environment: prod\n")
	t.Setenv("PROPSAGE_ENVIRONMENT", "staging")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("environment", "", "")
	flags.String("state", "", "")
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{
		"--environment=local", "--state=/tmp/runs.db", "--port=9999",
	}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "/tmp/runs.db", cfg.StatePath)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadUnsetFlagsIgnored(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("environment", "flag-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultEnv, cfg.Environment)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
environment: prod
environments:
  prod:
    model_dir: /srv/propsage/models
    state_path: /srv/propsage/state.db
  dev:
    model_dir: dev-models
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/propsage/models", cfg.ModelDir)
	assert.Equal(t, "/srv/propsage/state.db", cfg.StatePath)
}

func TestLoadMalformedFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "environment: [unclosed\n")

	_, err := Load(path, nil)
	assert.Error(t, err)
}
