package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/dappai/providers"
)

func loadFrom(t *testing.T, cmd *cobra.Command, cwd, userConfig string) *Config {
	t.Helper()
	v := viper.New()
	require.NoError(t, load(v, cmd, cwd, userConfig))

	var config Config
	require.NoError(t, v.Unmarshal(&config))
	return &config
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	config := loadFrom(t, nil, t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, DefaultConfig.Theme, config.Theme)
	assert.Equal(t, "contracts", config.Project.ContractsDir)
	assert.Equal(t, uint64(31337), config.Project.ChainID)
	assert.Equal(t, 3, config.Repair.MaxRetries)
	assert.Equal(t, "openai", config.AIProviderConfig.Provider)
	assert.False(t, config.AIProviderConfig.IsConfigured())
}

func TestLoad_ProjectFileOverridesUserFile(t *testing.T) {
	cwd := t.TempDir()
	userConfig := filepath.Join(t.TempDir(), "config.yaml")

	writeFile(t, userConfig, `ai_provider_config:
  provider: anthropic
  model: claude-sonnet-4-20250514
  api_key: sk-user
`)
	writeFile(t, filepath.Join(cwd, "dappai-config.yaml"), `ai_provider_config:
  model: claude-3-5-haiku-latest
project:
  contracts_dir: chain
repair:
  max_retries: 5
  auto: true
`)

	config := loadFrom(t, nil, cwd, userConfig)

	assert.Equal(t, "anthropic", config.AIProviderConfig.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", config.AIProviderConfig.Model)
	assert.Equal(t, "sk-user", config.AIProviderConfig.ApiKey)
	assert.Equal(t, "chain", config.Project.ContractsDir)
	assert.Equal(t, "frontend", config.Project.FrontendDir)
	assert.Equal(t, RepairConfig{MaxRetries: 5, Auto: true}, config.Repair)
}

func TestLoad_JSONProjectFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "dappai-config.json"), `{"theme": "monokai", "project": {"chain_id": 1337}}`)

	config := loadFrom(t, nil, cwd, "")

	assert.Equal(t, "monokai", config.Theme)
	assert.Equal(t, uint64(1337), config.Project.ChainID)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "dappai-config.yaml"), "theme: github\n")
	t.Setenv("DAPPAI_MODEL", "gpt-4.1")

	cmd := &cobra.Command{Use: "test"}
	InitFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("theme", "monokai"))

	config := loadFrom(t, cmd, cwd, "")

	assert.Equal(t, "gpt-4.1", config.AIProviderConfig.Model)
	assert.Equal(t, "monokai", config.Theme)
	// Untouched flags keep file and default values.
	assert.Equal(t, "contracts", config.Project.ContractsDir)
}

func TestSaveUserConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".dappai", "config.yaml")
	require.NoError(t, SaveUserConfig(path, &providers.AIProviderConfig{
		Provider: "ollama",
		Model:    "llama3.1",
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	config := loadFrom(t, nil, t.TempDir(), path)
	assert.Equal(t, "ollama", config.AIProviderConfig.Provider)
	assert.Equal(t, "llama3.1", config.AIProviderConfig.Model)
	assert.True(t, config.AIProviderConfig.IsConfigured())
}
