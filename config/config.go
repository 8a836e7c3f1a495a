package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/meysamhadeli/dappai/auth"
	"github.com/meysamhadeli/dappai/logging"
	"github.com/meysamhadeli/dappai/project"
	"github.com/meysamhadeli/dappai/providers"
)

// RepairConfig controls the build-verify-repair loop.
type RepairConfig struct {
	MaxRetries int  `mapstructure:"max_retries" yaml:"max_retries"`
	Auto       bool `mapstructure:"auto" yaml:"auto"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
	Project          project.Settings            `mapstructure:"project"`
	Repair           RepairConfig                `mapstructure:"repair"`
	Logging          logging.Config              `mapstructure:"logging"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version: "0.1.0",
	Theme:   "dracula",
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: "openai",
		Model:    "gpt-4o",
	},
	Project: project.DefaultSettings(),
	Repair: RepairConfig{
		MaxRetries: 3,
	},
	Logging: logging.Config{
		Level: "info",
		File:  logging.DefaultFile,
	},
}

const (
	projectConfigName = "dappai-config"
	userConfigFile    = "config.yaml"
)

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// UserConfigPath is where the inline setup flow stores provider settings.
func UserConfigPath() string {
	return filepath.Join(auth.DefaultDir(), userConfigFile)
}

// LoadConfigs initializes the configuration from defaults, environment, the
// user file, the project file and flags, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()
	if err := load(v, rootCmd, cwd, UserConfigPath()); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if config.AIProviderConfig == nil {
		config.AIProviderConfig = &providers.AIProviderConfig{}
	}
	return &config, nil
}

func load(v *viper.Viper, rootCmd *cobra.Command, cwd, userConfig string) error {
	// Set default values using Viper
	setDefaults(v)

	// Automatically read environment variables
	v.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv(v)

	// The user file holds provider settings shared by every project.
	if _, err := os.Stat(userConfig); err == nil {
		v.SetConfigFile(userConfig)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("error reading %s: %w", userConfig, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else if path := findProjectConfig(cwd); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	// Bind CLI flags to override config values
	if rootCmd != nil {
		bindFlags(v, rootCmd)
	}
	return nil
}

func findProjectConfig(cwd string) string {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(cwd, projectConfigName+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	v.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	v.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	v.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	v.SetDefault("ai_provider_config.api_version", DefaultConfig.AIProviderConfig.ApiVersion)
	v.SetDefault("ai_provider_config.max_tokens", DefaultConfig.AIProviderConfig.MaxTokens)
	v.SetDefault("project.contracts_dir", DefaultConfig.Project.ContractsDir)
	v.SetDefault("project.frontend_dir", DefaultConfig.Project.FrontendDir)
	v.SetDefault("project.deploy_script", DefaultConfig.Project.DeployScript)
	v.SetDefault("project.codegen_command", DefaultConfig.Project.CodegenCommand)
	v.SetDefault("project.rpc_url", DefaultConfig.Project.RPCURL)
	v.SetDefault("project.chain_id", DefaultConfig.Project.ChainID)
	v.SetDefault("repair.max_retries", DefaultConfig.Repair.MaxRetries)
	v.SetDefault("repair.auto", DefaultConfig.Repair.Auto)
	v.SetDefault("logging.level", DefaultConfig.Logging.Level)
	v.SetDefault("logging.file", DefaultConfig.Logging.File)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("theme", "DAPPAI_THEME")
	_ = v.BindEnv("ai_provider_config.provider", "DAPPAI_PROVIDER")
	_ = v.BindEnv("ai_provider_config.base_url", "DAPPAI_BASE_URL")
	_ = v.BindEnv("ai_provider_config.model", "DAPPAI_MODEL")
	_ = v.BindEnv("ai_provider_config.temperature", "DAPPAI_TEMPERATURE")
	_ = v.BindEnv("ai_provider_config.api_key", "DAPPAI_API_KEY")
	_ = v.BindEnv("ai_provider_config.api_version", "DAPPAI_API_VERSION")
	_ = v.BindEnv("project.rpc_url", "DAPPAI_RPC_URL")
	_ = v.BindEnv("logging.level", "DAPPAI_LOG_LEVEL")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	bind := func(key, flag string) {
		// Unchanged flags must not shadow file values with their defaults.
		if f := flags.Lookup(flag); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}
	bind("theme", "theme")
	bind("ai_provider_config.provider", "provider")
	bind("ai_provider_config.base_url", "base_url")
	bind("ai_provider_config.model", "model")
	bind("ai_provider_config.temperature", "temperature")
	bind("ai_provider_config.api_key", "api_key")
	bind("ai_provider_config.api_version", "api_version")
	bind("project.contracts_dir", "contracts_dir")
	bind("project.frontend_dir", "frontend_dir")
	bind("logging.level", "log_level")
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML). Defaults to dappai-config.yaml in the project root.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Syntax highlighting theme for code previews (e.g., 'dracula', 'monokai', 'github').")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The AI provider ("+strings.Join(providers.SupportedProviders, ", ")+").")
	rootCmd.PersistentFlags().String("base_url", "", "Override the provider's base URL.")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The model used for chat completions, such as 'gpt-4o'.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the AI model's creativity (0-1).")
	rootCmd.PersistentFlags().String("api_key", "", "The API key used to authenticate with the AI provider.")
	rootCmd.PersistentFlags().String("api_version", "", "The API version, required by azure-openai.")

	// Project layout
	rootCmd.PersistentFlags().String("contracts_dir", DefaultConfig.Project.ContractsDir, "Foundry workspace directory, relative to the project root.")
	rootCmd.PersistentFlags().String("frontend_dir", DefaultConfig.Project.FrontendDir, "Frontend directory, relative to the project root.")

	rootCmd.PersistentFlags().String("log_level", DefaultConfig.Logging.Level, "Diagnostic log level (debug, info, warn, error).")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// userConfig is the part of the configuration stored in the user file.
type userConfig struct {
	AIProviderConfig *providers.AIProviderConfig `yaml:"ai_provider_config"`
}

// SaveUserConfig writes the provider settings to path, keeping it private
// because it holds the API key.
func SaveUserConfig(path string, aiConfig *providers.AIProviderConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(userConfig{AIProviderConfig: aiConfig})
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
