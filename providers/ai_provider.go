package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/providers/anthropic"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/gemini"
	"github.com/meysamhadeli/dappai/providers/models"
	"github.com/meysamhadeli/dappai/providers/ollama"
	"github.com/meysamhadeli/dappai/providers/openai"
	contracts2 "github.com/meysamhadeli/dappai/token_management/contracts"
)

// AIProviderConfig is the ai_provider_config section of the configuration.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider" yaml:"provider"`
	BaseURL     string   `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string   `mapstructure:"model" yaml:"model"`
	Temperature *float32 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	ApiKey      string   `mapstructure:"api_key" yaml:"api_key,omitempty"`
	ApiVersion  string   `mapstructure:"api_version" yaml:"api_version,omitempty"`
	MaxTokens   int      `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
}

// SupportedProviders lists the provider names ChatProviderFactory accepts.
var SupportedProviders = []string{"openai", "azure-openai", "deepseek", "openrouter", "grok", "anthropic", "gemini", "ollama"}

// RequiresAPIKey reports whether the provider cannot work without a key.
func RequiresAPIKey(provider string) bool {
	return strings.ToLower(provider) != "ollama"
}

// IsConfigured reports whether the config is complete enough to send requests.
func (c *AIProviderConfig) IsConfigured() bool {
	if c == nil || c.Provider == "" || c.Model == "" {
		return false
	}
	return !RequiresAPIKey(c.Provider) || c.ApiKey != ""
}

// ChatProviderFactory creates a provider based on the given provider config.
func ChatProviderFactory(config *AIProviderConfig, tokenManagement contracts2.ITokenManagement) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, apperrors.ErrProviderNotConfigured("")
	}
	if RequiresAPIKey(config.Provider) && config.ApiKey == "" {
		return nil, apperrors.ErrProviderNotConfigured(config.Provider)
	}

	switch strings.ToLower(config.Provider) {
	case "openai", "azure-openai", "deepseek", "openrouter", "grok":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			Provider:        config.Provider,
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			ApiKey:          config.ApiKey,
			ApiVersion:      config.ApiVersion,
			TokenManagement: tokenManagement,
		}), nil
	case "anthropic":
		return anthropic.NewAnthropicMessageProvider(&anthropic.AnthropicConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			ApiKey:          config.ApiKey,
			ApiVersion:      config.ApiVersion,
			TokenManagement: tokenManagement,
		}), nil
	case "gemini":
		return gemini.NewGeminiProvider(&gemini.GeminiConfig{
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			ApiKey:          config.ApiKey,
			TokenManagement: tokenManagement,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, apperrors.Newf(apperrors.Setup, "unsupported provider %q", config.Provider).
			WithRemediation("Set ai_provider_config.provider to one of: " + strings.Join(SupportedProviders, ", "))
	}
}

// Collect drains a response stream into a single reply. Any stream error is
// reported as a transient model error.
func Collect(ctx context.Context, stream <-chan models.StreamResponse) (string, error) {
	var reply strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", apperrors.ErrModelRequest(ctx.Err())
		case chunk, ok := <-stream:
			if !ok {
				return reply.String(), nil
			}
			if chunk.Err != nil {
				return "", apperrors.ErrModelRequest(chunk.Err)
			}
			reply.WriteString(chunk.Content)
			if chunk.Done {
				return reply.String(), nil
			}
		}
	}
}

// Send issues one request and returns the complete reply.
func Send(ctx context.Context, provider contracts.IChatAIProvider, systemPrompt string, messages []models.Message) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("no AI provider configured")
	}
	return Collect(ctx, provider.ChatCompletionRequest(ctx, systemPrompt, messages))
}
