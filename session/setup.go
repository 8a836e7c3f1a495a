package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/contracts"
)

// DefaultModels suggests a model per provider during setup.
var DefaultModels = map[string]string{
	"openai":       "gpt-4o",
	"azure-openai": "gpt-4o",
	"deepseek":     "deepseek-chat",
	"openrouter":   "openai/gpt-4o",
	"grok":         "grok-3",
	"anthropic":    "claude-sonnet-4-20250514",
	"gemini":       "gemini-2.0-flash",
	"ollama":       "llama3.1",
}

// resolveProvider builds the chat provider, running the setup flow first when
// the configuration is incomplete. It returns nil, nil when the user declines.
func (c *Controller) resolveProvider(ctx context.Context) (contracts.IChatAIProvider, error) {
	if !c.cfg.AIConfig.IsConfigured() {
		configured, err := c.setupProvider(ctx)
		if err != nil || configured == nil {
			return nil, err
		}
		c.cfg.AIConfig = configured
	}
	return c.cfg.NewProvider(c.cfg.AIConfig)
}

// setupProvider asks for a provider, model and key and saves them to the
// user configuration.
func (c *Controller) setupProvider(ctx context.Context) (*providers.AIProviderConfig, error) {
	fmt.Fprintln(c.out, lipgloss.Yellow.Render("No AI provider is configured yet."))

	proceed, err := c.cfg.Prompter.Confirm(ctx, "Set one up now?", true)
	if err != nil || !proceed {
		return nil, ignoreCancel(err)
	}

	choice, err := c.cfg.Prompter.Select(ctx, "AI provider", providers.SupportedProviders)
	if err != nil {
		return nil, ignoreCancel(err)
	}

	config := &providers.AIProviderConfig{Provider: providers.SupportedProviders[choice]}
	if c.cfg.AIConfig != nil {
		config.Temperature = c.cfg.AIConfig.Temperature
		config.MaxTokens = c.cfg.AIConfig.MaxTokens
	}

	model, err := c.cfg.Prompter.Ask(ctx, fmt.Sprintf("Model [%s]: ", DefaultModels[config.Provider]))
	if err != nil {
		return nil, ignoreCancel(err)
	}
	if model == "" {
		model = DefaultModels[config.Provider]
	}
	config.Model = model

	if config.Provider == "azure-openai" {
		baseURL, err := c.cfg.Prompter.Ask(ctx, "Azure endpoint URL: ")
		if err != nil || baseURL == "" {
			return nil, ignoreCancel(err)
		}
		config.BaseURL = baseURL
	}

	if providers.RequiresAPIKey(config.Provider) {
		key, err := c.cfg.Prompter.Ask(ctx, "API key: ")
		if err != nil || key == "" {
			return nil, ignoreCancel(err)
		}
		config.ApiKey = key
	}

	if c.cfg.SaveAIConfig != nil {
		if err := c.cfg.SaveAIConfig(config); err != nil {
			c.logger.Warn("saving AI configuration failed", zap.Error(err))
			fmt.Fprintln(c.out, lipgloss.Yellow.Render(fmt.Sprintf("Could not save configuration, using it for this session only: %v", err)))
		} else {
			fmt.Fprintln(c.out, lipgloss.Green.Render("✅ AI provider saved"))
		}
	}
	return config, nil
}

func ignoreCancel(err error) error {
	if errors.Is(err, apperrors.ErrCancelled) {
		return nil
	}
	return err
}
