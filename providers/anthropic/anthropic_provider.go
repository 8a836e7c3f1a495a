package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	anthropic_models "github.com/meysamhadeli/dappai/providers/anthropic/models"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/models"
	contracts2 "github.com/meysamhadeli/dappai/token_management/contracts"
)

const (
	defaultBaseURL    = "https://api.anthropic.com/v1"
	defaultApiVersion = "2023-06-01"
	defaultMaxTokens  = 8192
)

// AnthropicConfig implements the Provider interface for the Anthropic Messages API.
type AnthropicConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	ApiKey          string
	ApiVersion      string
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

// NewAnthropicMessageProvider initializes a new Anthropic provider. Replies
// are requested whole: a change set is only useful once complete.
func NewAnthropicMessageProvider(config *AnthropicConfig) contracts.IChatAIProvider {
	provider := *config
	if provider.BaseURL == "" {
		provider.BaseURL = defaultBaseURL
	}
	provider.BaseURL = strings.TrimSuffix(provider.BaseURL, "/")
	if provider.ApiVersion == "" {
		provider.ApiVersion = defaultApiVersion
	}
	if provider.MaxTokens <= 0 {
		provider.MaxTokens = defaultMaxTokens
	}
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	return &provider
}

func (anthropicProvider *AnthropicConfig) ChatCompletionRequest(ctx context.Context, systemPrompt string, messages []models.Message) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		fail := func(err error) {
			models.Emit(ctx, responseChan, models.StreamResponse{Err: err})
		}

		reqMessages := make([]anthropic_models.Message, 0, len(messages))
		for _, m := range messages {
			if m.Role == models.RoleSystem {
				continue
			}
			reqMessages = append(reqMessages, anthropic_models.Message{Role: m.Role, Content: m.Content})
		}

		jsonData, err := json.Marshal(anthropic_models.AnthropicMessageRequest{
			Model:       anthropicProvider.Model,
			System:      systemPrompt,
			Messages:    reqMessages,
			MaxTokens:   anthropicProvider.MaxTokens,
			Temperature: anthropicProvider.Temperature,
		})
		if err != nil {
			fail(fmt.Errorf("error marshalling request body: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicProvider.BaseURL+"/messages", bytes.NewBuffer(jsonData))
		if err != nil {
			fail(fmt.Errorf("error creating request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", anthropicProvider.ApiKey)
		req.Header.Set("anthropic-version", anthropicProvider.ApiVersion)

		resp, err := anthropicProvider.HTTPClient.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				fail(fmt.Errorf("request canceled: %w", err))
				return
			}
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			fail(fmt.Errorf("error reading response: %w", err))
			return
		}

		if resp.StatusCode != http.StatusOK {
			var apiError anthropic_models.AnthropicError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
				fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body))))
				return
			}
			fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message))
			return
		}

		var message anthropic_models.AnthropicMessageResponse
		if err := json.Unmarshal(body, &message); err != nil {
			fail(fmt.Errorf("error unmarshalling response: %w", err))
			return
		}

		if anthropicProvider.TokenManagement != nil {
			anthropicProvider.TokenManagement.UsedTokens(message.Usage.InputTokens, message.Usage.OutputTokens)
		}

		var text strings.Builder
		for _, block := range message.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}

		if !models.Emit(ctx, responseChan, models.StreamResponse{Content: text.String()}) {
			return
		}
		models.Emit(ctx, responseChan, models.StreamResponse{Done: true})
	}()

	return responseChan
}
