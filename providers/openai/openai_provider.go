package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/models"
	openai_models "github.com/meysamhadeli/dappai/providers/openai/models"
	contracts2 "github.com/meysamhadeli/dappai/token_management/contracts"
)

// OpenAIConfig implements the Provider interface for OpenAI-compatible chat APIs.
type OpenAIConfig struct {
	Provider        string
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	ApiKey          string
	ApiVersion      string
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

var defaultBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"grok":       "https://api.x.ai/v1",
}

// NewOpenAIChatProvider initializes a new OpenAI-compatible provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	provider := *config
	provider.Provider = strings.ToLower(provider.Provider)
	if provider.Provider == "" {
		provider.Provider = "openai"
	}
	if provider.BaseURL == "" {
		provider.BaseURL = defaultBaseURLs[provider.Provider]
	}
	provider.BaseURL = strings.TrimSuffix(provider.BaseURL, "/")
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	return &provider
}

func (openAIProvider *OpenAIConfig) endpoint() string {
	if openAIProvider.Provider == "azure-openai" {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			openAIProvider.BaseURL, openAIProvider.Model, openAIProvider.ApiVersion)
	}
	return openAIProvider.BaseURL + "/chat/completions"
}

func (openAIProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, systemPrompt string, messages []models.Message) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		fail := func(err error) {
			models.Emit(ctx, responseChan, models.StreamResponse{Err: err})
		}

		reqMessages := make([]openai_models.Message, 0, len(messages)+1)
		reqMessages = append(reqMessages, openai_models.Message{Role: models.RoleSystem, Content: systemPrompt})
		for _, m := range messages {
			reqMessages = append(reqMessages, openai_models.Message{Role: m.Role, Content: m.Content})
		}

		reqBody := openai_models.OpenAIChatCompletionRequest{
			Model:         openAIProvider.Model,
			Messages:      reqMessages,
			Stream:        true,
			StreamOptions: &openai_models.StreamOptions{IncludeUsage: true},
			Temperature:   openAIProvider.Temperature,
			MaxTokens:     openAIProvider.MaxTokens,
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			fail(fmt.Errorf("error marshalling request body: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIProvider.endpoint(), bytes.NewBuffer(jsonData))
		if err != nil {
			fail(fmt.Errorf("error creating request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		if openAIProvider.Provider == "azure-openai" {
			req.Header.Set("api-key", openAIProvider.ApiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+openAIProvider.ApiKey)
		}

		resp, err := openAIProvider.HTTPClient.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				fail(fmt.Errorf("request canceled: %w", err))
				return
			}
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
				fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body))))
				return
			}
			fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}

			var chunk openai_models.OpenAIChatCompletionResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				fail(fmt.Errorf("error unmarshalling chunk: %w", err))
				return
			}

			if chunk.Usage != nil && openAIProvider.TokenManagement != nil {
				openAIProvider.TokenManagement.UsedTokens(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !models.Emit(ctx, responseChan, models.StreamResponse{Content: choice.Delta.Content}) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading stream: %w", err))
			return
		}

		models.Emit(ctx, responseChan, models.StreamResponse{Done: true})
	}()

	return responseChan
}
