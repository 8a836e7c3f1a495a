package ollama

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
	ollama_models "github.com/meysamhadeli/dappai/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/dappai/token_management/contracts"
)

// OllamaConfig implements the Provider interface for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
)

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaConfig{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		Model:           config.Model,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		TokenManagement: config.TokenManagement,
		HTTPClient:      httpClient,
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, systemPrompt string, messages []models.Message) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		fail := func(err error) {
			models.Emit(ctx, responseChan, models.StreamResponse{Err: err})
		}

		reqMessages := make([]ollama_models.Message, 0, len(messages)+1)
		reqMessages = append(reqMessages, ollama_models.Message{Role: models.RoleSystem, Content: systemPrompt})
		for _, m := range messages {
			reqMessages = append(reqMessages, ollama_models.Message{Role: m.Role, Content: m.Content})
		}

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:    ollamaProvider.Model,
			Messages: reqMessages,
			Stream:   true,
		}
		if ollamaProvider.Temperature != nil || ollamaProvider.MaxTokens > 0 {
			reqBody.Options = &ollama_models.Options{
				Temperature: ollamaProvider.Temperature,
				NumPredict:  ollamaProvider.MaxTokens,
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			fail(fmt.Errorf("error marshalling request body: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			fail(fmt.Errorf("error creating request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.HTTPClient.Do(req)
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
			var apiError struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
				fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body))))
				return
			}
			fail(fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error))
			return
		}

		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if strings.TrimSpace(line) != "" {
				var response ollama_models.OllamaChatCompletionResponse
				if err := json.Unmarshal([]byte(line), &response); err != nil {
					fail(fmt.Errorf("error unmarshalling chunk: %w", err))
					return
				}
				if response.Error != "" {
					fail(errors.New(response.Error))
					return
				}

				if response.Message.Content != "" {
					if !models.Emit(ctx, responseChan, models.StreamResponse{Content: response.Message.Content}) {
						return
					}
				}

				if response.Done {
					if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}
					models.Emit(ctx, responseChan, models.StreamResponse{Done: true})
					return
				}
			}

			if err != nil {
				if err == io.EOF {
					models.Emit(ctx, responseChan, models.StreamResponse{Done: true})
					return
				}
				fail(fmt.Errorf("error reading stream: %w", err))
				return
			}
		}
	}()

	return responseChan
}
