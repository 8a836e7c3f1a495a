package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/models"
	contracts2 "github.com/meysamhadeli/dappai/token_management/contracts"
)

const defaultModel = "gemini-2.0-flash"

// GeminiConfig implements the Provider interface on top of the genai SDK.
type GeminiConfig struct {
	Model           string
	Temperature     *float32
	MaxTokens       int
	ApiKey          string
	TokenManagement contracts2.ITokenManagement

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewGeminiProvider initializes a new Gemini provider. The SDK client is
// created lazily on the first request.
func NewGeminiProvider(config *GeminiConfig) contracts.IChatAIProvider {
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	return &GeminiConfig{
		Model:           model,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		ApiKey:          config.ApiKey,
		TokenManagement: config.TokenManagement,
	}
}

func (geminiProvider *GeminiConfig) getClient(ctx context.Context) (*genai.Client, error) {
	geminiProvider.once.Do(func() {
		geminiProvider.client, geminiProvider.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  geminiProvider.ApiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return geminiProvider.client, geminiProvider.clientErr
}

// toContents maps conversation roles onto Gemini's user/model roles.
func toContents(messages []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case models.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}

func (geminiProvider *GeminiConfig) ChatCompletionRequest(ctx context.Context, systemPrompt string, messages []models.Message) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		client, err := geminiProvider.getClient(ctx)
		if err != nil {
			models.Emit(ctx, responseChan, models.StreamResponse{Err: fmt.Errorf("failed to create Gemini client: %w", err)})
			return
		}

		config := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       geminiProvider.Temperature,
		}
		if geminiProvider.MaxTokens > 0 {
			config.MaxOutputTokens = int32(geminiProvider.MaxTokens)
		}

		resp, err := client.Models.GenerateContent(ctx, geminiProvider.Model, toContents(messages), config)
		if err != nil {
			models.Emit(ctx, responseChan, models.StreamResponse{Err: fmt.Errorf("gemini request failed: %w", err)})
			return
		}

		if resp.UsageMetadata != nil && geminiProvider.TokenManagement != nil {
			geminiProvider.TokenManagement.UsedTokens(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
		}

		if !models.Emit(ctx, responseChan, models.StreamResponse{Content: resp.Text()}) {
			return
		}
		models.Emit(ctx, responseChan, models.StreamResponse{Done: true})
	}()

	return responseChan
}
