package contracts

import (
	"context"

	"github.com/meysamhadeli/dappai/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, systemPrompt string, messages []models.Message) <-chan models.StreamResponse
}
