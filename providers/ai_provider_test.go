package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/providers/models"
)

func stream(chunks ...models.StreamResponse) <-chan models.StreamResponse {
	ch := make(chan models.StreamResponse, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestCollectJoinsChunks(t *testing.T) {
	reply, err := Collect(context.Background(), stream(
		models.StreamResponse{Content: "[{\"path\":"},
		models.StreamResponse{Content: " \"a.sol\"}]"},
		models.StreamResponse{Done: true},
	))
	require.NoError(t, err)
	assert.Equal(t, "[{\"path\": \"a.sol\"}]", reply)
}

func TestCollectReportsTransientError(t *testing.T) {
	_, err := Collect(context.Background(), stream(
		models.StreamResponse{Content: "partial"},
		models.StreamResponse{Err: errors.New("connection reset")},
	))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.Transient))
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, make(chan models.StreamResponse))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatProviderFactory(t *testing.T) {
	_, err := ChatProviderFactory(&AIProviderConfig{Provider: "openai", Model: "gpt-4o"}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.Setup))

	_, err = ChatProviderFactory(&AIProviderConfig{Provider: "nope", Model: "x", ApiKey: "k"}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.Setup))

	for _, name := range SupportedProviders {
		provider, err := ChatProviderFactory(&AIProviderConfig{Provider: name, Model: "m", ApiKey: "k"}, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, provider, name)
	}
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, (*AIProviderConfig)(nil).IsConfigured())
	assert.False(t, (&AIProviderConfig{Provider: "openai", Model: "gpt-4o"}).IsConfigured())
	assert.True(t, (&AIProviderConfig{Provider: "openai", Model: "gpt-4o", ApiKey: "k"}).IsConfigured())
	assert.True(t, (&AIProviderConfig{Provider: "ollama", Model: "llama3.1"}).IsConfigured())
}
