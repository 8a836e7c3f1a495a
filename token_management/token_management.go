package token_management

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/embed_data"
	"github.com/meysamhadeli/dappai/token_management/contracts"
)

// TokenManager implementation
type tokenManager struct {
	mu              sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type details struct {
	MaxTokens                      int     `json:"max_tokens"`
	MaxInputTokens                 int     `json:"max_input_tokens"`
	MaxOutputTokens                int     `json:"max_output_tokens"`
	InputCostPerMillionTokens      float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens     float64 `json:"output_cost_per_million_tokens,omitempty"`
	CacheReadInputMillionTokenCost float64 `json:"cache_read_input_million_token_cost,omitempty"`
	Mode                           string  `json:"mode"`
	SupportsFunctionCalling        bool    `json:"supports_function_calling,omitempty"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	priceTableOnce sync.Once
	priceTable     Models
	priceTableErr  error
)

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(w io.Writer, chatProviderName string, chatModel string) {
	total, input, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)

	tokenInfo := fmt.Sprintf("Token Used: %d (in %d / out %d) - Cost: %.6f $ - Chat Model: %s", total, input, output, cost, chatModel)
	fmt.Fprintln(w, lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}
	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	providerName = strings.ToLower(providerName)
	modelName = strings.ToLower(modelName)

	if strings.HasPrefix(providerName, "azure") {
		modelName = "azure/" + modelName
	}

	priceTableOnce.Do(func() {
		priceTable = Models{ModelDetails: make(map[string]details)}
		priceTableErr = json.Unmarshal(embed_data.ModelDetails, &priceTable)
	})
	if priceTableErr != nil {
		return details{}, priceTableErr
	}

	model, exists := priceTable.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, providerName)
	}

	return model, nil
}
