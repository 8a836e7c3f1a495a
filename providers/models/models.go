package models

import "context"

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamResponse is one chunk of a model reply. Err and Done are terminal.
type StreamResponse struct {
	Content string
	Err     error
	Done    bool
}

// AIError is the error body shape shared by OpenAI-compatible APIs and Ollama.
type AIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code,omitempty"`
	} `json:"error"`
}

// Emit sends r unless ctx is done first. It reports whether r was delivered.
func Emit(ctx context.Context, ch chan<- StreamResponse, r StreamResponse) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
