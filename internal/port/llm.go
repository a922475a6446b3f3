package port

import "context"

// CompletionRequest is a single "complete this prompt, return text" request.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse carries the model's text plus optional token accounting.
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// LLMClient abstracts a language-model completion endpoint. Implementations
// own all transport concerns (timeouts, rate-limit handling, provider
// fallback); callers treat a returned error as "this call failed" and nothing
// more.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
