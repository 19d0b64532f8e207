package llm

import "context"

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// providerRequest is what the gateway hands a provider adapter for a
// single attempt against one candidate model.
type providerRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// providerResponse is what a provider adapter hands back to the gateway.
type providerResponse struct {
	Text       string
	StatusCode int // 0 when the transport never produced an HTTP status
}

// provider is implemented once per LLM family (OpenAI, Gemini, Anthropic).
// The gateway never branches on provider identity; it only drives the
// fallback/classification policy and delegates one call at a time here.
type provider interface {
	Name() string
	DefaultModels() []string
	Call(ctx context.Context, req providerRequest) (providerResponse, error)
}
