package llm

import "context"

// Completer is the narrow interface detector agents depend on, so tests
// can supply a stub without constructing a real Gateway. *Gateway
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}
