package agents

import (
	"context"
	"strings"

	"github.com/dqrepair/pipeline/internal/llm"
)

// stubCompleter returns canned JSON responses. responses are consulted in
// order; the first whose substr is contained in the user prompt is used.
type stubCompleter struct {
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	substr string
	json   string
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error) {
	s.calls++
	var prompt string
	for _, m := range messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	for _, r := range s.responses {
		if r.substr == "" || strings.Contains(prompt, r.substr) {
			return r.json, nil
		}
	}
	return "", nil
}
