package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeProvider drives messages-API calls for the Anthropic family.
type claudeProvider struct {
	client anthropic.Client
}

func newClaudeProvider(apiKey string) *claudeProvider {
	return &claudeProvider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) DefaultModels() []string {
	return []string{"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest", "claude-3-opus-latest"}
}

func (p *claudeProvider) Call(ctx context.Context, req providerRequest) (providerResponse, error) {
	var system string
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  msgs,
	})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "overloaded_error") || strings.Contains(msg, "rate_limit") || strings.Contains(msg, "quota") {
			return providerResponse{StatusCode: 429}, fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		if strings.Contains(msg, "not_found_error") {
			return providerResponse{StatusCode: 404}, fmt.Errorf("%w: %v", ErrModelNotFound, err)
		}
		return providerResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Content) == 0 {
		return providerResponse{}, ErrEmptyResponse
	}
	return providerResponse{Text: resp.Content[0].Text}, nil
}
