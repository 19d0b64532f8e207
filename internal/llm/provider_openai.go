package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openAIProvider drives chat-completions calls for the OpenAI family.
type openAIProvider struct {
	client openai.Client
}

func newOpenAIProvider(apiKey string) *openAIProvider {
	return &openAIProvider{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) DefaultModels() []string {
	return []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo"}
}

func (p *openAIProvider) Call(ctx context.Context, req providerRequest) (providerResponse, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:         openai.Float(req.Temperature),
	})
	if err != nil {
		status := 0
		if apiErr, ok := err.(*openai.Error); ok {
			status = apiErr.StatusCode
		}
		return providerResponse{StatusCode: status}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return providerResponse{}, ErrEmptyResponse
	}
	return providerResponse{Text: resp.Choices[0].Message.Content}, nil
}
