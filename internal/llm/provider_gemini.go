package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiProvider drives generateContent calls for the Gemini family. The
// fallback list below is the full 14-entry cascade the original model
// router walked through before giving up, carried over verbatim so the
// gateway's cascade-cap behavior has something realistic to cap.
type geminiProvider struct {
	client *genai.Client
}

func newGeminiProvider(ctx context.Context, apiKey string) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &geminiProvider{client: client}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) DefaultModels() []string {
	return []string{
		"gemini-2.0-flash-exp",
		"gemini-2.0-flash",
		"gemini-1.5-flash",
		"gemini-1.5-flash-8b",
		"gemini-1.5-flash-latest",
		"gemini-1.5-flash-001",
		"gemini-1.5-flash-002",
		"gemini-1.5-pro",
		"gemini-1.5-pro-latest",
		"gemini-1.5-pro-001",
		"gemini-1.5-pro-002",
		"gemini-1.0-pro",
		"gemini-1.0-pro-latest",
		"gemini-pro",
	}
}

func (p *geminiProvider) Call(ctx context.Context, req providerRequest) (providerResponse, error) {
	var sb strings.Builder
	for _, m := range req.Messages {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(sb.String()), cfg)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota") {
			return providerResponse{StatusCode: 429}, fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		if strings.Contains(msg, "not found") {
			return providerResponse{StatusCode: 404}, fmt.Errorf("%w: %v", ErrModelNotFound, err)
		}
		return providerResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text := resp.Text()
	if text == "" {
		return providerResponse{}, ErrEmptyResponse
	}
	return providerResponse{Text: text}, nil
}
