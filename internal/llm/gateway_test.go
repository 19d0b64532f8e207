package llm

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

type fakeProvider struct {
	defaultModels []string
	// calls maps model name -> ordered responses to return on successive calls.
	responses map[string][]providerResponse
	errs      map[string][]error
	callLog   []string
}

func (p *fakeProvider) Name() string            { return "fake" }
func (p *fakeProvider) DefaultModels() []string { return p.defaultModels }

func (p *fakeProvider) Call(ctx context.Context, req providerRequest) (providerResponse, error) {
	p.callLog = append(p.callLog, req.Model)
	if errs, ok := p.errs[req.Model]; ok && len(errs) > 0 {
		err := errs[0]
		p.errs[req.Model] = errs[1:]
		if err != nil {
			return providerResponse{}, err
		}
	}
	if resps, ok := p.responses[req.Model]; ok && len(resps) > 0 {
		resp := resps[0]
		p.responses[req.Model] = resps[1:]
		return resp, nil
	}
	return providerResponse{}, nil
}

func testGateway(prov *fakeProvider, cfg Config) *Gateway {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxQuotaExhaustedBeforeCascade <= 0 {
		cfg.MaxQuotaExhaustedBeforeCascade = DefaultMaxQuotaExhaustedBeforeCascade
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	current := cfg.PrimaryModel
	if current == "" && len(prov.DefaultModels()) > 0 {
		current = prov.DefaultModels()[0]
	}
	return &Gateway{
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		prov:                 prov,
		cfg:                  cfg,
		currentModel:         current,
		failedModels:         make(map[string]bool),
		quotaExhaustedModels: make(map[string]bool),
	}
}

func TestGatewayCompleteReturnsFirstSuccess(t *testing.T) {
	prov := &fakeProvider{
		responses: map[string][]providerResponse{
			"gpt-4o": {{Text: "hello"}},
		},
	}
	gw := testGateway(prov, Config{PrimaryModel: "gpt-4o"})
	text, err := gw.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2, 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want hello", text)
	}
}

func TestGatewayCompleteFallsBackOnQuotaExhausted(t *testing.T) {
	prov := &fakeProvider{
		errs: map[string][]error{
			"gpt-4o": {ErrQuotaExhausted},
		},
		responses: map[string][]providerResponse{
			"gpt-4o-mini": {{Text: "fallback response"}},
		},
	}
	gw := testGateway(prov, Config{PrimaryModel: "gpt-4o", FallbackModels: []string{"gpt-4o", "gpt-4o-mini"}})
	text, err := gw.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2, 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "fallback response" {
		t.Errorf("text = %q, want fallback response", text)
	}
	if !gw.quotaExhaustedModels["gpt-4o"] {
		t.Error("expected gpt-4o to be marked quota-exhausted")
	}
}

func TestGatewayCompleteSkipsEmptyResponseAndTriesNext(t *testing.T) {
	prov := &fakeProvider{
		responses: map[string][]providerResponse{
			"gpt-4o":      {{Text: ""}},
			"gpt-4o-mini": {{Text: "second model answered"}},
		},
	}
	gw := testGateway(prov, Config{PrimaryModel: "gpt-4o", FallbackModels: []string{"gpt-4o", "gpt-4o-mini"}})
	text, err := gw.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2, 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "second model answered" {
		t.Errorf("text = %q, want second model answered", text)
	}
}

func TestGatewayCompleteReturnsEmptyWhenAllCandidatesFail(t *testing.T) {
	prov := &fakeProvider{
		errs: map[string][]error{
			"gpt-4o": {ErrModelNotFound},
		},
	}
	gw := testGateway(prov, Config{PrimaryModel: "gpt-4o", FallbackModels: []string{"gpt-4o"}})
	text, err := gw.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2, 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if !gw.failedModels["gpt-4o"] {
		t.Error("expected gpt-4o to be marked permanently failed")
	}
}

func TestGatewayStatusReflectsCascadeThreshold(t *testing.T) {
	prov := &fakeProvider{}
	gw := testGateway(prov, Config{PrimaryModel: "m1", MaxQuotaExhaustedBeforeCascade: 2})
	gw.markQuotaExhausted("m1")
	gw.markQuotaExhausted("m2")
	status := gw.Status()
	if !status.Exhausted {
		t.Error("expected Exhausted=true once quota-exhausted count reaches the threshold")
	}
	if status.Message == "" {
		t.Error("expected a non-empty message when exhausted")
	}
}

func TestGatewayStickyUpdateKeepsLastWorkingModelFirst(t *testing.T) {
	prov := &fakeProvider{
		responses: map[string][]providerResponse{
			"m2": {{Text: "ok"}},
		},
	}
	gw := testGateway(prov, Config{PrimaryModel: "m1", FallbackModels: []string{"m1", "m2"}})
	gw.markFailed("m1")
	if _, err := gw.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2, 100); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	candidates := gw.candidateModels()
	if len(candidates) == 0 || candidates[0] != "m2" {
		t.Errorf("candidateModels()[0] = %v, want m2 as the new sticky current model", candidates)
	}
}
