// Package llm adapts an external text-completion API behind a single
// Complete operation, with per-session model fallback, quota accounting,
// and JSON-response extraction.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// Config is the exhaustive set of LLM Gateway options.
type Config struct {
	Provider                        string // "openai", "gemini", "claude"
	APIKey                          string
	PrimaryModel                    string
	RequestTimeout                  time.Duration
	MaxQuotaExhaustedBeforeCascade  int
	FallbackModels                  []string
	MaxOutputTokens                 int
}

const (
	DefaultRequestTimeout                 = 30 * time.Second
	DefaultMaxQuotaExhaustedBeforeCascade = 10
	DefaultMaxOutputTokens                = 1024
	cascadeCapSize                        = 3
)

// QuotaStatus mirrors dqmodel.QuotaStatus without importing it, so this
// package stays free of a dependency on the domain model; gateway callers
// convert as needed.
type QuotaStatus struct {
	Exhausted           bool
	WorkingModel        string
	Message             string
	EstimatedTokensUsed int
}

// Gateway is the single entrypoint detectors use to talk to an LLM. All
// mutable state (current model, model-status sets, token counter) is
// guarded by mu; Complete is safe to call from multiple goroutines.
type Gateway struct {
	logger *slog.Logger
	prov   provider
	cfg    Config
	enc    *tiktoken.Tiktoken

	mu                  sync.Mutex
	currentModel        string
	failedModels        map[string]bool
	quotaExhaustedModels map[string]bool
	estimatedTokensUsed int
}

// New constructs a Gateway for the configured provider. ctx is used only
// for provider construction calls that need it (Gemini's client setup).
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Gateway, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxQuotaExhaustedBeforeCascade <= 0 {
		cfg.MaxQuotaExhaustedBeforeCascade = DefaultMaxQuotaExhaustedBeforeCascade
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	var p provider
	var err error
	switch cfg.Provider {
	case "openai":
		p = newOpenAIProvider(cfg.APIKey)
	case "gemini":
		p, err = newGeminiProvider(ctx, cfg.APIKey)
	case "claude":
		p = newClaudeProvider(cfg.APIKey)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	enc, encErr := tiktoken.GetEncoding("cl100k_base")
	if encErr != nil {
		enc = nil // token estimation degrades to a rough heuristic, see estimateTokens
	}

	current := cfg.PrimaryModel
	if current == "" && len(p.DefaultModels()) > 0 {
		current = p.DefaultModels()[0]
	}

	return &Gateway{
		logger:               logger,
		prov:                 p,
		cfg:                  cfg,
		enc:                  enc,
		currentModel:         current,
		failedModels:         make(map[string]bool),
		quotaExhaustedModels: make(map[string]bool),
	}, nil
}

// Complete runs the fallback/classification policy over the candidate
// model list and returns the first successful response's text, or "" with
// a nil error when every candidate was exhausted (callers treat empty
// string as "LLM unavailable" and follow their degraded path).
func (g *Gateway) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxOutputTokens
	}
	g.accountTokens(messages)

	candidates := g.candidateModels()
	if len(candidates) == 0 {
		g.logger.Warn("llm gateway: no eligible candidate models remain")
		return "", nil
	}

	for _, model := range candidates {
		reqCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		resp, err := g.prov.Call(reqCtx, providerRequest{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		cancel()

		if err == nil {
			if resp.Text == "" {
				g.logger.Info("llm gateway: empty response, trying next candidate", "model", model)
				continue
			}
			g.stickyUpdate(model)
			return resp.Text, nil
		}

		switch ClassifyError(resp.StatusCode, err) {
		case DispositionQuotaExhausted:
			g.markQuotaExhausted(model)
			g.logger.Info("llm gateway: model quota exhausted, trying next", "model", model)
		case DispositionPermanentFail:
			g.markFailed(model)
			g.logger.Warn("llm gateway: model permanently failed, trying next", "model", model, "error", err)
		default:
			g.logger.Info("llm gateway: transient error, trying next candidate", "model", model, "error", err)
		}
	}

	g.logger.Warn("llm gateway: all candidate models exhausted for this call")
	return "", nil
}

// candidateModels builds candidates = [current] + fallback \ failed \
// quota_exhausted, order-preserving, then applies the cascade cap.
func (g *Gateway) candidateModels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	fallback := g.cfg.FallbackModels
	if len(fallback) == 0 {
		fallback = g.prov.DefaultModels()
	}

	seen := make(map[string]bool)
	var ordered []string
	if g.currentModel != "" {
		ordered = append(ordered, g.currentModel)
		seen[g.currentModel] = true
	}
	for _, m := range fallback {
		if !seen[m] {
			ordered = append(ordered, m)
			seen[m] = true
		}
	}

	var eligible []string
	for _, m := range ordered {
		if g.failedModels[m] || g.quotaExhaustedModels[m] {
			continue
		}
		eligible = append(eligible, m)
	}

	if len(g.quotaExhaustedModels) >= g.cfg.MaxQuotaExhaustedBeforeCascade && len(eligible) > cascadeCapSize {
		eligible = eligible[:cascadeCapSize]
	}
	return eligible
}

func (g *Gateway) stickyUpdate(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentModel = model
}

func (g *Gateway) markQuotaExhausted(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quotaExhaustedModels[model] = true
}

func (g *Gateway) markFailed(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failedModels[model] = true
}

func (g *Gateway) accountTokens(messages []Message) {
	n := g.estimateTokens(messages)
	g.mu.Lock()
	g.estimatedTokensUsed += n
	g.mu.Unlock()
}

// estimateTokens is advisory only (§4.3.2): it never blocks a call and
// only feeds QuotaStatus.EstimatedTokensUsed. It is not compared against
// maxTokens, so an oversized prompt is still sent.
func (g *Gateway) estimateTokens(messages []Message) int {
	var total int
	for _, m := range messages {
		if g.enc != nil {
			total += len(g.enc.Encode(m.Content, nil, nil))
			continue
		}
		total += len(m.Content) / 4 // rough fallback: ~4 chars/token
	}
	return total
}

// Status returns the current QuotaStatus for attachment to a run summary.
func (g *Gateway) Status() QuotaStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	exhausted := len(g.quotaExhaustedModels) >= g.cfg.MaxQuotaExhaustedBeforeCascade
	msg := ""
	if exhausted {
		msg = "AI limited: most candidate models are quota-exhausted this session"
	}
	return QuotaStatus{
		Exhausted:           exhausted,
		WorkingModel:        g.currentModel,
		Message:             msg,
		EstimatedTokensUsed: g.estimatedTokensUsed,
	}
}
