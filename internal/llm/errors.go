package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable means the underlying provider could not be reached
	// (network error, 5xx, timeout).
	ErrUnavailable = errors.New("llm_unavailable")
	// ErrQuotaExhausted means the model rejected the call for quota/rate
	// reasons (429, RESOURCE_EXHAUSTED, or a "quota"/"rate_limit" message).
	ErrQuotaExhausted = errors.New("llm_quota_exhausted")
	// ErrModelNotFound means the model is permanently unusable (404 or a
	// "not found" message) and should never be retried this session.
	ErrModelNotFound = errors.New("llm_model_not_found")
	// ErrEmptyResponse means the provider returned a 2xx with no content.
	ErrEmptyResponse = errors.New("llm_empty_response")
)

// Disposition is what the fallback loop should do with a candidate model
// after a call to it failed.
type Disposition string

const (
	DispositionQuotaExhausted Disposition = "quota_exhausted" // mark and try next
	DispositionPermanentFail  Disposition = "permanent_fail"  // mark and never retry
	DispositionSkip           Disposition = "skip"            // try next, no marking
)

// ClassifyError maps a provider error into a fallback disposition, per the
// substring/status-code rules every provider adapter is expected to honor.
func ClassifyError(statusCode int, err error) Disposition {
	if err == nil {
		return DispositionSkip
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return DispositionQuotaExhausted
	}
	if errors.Is(err, ErrModelNotFound) {
		return DispositionPermanentFail
	}

	msg := strings.ToLower(err.Error())
	switch {
	case statusCode == 429, strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "quota"), strings.Contains(msg, "rate_limit"), strings.Contains(msg, "rate limit"):
		return DispositionQuotaExhausted
	case statusCode == 404, strings.Contains(msg, "not found"):
		return DispositionPermanentFail
	default:
		return DispositionSkip
	}
}

// GatewayError wraps a terminal gateway failure with the model that was
// being attempted, following this codebase's Unwrap-for-errors.Is pattern.
type GatewayError struct {
	Err   error
	Model string
}

func (e *GatewayError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%v (model=%s)", e.Err, e.Model)
	}
	return e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }
