package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// EmailValidation identifies malformed email addresses and proposes a fix,
// grounded in original_source/backend/agents/email_validation.py.
type EmailValidation struct{}

func (EmailValidation) Name() string { return string(dqmodel.CategoryEmailValidation) }

var (
	basicEmailRe    = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[a-z]{2,}$`)
	consecutiveDots = regexp.MustCompile(`\.\.`)
)

func (EmailValidation) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	var issues []dqmodel.Issue
	for _, col := range emailColumns(profiles) {
		domain := profiles[col].MostCommonDomain
		for rowID, row := range rows {
			raw := strings.TrimSpace(row[col])
			if raw == "" || isValidEmail(raw) {
				continue
			}
			issues = append(issues, buildEmailIssue(ctx, gw, rowID, col, raw, domain))
		}
	}
	return issues, nil
}

func emailColumns(profiles map[string]dqmodel.ColumnProfile) []string {
	var cols []string
	for name, p := range profiles {
		if p.InferredType == dqmodel.ColumnEmail || columnNameContainsAny(name, "email", "e-mail", "mail") {
			cols = append(cols, name)
		}
	}
	return cols
}

func isValidEmail(v string) bool {
	if !basicEmailRe.MatchString(v) {
		return false
	}
	if consecutiveDots.MatchString(v) {
		return false
	}
	if strings.Count(v, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(v, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.TrimSpace(v) != v {
		return false
	}
	if local == "" || domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return true
}

func buildEmailIssue(ctx context.Context, gw llm.Completer, rowID int, col, raw, commonDomain string) dqmodel.Issue {
	suggestion, confidence := fixEmail(ctx, gw, raw, commonDomain)
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryEmailValidation, dqmodel.IssueInvalidEmail, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryEmailValidation,
		IssueType:      dqmodel.IssueInvalidEmail,
		DirtyValue:     raw,
		SuggestedValue: suggestion,
		Confidence:     confidence,
		Explanation:    fmt.Sprintf("%q does not look like a valid email address", raw),
		WhyAgentic:     "regex-validated the address against RFC-shaped patterns and asked the model for the most likely intended address",
	}
}

func fixEmail(ctx context.Context, gw llm.Completer, raw, commonDomain string) (string, float64) {
	hadAt := strings.Contains(raw, "@")

	if gw != nil {
		prompt := fmt.Sprintf(
			`Fix this malformed email address: %q. The column's most common domain is %q. `+
				`Respond with JSON: {"fixed_email": "..."}`, raw, commonDomain)
		text, err := gw.Complete(ctx, []llm.Message{
			{Role: "system", Content: "You repair malformed email addresses. Respond with strict JSON only."},
			{Role: "user", Content: prompt},
		}, 0.2, 200)
		if err == nil && text != "" {
			var out struct {
				FixedEmail string `json:"fixed_email"`
			}
			if extractErr := llm.ExtractJSONObject(text, &out); extractErr == nil && out.FixedEmail != "" {
				fixed := out.FixedEmail
				if !hadAt && strings.Contains(fixed, "@") && !strings.HasSuffix(strings.ToLower(fixed), "@gmail.com") {
					// override: a corporate domain guessed for an address
					// that had no '@' at all is not trustworthy.
					fixed = stripAtDomain(raw) + "@gmail.com"
				}
				return fixed, 0.85
			}
		}
	}

	// Deterministic fallback: append @gmail.com. This always produces a
	// fix, so it scores like any other fix-bearing issue (0.85); 0.70 is
	// reserved for a reported issue with no suggested_value.
	if hadAt {
		local, _, _ := strings.Cut(raw, "@")
		return local + "@gmail.com", 0.85
	}
	return raw + "@gmail.com", 0.85
}

func stripAtDomain(v string) string {
	if i := strings.Index(v, "@"); i >= 0 {
		return v[:i]
	}
	return v
}
