package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// Imputation suggests a contextual fill for missing cells by asking the
// model to reason over the rest of the row, grounded in
// original_source/backend/agents/imputation.py. Unlike the other detectors
// it is a no-op without an LLM: there is no deterministic fallback for
// "guess a plausible value from context".
//
// Columns scopes which columns are eligible for imputation; an empty slice
// means every column is eligible.
type Imputation struct {
	Columns []string
}

func (Imputation) Name() string { return string(dqmodel.CategoryImputation) }

func (i Imputation) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	if gw == nil {
		return nil, nil
	}

	scope := map[string]bool(nil)
	if len(i.Columns) > 0 {
		scope = make(map[string]bool, len(i.Columns))
		for _, c := range i.Columns {
			scope[c] = true
		}
	}

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		for col, value := range row {
			if scope != nil && !scope[col] {
				continue
			}
			if !isNullish(value) {
				continue
			}
			if issue, ok := imputeValue(ctx, gw, rowID, col, row, value); ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues, nil
}

func imputeValue(ctx context.Context, gw llm.Completer, rowID int, missingCol string, row dqmodel.Row, dirty string) (dqmodel.Issue, bool) {
	context := make(map[string]string, len(row))
	for k, v := range row {
		if k == missingCol || isNullish(v) {
			continue
		}
		context[k] = v
	}
	contextJSON, err := json.Marshal(context)
	if err != nil {
		return dqmodel.Issue{}, false
	}

	prompt := fmt.Sprintf(`Given this row data, suggest a value for the missing column %q: %s. `+
		`Respond with JSON: {"imputed": "suggested_value", "confidence": 0.0-1.0, "explanation": "..."}`,
		missingCol, string(contextJSON))
	text, callErr := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a data imputation assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.3, 150)
	if callErr != nil || text == "" {
		return dqmodel.Issue{}, false
	}

	var out struct {
		Imputed     string  `json:"imputed"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || strings.TrimSpace(out.Imputed) == "" {
		return dqmodel.Issue{}, false
	}

	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	explanation := out.Explanation
	if explanation == "" {
		explanation = "context-based imputation"
	}

	dirtyValue := dirty
	if dirtyValue == "" {
		dirtyValue = "NULL"
	}

	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryImputation, dqmodel.IssueContextualFill, intPtr(rowID), missingCol),
		RowID:          intPtr(rowID),
		Column:         missingCol,
		Category:       dqmodel.CategoryImputation,
		IssueType:      dqmodel.IssueContextualFill,
		DirtyValue:     dirtyValue,
		SuggestedValue: out.Imputed,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     "uses the rest of the row's context to guess the missing attribute",
	}, true
}
