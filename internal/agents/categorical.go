package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Categorical fixes typos and variations within a low-cardinality column by
// fuzzy-matching against that column's dominant values, grounded in
// original_source/backend/agents/categorical.py.
type Categorical struct{}

func (Categorical) Name() string { return string(dqmodel.CategoryCategorical) }

const (
	categoricalMaxUnique     = 50
	categoricalSample        = 1000
	categoricalMinThreshold  = 2
	categoricalFreqThreshold = 0.02
	categoricalFuzzyCutoff   = 0.6
)

func (Categorical) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	var issues []dqmodel.Issue
	for _, col := range categoricalColumns(rows) {
		allowed := allowedValues(rows, col)
		if len(allowed) < 2 {
			continue
		}
		allowedLower := make(map[string]bool, len(allowed))
		for _, v := range allowed {
			allowedLower[strings.ToLower(v)] = true
		}

		for rowID, row := range rows {
			value := strings.TrimSpace(row[col])
			if value == "" || allowedLower[strings.ToLower(value)] {
				continue
			}

			if match, confidence, ok := normalize.FuzzyMatch(value, allowed, categoricalFuzzyCutoff); ok {
				if match != value {
					issues = append(issues, dqmodel.Issue{
						ID:             newIssueID(dqmodel.CategoryCategorical, dqmodel.IssueFuzzyMapping, intPtr(rowID), col),
						RowID:          intPtr(rowID),
						Column:         col,
						Category:       dqmodel.CategoryCategorical,
						IssueType:      dqmodel.IssueFuzzyMapping,
						DirtyValue:     value,
						SuggestedValue: match,
						Confidence:     confidence,
						Explanation:    fmt.Sprintf("typo/variation detected: %q should be %q", value, match),
						WhyAgentic:     "fixes typos and variations without a manual lookup table",
					})
				}
				continue
			}

			if gw == nil {
				continue
			}
			if issue, ok := llmMapCategory(ctx, gw, rowID, col, value, allowed); ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues, nil
}

func categoricalColumns(rows []dqmodel.Row) []string {
	all := allColumnNames(rows, nil)
	sampleEnd := len(rows)
	if sampleEnd > categoricalSample {
		sampleEnd = categoricalSample
	}

	var cols []string
	for _, col := range all {
		unique := map[string]bool{}
		for _, row := range rows[:sampleEnd] {
			v := strings.TrimSpace(row[col])
			if v != "" {
				unique[strings.ToLower(v)] = true
			}
		}
		if len(unique) > 1 && len(unique) < categoricalMaxUnique {
			cols = append(cols, col)
		}
	}
	return cols
}

func allowedValues(rows []dqmodel.Row, col string) []string {
	counts := map[string]int{}
	var order []string
	total := 0
	for _, row := range rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
		total++
	}

	threshold := float64(categoricalMinThreshold)
	if scaled := float64(total) * categoricalFreqThreshold; scaled > threshold {
		threshold = scaled
	}

	sort.Slice(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	var allowed []string
	for _, v := range order {
		if float64(counts[v]) >= threshold {
			allowed = append(allowed, v)
		}
	}
	return allowed
}

func llmMapCategory(ctx context.Context, gw llm.Completer, rowID int, col, value string, allowed []string) (dqmodel.Issue, bool) {
	prompt := fmt.Sprintf(`Map this value to one of the allowed categories: %q. `+
		`Allowed categories: %s. `+
		`Respond with JSON: {"mapped": "category_name", "confidence": 0.0-1.0, "explanation": "..."}`,
		value, strings.Join(allowed, ", "))
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a categorical mapping assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return dqmodel.Issue{}, false
	}
	var out struct {
		Mapped      string  `json:"mapped"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Mapped == "" {
		return dqmodel.Issue{}, false
	}
	found := false
	for _, a := range allowed {
		if a == out.Mapped {
			found = true
			break
		}
	}
	if !found {
		return dqmodel.Issue{}, false
	}
	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}
	explanation := out.Explanation
	if explanation == "" {
		explanation = "model-mapped category"
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryCategorical, dqmodel.IssueFuzzyMapping, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryCategorical,
		IssueType:      dqmodel.IssueFuzzyMapping,
		DirtyValue:     value,
		SuggestedValue: out.Mapped,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     "understands context to map variations the fuzzy matcher scores too low",
	}, true
}
