package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Units detects and standardizes measurement columns carrying mixed units
// (e.g. "5 ft 8 in" alongside "173 cm"), grounded in
// original_source/backend/agents/units.py.
type Units struct{}

func (Units) Name() string { return string(dqmodel.CategoryUnits) }

const unitSampleSize = 1000

func (Units) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	cols := measurementColumns(allColumnNames(rows, nil))
	if len(cols) == 0 {
		return nil, nil
	}

	canonical := canonicalUnits(rows, cols)

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		for _, col := range cols {
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}
			num, unit, confidence, ok := normalize.ParseUnit(value)
			target := canonical[col]
			if ok {
				if unit == target {
					continue
				}
				converted, convOK := normalize.ConvertUnit(num, unit, target)
				if !convOK {
					continue
				}
				suggested := normalize.FormatUnit(converted, target)
				issues = append(issues, dqmodel.Issue{
					ID:             newIssueID(dqmodel.CategoryUnits, dqmodel.IssueScaleMismatch, intPtr(rowID), col),
					RowID:          intPtr(rowID),
					Column:         col,
					Category:       dqmodel.CategoryUnits,
					IssueType:      dqmodel.IssueScaleMismatch,
					DirtyValue:     value,
					SuggestedValue: suggested,
					Confidence:     confidence,
					Explanation:    fmt.Sprintf("unit mismatch: %q uses %s; standardizing to %s (most common unit in this column)", value, unitLabel(unit), target),
					WhyAgentic:     "analyzes every value in the column to find the most common unit, then standardizes all values to it",
				})
				continue
			}

			if gw == nil {
				continue
			}
			if issue, llmOK := llmNormalizeUnit(ctx, gw, rowID, col, value); llmOK {
				issues = append(issues, issue)
			}
		}
	}
	return issues, nil
}

func measurementColumns(all []string) []string {
	return findColumnsByKeywords(all, "height", "weight", "length", "width", "distance", "size", "measurement")
}

// canonicalUnits picks a default per column (kg for weight, cm otherwise),
// then overrides with whatever unit is actually most common in a sample.
func canonicalUnits(rows []dqmodel.Row, cols []string) map[string]string {
	canonical := make(map[string]string, len(cols))
	for _, col := range cols {
		if strings.Contains(strings.ToLower(col), "weight") {
			canonical[col] = "kg"
		} else {
			canonical[col] = "cm"
		}
	}

	sampleEnd := len(rows)
	if sampleEnd > unitSampleSize {
		sampleEnd = unitSampleSize
	}

	for _, col := range cols {
		counts := map[string]int{}
		for _, row := range rows[:sampleEnd] {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			if _, unit, _, ok := normalize.ParseUnit(v); ok {
				counts[canonicalTargetForUnit(unit)]++
			}
		}
		best, bestCount := "", 0
		for unit, n := range counts {
			if n > bestCount {
				best, bestCount = unit, n
			}
		}
		if best != "" {
			canonical[col] = best
		}
	}
	return canonical
}

// canonicalTargetForUnit folds the compound ft/in parse tags into the cm
// bucket for majority-vote purposes: a column's canonical unit must be a
// presentable target ("cm", "kg", ...), never the synthetic "ft_in" tag
// ParseUnit uses to flag a cross-format cell.
func canonicalTargetForUnit(unit string) string {
	switch unit {
	case "ft_in", "ft_in_implied":
		return "cm"
	default:
		return unit
	}
}

// unitLabel renders a parsed unit tag for an issue's human-readable
// explanation; the synthetic compound tags read better as "ft/in".
func unitLabel(unit string) string {
	switch unit {
	case "ft_in", "ft_in_implied":
		return "ft/in"
	default:
		return unit
	}
}

func llmNormalizeUnit(ctx context.Context, gw llm.Completer, rowID int, col, value string) (dqmodel.Issue, bool) {
	prompt := fmt.Sprintf(`Normalize this measurement to a standard unit (prefer cm for length, kg for weight): %q. `+
		`Respond with JSON: {"normalized": "123.45 cm", "confidence": 0.0-1.0, "explanation": "..."}`, value)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a unit normalization assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return dqmodel.Issue{}, false
	}
	var out struct {
		Normalized  string  `json:"normalized"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Normalized == "" {
		return dqmodel.Issue{}, false
	}
	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}
	explanation := out.Explanation
	if explanation == "" {
		explanation = "model-normalized measurement"
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryUnits, dqmodel.IssueScaleMismatch, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryUnits,
		IssueType:      dqmodel.IssueScaleMismatch,
		DirtyValue:     value,
		SuggestedValue: out.Normalized,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     "parses complex or free-text unit expressions the regex patterns miss",
	}, true
}
