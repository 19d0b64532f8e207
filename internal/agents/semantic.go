package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Semantic groups entity-name variations (organizations, brands, vendors —
// never personal names) that refer to the same real-world entity and
// standardizes them to one canonical spelling, grounded in
// original_source/backend/agents/semantic.py.
type Semantic struct{}

func (Semantic) Name() string { return string(dqmodel.CategorySemantic) }

const entitySimilarityThreshold = 0.7

func (Semantic) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	if gw == nil {
		return nil, nil
	}

	var issues []dqmodel.Issue
	for _, col := range entityColumns(rows) {
		valueRows := map[string][]int{}
		var order []string
		for rowID, row := range rows {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			if _, seen := valueRows[v]; !seen {
				order = append(order, v)
			}
			valueRows[v] = append(valueRows[v], rowID)
		}

		processed := map[string]bool{}
		for _, value := range order {
			if processed[value] {
				continue
			}
			var similar []string
			for _, other := range order {
				if other != value && areSimilarEntities(value, other) {
					similar = append(similar, other)
				}
			}
			if len(similar) == 0 {
				continue
			}

			variants := append([]string{value}, similar...)
			canonical := resolveEntity(ctx, gw, variants)
			if canonical == "" {
				continue
			}
			processed[canonical] = true
			for _, variant := range variants {
				if variant == canonical {
					continue
				}
				for _, rowID := range valueRows[variant] {
					issues = append(issues, dqmodel.Issue{
						ID:             newIssueID(dqmodel.CategorySemantic, dqmodel.IssueEntityResolution, intPtr(rowID), col),
						RowID:          intPtr(rowID),
						Column:         col,
						Category:       dqmodel.CategorySemantic,
						IssueType:      dqmodel.IssueEntityResolution,
						DirtyValue:     variant,
						SuggestedValue: canonical,
						Confidence:     0.8,
						Explanation:    fmt.Sprintf("entity variation: %q refers to the same entity as %q", variant, canonical),
						WhyAgentic:     "recognizes that these values refer to the same real-world entity",
					})
				}
				processed[variant] = true
			}
		}
	}
	return issues, nil
}

func entityColumns(rows []dqmodel.Row) []string {
	all := allColumnNames(rows, nil)
	var cols []string
	for _, col := range all {
		if columnNameContainsAny(col, "firstname", "first_name", "lastname", "last_name",
			"fullname", "full_name", "username", "user_name", "person", "customer", "employee", "contact") {
			continue
		}
		if columnNameContainsAny(col, "company", "organization", "organisation", "org", "entity", "brand", "vendor", "supplier") {
			cols = append(cols, col)
		}
	}
	return cols
}

func areSimilarEntities(a, b string) bool {
	lowerA, lowerB := strings.ToLower(a), strings.ToLower(b)
	if lowerA == lowerB {
		return true
	}
	if strings.Contains(lowerA, lowerB) || strings.Contains(lowerB, lowerA) {
		return true
	}
	return normalize.Similarity(lowerA, lowerB) > entitySimilarityThreshold
}

func resolveEntity(ctx context.Context, gw llm.Completer, variants []string) string {
	prompt := fmt.Sprintf(`These values likely refer to the same entity: %s. `+
		`Return the canonical/standard name. Respond with JSON: {"canonical": "...", "confidence": 0.0-1.0}`,
		strings.Join(variants, ", "))
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are an entity resolution assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 100)
	if err != nil || text == "" {
		return ""
	}
	var out struct {
		Canonical string `json:"canonical"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil {
		return ""
	}
	return out.Canonical
}
