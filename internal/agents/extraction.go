package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// Extraction pulls structured fields (emails, URLs) out of free-text
// columns, grounded in original_source/backend/agents/extraction.py.
type Extraction struct{}

func (Extraction) Name() string { return string(dqmodel.CategoryExtraction) }

var (
	embeddedEmailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	embeddedURLRe   = regexp.MustCompile(`https?://\S+`)
)

const (
	extractionSampleRows  = 10
	extractionMinTextLen  = 20
	extractionMinCellSize = 10
)

func (Extraction) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	cols := extractableTextColumns(rows)

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		for _, col := range cols {
			value := row[col]
			if len(value) <= extractionMinCellSize {
				continue
			}
			hasEmailCol := columnExists(row, "email")
			hasURLCol := columnExists(row, "url")

			extracted := map[string]string{}
			if m := embeddedEmailRe.FindString(value); m != "" && !hasEmailCol {
				extracted["email"] = m
			}
			if m := embeddedURLRe.FindString(value); m != "" && !hasURLCol {
				extracted["url"] = m
			}

			if len(extracted) > 0 {
				for field, val := range extracted {
					issues = append(issues, buildExtractionIssue(rowID, col, value, field, val, 0.9,
						fmt.Sprintf("found %s in text field: %s", field, val),
						"pulls structured data out of free text such as emails or URLs"))
				}
				continue
			}

			if gw == nil {
				continue
			}
			for field, val := range llmExtractMetadata(ctx, gw, value) {
				issues = append(issues, buildExtractionIssue(rowID, col, value, field, val, 0.7,
					fmt.Sprintf("model extracted %s: %s", field, val),
					"extracts structured data from complex unstructured text"))
			}
		}
	}
	return issues, nil
}

func columnExists(row dqmodel.Row, keyword string) bool {
	for col := range row {
		if strings.Contains(strings.ToLower(col), keyword) {
			return true
		}
	}
	return false
}

func extractableTextColumns(rows []dqmodel.Row) []string {
	all := allColumnNames(rows, nil)
	sampleEnd := len(rows)
	if sampleEnd > extractionSampleRows {
		sampleEnd = extractionSampleRows
	}

	var cols []string
	for _, col := range all {
		if columnNameContainsAny(col, "email", "phone", "url", "name", "id") {
			continue
		}
		longEnough := false
		for _, row := range rows[:sampleEnd] {
			if len(row[col]) > extractionMinTextLen {
				longEnough = true
				break
			}
		}
		if longEnough {
			cols = append(cols, col)
		}
	}
	return cols
}

func buildExtractionIssue(rowID int, col, rawValue, field, extractedValue string, confidence float64, explanation, whyAgentic string) dqmodel.Issue {
	dirty := rawValue
	if len(dirty) > 50 {
		dirty = dirty[:50] + "..."
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryExtraction, dqmodel.IssueMetadataScraping, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryExtraction,
		IssueType:      dqmodel.IssueMetadataScraping,
		DirtyValue:     dirty,
		SuggestedValue: extractedValue,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     whyAgentic,
	}
}

func llmExtractMetadata(ctx context.Context, gw llm.Completer, text string) map[string]string {
	truncated := text
	if len(truncated) > 200 {
		truncated = truncated[:200]
	}
	prompt := fmt.Sprintf(`Extract structured data from this text: %q. `+
		`Respond with JSON containing any of email, name, phone, url, each "value_or_null": `+
		`{"email": "...", "name": "...", "phone": "...", "url": "..."}`, truncated)
	responseText, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a metadata extraction assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 150)
	if err != nil || responseText == "" {
		return nil
	}
	var out map[string]string
	if extractErr := llm.ExtractJSONObject(responseText, &out); extractErr != nil {
		return nil
	}
	result := map[string]string{}
	for k, v := range out {
		if v != "" && !strings.EqualFold(v, "null") {
			result[k] = v
		}
	}
	return result
}
