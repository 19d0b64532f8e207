package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Formatting standardizes dates to ISO 8601 and phone numbers to a
// country-appropriate layout, grounded in
// original_source/backend/agents/formatting.py.
type Formatting struct{}

func (Formatting) Name() string { return string(dqmodel.CategoryFormatting) }

func (Formatting) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	all := allColumnNames(rows, nil)
	dateCols := dateColumns(all, profiles)
	phoneCols := phoneColumns(all, profiles)
	countryCols := findColumnsByKeywords(all, "country")
	cityCols := findColumnsByKeywords(all, "city")
	stateCols := findColumnsByKeywords(all, "state")

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		for _, col := range dateCols {
			if issue, ok := formatDateCell(rowID, col, row[col]); ok {
				issues = append(issues, issue)
			} else if val := strings.TrimSpace(row[col]); val != "" && gw != nil {
				if issue, ok := llmFormatDate(ctx, gw, rowID, col, val); ok {
					issues = append(issues, issue)
				}
			}
		}

		for _, col := range phoneCols {
			raw := strings.TrimSpace(row[col])
			if raw == "" {
				continue
			}
			countryCode := resolvePhoneCountry(ctx, gw, row, countryCols, cityCols, stateCols, raw, profiles[col].CountryHint)
			normalized, confidence, ok := normalize.NormalizePhone(raw, countryCode)
			if ok {
				if normalized != raw {
					issues = append(issues, dqmodel.Issue{
						ID:             newIssueID(dqmodel.CategoryFormatting, dqmodel.IssuePhoneNormalize, intPtr(rowID), col),
						RowID:          intPtr(rowID),
						Column:         col,
						Category:       dqmodel.CategoryFormatting,
						IssueType:      dqmodel.IssuePhoneNormalize,
						DirtyValue:     raw,
						SuggestedValue: normalized,
						Confidence:     confidence,
						Explanation:    fmt.Sprintf("phone number normalized to %s format: %s", countryCode, normalized),
						WhyAgentic:     "detects the country from geographic context and applies the matching phone layout",
					})
				}
			} else if gw != nil {
				if issue, ok := llmFormatPhone(ctx, gw, rowID, col, raw, countryCode); ok {
					issues = append(issues, issue)
				}
			}
		}
	}
	return issues, nil
}

func dateColumns(all []string, profiles map[string]dqmodel.ColumnProfile) []string {
	var cols []string
	for _, name := range all {
		if profiles[name].InferredType == dqmodel.ColumnDate ||
			columnNameContainsAny(name, "date", "time", "created", "updated", "timestamp", "dob", "birth", "start", "end") {
			cols = append(cols, name)
		}
	}
	return cols
}

func phoneColumns(all []string, profiles map[string]dqmodel.ColumnProfile) []string {
	var cols []string
	for _, name := range all {
		if profiles[name].InferredType == dqmodel.ColumnPhone || columnNameContainsAny(name, "phone", "tel", "mobile", "cell") {
			cols = append(cols, name)
		}
	}
	return cols
}

func formatDateCell(rowID int, col, value string) (dqmodel.Issue, bool) {
	value = strings.TrimSpace(value)
	if value == "" || normalize.IsISODate(value) {
		return dqmodel.Issue{}, false
	}
	iso, confidence, ok := normalize.ParseDate(value)
	if !ok {
		return dqmodel.Issue{}, false
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryFormatting, dqmodel.IssueDateFormatting, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryFormatting,
		IssueType:      dqmodel.IssueDateFormatting,
		DirtyValue:     value,
		SuggestedValue: iso,
		Confidence:     confidence,
		Explanation:    fmt.Sprintf("date standardization: %q -> %q (ISO 8601)", value, iso),
		WhyAgentic:     "parses dates in arbitrary formats and standardizes them to ISO 8601",
	}, true
}

func llmFormatDate(ctx context.Context, gw llm.Completer, rowID int, col, value string) (dqmodel.Issue, bool) {
	prompt := fmt.Sprintf(`Normalize this date string to ISO format (YYYY-MM-DD): %q. `+
		`Respond with JSON: {"normalized": "YYYY-MM-DD", "confidence": 0.0-1.0}`, value)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a date normalization assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return dqmodel.Issue{}, false
	}
	var out struct {
		Normalized string  `json:"normalized"`
		Confidence float64 `json:"confidence"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Normalized == "" {
		return dqmodel.Issue{}, false
	}
	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryFormatting, dqmodel.IssueDateFormatting, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryFormatting,
		IssueType:      dqmodel.IssueDateFormatting,
		DirtyValue:     value,
		SuggestedValue: out.Normalized,
		Confidence:     confidence,
		Explanation:    fmt.Sprintf("date standardization: %q -> %q (ISO 8601)", value, out.Normalized),
		WhyAgentic:     "the model interprets ambiguous or natural-language dates and converts them to ISO 8601",
	}, true
}

func llmFormatPhone(ctx context.Context, gw llm.Completer, rowID int, col, value, countryHint string) (dqmodel.Issue, bool) {
	hintCtx := ""
	if countryHint != "" {
		hintCtx = " The phone number is from " + countryHint + "."
	}
	prompt := fmt.Sprintf(`Normalize this phone number to international format.%s Number: %q. `+
		`Respond with JSON: {"normalized": "...", "confidence": 0.0-1.0}`, hintCtx, value)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You normalize phone numbers and detect their country. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return dqmodel.Issue{}, false
	}
	var out struct {
		Normalized string  `json:"normalized"`
		Confidence float64 `json:"confidence"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Normalized == "" {
		return dqmodel.Issue{}, false
	}
	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}
	normalized := out.Normalized
	if countryHint == "IN" {
		// Indian results must never carry parens; the model sometimes
		// echoes a US-style "(xxx)" grouping regardless of instructions.
		normalized = normalize.StripParens(normalized)
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryFormatting, dqmodel.IssuePhoneNormalize, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryFormatting,
		IssueType:      dqmodel.IssuePhoneNormalize,
		DirtyValue:     value,
		SuggestedValue: normalized,
		Confidence:     confidence,
		Explanation:    "phone number normalized with model-assisted country detection",
		WhyAgentic:     "extracts phone numbers from messy text and detects their country from context",
	}, true
}

// resolvePhoneCountry implements the priority order: an explicit country
// column, then a "+91"/"+1" prefix on the phone itself, then city/state
// inference via the model, then the column's country hint, and last a
// guess from the digits alone.
func resolvePhoneCountry(ctx context.Context, gw llm.Completer, row dqmodel.Row, countryCols, cityCols, stateCols []string, rawPhone, columnHint string) string {
	if _, countryVal := firstColumnValue(row, countryCols); countryVal != "" && !isNullish(countryVal) {
		if code := countryNameToCode(countryVal); code != "" {
			return code
		}
	}

	if strings.HasPrefix(rawPhone, "+91") {
		return "IN"
	}
	if strings.HasPrefix(rawPhone, "+1") {
		return "US"
	}

	city := firstNonEmpty(row, cityCols)
	state := firstNonEmpty(row, stateCols)
	if gw != nil && (city != "" || state != "") {
		if code := inferCountryCodeFromLocation(ctx, gw, city, state); code != "" {
			return code
		}
	}

	if columnHint != "" {
		return columnHint
	}
	return normalize.DetectPhoneCountry(rawPhone)
}

func countryNameToCode(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "united states", "usa", "us", "united states of america", "u.s.", "u.s.a.":
		return "US"
	case "india", "ind", "bharat", "in", "indian":
		return "IN"
	default:
		trimmed := strings.TrimSpace(name)
		if len(trimmed) == 2 && isAlpha(trimmed) {
			return strings.ToUpper(trimmed)
		}
		return ""
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func inferCountryCodeFromLocation(ctx context.Context, gw llm.Completer, city, state string) string {
	location := "City: " + city
	if city == "" {
		location = "State: " + state
	}
	prompt := fmt.Sprintf(`Based on this location: %s, return the 2-letter country code for phone formatting `+
		`(e.g. IN, US, GB). Respond with JSON: {"country_code": "XX"}`, location)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a geographic assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.0, 30)
	if err != nil || text == "" {
		return ""
	}
	var out struct {
		CountryCode string `json:"country_code"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil {
		return ""
	}
	code := strings.ToUpper(strings.TrimSpace(out.CountryCode))
	if len(code) == 2 && isAlpha(code) {
		return code
	}
	return ""
}
