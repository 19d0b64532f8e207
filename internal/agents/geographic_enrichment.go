package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// GeographicEnrichment finds missing or incorrect state/country values by
// chaining city -> state -> country lookups through the LLM, grounded in
// original_source/backend/agents/geographic_enrichment.py.
type GeographicEnrichment struct{}

func (GeographicEnrichment) Name() string { return string(dqmodel.CategoryGeographicEnrichment) }

var numericPrefixRe = regexp.MustCompile(`^\d+\s+`)

func (GeographicEnrichment) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	all := allColumnNames(rows, nil)
	cityCols := findColumnsByKeywords(all, "city", "town", "location", "place")
	stateCols := findColumnsByKeywords(all, "state", "province", "region", "territory", "district", "county")
	countryCols := findColumnsByKeywords(all, "country", "nation", "nationality")

	if len(cityCols) == 0 {
		return nil, nil
	}

	stateCache := map[string]string{}
	countryFromStateCache := map[string]string{}

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		city := firstNonEmpty(row, cityCols)
		if city == "" {
			continue
		}
		stateCol, stateVal := firstColumnValue(row, stateCols)
		countryCol, countryVal := firstColumnValue(row, countryCols)
		if countryCol == "" && len(countryCols) > 0 {
			countryCol = countryCols[0]
		}

		correctState, ok := stateCache[city]
		if !ok {
			correctState = lookupState(ctx, gw, city, countryVal)
			stateCache[city] = correctState
		}

		if stateCol != "" {
			issues = append(issues, geoStateIssues(rowID, stateCol, city, stateVal, correctState)...)
		}

		var correctCountry string
		if correctState != "" {
			if cached, ok := countryFromStateCache[correctState]; ok {
				correctCountry = cached
			} else {
				correctCountry = lookupCountryFromState(ctx, gw, correctState)
				countryFromStateCache[correctState] = correctCountry
			}
		}
		if correctCountry == "" {
			correctCountry = lookupCountryFromCity(ctx, gw, city)
		}
		if countryCol != "" {
			issues = append(issues, geoCountryIssues(rowID, countryCol, city, correctState, countryVal, correctCountry)...)
		}
	}
	return issues, nil
}

func geoStateIssues(rowID int, col, city, stateVal, correctState string) []dqmodel.Issue {
	if !isNullish(stateVal) {
		current := normalizeGeoName(stateVal)
		correct := normalizeGeoName(correctState)
		if correct != "" && current != correct {
			return []dqmodel.Issue{{
				ID:             newIssueID(dqmodel.CategoryGeographicEnrichment, dqmodel.IssueIncorrectState, intPtr(rowID), col),
				RowID:          intPtr(rowID),
				Column:         col,
				Category:       dqmodel.CategoryGeographicEnrichment,
				IssueType:      dqmodel.IssueIncorrectState,
				DirtyValue:     stateVal,
				SuggestedValue: correctState,
				Confidence:     0.9,
				Explanation:    fmt.Sprintf("state %q is incorrect for city %q; correct state is %q", stateVal, city, correctState),
				WhyAgentic:     "used geographic knowledge to derive the correct state for the city, then flagged the mismatch",
			}}
		}
		return nil
	}

	confidence := 0.40
	suggestion := fmt.Sprintf("[could not determine state for city %q]", city)
	explanation := fmt.Sprintf("state is missing for city %q; the model could not determine it", city)
	if correctState != "" {
		confidence = 0.85
		suggestion = correctState
		explanation = fmt.Sprintf("state is missing for city %q; inferred state is %q", city, correctState)
	}
	return []dqmodel.Issue{{
		ID:             newIssueID(dqmodel.CategoryGeographicEnrichment, dqmodel.IssueMissingState, intPtr(rowID), col),
		RowID:          intPtr(rowID),
		Column:         col,
		Category:       dqmodel.CategoryGeographicEnrichment,
		IssueType:      dqmodel.IssueMissingState,
		DirtyValue:     "",
		SuggestedValue: suggestion,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     "infers missing state information from the city name",
	}}
}

func geoCountryIssues(rowID int, col, city, state, countryVal, correctCountry string) []dqmodel.Issue {
	if isNullish(countryVal) {
		confidence := 0.40
		suggestion := fmt.Sprintf("[could not determine country for city %q]", city)
		explanation := fmt.Sprintf("country is missing for city %q", city)
		if correctCountry != "" {
			confidence = 0.85
			suggestion = correctCountry
			if state != "" {
				explanation = fmt.Sprintf("country inferred from state %q (determined from city %q)", state, city)
			} else {
				explanation = fmt.Sprintf("country is missing for city %q; inferred %q", city, correctCountry)
			}
		}
		return []dqmodel.Issue{{
			ID:             newIssueID(dqmodel.CategoryGeographicEnrichment, dqmodel.IssueMissingCountry, intPtr(rowID), col),
			RowID:          intPtr(rowID),
			Column:         col,
			Category:       dqmodel.CategoryGeographicEnrichment,
			IssueType:      dqmodel.IssueMissingCountry,
			DirtyValue:     "",
			SuggestedValue: suggestion,
			Confidence:     confidence,
			Explanation:    explanation,
			WhyAgentic:     "chains city -> state -> country lookups for maximum accuracy",
		}}
	}

	if correctCountry != "" && !strings.EqualFold(strings.TrimSpace(countryVal), strings.TrimSpace(correctCountry)) {
		return []dqmodel.Issue{{
			ID:             newIssueID(dqmodel.CategoryGeographicEnrichment, dqmodel.IssueIncorrectCountry, intPtr(rowID), col),
			RowID:          intPtr(rowID),
			Column:         col,
			Category:       dqmodel.CategoryGeographicEnrichment,
			IssueType:      dqmodel.IssueIncorrectCountry,
			DirtyValue:     countryVal,
			SuggestedValue: correctCountry,
			Confidence:     0.85,
			Explanation:    fmt.Sprintf("country %q is incorrect for state %q; correct country is %q", countryVal, state, correctCountry),
			WhyAgentic:     "validates country consistency against the state determined from the city",
		}}
	}
	return nil
}

func normalizeGeoName(v string) string {
	v = numericPrefixRe.ReplaceAllString(strings.TrimSpace(v), "")
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func firstNonEmpty(row dqmodel.Row, cols []string) string {
	for _, c := range cols {
		if v := strings.TrimSpace(row[c]); v != "" {
			return v
		}
	}
	return ""
}

func firstColumnValue(row dqmodel.Row, cols []string) (col, value string) {
	for _, c := range cols {
		v, present := row[c]
		if present {
			return c, strings.TrimSpace(v)
		}
	}
	return "", ""
}

func lookupState(ctx context.Context, gw llm.Completer, city, country string) string {
	if gw == nil {
		return ""
	}
	countryCtx := ""
	if country != "" {
		countryCtx = " in " + country
	}
	prompt := fmt.Sprintf(
		`What state/province is the city %q%s located in? Return the full, official name. `+
			`Respond with JSON: {"state": "..."} or {"state": null} if unsure.`, city, countryCtx)
	return queryGeoField(ctx, gw, prompt, "state")
}

func lookupCountryFromState(ctx context.Context, gw llm.Completer, state string) string {
	if gw == nil {
		return ""
	}
	prompt := fmt.Sprintf(
		`What country is the state/province %q located in? Return the full country name. `+
			`Respond with JSON: {"country": "..."} or {"country": null} if unsure.`, state)
	return queryGeoField(ctx, gw, prompt, "country")
}

func lookupCountryFromCity(ctx context.Context, gw llm.Completer, city string) string {
	if gw == nil {
		return ""
	}
	prompt := fmt.Sprintf(
		`What country is the city %q located in? If ambiguous, pick the most well-known city with that name. `+
			`Respond with JSON: {"country": "..."} or {"country": null} if unsure.`, city)
	return queryGeoField(ctx, gw, prompt, "country")
}

func queryGeoField(ctx context.Context, gw llm.Completer, prompt, field string) string {
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a geographic knowledge assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.0, 200)
	if err != nil || text == "" {
		return ""
	}
	var out map[string]interface{}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil {
		return ""
	}
	v, _ := out[field].(string)
	return v
}
