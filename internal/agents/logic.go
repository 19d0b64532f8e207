package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Logic detects temporal paradoxes (job start before birth, end before
// start) and cross-field conflicts (city/state mismatches), grounded in
// original_source/backend/agents/logic.py.
type Logic struct{}

func (Logic) Name() string { return string(dqmodel.CategoryLogic) }

func (Logic) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	all := allColumnNames(rows, nil)
	dateCols := dateColumns(all, profiles)
	birthCol, jobStartCol := birthAndJobStartColumns(ctx, gw, all)
	cityCol, stateCol := locationColumns(all)

	var issues []dqmodel.Issue
	for rowID, row := range rows {
		if birthCol != "" && jobStartCol != "" {
			if issue, ok := birthBeforeJobStart(rowID, row, birthCol, jobStartCol); ok {
				issues = append(issues, issue)
			}
		}

		issues = append(issues, temporalPairParadoxes(rowID, row, dateCols, birthCol, jobStartCol)...)

		if cityCol != "" && stateCol != "" && gw != nil {
			city := strings.TrimSpace(row[cityCol])
			state := strings.TrimSpace(row[stateCol])
			if city != "" && state != "" {
				if issue, ok := validateCityState(ctx, gw, rowID, cityCol, stateCol, city, state); ok {
					issues = append(issues, issue)
				}
			}
		}
	}
	return issues, nil
}

// birthAndJobStartColumns asks the model to label which date-shaped column
// names hold birth dates and which hold employment start dates, since
// naming conventions vary too widely ("dob", "started", "join_date") for a
// fixed keyword list to catch reliably. Falls back to keyword matching when
// no model is configured or it declines to answer.
func birthAndJobStartColumns(ctx context.Context, gw llm.Completer, all []string) (birth, jobStart string) {
	if gw != nil {
		if b, j, ok := classifyBirthJobStartColumns(ctx, gw, all); ok {
			return b, j
		}
	}
	return birthAndJobStartColumnsByKeyword(all)
}

func birthAndJobStartColumnsByKeyword(all []string) (birth, jobStart string) {
	for _, col := range all {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "birth") || strings.Contains(lower, "dob") {
			birth = col
		}
		if (strings.Contains(lower, "job") || strings.Contains(lower, "start") || strings.Contains(lower, "hire")) &&
			!strings.Contains(lower, "birth") {
			jobStart = col
		}
	}
	return birth, jobStart
}

func classifyBirthJobStartColumns(ctx context.Context, gw llm.Completer, all []string) (birth, jobStart string, ok bool) {
	quoted := make([]string, len(all))
	for i, c := range all {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	prompt := fmt.Sprintf(`Given these column names: [%s], which one (if any) holds a person's date of `+
		`birth, and which one (if any) holds their job/employment start date? `+
		`Respond with JSON: {"birth_column": "... or null", "job_start_column": "... or null"}`,
		strings.Join(quoted, ", "))
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are an expert at interpreting column names in tabular datasets. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return "", "", false
	}
	var out struct {
		BirthColumn    *string `json:"birth_column"`
		JobStartColumn *string `json:"job_start_column"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil {
		return "", "", false
	}
	known := map[string]bool{}
	for _, c := range all {
		known[c] = true
	}
	if out.BirthColumn != nil && known[*out.BirthColumn] {
		birth = *out.BirthColumn
	}
	if out.JobStartColumn != nil && known[*out.JobStartColumn] {
		jobStart = *out.JobStartColumn
	}
	return birth, jobStart, true
}

func locationColumns(all []string) (city, state string) {
	for _, col := range all {
		lower := strings.ToLower(col)
		switch {
		case strings.Contains(lower, "city"):
			city = col
		case strings.Contains(lower, "state"), strings.Contains(lower, "province"):
			state = col
		}
	}
	return city, state
}

func birthBeforeJobStart(rowID int, row dqmodel.Row, birthCol, jobStartCol string) (dqmodel.Issue, bool) {
	birthVal := strings.TrimSpace(row[birthCol])
	jobVal := strings.TrimSpace(row[jobStartCol])
	if birthVal == "" || jobVal == "" {
		return dqmodel.Issue{}, false
	}
	birthISO, _, ok1 := normalize.ParseDate(birthVal)
	jobISO, _, ok2 := normalize.ParseDate(jobVal)
	if !ok1 || !ok2 || jobISO >= birthISO {
		return dqmodel.Issue{}, false
	}
	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryLogic, dqmodel.IssueTemporalParadox, intPtr(rowID), jobStartCol),
		RowID:          intPtr(rowID),
		Column:         jobStartCol,
		Category:       dqmodel.CategoryLogic,
		IssueType:      dqmodel.IssueTemporalParadox,
		DirtyValue:     jobVal,
		SuggestedValue: dqmodel.NullSuggestion,
		Confidence:     0.95,
		Explanation:    fmt.Sprintf("job start date (%s) is before birth date (%s); this is impossible", jobISO, birthISO),
		WhyAgentic:     "detects logical impossibilities: employment cannot start before birth",
	}, true
}

func temporalPairParadoxes(rowID int, row dqmodel.Row, dateCols []string, birthCol, jobStartCol string) []dqmodel.Issue {
	type parsed struct {
		col string
		iso string
	}
	var dates []parsed
	for _, col := range dateCols {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		if iso, _, ok := normalize.ParseDate(v); ok {
			dates = append(dates, parsed{col, iso})
		}
	}

	var issues []dqmodel.Issue
	for i, d1 := range dates {
		for j, d2 := range dates {
			if j == i || d1.iso <= d2.iso {
				continue
			}
			if birthCol != "" && jobStartCol != "" {
				pair := map[string]bool{d1.col: true, d2.col: true}
				if pair[birthCol] && pair[jobStartCol] {
					continue
				}
			}
			lower1, lower2 := strings.ToLower(d1.col), strings.ToLower(d2.col)
			isPair := (strings.Contains(lower1, "start") && strings.Contains(lower2, "end")) ||
				(strings.Contains(lower1, "created") && strings.Contains(lower2, "updated"))
			if !isPair {
				continue
			}
			issues = append(issues, dqmodel.Issue{
				ID:             newIssueID(dqmodel.CategoryLogic, dqmodel.IssueTemporalParadox, intPtr(rowID), d1.col),
				RowID:          intPtr(rowID),
				Column:         d1.col,
				Category:       dqmodel.CategoryLogic,
				IssueType:      dqmodel.IssueTemporalParadox,
				DirtyValue:     fmt.Sprintf("%s: %s, %s: %s", d1.col, d1.iso, d2.col, d2.iso),
				SuggestedValue: dqmodel.NullSuggestion,
				Confidence:     0.9,
				Explanation:    fmt.Sprintf("temporal inconsistency: %s (%s) is after %s (%s)", d1.col, d1.iso, d2.col, d2.iso),
				WhyAgentic:     "detects logical impossibilities between related date columns",
			})
		}
	}
	return issues
}

func validateCityState(ctx context.Context, gw llm.Completer, rowID int, cityCol, stateCol, city, state string) (dqmodel.Issue, bool) {
	if isValidCityState(ctx, gw, city, state) {
		return dqmodel.Issue{}, false
	}

	correctState := lookupState(ctx, gw, city, "")
	confidence := 0.60
	suggested := fmt.Sprintf("[could not verify state for %s]", city)
	if correctState != "" {
		confidence = 0.85
		suggested = correctState
	}

	return dqmodel.Issue{
		ID:             newIssueID(dqmodel.CategoryLogic, dqmodel.IssueCrossFieldConflict, intPtr(rowID), stateCol),
		RowID:          intPtr(rowID),
		Column:         stateCol,
		Category:       dqmodel.CategoryLogic,
		IssueType:      dqmodel.IssueCrossFieldConflict,
		DirtyValue:     state,
		SuggestedValue: suggested,
		Confidence:     confidence,
		Explanation:    fmt.Sprintf("geographic inconsistency: %s is not in %s; correct state should be %q", city, state, suggested),
		WhyAgentic:     "determines the correct state for the city and flags the geographic inconsistency",
	}, true
}

func isValidCityState(ctx context.Context, gw llm.Completer, city, state string) bool {
	prompt := fmt.Sprintf(`Is this city/state combination valid? City: %s, State: %s. `+
		`Respond with JSON: {"valid": true/false}`, city, state)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a geography validation assistant. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 100)
	if err != nil || text == "" {
		return true // default to valid when the model is unavailable
	}
	var out struct {
		Valid *bool `json:"valid"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Valid == nil {
		return true
	}
	return *out.Valid
}
