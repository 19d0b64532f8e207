package agents

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func genderRows(n int, value string) []dqmodel.Row {
	rows := make([]dqmodel.Row, n)
	for i := range rows {
		rows[i] = dqmodel.Row{"gender": value}
	}
	return rows
}

func TestCategoricalFixesTypoByFuzzyMatch(t *testing.T) {
	var rows []dqmodel.Row
	rows = append(rows, genderRows(5, "Male")...)
	rows = append(rows, genderRows(5, "Female")...)
	rows = append(rows, dqmodel.Row{"gender": "Mle"})

	issues, err := Categorical{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "Male" {
		t.Errorf("SuggestedValue = %q, want Male", issues[0].SuggestedValue)
	}
	if issues[0].IssueType != dqmodel.IssueFuzzyMapping {
		t.Errorf("IssueType = %q, want FuzzyMapping", issues[0].IssueType)
	}
}

func TestCategoricalSkipsColumnsWithTooFewDistinctValues(t *testing.T) {
	rows := genderRows(10, "Male")
	issues, err := Categorical{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 for a single-valued column", len(issues))
	}
}

func TestCategoricalFallsBackToModelBelowFuzzyCutoff(t *testing.T) {
	var rows []dqmodel.Row
	rows = append(rows, genderRows(5, "Male")...)
	rows = append(rows, genderRows(5, "Female")...)
	rows = append(rows, dqmodel.Row{"gender": "zzz"})

	gw := &stubCompleter{responses: []stubResponse{
		{substr: "Map this value to one of the allowed categories", json: `{"mapped": "Male", "confidence": 0.8}`},
	}}
	issues, err := Categorical{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "Male" {
		t.Errorf("SuggestedValue = %q, want Male", issues[0].SuggestedValue)
	}
}
