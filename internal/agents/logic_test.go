package agents

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func TestLogicDetectsJobStartBeforeBirth(t *testing.T) {
	rows := []dqmodel.Row{{
		"date_of_birth": "2000-01-01",
		"job_start":     "1995-06-15",
	}}
	issues, err := Logic{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].IssueType != dqmodel.IssueTemporalParadox {
		t.Errorf("IssueType = %q, want TemporalParadox", issues[0].IssueType)
	}
	if !issues[0].IsClear() {
		t.Errorf("SuggestedValue = %q, want a clear-cell sentinel", issues[0].SuggestedValue)
	}
}

func TestLogicAllowsValidBirthBeforeJobStart(t *testing.T) {
	rows := []dqmodel.Row{{
		"date_of_birth": "1990-01-01",
		"job_start":     "2015-06-15",
	}}
	issues, err := Logic{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 for a valid ordering", len(issues))
	}
}

func TestLogicDetectsStartAfterEndPair(t *testing.T) {
	rows := []dqmodel.Row{{
		"start_date": "2024-06-01",
		"end_date":   "2024-01-01",
	}}
	profiles := map[string]dqmodel.ColumnProfile{
		"start_date": {InferredType: dqmodel.ColumnDate},
		"end_date":   {InferredType: dqmodel.ColumnDate},
	}
	issues, err := Logic{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].IssueType != dqmodel.IssueTemporalParadox {
		t.Errorf("IssueType = %q, want TemporalParadox", issues[0].IssueType)
	}
}

func TestLogicFlagsInvalidCityStateViaModel(t *testing.T) {
	rows := []dqmodel.Row{{"city": "Chicago", "state": "California"}}
	gw := &stubCompleter{responses: []stubResponse{
		{substr: "Is this city/state combination valid", json: `{"valid": false}`},
		{substr: "What state/province", json: `{"state": "Illinois"}`},
	}}
	issues, err := Logic{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].IssueType != dqmodel.IssueCrossFieldConflict {
		t.Errorf("IssueType = %q, want CrossFieldConflict", issues[0].IssueType)
	}
	if issues[0].SuggestedValue != "Illinois" {
		t.Errorf("SuggestedValue = %q, want Illinois", issues[0].SuggestedValue)
	}
}

func TestLogicSkipsCityStateWithoutGateway(t *testing.T) {
	rows := []dqmodel.Row{{"city": "Chicago", "state": "California"}}
	issues, err := Logic{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 without a gateway", len(issues))
	}
}
