package agents

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func TestGeographicEnrichmentSkipsWithoutCityColumn(t *testing.T) {
	rows := []dqmodel.Row{{"state": "Illinois"}}
	issues, err := GeographicEnrichment{}.Run(context.Background(), rows, nil, &stubCompleter{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 without a city column", len(issues))
	}
}

func TestGeographicEnrichmentFillsMissingState(t *testing.T) {
	rows := []dqmodel.Row{{"city": "Chicago", "state": ""}}
	gw := &stubCompleter{responses: []stubResponse{
		{substr: "What state/province", json: `{"state": "Illinois"}`},
	}}
	issues, err := GeographicEnrichment{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("want at least one issue for a missing state")
	}
	var found bool
	for _, iss := range issues {
		if iss.IssueType == dqmodel.IssueMissingState {
			found = true
			if iss.SuggestedValue != "Illinois" {
				t.Errorf("SuggestedValue = %q, want Illinois", iss.SuggestedValue)
			}
		}
	}
	if !found {
		t.Error("expected a MissingState issue")
	}
}

func TestGeographicEnrichmentFlagsIncorrectState(t *testing.T) {
	rows := []dqmodel.Row{{"city": "Chicago", "state": "California"}}
	gw := &stubCompleter{responses: []stubResponse{
		{substr: "What state/province", json: `{"state": "Illinois"}`},
	}}
	issues, err := GeographicEnrichment{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var found bool
	for _, iss := range issues {
		if iss.IssueType == dqmodel.IssueIncorrectState {
			found = true
			if iss.SuggestedValue != "Illinois" {
				t.Errorf("SuggestedValue = %q, want Illinois", iss.SuggestedValue)
			}
		}
	}
	if !found {
		t.Error("expected an IncorrectState issue")
	}
}

func TestGeographicEnrichmentCachesStateLookupPerCity(t *testing.T) {
	rows := []dqmodel.Row{
		{"city": "Chicago", "state": ""},
		{"city": "Chicago", "state": ""},
	}
	gw := &stubCompleter{responses: []stubResponse{
		{substr: "What state/province", json: `{"state": "Illinois"}`},
		{substr: "What country is the state/province", json: `{"country": "United States"}`},
	}}
	_, err := GeographicEnrichment{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// First row resolves city->state and state->country; the second row
	// hits both caches and makes no further model calls.
	if gw.calls != 2 {
		t.Errorf("gw.calls = %d, want 2 (state and state->country lookups cached per city/state)", gw.calls)
	}
}

func TestNormalizeGeoNameStripsNumericPrefixAndCase(t *testing.T) {
	if got := normalizeGeoName("  60601 Illinois "); got != "illinois" {
		t.Errorf("normalizeGeoName = %q, want illinois", got)
	}
}
