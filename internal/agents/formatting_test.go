package agents

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func TestFormattingNormalizesNonISODate(t *testing.T) {
	rows := []dqmodel.Row{{"joined": "March 15, 2024"}}
	profiles := map[string]dqmodel.ColumnProfile{"joined": {InferredType: dqmodel.ColumnDate}}
	issues, err := Formatting{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "2024-03-15" {
		t.Errorf("SuggestedValue = %q, want 2024-03-15", issues[0].SuggestedValue)
	}
	if issues[0].IssueType != dqmodel.IssueDateFormatting {
		t.Errorf("IssueType = %q, want DateFormatting", issues[0].IssueType)
	}
}

func TestFormattingSkipsAlreadyISODate(t *testing.T) {
	rows := []dqmodel.Row{{"joined": "2024-03-15"}}
	profiles := map[string]dqmodel.ColumnProfile{"joined": {InferredType: dqmodel.ColumnDate}}
	issues, err := Formatting{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 for an already-ISO date", len(issues))
	}
}

func TestFormattingNormalizesPhoneUsingCountryColumn(t *testing.T) {
	rows := []dqmodel.Row{{"phone": "9876543210", "country": "India"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"phone":   {InferredType: dqmodel.ColumnPhone},
		"country": {InferredType: dqmodel.ColumnText},
	}
	issues, err := Formatting{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "+91 9876543210" {
		t.Errorf("SuggestedValue = %q, want +91 9876543210", issues[0].SuggestedValue)
	}
}

func TestFormattingPhonePrefixBeatsColumnHintWhenNoCountryColumn(t *testing.T) {
	rows := []dqmodel.Row{{"phone": "+1 2025551234"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"phone": {InferredType: dqmodel.ColumnPhone, CountryHint: "IN"},
	}
	issues, err := Formatting{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "+1 (202) 555-1234" {
		t.Errorf("SuggestedValue = %q, want +1 (202) 555-1234", issues[0].SuggestedValue)
	}
}

func TestCountryNameToCode(t *testing.T) {
	tests := map[string]string{
		"United States": "US",
		"usa":           "US",
		"India":         "IN",
		"bharat":        "IN",
		"GB":            "GB",
		"somewhere":     "",
	}
	for name, want := range tests {
		if got := countryNameToCode(name); got != want {
			t.Errorf("countryNameToCode(%q) = %q, want %q", name, got, want)
		}
	}
}
