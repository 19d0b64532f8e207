package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func TestExtractionFindsEmbeddedEmail(t *testing.T) {
	rows := []dqmodel.Row{
		{"notes": "Please reach out to jane.doe@example.com about the order."},
	}
	issues, err := Extraction{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if !strings.Contains(issues[0].SuggestedValue, "jane.doe@example.com") {
		t.Errorf("SuggestedValue = %q, want it to contain the extracted email", issues[0].SuggestedValue)
	}
}

func TestExtractionSkipsColumnsMatchingExcludedKeywords(t *testing.T) {
	rows := []dqmodel.Row{
		{"email": "a long value with jane.doe@example.com embedded in it for sure"},
	}
	issues, err := Extraction{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 (an 'email' column is excluded from extraction scanning)", len(issues))
	}
}

func TestExtractionSkipsShortCells(t *testing.T) {
	rows := []dqmodel.Row{{"notes": "short"}}
	issues, err := Extraction{}.Run(context.Background(), rows, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 for a cell at/under the minimum size", len(issues))
	}
}

func TestExtractionFallsBackToModelWhenNoRegexMatch(t *testing.T) {
	rows := []dqmodel.Row{
		{"notes": "Customer called about a billing dispute regarding last month's invoice."},
	}
	gw := &stubCompleter{responses: []stubResponse{
		{substr: "Extract structured data", json: `{"phone": "555-1234"}`},
	}}
	issues, err := Extraction{}.Run(context.Background(), rows, nil, gw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if !strings.Contains(issues[0].SuggestedValue, "555-1234") {
		t.Errorf("SuggestedValue = %q, want it to contain the model-extracted phone", issues[0].SuggestedValue)
	}
}
