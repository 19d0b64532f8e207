package applier

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func intPtr(n int) *int { return &n }

func TestApplyFixesWholesaleUnitStandardization(t *testing.T) {
	rows := []dqmodel.Row{
		{"name": "Alice", "height": "180 cm"},
		{"name": "Bob", "height": "5.9 ft"},
	}
	issues := []dqmodel.Issue{
		{ID: "u1", RowID: intPtr(1), Column: "height", IssueType: dqmodel.IssueScaleMismatch, SuggestedValue: "179.83 cm"},
	}

	a := New(nil, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, nil, nil, ModePreview, "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Rows[0]["height"] != "180.00 cm" {
		t.Errorf("row 0 height = %q, want reformatted to cm even without its own issue", result.Rows[0]["height"])
	}
	if result.Rows[1]["height"] != "179.83 cm" {
		t.Errorf("row 1 height = %q, want 179.83 cm", result.Rows[1]["height"])
	}
	if len(result.Changes) != 2 {
		t.Errorf("expected 2 recorded changes, got %d", len(result.Changes))
	}
}

func TestApplyFixesSkipsProtectedColumns(t *testing.T) {
	rows := []dqmodel.Row{{"firstname": "Jon", "city": "NYC"}}
	issues := []dqmodel.Issue{
		{ID: "1", RowID: intPtr(0), Column: "firstname", SuggestedValue: "Jonathan"},
		{ID: "2", RowID: intPtr(0), Column: "city", SuggestedValue: "New York"},
	}

	a := New(nil, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, nil, nil, ModePreview, "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rows[0]["firstname"] != "Jon" || result.Rows[0]["city"] != "NYC" {
		t.Errorf("protected columns were rewritten: %+v", result.Rows[0])
	}
	if result.AppliedCount != 0 {
		t.Errorf("AppliedCount = %d, want 0", result.AppliedCount)
	}
}

func TestApplyFixesFirstWriteWins(t *testing.T) {
	rows := []dqmodel.Row{{"email": "bad"}}
	issues := []dqmodel.Issue{
		{ID: "1", RowID: intPtr(0), Column: "email", SuggestedValue: "first@example.com"},
		{ID: "2", RowID: intPtr(0), Column: "email", SuggestedValue: "second@example.com"},
	}

	a := New(nil, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, nil, nil, ModePreview, "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rows[0]["email"] != "first@example.com" {
		t.Errorf("email = %q, want the first issue's suggestion to win", result.Rows[0]["email"])
	}
	if result.AppliedCount != 1 {
		t.Errorf("AppliedCount = %d, want 1", result.AppliedCount)
	}
}

func TestApplyFixesClearsCellOnNullSuggestion(t *testing.T) {
	rows := []dqmodel.Row{{"notes": "garbage"}}
	issues := []dqmodel.Issue{
		{ID: "1", RowID: intPtr(0), Column: "notes", SuggestedValue: dqmodel.NullSuggestion},
	}

	a := New(nil, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, nil, nil, ModePreview, "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rows[0]["notes"] != "" {
		t.Errorf("notes = %q, want cleared", result.Rows[0]["notes"])
	}
	key := dqmodel.CellKey{RowID: 0, Column: "notes"}
	if result.Changes[key].NewValue != "null" {
		t.Errorf("recorded change NewValue = %q, want \"null\"", result.Changes[key].NewValue)
	}
}

func TestApplyFixesRespectsSelectedIDs(t *testing.T) {
	rows := []dqmodel.Row{{"email": "bad"}}
	issues := []dqmodel.Issue{
		{ID: "1", RowID: intPtr(0), Column: "email", SuggestedValue: "fixed@example.com"},
	}

	a := New(nil, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, map[string]bool{}, nil, ModePreview, "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AppliedCount != 0 {
		t.Errorf("AppliedCount = %d, want 0 when no issue IDs are selected", result.AppliedCount)
	}
	if result.Rows[0]["email"] != "bad" {
		t.Errorf("email = %q, want unchanged", result.Rows[0]["email"])
	}
}

type fakeSink struct {
	puts map[string][]byte
}

func (s *fakeSink) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[key] = data
	return "file:///tmp/" + key, nil
}

func TestApplyFixesExportWritesThroughSink(t *testing.T) {
	rows := []dqmodel.Row{{"email": "bad"}}
	issues := []dqmodel.Issue{
		{ID: "1", RowID: intPtr(0), Column: "email", SuggestedValue: "fixed@example.com"},
	}

	fs := &fakeSink{}
	a := New(fs, nil)
	result, err := a.ApplyFixes(context.Background(), rows, issues, nil, nil, ModeExport, "source.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Locator != "file:///tmp/source_cleaned.csv" {
		t.Errorf("Locator = %q, want derived _cleaned.csv key", result.Locator)
	}
	if _, ok := fs.puts["source_cleaned.csv"]; !ok {
		t.Error("expected the sink to receive the derived key")
	}
}
