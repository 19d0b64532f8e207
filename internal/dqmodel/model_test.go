package dqmodel

import "testing"

func TestIsClearRecognizesNullSentinels(t *testing.T) {
	for _, v := range []string{NullSuggestion, "null", "None", ""} {
		issue := Issue{SuggestedValue: v}
		if !issue.IsClear() {
			t.Errorf("IsClear() = false for suggestion %q, want true", v)
		}
	}
}

func TestIsClearFalseForRealValues(t *testing.T) {
	for _, v := range []string{"178cm", "N/A", "none", "NULL"} {
		issue := Issue{SuggestedValue: v}
		if issue.IsClear() {
			t.Errorf("IsClear() = true for suggestion %q, want false", v)
		}
	}
}

func TestDatasetSize(t *testing.T) {
	d := &Dataset{Columns: []string{"a"}, Rows: []Row{{"a": "1"}, {"a": "2"}}}
	if d.Size() != 2 {
		t.Errorf("Size() = %d, want 2", d.Size())
	}
}
