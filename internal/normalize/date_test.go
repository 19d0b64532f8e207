package normalize

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantISO string
		wantOK  bool
	}{
		{"already ISO", "2024-03-15", "2024-03-15", true},
		{"slash form", "2024/03/15", "2024-03-15", true},
		{"long month name", "March 15, 2024", "2024-03-15", true},
		{"abbreviated month", "Mar 15, 2024", "2024-03-15", true},
		{"US slash form", "03/15/2024", "2024-03-15", true},
		{"two-digit year", "03/15/24", "2024-03-15", true},
		{"dash form", "03-15-2024", "2024-03-15", true},
		{"empty string", "", "", false},
		{"garbage", "not a date", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			iso, confidence, ok := ParseDate(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if ok && iso != tc.wantISO {
				t.Errorf("ParseDate(%q) = %q, want %q", tc.input, iso, tc.wantISO)
			}
			if ok && (confidence <= 0 || confidence > 1) {
				t.Errorf("ParseDate(%q) confidence = %v, want in (0,1]", tc.input, confidence)
			}
		})
	}
}

func TestIsISODate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-03-15", true},
		{"2024/03/15", false},
		{"March 15, 2024", false},
		{"2024-13-40", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsISODate(tc.input); got != tc.want {
			t.Errorf("IsISODate(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
