package normalize

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input    string
		wantNum  float64
		wantUnit string
		wantOK   bool
	}{
		{"178cm", 178, "cm", true},
		{"178 cm", 178, "cm", true},
		{"70kg", 70, "kg", true},
		{"5ft 10in", 177.8, "ft_in", true},
		{"5'10\"", 177.8, "ft_in", true},
		{"5.9 ft", 5.9, "ft", true},
		{"not a measurement", 0, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			num, unit, _, ok := ParseUnit(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("ParseUnit(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if unit != tc.wantUnit {
				t.Errorf("ParseUnit(%q) unit = %q, want %q", tc.input, unit, tc.wantUnit)
			}
			if !almostEqual(num, tc.wantNum) {
				t.Errorf("ParseUnit(%q) num = %v, want %v", tc.input, num, tc.wantNum)
			}
		})
	}
}

func TestConvertUnit(t *testing.T) {
	t.Run("length within dimension", func(t *testing.T) {
		got, ok := ConvertUnit(100, "cm", "m")
		if !ok || !almostEqual(got, 1) {
			t.Errorf("100cm to m = %v, %v, want 1, true", got, ok)
		}
	})
	t.Run("mass within dimension", func(t *testing.T) {
		got, ok := ConvertUnit(1000, "g", "kg")
		if !ok || !almostEqual(got, 1) {
			t.Errorf("1000g to kg = %v, %v, want 1, true", got, ok)
		}
	})
	t.Run("compound ft_in converts like cm", func(t *testing.T) {
		got, ok := ConvertUnit(177.8, "ft_in", "m")
		if !ok || !almostEqual(got, 1.778) {
			t.Errorf("177.8 ft_in to m = %v, %v, want 1.778, true", got, ok)
		}
	})
	t.Run("cross-dimension rejected", func(t *testing.T) {
		if _, ok := ConvertUnit(10, "kg", "cm"); ok {
			t.Error("expected cross-dimension conversion to fail")
		}
	})
	t.Run("unknown unit rejected", func(t *testing.T) {
		if _, ok := ConvertUnit(10, "cm", "parsec"); ok {
			t.Error("expected unknown target unit to fail")
		}
	})
}

func TestFormatUnit(t *testing.T) {
	if got := FormatUnit(179.8324, "cm"); got != "179.83 cm" {
		t.Errorf("FormatUnit = %q, want \"179.83 cm\"", got)
	}
}

func TestIsKnownUnit(t *testing.T) {
	for _, u := range []string{"cm", "m", "in", "ft", "kg", "g", "lb", "oz"} {
		if !IsKnownUnit(u) {
			t.Errorf("IsKnownUnit(%q) = false, want true", u)
		}
	}
	if IsKnownUnit("parsec") {
		t.Error("IsKnownUnit(\"parsec\") = true, want false")
	}
}
