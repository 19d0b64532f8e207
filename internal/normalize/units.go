package normalize

import (
	"fmt"
	"regexp"
	"strconv"
)

type unitPattern struct {
	re   *regexp.Regexp
	unit string // "ft_in", "ft_in_implied", or a unit symbol
}

// unitPatterns is order-sensitive: compound ft/in forms must be tried
// before any singleton cm/m/in/ft pattern, or "5ft 10in" would match the
// bare "ft" pattern on its first token and drop the inches.
var unitPatterns = []unitPattern{
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*ft\s*(\d+\.?\d*)\s*in\b`), "ft_in"},
	{regexp.MustCompile(`(\d+\.?\d*)['\x{2019}]\s*(\d+\.?\d*)["\x{201d}]`), "ft_in"},
	{regexp.MustCompile(`(\d+\.?\d*)['\x{2019}]\s*(\d+\.?\d*)\b`), "ft_in"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*feet\s*(\d+\.?\d*)\s*inches?\b`), "ft_in"},
	{regexp.MustCompile(`^(\d)\s+(\d{1,2})\s*$`), "ft_in_implied"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*meters?\b`), "m"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*inches?\b`), "in"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*feet\b`), "ft"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*cm\b`), "cm"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*kg\b`), "kg"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*lb\b`), "lb"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*oz\b`), "oz"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*g\b`), "g"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*m\b`), "m"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*in\b`), "in"},
	{regexp.MustCompile(`(?i)(\d+\.?\d*)\s*ft\b`), "ft"},
}

// ParseUnit extracts a (value, unit, confidence) triple from a string such
// as "5ft 10in" or "178cm". Returns ok=false on no match or out-of-range
// implied-height values.
func ParseUnit(value string) (num float64, unit string, confidence float64, ok bool) {
	for _, p := range unitPatterns {
		m := p.re.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		switch p.unit {
		case "ft_in", "ft_in_implied":
			feet, errF := strconv.ParseFloat(m[1], 64)
			inches, errI := strconv.ParseFloat(m[2], 64)
			if errF != nil || errI != nil {
				continue
			}
			if feet < 3 || feet > 8 || inches < 0 || inches > 11 {
				continue
			}
			totalInches := feet*12 + inches
			cm := totalInches * 2.54
			conf := 0.9
			if p.unit == "ft_in_implied" {
				conf = 0.75
			}
			// Unit is reported as the synthetic compound tag, not "cm": a
			// cell written as "5ft 10in" is a different textual format from
			// one already written "177.80 cm", even though both describe
			// the same dimension, so callers comparing against a column's
			// canonical unit must see them as distinct.
			return cm, p.unit, conf, true
		default:
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return v, p.unit, 0.85, true
		}
	}
	return 0, "", 0, false
}

// baseFactors maps each unit symbol to its scale against its dimension's
// base unit (cm for length, kg for mass). Units from different dimensions
// never convert into one another.
var lengthToCM = map[string]float64{
	"cm": 1.0,
	"m":  100.0,
	"in": 2.54,
	"ft": 30.48,
	// ft_in/ft_in_implied values are already expressed in cm by ParseUnit
	// (it does the feet+inches arithmetic itself), so they convert like cm.
	"ft_in":         1.0,
	"ft_in_implied": 1.0,
}

var massToKG = map[string]float64{
	"kg": 1.0,
	"g":  0.001,
	"lb": 0.45359237,
	"oz": 0.028349523125,
}

// ConvertUnit converts value from fromUnit to toUnit, returning ok=false
// when either unit is unknown or the two belong to different dimensions.
func ConvertUnit(value float64, fromUnit, toUnit string) (float64, bool) {
	if fromFactor, ok := lengthToCM[fromUnit]; ok {
		toFactor, ok := lengthToCM[toUnit]
		if !ok {
			return 0, false
		}
		return value * fromFactor / toFactor, true
	}
	if fromFactor, ok := massToKG[fromUnit]; ok {
		toFactor, ok := massToKG[toUnit]
		if !ok {
			return 0, false
		}
		return value * fromFactor / toFactor, true
	}
	return 0, false
}

// FormatUnit renders a value per the "{value:.2f} {unit}" convention.
func FormatUnit(value float64, unit string) string {
	return fmt.Sprintf("%.2f %s", value, unit)
}

// IsKnownUnit reports whether u is a recognized length or mass unit symbol.
func IsKnownUnit(u string) bool {
	_, lenOK := lengthToCM[u]
	_, massOK := massToKG[u]
	return lenOK || massOK
}
