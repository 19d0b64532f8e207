package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonPhoneCharRe = regexp.MustCompile(`[^\d+]`)
	genericPrefixRe = regexp.MustCompile(`^\+\d{1,3}`)
)

// DetectPhoneCountry derives a country hint ("IN", "US", …) from a raw
// phone string alone, with no column/context priority applied — callers
// needing the strict priority chain of §4.4.3 implement it themselves and
// only fall back to this when every other signal is absent.
func DetectPhoneCountry(phone string) string {
	digits := nonPhoneCharRe.ReplaceAllString(phone, "")
	if strings.HasPrefix(digits, "+91") || strings.HasPrefix(digits, "91") {
		return "IN"
	}
	if len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9' {
		return "IN"
	}
	if strings.HasPrefix(digits, "+1") || (strings.HasPrefix(digits, "1") && len(digits) == 11) {
		return "US"
	}
	if len(digits) == 10 && digits[0] != '0' {
		return "US"
	}
	return "US"
}

// NormalizePhone reformats a raw phone string per countryCode. When
// countryCode is non-empty it has absolute priority over any prefix or
// auto-detection found in raw. Returns ok=false only when raw is empty.
func NormalizePhone(raw string, countryCode string) (normalized string, confidence float64, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, false
	}

	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if code == "" {
		code = DetectPhoneCountry(raw)
	}

	digits := nonPhoneCharRe.ReplaceAllString(raw, "")
	rawDigits := stripCountryPrefix(digits)

	switch code {
	case "IN":
		return formatIN(rawDigits)
	case "US":
		return formatUS(rawDigits)
	default:
		if code != "" && len(rawDigits) > 0 {
			conf := 0.7
			if len(rawDigits) < 7 {
				conf = 0.6
			}
			return fmt.Sprintf("+%s %s", code, rawDigits), conf, true
		}
	}

	// No usable country code at all: keep a generic international format
	// if the input already carried a '+' prefix, otherwise give up.
	if strings.HasPrefix(digits, "+") && len(digits) > 4 {
		cc := digits[1:3]
		rest := digits[3:]
		if len(rest) >= 7 {
			return fmt.Sprintf("+%s %s", cc, rest), 0.7, true
		}
		return digits, 0.7, true
	}
	return "", 0, false
}

// stripCountryPrefix removes a leading country-code prefix (+91, +1, a
// generic +{1-3} digit code, or the bare "91"/"1" national-prefix forms)
// and any leading zero, leaving the raw national number.
func stripCountryPrefix(digits string) string {
	raw := digits
	if strings.HasPrefix(raw, "+") {
		switch {
		case strings.HasPrefix(raw, "+91"):
			raw = raw[3:]
		case strings.HasPrefix(raw, "+1"):
			raw = raw[2:]
		default:
			raw = genericPrefixRe.ReplaceAllString(raw, "")
		}
	}
	if strings.HasPrefix(raw, "91") && len(raw) >= 12 {
		raw = raw[2:]
	} else if strings.HasPrefix(raw, "1") && len(raw) == 11 {
		raw = raw[1:]
	}
	return strings.TrimLeft(raw, "0")
}

func formatIN(digits string) (string, float64, bool) {
	switch {
	case len(digits) >= 10:
		last10 := digits[len(digits)-10:]
		return fmt.Sprintf("+91 %s", last10), 0.9, true
	case len(digits) >= 8:
		padded := padLeft(digits, 10)
		return fmt.Sprintf("+91 %s", padded), 0.8, true
	case len(digits) > 0:
		return fmt.Sprintf("+91 %s", digits), 0.7, true
	default:
		return "", 0, false
	}
}

func formatUS(digits string) (string, float64, bool) {
	switch {
	case len(digits) >= 10:
		last10 := digits[len(digits)-10:]
		return fmt.Sprintf("+1 (%s) %s-%s", last10[0:3], last10[3:6], last10[6:10]), 0.9, true
	case len(digits) >= 8:
		padded := padLeft(digits, 10)
		return fmt.Sprintf("+1 (%s) %s-%s", padded[0:3], padded[3:6], padded[6:10]), 0.8, true
	case len(digits) > 0:
		return fmt.Sprintf("+1 %s", digits), 0.7, true
	default:
		return "", 0, false
	}
}

func padLeft(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}

// StripParens removes "(" and ")" from an Indian-formatted number that
// accidentally carries them, per the no-brackets-for-India rule.
func StripParens(v string) string {
	r := strings.NewReplacer("(", "", ")", "")
	return r.Replace(v)
}
