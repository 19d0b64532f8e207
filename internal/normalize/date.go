package normalize

import (
	"regexp"
	"strings"
	"time"
)

// fuzzyLayouts mirrors the set of layouts a dateutil-style fuzzy parser
// would accept for the formats this dataset's rows actually carry. Go has
// no built-in fuzzy date parser, so this tries a fixed layout list first
// (the equivalent of dateutil's common-format fast path) before falling
// back to the narrower regex table below.
var fuzzyLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"Monday, January 2, 2006",
	time.RFC3339,
}

type datePattern struct {
	re     *regexp.Regexp
	layout string
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "01/02/2006"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`), "01/02/06"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "01-02-2006"},
}

// ParseDate parses a date string to ISO (YYYY-MM-DD) with a confidence
// score, or returns ok=false if the string cannot be parsed.
func ParseDate(dateString string) (iso string, confidence float64, ok bool) {
	trimmed := strings.TrimSpace(dateString)
	if trimmed == "" {
		return "", 0, false
	}

	for _, layout := range fuzzyLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), 0.9, true
		}
	}

	for _, p := range datePatterns {
		if p.re.MatchString(trimmed) {
			if t, err := time.Parse(p.layout, trimmed); err == nil {
				return t.Format("2006-01-02"), 0.8, true
			}
		}
	}

	return "", 0, false
}

// IsISODate reports whether v is already in YYYY-MM-DD form.
func IsISODate(v string) bool {
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	if !re.MatchString(v) {
		return false
	}
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}
