// Package analyzer infers per-column semantic types and summary statistics
// from a sampled row set, feeding downstream detector agents.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

// MaxSample caps how many leading rows are inspected for type inference.
const MaxSample = 1000

var (
	emailRe    = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[a-z]{2,}$`)
	phoneRe    = regexp.MustCompile(`\+?\d{10,}`)
	phoneINRe  = regexp.MustCompile(`(\+91|^91)\d{10}$`)
	phoneUSRe  = regexp.MustCompile(`(\+1|^1)\d{10}$`)
	dateISORe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dateSlashRe = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
	numericRe  = regexp.MustCompile(`^\d+\.?\d*$`)
)

// Analyze builds a ColumnProfile for every column in ds, sampling at most
// MaxSample leading rows (a deterministic contiguous prefix).
func Analyze(ds *dqmodel.Dataset) map[string]dqmodel.ColumnProfile {
	sample := ds.Rows
	if len(sample) > MaxSample {
		sample = sample[:MaxSample]
	}

	profiles := make(map[string]dqmodel.ColumnProfile, len(ds.Columns))
	countryCol := findCountryColumn(ds.Columns)

	for _, col := range ds.Columns {
		values := make([]string, 0, len(sample))
		for _, row := range sample {
			v := strings.TrimSpace(row[col])
			if v != "" {
				values = append(values, v)
			}
		}
		profiles[col] = profileColumn(col, values, sample, countryCol)
	}
	return profiles
}

func profileColumn(name string, values []string, sample []dqmodel.Row, countryCol string) dqmodel.ColumnProfile {
	freq := make(map[string]int, len(values))
	for _, v := range values {
		freq[strings.ToLower(v)]++
	}

	var mostCommon string
	var mostFreq int
	for v, c := range freq {
		if c > mostFreq {
			mostCommon, mostFreq = v, c
		}
	}

	sampleValues := values
	if len(sampleValues) > 10 {
		sampleValues = sampleValues[:10]
	}

	profile := dqmodel.ColumnProfile{
		Name:            name,
		InferredType:    inferType(values),
		UniqueCount:     len(freq),
		NonNullCount:    len(values),
		SampleValues:    sampleValues,
		MostCommonValue: mostCommon,
		MostCommonFreq:  mostFreq,
	}

	switch profile.InferredType {
	case dqmodel.ColumnEmail:
		profile.MostCommonDomain = mostCommonDomain(values)
	case dqmodel.ColumnPhone:
		profile.CountryHint = phoneCountryHint(values, sample, countryCol)
	}
	return profile
}

// inferType evaluates the type-inference rules in fixed priority order;
// the first matching type wins.
func inferType(values []string) dqmodel.ColumnType {
	if len(values) == 0 {
		return dqmodel.ColumnText
	}
	if matchRatio(values, emailRe.MatchString) > 0.5 {
		return dqmodel.ColumnEmail
	}
	if matchRatio(values, phoneRe.MatchString) > 0.3 {
		return dqmodel.ColumnPhone
	}
	if matchRatio(values, isDateLike) > 0.3 {
		return dqmodel.ColumnDate
	}
	if matchRatio(values, numericRe.MatchString) > 0.7 {
		return dqmodel.ColumnNumeric
	}
	return dqmodel.ColumnText
}

func isDateLike(v string) bool {
	return dateISORe.MatchString(v) || dateSlashRe.MatchString(v)
}

func matchRatio(values []string, match func(string) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if match(v) {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

func mostCommonDomain(values []string) string {
	freq := make(map[string]int)
	for _, v := range values {
		at := strings.LastIndex(v, "@")
		if at == -1 || at == len(v)-1 {
			continue
		}
		domain := strings.ToLower(v[at+1:])
		freq[domain]++
	}
	var best string
	var bestN int
	for d, n := range freq {
		if n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func phoneCountryHint(values []string, sample []dqmodel.Row, countryCol string) string {
	var inCount, usCount int
	for _, v := range values {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == '+' {
				return r
			}
			return -1
		}, v)
		if phoneINRe.MatchString(digits) {
			inCount++
		} else if phoneUSRe.MatchString(digits) {
			usCount++
		}
	}
	if inCount > 0 {
		return "IN"
	}
	if usCount > 0 {
		return "US"
	}
	if countryCol != "" {
		for _, row := range sample {
			if cv := strings.TrimSpace(row[countryCol]); cv != "" {
				return normalizeCountryName(cv)
			}
		}
	}
	return ""
}

func normalizeCountryName(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "india", "indian", "in":
		return "IN"
	case "us", "usa", "united states", "united states of america":
		return "US"
	default:
		if len(v) == 2 {
			return strings.ToUpper(v)
		}
		return ""
	}
}

func findCountryColumn(columns []string) string {
	for _, c := range columns {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "country") {
			return c
		}
	}
	return ""
}
