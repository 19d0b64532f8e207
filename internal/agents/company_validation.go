package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// CompanyValidation finds entity-name variations (typos, abbreviations) of
// the same organization and standardizes them to one canonical name,
// grounded in original_source/backend/agents/company_validation.py.
type CompanyValidation struct{}

func (CompanyValidation) Name() string { return string(dqmodel.CategoryCompanyValidation) }

type companyOccurrence struct {
	rowID int
	col   string
}

// genericEmailDomains lists consumer webmail providers whose addresses carry
// no information about the holder's employer. A row whose email lives on one
// of these domains is excluded from all company validation, in both passes:
// its company field may be anything, including null.
var genericEmailDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"icloud.com":     true,
	"mail.com":       true,
	"protonmail.com": true,
	"aol.com":        true,
	"live.com":       true,
	"msn.com":        true,
	"ymail.com":      true,
	"gmx.com":        true,
	"zoho.com":       true,
	"fastmail.com":   true,
}

func (CompanyValidation) Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error) {
	cols := companyColumns(rows, profiles)
	if len(cols) == 0 {
		return nil, nil
	}

	emailCols := emailColumns(profiles)
	excluded := genericEmailRows(rows, emailCols)

	var issues []dqmodel.Issue
	issues = append(issues, emailDomainMismatches(ctx, gw, rows, cols, emailCols, excluded)...)
	issues = append(issues, canonicalizeCompanyNames(ctx, gw, rows, cols, excluded)...)
	return issues, nil
}

// genericEmailRows returns the set of row IDs whose email lives on a generic
// consumer domain, per the §4.4.4 exclusion rule.
func genericEmailRows(rows []dqmodel.Row, emailCols []string) map[int]bool {
	excluded := map[int]bool{}
	if len(emailCols) == 0 {
		return excluded
	}
	for rowID, row := range rows {
		for _, col := range emailCols {
			email := strings.TrimSpace(row[col])
			if email == "" {
				continue
			}
			if domain, ok := emailDomain(email); ok && genericEmailDomains[domain] {
				excluded[rowID] = true
			}
		}
	}
	return excluded
}

func emailDomain(email string) (string, bool) {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(domain)), true
}

// emailDomainMismatches implements Pass 1: for each row with a corporate
// (non-generic) email domain, ask the model what company that domain
// belongs to, and flag the row's company cell if it disagrees.
func emailDomainMismatches(ctx context.Context, gw llm.Completer, rows []dqmodel.Row, companyCols, emailCols []string, excluded map[int]bool) []dqmodel.Issue {
	if gw == nil || len(emailCols) == 0 {
		return nil
	}

	domainCache := map[string]string{}
	var issues []dqmodel.Issue
	for rowID, row := range rows {
		if excluded[rowID] {
			continue
		}
		var domain string
		for _, col := range emailCols {
			email := strings.TrimSpace(row[col])
			if email == "" {
				continue
			}
			if d, ok := emailDomain(email); ok && !genericEmailDomains[d] {
				domain = d
				break
			}
		}
		if domain == "" {
			continue
		}

		inferred, cached := domainCache[domain]
		if !cached {
			inferred = companyForEmailDomain(ctx, gw, domain)
			domainCache[domain] = inferred
		}
		if inferred == "" {
			continue
		}

		for _, col := range companyCols {
			current := strings.TrimSpace(row[col])
			if current != "" && strings.EqualFold(current, inferred) {
				continue
			}
			issues = append(issues, dqmodel.Issue{
				ID:             newIssueID(dqmodel.CategoryCompanyValidation, dqmodel.IssueCompanyMismatch, intPtr(rowID), col),
				RowID:          intPtr(rowID),
				Column:         col,
				Category:       dqmodel.CategoryCompanyValidation,
				IssueType:      dqmodel.IssueCompanyMismatch,
				DirtyValue:     current,
				SuggestedValue: inferred,
				Confidence:     0.95,
				Explanation:    fmt.Sprintf("email domain %q belongs to %q, which does not match the company field", domain, inferred),
				WhyAgentic:     "infers the employer from the email domain and cross-checks it against the stated company",
			})
		}
	}
	return issues
}

func companyForEmailDomain(ctx context.Context, gw llm.Completer, domain string) string {
	prompt := fmt.Sprintf(`What company owns the email domain %q? Respond with JSON: `+
		`{"company": "... or null if unknown/not a corporate domain"}`, domain)
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are an expert at identifying companies from their email domains. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 100)
	if err != nil || text == "" {
		return ""
	}
	var out struct {
		Company *string `json:"company"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil || out.Company == nil {
		return ""
	}
	return strings.TrimSpace(*out.Company)
}

// canonicalizeCompanyNames implements Pass 2: collect the unique company
// strings across non-excluded rows and, when more than one variant exists,
// standardize every non-canonical occurrence to the canonical name.
func canonicalizeCompanyNames(ctx context.Context, gw llm.Completer, rows []dqmodel.Row, cols []string, excluded map[int]bool) []dqmodel.Issue {
	occurrences := map[string][]companyOccurrence{}
	var order []string
	for rowID, row := range rows {
		if excluded[rowID] {
			continue
		}
		for _, col := range cols {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			if _, seen := occurrences[v]; !seen {
				order = append(order, v)
			}
			occurrences[v] = append(occurrences[v], companyOccurrence{rowID, col})
		}
	}
	if len(occurrences) < 2 {
		return nil
	}

	canonical := canonicalCompanyName(ctx, gw, order, occurrences)
	if canonical == "" {
		return nil
	}

	var issues []dqmodel.Issue
	for _, name := range order {
		if name == canonical {
			continue
		}
		for _, occ := range occurrences[name] {
			issues = append(issues, dqmodel.Issue{
				ID:             newIssueID(dqmodel.CategoryCompanyValidation, dqmodel.IssueCompanyValidation, intPtr(occ.rowID), occ.col),
				RowID:          intPtr(occ.rowID),
				Column:         occ.col,
				Category:       dqmodel.CategoryCompanyValidation,
				IssueType:      dqmodel.IssueCompanyValidation,
				DirtyValue:     name,
				SuggestedValue: canonical,
				Confidence:     0.8,
				Explanation:    fmt.Sprintf("%q is a variant of %q; standardizing to the canonical name", name, canonical),
				WhyAgentic:     "analyzes every company name in the dataset, identifies variations/typos/abbreviations, and suggests the canonical name",
			})
		}
	}
	return issues
}

// rejectedCompanyColumnKeywords excludes columns that would otherwise match
// the loose "org/corp/firm" heuristic below but are clearly a different kind
// of field (a measurement, a location, a date, or a contact detail).
var rejectedCompanyColumnKeywords = []string{
	"height", "weight", "length", "width", "distance", "size", "measurement",
	"address", "city", "state", "country", "zip", "postal",
	"date", "birth", "dob",
	"phone", "email", "e-mail",
}

func companyColumns(rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile) []string {
	all := allColumnNames(rows, nil)
	var cols []string
	total := len(rows)
	for _, name := range all {
		if columnNameContainsAny(name, rejectedCompanyColumnKeywords...) {
			continue
		}
		p, ok := profiles[name]
		if columnNameContainsAny(name, "company", "organisation", "organization", "org", "corp", "firm", "employer", "business") {
			cols = append(cols, name)
			continue
		}
		if ok && p.InferredType == dqmodel.ColumnText && total > 0 {
			if p.UniqueCount > 10 && p.UniqueCount < int(float64(total)*0.8) {
				cols = append(cols, name)
			}
		}
	}
	return cols
}

func canonicalCompanyName(ctx context.Context, gw llm.Completer, names []string, occurrences map[string][]companyOccurrence) string {
	if gw != nil {
		if name := findCanonicalCompanyName(ctx, gw, names); name != "" {
			return name
		}
	}
	// Deterministic fallback: prefer longer names, then higher frequency.
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return len(occurrences[sorted[i]]) > len(occurrences[sorted[j]])
	})
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

func findCanonicalCompanyName(ctx context.Context, gw llm.Completer, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	prompt := fmt.Sprintf(`Given these company name variations: [%s], determine which is the canonical `+
		`(official, full) company name. Prefer full names over abbreviations. `+
		`Respond with JSON: {"canonical_name": "..."}`, strings.Join(quoted, ", "))
	text, err := gw.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are an expert at identifying canonical company names. Respond with strict JSON only."},
		{Role: "user", Content: prompt},
	}, 0.1, 120)
	if err != nil || text == "" {
		return ""
	}
	var out struct {
		CanonicalName string `json:"canonical_name"`
	}
	if extractErr := llm.ExtractJSONObject(text, &out); extractErr != nil {
		return ""
	}
	for _, n := range names {
		if n == out.CanonicalName {
			return n
		}
	}
	return ""
}

