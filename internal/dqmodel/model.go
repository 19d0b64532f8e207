// Package dqmodel defines the shared data model for the detection and
// repair pipeline: rows, column profiles, issues, and change maps.
package dqmodel

import (
	"encoding/json"
	"time"
)

// Row is an ordered mapping from column name to cell value. Values are
// always carried as strings; callers coerce to numbers/dates as needed.
// A nil entry (key absent) and an empty string are both treated as "no
// value" by detectors, matching the source data's own looseness.
type Row map[string]string

// Dataset is a finite, 0-indexed sequence of Rows sharing a column set.
// Row i's zero-based position is its RowID throughout the pipeline.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// Size returns the number of rows.
func (d *Dataset) Size() int { return len(d.Rows) }

// ColumnType is the semantic type C1 infers for a column.
type ColumnType string

const (
	ColumnEmail   ColumnType = "email"
	ColumnPhone   ColumnType = "phone"
	ColumnDate    ColumnType = "date"
	ColumnNumeric ColumnType = "numeric"
	ColumnText    ColumnType = "text"
)

// ColumnProfile is the per-column summary C1 produces.
type ColumnProfile struct {
	Name             string
	InferredType     ColumnType
	UniqueCount      int
	NonNullCount     int
	SampleValues     []string
	MostCommonValue  string
	MostCommonFreq   int
	MostCommonDomain string // email columns only
	CountryHint      string // phone columns only; ISO-ish hint e.g. "IN", "US"
}

// Category is the detector family that produced an Issue.
type Category string

const (
	CategoryFormatting           Category = "Formatting"
	CategoryUnits                Category = "Units"
	CategoryCategorical          Category = "Categorical"
	CategoryImputation           Category = "Imputation"
	CategorySemantic             Category = "Semantic"
	CategoryLogic                Category = "Logic"
	CategoryExtraction           Category = "Extraction"
	CategoryEmailValidation      Category = "EmailValidation"
	CategoryCompanyValidation    Category = "CompanyValidation"
	CategoryGeographicEnrichment Category = "GeographicEnrichment"
)

// IssueType is the symbolic defect subtype.
type IssueType string

const (
	IssueDateFormatting    IssueType = "DateFormatting"
	IssuePhoneNormalize    IssueType = "PhoneNormalization"
	IssueScaleMismatch     IssueType = "ScaleMismatch"
	IssueFuzzyMapping      IssueType = "FuzzyMapping"
	IssueInvalidEmail      IssueType = "InvalidEmail"
	IssueCompanyValidation IssueType = "CompanyValidation"
	IssueCompanyMismatch   IssueType = "CompanyMismatch"
	IssueMissingCountry    IssueType = "MissingCountry"
	IssueIncorrectState    IssueType = "IncorrectState"
	IssueMissingState      IssueType = "MissingState"
	IssueIncorrectCountry  IssueType = "IncorrectCountry"
	IssueTemporalParadox   IssueType = "TemporalParadox"
	IssueCrossFieldConflict IssueType = "CrossFieldConflict"
	IssueEntityResolution  IssueType = "EntityResolution"
	IssueMetadataScraping  IssueType = "MetadataScraping"
	IssueContextualFill    IssueType = "ContextualFill"
)

// NullSuggestion is the sentinel value an Issue.SuggestedValue carries to
// mean "clear the cell" instead of "write this string". The applier treats
// this, the literal strings "null"/"None", and "" identically.
const NullSuggestion = "\x00null\x00"

// Issue is a detected defect plus a proposed repair.
type Issue struct {
	ID             string    `json:"id"`
	RowID          *int      `json:"row_id"` // nil => dataset-level
	Column         string    `json:"column"`
	Category       Category  `json:"category"`
	IssueType      IssueType `json:"issue_type"`
	DirtyValue     string    `json:"dirty_value"`
	SuggestedValue string    `json:"suggested_value"` // may equal NullSuggestion
	Confidence     float64   `json:"confidence"`
	Explanation    string    `json:"explanation"`
	WhyAgentic     string    `json:"why_agentic"`
}

// MarshalJSON writes NullSuggestion as the literal string "null", which
// IsClear still recognizes when the Issue is read back.
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	p := plain(i)
	if p.SuggestedValue == NullSuggestion {
		p.SuggestedValue = "null"
	}
	return json.Marshal(p)
}

// IsClear reports whether the issue's suggestion means "clear the cell".
func (i *Issue) IsClear() bool {
	switch i.SuggestedValue {
	case NullSuggestion, "null", "None", "":
		return true
	default:
		return false
	}
}

// CellKey identifies one (row, column) pair for ChangeMap/fixed-cell tracking.
type CellKey struct {
	RowID  int
	Column string
}

// CellChange is one recorded (old, new) pair in a ChangeMap.
type CellChange struct {
	OldValue string
	NewValue string // may be the literal string "null"
}

// ChangeMap is the per-cell diff the applier produces.
type ChangeMap map[CellKey]CellChange

// QuotaStatus is surfaced by the LLM gateway and attached to run summaries.
type QuotaStatus struct {
	Exhausted          bool
	WorkingModel       string
	Message            string
	EstimatedTokensUsed int
}

// Summary is the orchestrator's per-run report.
type Summary struct {
	TotalRowsScanned   int
	TotalIssues        int
	RowsAffected       int
	RowsAffectedPct    float64
	CategoryCounts     map[Category]int
	IssueTypeCounts    map[IssueType]int
	Quota              QuotaStatus
	Partial            bool
}

// RunKind distinguishes a detection run from an apply run in the ledger.
type RunKind string

const (
	RunKindDetect RunKind = "detect"
	RunKindApply  RunKind = "apply"
)

// RunRecord is one row of the run ledger, persisted by the Run Ledger
// component after every DetectIssues/ApplyFixes invocation.
type RunRecord struct {
	RunID          string
	Kind           RunKind
	StartedAt      time.Time
	DurationMS     int64
	RowsScanned    int
	IssuesFound    int
	AppliedCount   int
	QuotaExhausted bool
	WorkingModel   string
	Partial        bool
}
