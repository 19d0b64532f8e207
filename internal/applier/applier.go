// Package applier turns a selected set of Issues into a repaired dataset,
// grounded on SPEC_FULL.md §4.6 (no single original_source file owns this
// step; the Python project applied fixes inline in its chatbot layer).
package applier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dqrepair/pipeline/internal/config"
	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/normalize"
)

// Mode selects what happens to the repaired dataset after fixes are applied.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeExport  Mode = "export"
	ModeCommit  Mode = "commit"
)

// Sink is the narrow interface the applier needs to persist an exported
// or committed dataset.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (locator string, err error)
}

// Ledger is the narrow interface the applier needs from the run ledger.
type Ledger interface {
	Record(ctx context.Context, r dqmodel.RunRecord) error
}

// Applier applies selected Issues to a dataset and optionally exports the
// result through a Sink, writing one RunRecord per invocation.
type Applier struct {
	sink             Sink
	ledger           Ledger
	protectedColumns []string
}

// New builds an Applier protecting the default column-keyword set
// (config.DefaultProtectedColumnKeywords). Use NewWithProtectedColumns to
// override it, e.g. from a loaded Config.
func New(sink Sink, ledger Ledger) *Applier {
	return NewWithProtectedColumns(sink, ledger, config.DefaultProtectedColumnKeywords)
}

// NewWithProtectedColumns builds an Applier that never rewrites a column
// whose name contains one of protectedColumns (case-insensitive substring
// match), per §6's protected-column rule.
func NewWithProtectedColumns(sink Sink, ledger Ledger, protectedColumns []string) *Applier {
	return &Applier{sink: sink, ledger: ledger, protectedColumns: protectedColumns}
}

// Result is what ApplyFixes returns.
type Result struct {
	Rows         []dqmodel.Row
	Changes      dqmodel.ChangeMap
	AppliedCount int
	Locator      string // set only in export/commit mode
}

// ApplyFixes applies the issues whose ID is in selectedIDs (in the order
// given) to rows, per the four-step procedure: resolve unit targets,
// standardize measurement columns wholesale, apply remaining fixes
// first-write-wins, then (for export/commit) serialize and persist.
func (a *Applier) ApplyFixes(ctx context.Context, rows []dqmodel.Row, issues []dqmodel.Issue, selectedIDs map[string]bool, unitPreferences map[string]string, mode Mode, sourceKey string) (Result, error) {
	started := time.Now()

	selected := make([]dqmodel.Issue, 0, len(issues))
	for _, issue := range issues {
		if selectedIDs == nil || selectedIDs[issue.ID] {
			selected = append(selected, issue)
		}
	}

	newRows := cloneRows(rows)
	changes := dqmodel.ChangeMap{}

	unitTargets := resolveUnitTargets(selected, unitPreferences)
	standardizeUnitColumns(newRows, unitTargets, changes)

	fixedCells := map[dqmodel.CellKey]bool{}
	applied := applyNonUnitFixes(newRows, selected, unitTargets, fixedCells, changes, a.protectedColumns)

	result := Result{Rows: newRows, Changes: changes, AppliedCount: applied}

	if mode == ModeExport || mode == ModeCommit {
		data := serializeCSV(newRows, columnOrder(rows))
		key := derivedKey(sourceKey)
		if a.sink == nil {
			return result, fmt.Errorf("applier: mode %s requires a configured sink", mode)
		}
		locator, err := a.sink.Put(ctx, key, data, "text/csv")
		if err != nil {
			return result, fmt.Errorf("applier: export: %w", err)
		}
		result.Locator = locator
	}

	if a.ledger != nil {
		record := dqmodel.RunRecord{
			RunID:        uuid.NewString(),
			Kind:         dqmodel.RunKindApply,
			StartedAt:    started,
			DurationMS:   time.Since(started).Milliseconds(),
			RowsScanned:  len(rows),
			AppliedCount: applied,
		}
		if err := a.ledger.Record(ctx, record); err != nil {
			return result, err
		}
	}

	return result, nil
}

func cloneRows(rows []dqmodel.Row) []dqmodel.Row {
	out := make([]dqmodel.Row, len(rows))
	for i, row := range rows {
		clone := make(dqmodel.Row, len(row))
		for k, v := range row {
			clone[k] = v
		}
		out[i] = clone
	}
	return out
}

// resolveUnitTargets reads the intended unit out of every ScaleMismatch
// issue's suggested value, then lets unitPreferences override per column.
func resolveUnitTargets(issues []dqmodel.Issue, unitPreferences map[string]string) map[string]string {
	targets := map[string]string{}
	for _, issue := range issues {
		if issue.IssueType != dqmodel.IssueScaleMismatch {
			continue
		}
		if _, _, unit, ok := parseFormattedUnit(issue.SuggestedValue); ok {
			targets[issue.Column] = unit
		}
	}
	for col, unit := range unitPreferences {
		targets[col] = unit
	}
	return targets
}

// parseFormattedUnit reads back the "{value:.2f} {unit}" convention
// normalize.FormatUnit produces.
func parseFormattedUnit(s string) (raw string, value float64, unit string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 2)
	if len(parts) != 2 {
		return s, 0, "", false
	}
	v, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return s, 0, "", false
	}
	return s, v, parts[1], true
}

// standardizeUnitColumns reformats every parseable value in each targeted
// column to the resolved unit, regardless of whether that particular cell
// had its own ScaleMismatch issue — this is the wholesale pass step 2 names.
func standardizeUnitColumns(rows []dqmodel.Row, targets map[string]string, changes dqmodel.ChangeMap) {
	for col, targetUnit := range targets {
		for rowID, row := range rows {
			old, present := row[col]
			if !present || strings.TrimSpace(old) == "" {
				continue
			}
			num, unit, _, ok := normalize.ParseUnit(old)
			if !ok {
				continue
			}
			converted, ok := normalize.ConvertUnit(num, unit, targetUnit)
			if !ok {
				continue
			}
			newVal := normalize.FormatUnit(converted, targetUnit)
			if newVal == old {
				continue
			}
			row[col] = newVal
			changes[dqmodel.CellKey{RowID: rowID, Column: col}] = dqmodel.CellChange{OldValue: old, NewValue: newVal}
		}
	}
}

// applyNonUnitFixes walks the issue list in order, writing each selected
// non-ScaleMismatch fix first-write-wins, skipping protected columns and
// every column the unit pass targeted (whether or not a given cell in it
// was standardized).
func applyNonUnitFixes(rows []dqmodel.Row, issues []dqmodel.Issue, unitTargets map[string]string, fixedCells map[dqmodel.CellKey]bool, changes dqmodel.ChangeMap, protectedColumns []string) int {
	applied := 0
	for _, issue := range issues {
		if issue.IssueType == dqmodel.IssueScaleMismatch {
			continue // already handled wholesale in step 2
		}
		if issue.RowID == nil {
			continue
		}
		rowID := *issue.RowID
		if rowID < 0 || rowID >= len(rows) {
			continue
		}
		row := rows[rowID]
		if issue.Column == "" {
			continue
		}
		if _, present := row[issue.Column]; !present {
			continue
		}
		if isProtectedColumn(issue.Column, protectedColumns) {
			continue
		}
		if _, ok := unitTargets[issue.Column]; ok {
			continue
		}

		key := dqmodel.CellKey{RowID: rowID, Column: issue.Column}
		if fixedCells[key] {
			continue
		}

		old := row[issue.Column]
		if issue.IsClear() {
			row[issue.Column] = ""
			changes[key] = dqmodel.CellChange{OldValue: old, NewValue: "null"}
		} else {
			row[issue.Column] = issue.SuggestedValue
			changes[key] = dqmodel.CellChange{OldValue: old, NewValue: issue.SuggestedValue}
		}
		fixedCells[key] = true
		applied++
	}
	return applied
}

func isProtectedColumn(col string, protectedColumns []string) bool {
	lower := strings.ToLower(col)
	for _, kw := range protectedColumns {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func columnOrder(rows []dqmodel.Row) []string {
	seen := map[string]bool{}
	var order []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				order = append(order, col)
			}
		}
	}
	return order
}

func serializeCSV(rows []dqmodel.Row, columns []string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(quoteAll(columns), ","))
	b.WriteString("\n")
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = row[col]
		}
		b.WriteString(strings.Join(quoteAll(values), ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, ",\"\n") {
			out[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		} else {
			out[i] = v
		}
	}
	return out
}

func derivedKey(sourceKey string) string {
	trimmed := strings.TrimSuffix(sourceKey, filepathExt(sourceKey))
	return trimmed + "_cleaned.csv"
}

func filepathExt(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return ""
	}
	return s[idx:]
}
