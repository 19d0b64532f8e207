// Package agents implements the ten detector agents of the repair
// pipeline. Each agent is a value satisfying Agent; none reference each
// other, and the Orchestrator supplies their dependency order.
package agents

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

// Agent is the capability every detector implements.
type Agent interface {
	Name() string
	Run(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile, gw llm.Completer) ([]dqmodel.Issue, error)
}

// maxWorkers bounds per-agent intra-row parallelism.
func maxWorkers() int64 {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return int64(n)
}

// parallelRows runs fn(rowID) for every index in [0, numRows) across a
// bounded worker pool, returning once all have completed. fn is expected
// to append its own results into a slot of a pre-sized slice (indexed by
// rowID) so the caller's ordering stays row-id-ascending, matching a
// sequential implementation's output order.
func parallelRows(ctx context.Context, numRows int, fn func(rowID int)) {
	sem := semaphore.NewWeighted(maxWorkers())
	var wg sync.WaitGroup
	for i := 0; i < numRows; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled; stop launching new work
		}
		wg.Add(1)
		go func(rowID int) {
			defer wg.Done()
			defer sem.Release(1)
			fn(rowID)
		}(i)
	}
	wg.Wait()
}

// newIssueID builds an id of the form
// {category}_{issue_type}_{row_id|dataset}_{column}_{random8}.
func newIssueID(category dqmodel.Category, issueType dqmodel.IssueType, rowID *int, column string) string {
	rowPart := "dataset"
	if rowID != nil {
		rowPart = itoa(*rowID)
	}
	suffix := uuid.NewString()
	if len(suffix) > 8 {
		suffix = strings.ReplaceAll(suffix, "-", "")[:8]
	}
	return strings.Join([]string{string(category), string(issueType), rowPart, column, suffix}, "_")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func intPtr(n int) *int { return &n }

// isNullish reports whether v is one of the contextual-missing-value
// sentinels detectors and the applier treat as "no value".
func isNullish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "n/a", "na", "none":
		return true
	default:
		return false
	}
}

// columnNameContainsAny reports whether name (lowercased) contains any of
// the given lowercase keywords.
func columnNameContainsAny(name string, keywords ...string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// findColumnsByKeywords returns every column name containing any keyword.
func findColumnsByKeywords(columns []string, keywords ...string) []string {
	var matches []string
	for _, c := range columns {
		if columnNameContainsAny(c, keywords...) {
			matches = append(matches, c)
		}
	}
	return matches
}

// allColumnNames returns the union of keys across all rows, since a
// dataset's rows are not guaranteed perfectly rectangular in practice.
func allColumnNames(rows []dqmodel.Row, declared []string) []string {
	seen := make(map[string]bool, len(declared))
	var names []string
	for _, c := range declared {
		if !seen[c] {
			seen[c] = true
			names = append(names, c)
		}
	}
	for _, row := range rows {
		for c := range row {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	return names
}

func logAgentError(logger *slog.Logger, name string, err error) {
	if logger != nil && err != nil {
		logger.Warn("detector agent failed", "agent", name, "error", err)
	}
}
