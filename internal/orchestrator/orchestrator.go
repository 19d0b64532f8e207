// Package orchestrator runs the detector agents in their fixed dependency
// order, aggregates their Issues, and builds the per-run Summary, grounded
// on original_source/backend/agents/orchestrator.py.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dqrepair/pipeline/internal/agents"
	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/llm"
)

const DefaultSoftDeadline = 300 * time.Second

// Ledger is the narrow interface the orchestrator needs from the run
// ledger, so it can be swapped for a stub in tests.
type Ledger interface {
	Record(ctx context.Context, r dqmodel.RunRecord) error
}

// Orchestrator runs every detector agent in sequence and aggregates the
// result into Issues plus a Summary.
type Orchestrator struct {
	agents      []agents.Agent
	gw          llm.Completer
	logger      *slog.Logger
	ledger      Ledger
	softDeadline time.Duration
}

// New builds an Orchestrator wired with every detector in the fixed
// pipeline order, EmailValidation first and GeographicEnrichment before
// Formatting. Every agent sees the same input rows and none reads another
// agent's Issues, so Formatting does not use the countries that
// GeographicEnrichment infers.
func New(gw llm.Completer, ledger Ledger, logger *slog.Logger, softDeadline time.Duration, imputationColumns ...string) *Orchestrator {
	if softDeadline <= 0 {
		softDeadline = DefaultSoftDeadline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		agents: []agents.Agent{
			agents.EmailValidation{},
			agents.GeographicEnrichment{},
			agents.Formatting{},
			agents.CompanyValidation{},
			agents.Units{},
			agents.Categorical{},
			agents.Imputation{Columns: imputationColumns},
			agents.Semantic{},
			agents.Logic{},
			agents.Extraction{},
		},
		gw:           gw,
		logger:       logger,
		ledger:       ledger,
		softDeadline: softDeadline,
	}
}

// DetectIssues runs every agent over the dataset and returns the
// accumulated Issues plus a run Summary. It never returns an error for an
// individual agent's failure — those are logged and skipped; the returned
// error is reserved for ledger-write failures the caller should know about.
func (o *Orchestrator) DetectIssues(ctx context.Context, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile) ([]dqmodel.Issue, dqmodel.Summary, error) {
	started := time.Now()
	deadline := started.Add(o.softDeadline)

	var allIssues []dqmodel.Issue
	partial := false

	for _, agent := range o.agents {
		if time.Now().After(deadline) {
			o.logger.Warn("orchestrator: soft deadline exceeded, skipping remaining agents", "agent", agent.Name())
			partial = true
			break
		}

		issues, err := o.runAgent(ctx, agent, rows, profiles)
		if err != nil {
			logAgentFailure(o.logger, agent.Name(), err)
			continue
		}
		allIssues = append(allIssues, issues...)
		o.logger.Info("orchestrator: agent finished", "agent", agent.Name(), "issues_found", len(issues))
	}

	summary := buildSummary(allIssues, len(rows))
	summary.Partial = partial
	if statusGw, ok := o.gw.(interface{ Status() llm.QuotaStatus }); ok {
		status := statusGw.Status()
		summary.Quota = dqmodel.QuotaStatus{
			Exhausted:           status.Exhausted,
			WorkingModel:        status.WorkingModel,
			Message:             status.Message,
			EstimatedTokensUsed: status.EstimatedTokensUsed,
		}
	}

	if o.ledger != nil {
		record := dqmodel.RunRecord{
			RunID:          uuid.NewString(),
			Kind:           dqmodel.RunKindDetect,
			StartedAt:      started,
			DurationMS:     time.Since(started).Milliseconds(),
			RowsScanned:    len(rows),
			IssuesFound:    len(allIssues),
			QuotaExhausted: summary.Quota.Exhausted,
			WorkingModel:   summary.Quota.WorkingModel,
			Partial:        partial,
		}
		if err := o.ledger.Record(ctx, record); err != nil {
			return allIssues, summary, err
		}
	}

	return allIssues, summary, nil
}

// runAgent isolates a single agent's panic/error so one misbehaving
// detector cannot take down the whole run.
func (o *Orchestrator) runAgent(ctx context.Context, agent agents.Agent, rows []dqmodel.Row, profiles map[string]dqmodel.ColumnProfile) (issues []dqmodel.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &agentPanicError{agent: agent.Name(), value: r}
		}
	}()
	return agent.Run(ctx, rows, profiles, o.gw)
}

type agentPanicError struct {
	agent string
	value interface{}
}

func (e *agentPanicError) Error() string {
	return "agent " + e.agent + " panicked: " + formatPanicValue(e.value)
}

func formatPanicValue(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic"
}

func logAgentFailure(logger *slog.Logger, name string, err error) {
	logger.Warn("orchestrator: agent failed, continuing", "agent", name, "error", err)
}

func buildSummary(issues []dqmodel.Issue, totalRows int) dqmodel.Summary {
	categoryCounts := map[dqmodel.Category]int{}
	issueTypeCounts := map[dqmodel.IssueType]int{}
	affectedRows := map[int]bool{}

	for _, issue := range issues {
		categoryCounts[issue.Category]++
		issueTypeCounts[issue.IssueType]++
		if issue.RowID != nil {
			affectedRows[*issue.RowID] = true
		}
	}

	rowsAffectedPct := 0.0
	if totalRows > 0 {
		rowsAffectedPct = float64(len(affectedRows)) / float64(totalRows) * 100
	}

	return dqmodel.Summary{
		TotalRowsScanned: totalRows,
		TotalIssues:      len(issues),
		RowsAffected:      len(affectedRows),
		RowsAffectedPct:   rowsAffectedPct,
		CategoryCounts:    categoryCounts,
		IssueTypeCounts:   issueTypeCounts,
	}
}
