// Command dqrepair detects and repairs semantic data-quality defects in a
// tabular dataset: typos, unit mismatches, malformed contacts, geographic
// and temporal inconsistencies, entity-name variants, and context-dependent
// missing values.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dqrepair/pipeline/internal/analyzer"
	"github.com/dqrepair/pipeline/internal/applier"
	"github.com/dqrepair/pipeline/internal/config"
	"github.com/dqrepair/pipeline/internal/diff"
	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/ledger"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/orchestrator"
	"github.com/dqrepair/pipeline/internal/rowsource"
	"github.com/dqrepair/pipeline/internal/sink"
)

const usage = `dqrepair - detect and repair data-quality defects in a dataset

Usage:
  dqrepair <command> [options]

Commands:
  detect    Scan a dataset and report issues as JSON
  apply     Apply selected issues and write a repaired dataset
  version   Print version information

Run 'dqrepair <command> --help' for more information on a command.
`

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "detect":
		runDetect(os.Args[2:])
	case "apply":
		runApply(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("dqrepair version %s\n", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runDetect(args []string) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	input := fs.String("input", "", "Input file path (required)")
	sheet := fs.String("sheet", "", "Sheet name (for XLSX files)")
	limit := fs.Int("limit", 0, "Maximum rows to load (0 = no limit)")
	fs.Usage = func() {
		fmt.Println(`Scan a dataset and report issues as JSON

Usage:
  dqrepair detect --input <file> [options]

Options:
  --input   Input file path (CSV or XLSX) (required)
  --sheet   Sheet name for XLSX files
  --limit   Maximum rows to load (0 = no limit)`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	cfg.RowSourcePath = *input
	cfg.RowSourceSheet = *sheet
	cfg.RowSourceType = sourceTypeFromPath(*input)
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	rows, columns, gw, led, err := loadPipeline(ctx, cfg, logger, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer led.Close()

	ds := &dqmodel.Dataset{Columns: columns, Rows: rows}
	profiles := analyzer.Analyze(ds)

	orc := orchestrator.New(gw, led, logger, cfg.SoftDeadline, cfg.ImputationColumns...)
	issues, summary, err := orc.DetectIssues(ctx, rows, profiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: detection failed: %v\n", err)
		os.Exit(1)
	}

	output := struct {
		Issues  []dqmodel.Issue `json:"issues"`
		Summary dqmodel.Summary `json:"summary"`
	}{Issues: issues, Summary: summary}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding output: %v\n", err)
		os.Exit(1)
	}
}

func runApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	input := fs.String("input", "", "Input file path (required)")
	sheet := fs.String("sheet", "", "Sheet name (for XLSX files)")
	issuesPath := fs.String("issues", "", "Path to a JSON file of issues (as produced by 'detect') (required)")
	mode := fs.String("mode", "preview", "Apply mode: preview, export, or commit")
	showDiff := fs.Bool("diff", false, "Print a unified diff of changed cells instead of JSON")
	fs.Usage = func() {
		fmt.Println(`Apply selected issues and write a repaired dataset

Usage:
  dqrepair apply --input <file> --issues <issues.json> [options]

Options:
  --input    Input file path (CSV or XLSX) (required)
  --sheet    Sheet name for XLSX files
  --issues   Path to a JSON issues file, as produced by 'detect' (required)
  --mode     preview, export, or commit (default "preview")
  --diff     Print a unified diff of changed cells instead of JSON`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *input == "" || *issuesPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --input and --issues are required")
		fs.Usage()
		os.Exit(1)
	}

	applyMode := applier.Mode(*mode)
	switch applyMode {
	case applier.ModePreview, applier.ModeExport, applier.ModeCommit:
	default:
		fmt.Fprintf(os.Stderr, "Error: --mode must be one of preview, export, commit, got %q\n", *mode)
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	cfg.RowSourcePath = *input
	cfg.RowSourceSheet = *sheet
	cfg.RowSourceType = sourceTypeFromPath(*input)
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	rows, _, _, led, err := loadPipeline(ctx, cfg, logger, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer led.Close()

	issuesData, err := os.ReadFile(*issuesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading issues file: %v\n", err)
		os.Exit(1)
	}
	var issuesFile struct {
		Issues []dqmodel.Issue `json:"issues"`
	}
	if err := json.Unmarshal(issuesData, &issuesFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing issues file: %v\n", err)
		os.Exit(1)
	}

	artifactSink := sink.NewLocalSink(cfg.SinkBaseDir)
	app := applier.NewWithProtectedColumns(artifactSink, led, cfg.ProtectedColumnKeywords)

	result, err := app.ApplyFixes(ctx, rows, issuesFile.Issues, nil, nil, applyMode, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: apply failed: %v\n", err)
		os.Exit(1)
	}

	if *showDiff {
		fmt.Print(renderChangeDiff(result.Changes))
		return
	}

	output := struct {
		AppliedCount int               `json:"applied_count"`
		Changes      dqmodel.ChangeMap `json:"changes"`
		Locator      string            `json:"locator,omitempty"`
	}{AppliedCount: result.AppliedCount, Changes: result.Changes, Locator: result.Locator}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding output: %v\n", err)
		os.Exit(1)
	}
}

// renderChangeDiff formats a ChangeMap as a unified diff, one line per
// changed cell, ordered by row then column for a stable preview.
func renderChangeDiff(changes dqmodel.ChangeMap) string {
	keys := make([]dqmodel.CellKey, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RowID != keys[j].RowID {
			return keys[i].RowID < keys[j].RowID
		}
		return keys[i].Column < keys[j].Column
	})

	var oldLines, newLines []string
	for _, k := range keys {
		change := changes[k]
		oldLines = append(oldLines, fmt.Sprintf("row %d: %s = %s", k.RowID, k.Column, change.OldValue))
		newLines = append(newLines, fmt.Sprintf("row %d: %s = %s", k.RowID, k.Column, change.NewValue))
	}

	unified := diff.Diff(strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"))
	return diff.FormatUnified(unified)
}

// loadPipeline wires together a Row Source, the LLM Gateway (when
// configured), and the Run Ledger shared by both commands.
func loadPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, limit int) ([]dqmodel.Row, []string, llm.Completer, *ledger.Ledger, error) {
	var source rowsource.Source
	switch cfg.RowSourceType {
	case "xlsx":
		source = rowsource.NewXLSXSource(cfg.RowSourcePath, cfg.RowSourceSheet)
	case "gsheet":
		source = rowsource.NewGSheetSource(cfg.RowSourcePath, cfg.RowSourceSheet, cfg.GSheetCredsPath)
	default:
		source = rowsource.NewCSVSource(cfg.RowSourcePath)
	}

	rows, columns, err := source.Load(ctx, limit)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading rows: %w", err)
	}

	var gw llm.Completer
	if cfg.LLMEnabled {
		gateway, err := llm.New(ctx, llm.Config{
			Provider:                       cfg.LLMProvider,
			APIKey:                         cfg.LLMAPIKey,
			PrimaryModel:                   cfg.LLMPrimaryModel,
			RequestTimeout:                 cfg.LLMRequestTimeout,
			MaxQuotaExhaustedBeforeCascade: cfg.LLMMaxQuotaExhaustedCascade,
			FallbackModels:                 cfg.LLMFallbackModels,
			MaxOutputTokens:                cfg.LLMMaxOutputTokens,
		}, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("constructing LLM gateway: %w", err)
		}
		gw = gateway
	}

	led, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening run ledger: %w", err)
	}

	return rows, columns, gw, led, nil
}

func sourceTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "xlsx"
	default:
		return "csv"
	}
}
