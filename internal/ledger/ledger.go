// Package ledger persists RunRecords to an embedded SQLite database, so a
// run's provenance survives the process that produced it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create_run_records",
		sql: `CREATE TABLE IF NOT EXISTS run_records (
			run_id          TEXT PRIMARY KEY,
			kind            TEXT NOT NULL,
			started_at      TEXT NOT NULL,
			duration_ms     INTEGER NOT NULL,
			rows_scanned    INTEGER NOT NULL,
			issues_found    INTEGER NOT NULL,
			applied_count   INTEGER NOT NULL,
			quota_exhausted INTEGER NOT NULL,
			working_model   TEXT,
			partial         INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_records_kind ON run_records(kind);`,
	},
}

// Ledger is the Run Ledger component (C9).
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite file at path and applies
// migrations.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}

	l := &Ledger{db: db, logger: logger}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	for _, m := range migrations {
		if _, err := l.db.Exec(m.sql); err != nil {
			return fmt.Errorf("ledger: migration %s failed: %w", m.name, err)
		}
		l.logger.Debug("ledger: migration applied", "name", m.name)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// Record inserts one RunRecord.
func (l *Ledger) Record(ctx context.Context, r dqmodel.RunRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_records
			(run_id, kind, started_at, duration_ms, rows_scanned, issues_found, applied_count, quota_exhausted, working_model, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Kind), r.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		r.DurationMS, r.RowsScanned, r.IssuesFound, r.AppliedCount,
		boolToInt(r.QuotaExhausted), r.WorkingModel, boolToInt(r.Partial))
	if err != nil {
		return fmt.Errorf("ledger: insert run record %s: %w", r.RunID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
