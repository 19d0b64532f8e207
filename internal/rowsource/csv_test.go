package rowsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp csv: %v", err)
	}
	return path
}

func TestCSVSourceLoadsRowsByHeader(t *testing.T) {
	path := writeTempCSV(t, "name,email\nAlice,alice@example.com\nBob,bob@example.com\n")

	rows, columns, err := NewCSVSource(path).Load(context.Background(), 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(columns) != 2 || columns[0] != "name" || columns[1] != "email" {
		t.Errorf("columns = %v, want [name email]", columns)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "Alice" || rows[1]["email"] != "bob@example.com" {
		t.Errorf("unexpected row content: %+v", rows)
	}
}

func TestCSVSourceRespectsLimit(t *testing.T) {
	path := writeTempCSV(t, "name\na\nb\nc\n")

	rows, _, err := NewCSVSource(path).Load(context.Background(), 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows with limit=2, got %d", len(rows))
	}
}

func TestCSVSourceHandlesRaggedRows(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2\n")

	rows, _, err := NewCSVSource(path).Load(context.Background(), 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rows[0]["c"] != "" {
		t.Errorf("missing trailing field should default to empty string, got %q", rows[0]["c"])
	}
}
