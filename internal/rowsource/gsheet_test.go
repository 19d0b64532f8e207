package rowsource

import (
	"context"
	"strings"
	"testing"
)

func TestGSheetSourceErrorsWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "")
	src := NewGSheetSource("sheet-id", "", "")
	_, _, err := src.Load(context.Background(), 0)
	if err == nil {
		t.Fatal("expected an error when no credentials are configured")
	}
	if !strings.Contains(err.Error(), "credentials") {
		t.Errorf("error = %v, want it to mention missing credentials", err)
	}
}

func TestGSheetSourceFallsBackToEnvCredentialsPath(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/nonexistent/creds.json")
	src := NewGSheetSource("sheet-id", "", "")
	_, _, err := src.Load(context.Background(), 0)
	if err == nil {
		t.Fatal("expected an error for a nonexistent credentials file")
	}
	if strings.Contains(err.Error(), "no Google Sheets credentials configured") {
		t.Error("expected it to have attempted the env-provided path rather than reporting none configured")
	}
}
