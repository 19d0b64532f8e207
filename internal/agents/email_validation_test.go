package agents

import (
	"context"
	"testing"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

func TestEmailValidationSkipsValidAddresses(t *testing.T) {
	rows := []dqmodel.Row{{"email": "alice@example.com"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"email": {InferredType: dqmodel.ColumnEmail, MostCommonDomain: "example.com"},
	}
	issues, err := EmailValidation{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("got %d issues, want 0 for a valid address", len(issues))
	}
}

func TestEmailValidationFallbackAppendsGmail(t *testing.T) {
	rows := []dqmodel.Row{{"email": "alice"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"email": {InferredType: dqmodel.ColumnEmail, MostCommonDomain: "example.com"},
	}
	issues, err := EmailValidation{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].SuggestedValue != "alice@gmail.com" {
		t.Errorf("SuggestedValue = %q, want alice@gmail.com", issues[0].SuggestedValue)
	}
	if issues[0].Category != dqmodel.CategoryEmailValidation {
		t.Errorf("Category = %q, want EmailValidation", issues[0].Category)
	}
	if issues[0].Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85 (a fix was produced)", issues[0].Confidence)
	}
}

func TestEmailValidationDetectsConsecutiveDots(t *testing.T) {
	rows := []dqmodel.Row{{"email": "bob..smith@example.com"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"email": {InferredType: dqmodel.ColumnEmail},
	}
	issues, err := EmailValidation{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1 for an address with consecutive dots", len(issues))
	}
}

func TestEmailValidationMatchesColumnsByNameKeyword(t *testing.T) {
	rows := []dqmodel.Row{{"contact_email": "notanemail"}}
	profiles := map[string]dqmodel.ColumnProfile{
		"contact_email": {InferredType: dqmodel.ColumnText},
	}
	issues, err := EmailValidation{}.Run(context.Background(), rows, profiles, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("got %d issues, want 1 (column matched by keyword despite ColumnText type)", len(issues))
	}
}
