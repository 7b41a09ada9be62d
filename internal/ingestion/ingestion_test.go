package ingestion

import (
	"strings"
	"testing"

	"github.com/finviz/longview/internal/models"
)

func TestImportAccountsCSVRequiredColumnsOnly(t *testing.T) {
	csv := "kind,current_balance\npea,10000\nlivret,5000\n"

	result, err := ImportAccountsCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	if result.Accounts[0].Kind != models.AccountPEA || result.Accounts[0].CurrentBalance != 10000 {
		t.Fatalf("unexpected first account: %+v", result.Accounts[0])
	}
}

func TestImportAccountsCSVOptionalColumns(t *testing.T) {
	csv := "kind,current_balance,monthly_contribution,allocation_equities,opening_age\n" +
		"per,50000,300,70,45\n"

	result, err := ImportAccountsCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acc := result.Accounts[0]
	if acc.MonthlyContribution == nil || *acc.MonthlyContribution != 300 {
		t.Fatalf("expected monthly_contribution parsed as 300, got %+v", acc.MonthlyContribution)
	}
	if acc.AllocationEquities == nil || *acc.AllocationEquities != 70 {
		t.Fatalf("expected allocation_equities parsed as 70, got %+v", acc.AllocationEquities)
	}
	if acc.OpeningAge == nil || *acc.OpeningAge != 45 {
		t.Fatalf("expected opening_age parsed as 45, got %+v", acc.OpeningAge)
	}
}

func TestImportAccountsCSVMissingRequiredColumnErrors(t *testing.T) {
	csv := "kind\npea\n"
	_, err := ImportAccountsCSV(strings.NewReader(csv))
	if err == nil {
		t.Fatalf("expected error when current_balance column is missing")
	}
}

func TestImportAccountsCSVSkipsInvalidRows(t *testing.T) {
	csv := "kind,current_balance\npea,not-a-number\nlivret,5000\n"

	result, err := ImportAccountsCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("expected 1 imported, 1 skipped, got imported=%d skipped=%d", result.Imported, result.Skipped)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(result.Errors))
	}
}

func TestImportAccountsCSVCaseInsensitiveHeaders(t *testing.T) {
	csv := "Kind,Current_Balance\nCTO,1000\n"
	result, err := ImportAccountsCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected header matching to be case-insensitive, imported=%d", result.Imported)
	}
}
