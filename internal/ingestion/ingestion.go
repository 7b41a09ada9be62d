// Package ingestion imports household account data from external
// sources into the wire shape internal/engine consumes
// (models.InvestmentAccount), so a client can bootstrap a projection
// from an existing spreadsheet instead of entering every account by
// hand.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/finviz/longview/internal/models"
)

// Source represents the data source type
type Source string

const (
	SourceManual Source = "manual"
	SourceCSV    Source = "csv"
)

// ImportResult contains the results of a CSV import operation
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
	Accounts []models.InvestmentAccount
}

// ImportAccountsCSV parses a household's accounts from a CSV export.
// Required header: kind, current_balance. Optional columns are
// monthly_contribution, allocation_equities, allocation_bonds,
// expected_performance, opening_age and initial_cost_basis; any other
// column is ignored.
func ImportAccountsCSV(r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("ingestion: reading csv header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := colIndex["kind"]; !ok {
		return ImportResult{}, fmt.Errorf("ingestion: csv missing required column %q", "kind")
	}
	if _, ok := colIndex["current_balance"]; !ok {
		return ImportResult{}, fmt.Errorf("ingestion: csv missing required column %q", "current_balance")
	}

	var result ImportResult
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			result.Skipped++
			continue
		}

		acc, err := parseAccountRow(record, colIndex)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			result.Skipped++
			continue
		}
		result.Accounts = append(result.Accounts, acc)
		result.Imported++
	}

	return result, nil
}

func parseAccountRow(record []string, colIndex map[string]int) (models.InvestmentAccount, error) {
	get := func(col string) (string, bool) {
		i, ok := colIndex[col]
		if !ok || i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}

	kindStr, ok := get("kind")
	if !ok {
		return models.InvestmentAccount{}, fmt.Errorf("missing kind")
	}
	kind := models.AccountKind(strings.ToLower(kindStr))

	balanceStr, ok := get("current_balance")
	if !ok {
		return models.InvestmentAccount{}, fmt.Errorf("missing current_balance")
	}
	balance, err := strconv.ParseFloat(balanceStr, 64)
	if err != nil {
		return models.InvestmentAccount{}, fmt.Errorf("invalid current_balance: %w", err)
	}

	acc := models.InvestmentAccount{Kind: kind, CurrentBalance: balance}

	if v, ok := get("monthly_contribution"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.MonthlyContribution = &f
		}
	}
	if v, ok := get("allocation_equities"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.AllocationEquities = &f
		}
	}
	if v, ok := get("allocation_bonds"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.AllocationBonds = &f
		}
	}
	if v, ok := get("expected_performance"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.ExpectedPerformance = &f
		}
	}
	if v, ok := get("opening_age"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.OpeningAge = &f
		}
	}
	if v, ok := get("initial_cost_basis"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			acc.InitialCostBasis = &f
		}
	}

	return acc, nil
}
