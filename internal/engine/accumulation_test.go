package engine

import (
	"testing"

	"github.com/finviz/longview/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidateAccumulationInputRejectsEmptyAdults(t *testing.T) {
	_, _, err := validateAccumulationInput(nil)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for empty adults, got %v", err)
	}
}

func TestValidateAccumulationInputRejectsRetirementBeforeCurrentAge(t *testing.T) {
	adults := []models.AdultProfile{{CurrentAge: 50, RetirementAge: 45}}
	_, _, err := validateAccumulationInput(adults)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput when retirement age <= current age, got %v", err)
	}
}

func TestValidateAccumulationInputComputesMonths(t *testing.T) {
	adults := []models.AdultProfile{{CurrentAge: 30, RetirementAge: 40}}
	_, months, err := validateAccumulationInput(adults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if months != 120 {
		t.Fatalf("months = %d, want 120", months)
	}
}

func TestActiveMonthlyContributionTotalSumsExplicitOnly(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountPEA, MonthlyContribution: floatPtr(200)},
		{Kind: models.AccountLivret, MonthlyContribution: floatPtr(100)},
		{Kind: models.AccountCTO},
	}
	got := activeMonthlyContributionTotal(accounts)
	if got != 300 {
		t.Fatalf("total = %v, want 300", got)
	}
}

func TestDistributeContributionsScalesExplicitDown(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountCTO, CurrentBalance: 0, MonthlyContribution: floatPtr(300)},
		{Kind: models.AccountCTO, CurrentBalance: 0, MonthlyContribution: floatPtr(100)},
	}
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		states[i] = initializeAccountTaxState(&accounts[i], 40)
	}

	// total requested is 400 but only 200 is actually available this month.
	got := distributeContributions(states, 200)

	if got[0] != 150 || got[1] != 50 {
		t.Fatalf("distribution = %v, want [150 50] (3:1 ratio scaled to 200)", got)
	}
}

func TestDistributeContributionsRespectsDepositCeiling(t *testing.T) {
	account := models.InvestmentAccount{Kind: models.AccountPEA, CurrentBalance: 149_900, MonthlyContribution: floatPtr(500)}
	states := []*AccountTaxState{initializeAccountTaxState(&account, 40)}

	got := distributeContributions(states, 500)
	if got[0] != 100 {
		t.Fatalf("contribution = %v, want clamped to remaining PEA room (100)", got[0])
	}
}

func TestDistributeContributionsSharesWhenNoExplicitAmounts(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountCTO, MonthlyContributionShare: floatPtr(0.75)},
		{Kind: models.AccountLivret, MonthlyContributionShare: floatPtr(0.25)},
	}
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		states[i] = initializeAccountTaxState(&accounts[i], 40)
	}

	got := distributeContributions(states, 1000)
	if got[0] != 750 || got[1] != 250 {
		t.Fatalf("distribution = %v, want [750 250]", got)
	}
}

func TestDistributeContributionsEqualSplitFallback(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountCTO},
		{Kind: models.AccountLivret},
	}
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		states[i] = initializeAccountTaxState(&accounts[i], 40)
	}

	got := distributeContributions(states, 1000)
	if got[0] != 500 || got[1] != 500 {
		t.Fatalf("distribution = %v, want equal split [500 500]", got)
	}
}

func TestCapitalizationPreviewNoVolatilityIsDeterministic(t *testing.T) {
	in := models.CapitalizationInput{
		Adults: []models.AdultProfile{{CurrentAge: 40, RetirementAge: 41}},
		Accounts: []models.InvestmentAccount{
			{Kind: models.AccountLivret, CurrentBalance: 10_000},
		},
		Market: &models.MarketAssumptions{
			AssetClasses: map[models.AssetClass]models.AssetClassAssumption{
				models.AssetLivrets: {ExpectedReturn: 3.0},
			},
		},
	}

	e := New()
	resultA, err := e.CapitalizationPreview(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resultB, err := e.CapitalizationPreview(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resultA.FinalCapital != resultB.FinalCapital {
		t.Fatalf("capitalization preview should be deterministic, got %v and %v", resultA.FinalCapital, resultB.FinalCapital)
	}
	if len(resultA.MonthlyTotals) != 12 {
		t.Fatalf("expected 12 monthly entries for a 1-year horizon, got %d", len(resultA.MonthlyTotals))
	}
	if resultA.FinalCapital <= 10_000 {
		t.Fatalf("positive expected return should grow the balance, got %v", resultA.FinalCapital)
	}
}

func TestCapitalizationPreviewInvalidInput(t *testing.T) {
	e := New()
	_, err := e.CapitalizationPreview(models.CapitalizationInput{})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for missing adults, got %v", err)
	}
}
