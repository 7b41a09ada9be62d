package engine

import (
	"math"
	"testing"

	"github.com/finviz/longview/internal/models"
)

func TestValidateDecumulationInputRejectsMissingLifeExpectancy(t *testing.T) {
	adults := []models.AdultProfile{{CurrentAge: 60, RetirementAge: 65}}
	_, _, err := validateDecumulationInput(adults)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without life expectancy, got %v", err)
	}
}

func TestValidateDecumulationInputRejectsLifeExpectancyBeforeRetirement(t *testing.T) {
	adults := []models.AdultProfile{{CurrentAge: 60, RetirementAge: 65, LifeExpectancy: floatPtr(60)}}
	_, _, err := validateDecumulationInput(adults)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput when life expectancy <= retirement age, got %v", err)
	}
}

func TestAberrantDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		v    float64
		want bool
	}{
		{100, false},
		{-1, true},
		{math.NaN(), true},
		{math.Inf(1), true},
		{2e12, true},
	}
	for _, c := range cases {
		if got := aberrant(c.v); got != c.want {
			t.Fatalf("aberrant(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestSolveGrossFromNetConvergesWithinTolerance(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountCTO, CurrentBalance: 100_000},
		{Kind: models.AccountLivret, CurrentBalance: 50_000},
	}
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		states[i] = initializeAccountTaxState(&accounts[i], 65)
	}

	requiredNet := 2_000.0
	totalGross, outcomes := solveGrossFromNet(states, requiredNet, 65, nil, false)

	if totalGross <= 0 {
		t.Fatalf("expected positive gross withdrawal, got %v", totalGross)
	}

	totalNet := 0.0
	for _, o := range outcomes {
		totalNet += o.Tax.Net
	}
	if diff := math.Abs(requiredNet - totalNet); diff > requiredNet*0.02 {
		t.Fatalf("solved net %v too far from required %v (diff %v)", totalNet, requiredNet, diff)
	}
}

func TestSolveGrossFromNetZeroBalanceYieldsNothing(t *testing.T) {
	accounts := []models.InvestmentAccount{{Kind: models.AccountCTO, CurrentBalance: 0}}
	states := []*AccountTaxState{initializeAccountTaxState(&accounts[0], 65)}

	totalGross, _ := solveGrossFromNet(states, 1_000, 65, nil, false)
	if totalGross != 0 {
		t.Fatalf("expected zero gross from a depleted account, got %v", totalGross)
	}
}

func TestSolveGrossFromNetZeroRequiredYieldsNothing(t *testing.T) {
	accounts := []models.InvestmentAccount{{Kind: models.AccountCTO, CurrentBalance: 100_000}}
	states := []*AccountTaxState{initializeAccountTaxState(&accounts[0], 65)}

	totalGross, _ := solveGrossFromNet(states, 0, 65, nil, false)
	if totalGross != 0 {
		t.Fatalf("expected zero gross when required net is zero, got %v", totalGross)
	}
}

func TestSolveGrossFromNetNeverExceedsTotalBalance(t *testing.T) {
	accounts := []models.InvestmentAccount{{Kind: models.AccountCTO, CurrentBalance: 1_000}}
	states := []*AccountTaxState{initializeAccountTaxState(&accounts[0], 65)}

	// impossibly large required net income relative to the balance
	totalGross, _ := solveGrossFromNet(states, 1_000_000, 65, nil, false)
	if totalGross > 1_000 {
		t.Fatalf("gross withdrawal %v should never exceed total balance 1000", totalGross)
	}
}

func TestSimulateDecumulationPathDrawsDownAndTracksTaxByKind(t *testing.T) {
	accounts := []models.InvestmentAccount{
		{Kind: models.AccountCTO, CurrentBalance: 50_000},
	}
	market := &models.MarketAssumptions{
		AssetClasses: map[models.AssetClass]models.AssetClassAssumption{
			models.AssetEquities: {ExpectedReturn: 0},
		},
	}
	sample := func() MonthlyReturns { return expectedMonthlyReturns(market) }
	warn := newWarnOnce()

	finalCapital, monthlyTotals, _, _, byKind := simulateDecumulationPath(
		accounts, market, 24, 65,
		nil, 2_000, 0, nil,
		models.TaxParams{IsCouple: false},
		sample, warn,
	)

	if len(monthlyTotals) != 24 {
		t.Fatalf("expected 24 monthly entries, got %d", len(monthlyTotals))
	}
	if finalCapital >= 50_000 {
		t.Fatalf("expected capital to decline under sustained withdrawals, got %v", finalCapital)
	}
	if _, ok := byKind[models.AccountCTO]; !ok {
		t.Fatalf("expected tax breakdown recorded for the cto account kind")
	}
}
