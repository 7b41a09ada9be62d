package engine

import (
	"testing"

	"github.com/finviz/longview/internal/models"
)

func TestInitializeAccountTaxStateDefaultCostBasis(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountCTO, CurrentBalance: 100_000}
	state := initializeAccountTaxState(account, 40)

	if state.CostBasis != 70_000 {
		t.Fatalf("expected default cost basis of 70%% balance, got %v", state.CostBasis)
	}
	if state.OpeningAge != 40 {
		t.Fatalf("expected opening age to default to current age, got %v", state.OpeningAge)
	}
}

func TestInitializeAccountTaxStateExplicitCostBasis(t *testing.T) {
	basis := 50_000.0
	openingAge := 35.0
	account := &models.InvestmentAccount{
		Kind:             models.AccountCTO,
		CurrentBalance:   100_000,
		InitialCostBasis: &basis,
		OpeningAge:       &openingAge,
	}
	state := initializeAccountTaxState(account, 40)

	if state.CostBasis != 50_000 {
		t.Fatalf("expected explicit cost basis honored, got %v", state.CostBasis)
	}
	if state.OpeningAge != 35 {
		t.Fatalf("expected explicit opening age honored, got %v", state.OpeningAge)
	}
}

func TestUpdateCostBasisOnContributionReweights(t *testing.T) {
	state := &AccountTaxState{Balance: 1000, CostBasis: 700}
	state.updateCostBasisOnContribution(1000)

	// new cost basis = (700*1000 + 1000) / 2000 = 350.5
	if got, want := state.CostBasis, 350.5; got != want {
		t.Fatalf("cost basis = %v, want %v", got, want)
	}
	if state.Balance != 2000 {
		t.Fatalf("balance = %v, want 2000", state.Balance)
	}
}

func TestUpdateCostBasisOnWithdrawalResetsAtZero(t *testing.T) {
	state := &AccountTaxState{Balance: 100, CostBasis: 60}
	state.updateCostBasisOnWithdrawal(150)

	if state.Balance != 0 {
		t.Fatalf("balance should floor at 0, got %v", state.Balance)
	}
	if state.CostBasis != 0 {
		t.Fatalf("cost basis should reset to 0 when balance reaches 0, got %v", state.CostBasis)
	}
}

func TestCalculateWithdrawalTaxPEAUnder5Years(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountPEA}
	state := &AccountTaxState{Account: account, Balance: 10_000, CostBasis: 6_000, OpeningAge: 40}

	result := calculateWithdrawalTax(1_000, state, 42, nil, false)

	wantGain := 1_000 * 0.4
	if result.RealizedGain != wantGain {
		t.Fatalf("realized gain = %v, want %v", result.RealizedGain, wantGain)
	}
	wantIncomeTax := wantGain * flatTaxIncomeRate
	if result.IncomeTax != wantIncomeTax {
		t.Fatalf("income tax = %v, want %v (PEA held <5y should owe IR)", result.IncomeTax, wantIncomeTax)
	}
	wantSocial := wantGain * flatTaxSocialRate
	if result.SocialContrib != wantSocial {
		t.Fatalf("social contribution = %v, want %v", result.SocialContrib, wantSocial)
	}
}

func TestCalculateWithdrawalTaxPEAAfter5YearsExemptsIR(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountPEA}
	state := &AccountTaxState{Account: account, Balance: 10_000, CostBasis: 6_000, OpeningAge: 40}

	result := calculateWithdrawalTax(1_000, state, 46, nil, false)

	if result.IncomeTax != 0 {
		t.Fatalf("PEA held >=5y should be exempt from income tax, got %v", result.IncomeTax)
	}
	if result.SocialContrib <= 0 {
		t.Fatalf("PEA should still owe social contributions, got %v", result.SocialContrib)
	}
}

func TestCalculateWithdrawalTaxLivretIsExonerated(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountLivret}
	state := &AccountTaxState{Account: account, Balance: 10_000, CostBasis: 6_000, OpeningAge: 40}

	result := calculateWithdrawalTax(1_000, state, 50, nil, false)

	if result.IncomeTax != 0 || result.SocialContrib != 0 {
		t.Fatalf("livret should be fully exonerated, got income=%v social=%v", result.IncomeTax, result.SocialContrib)
	}
	if result.Net != 1_000 {
		t.Fatalf("net withdrawal should equal gross for livret, got %v", result.Net)
	}
}

func TestCalculateWithdrawalTaxAssuranceVieAbatementSingle(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountAssuranceVie}
	state := &AccountTaxState{Account: account, Balance: 100_000, CostBasis: 60_000, OpeningAge: 40}

	// ageYears = 9 > 8, so the 8-year abatement applies.
	result := calculateWithdrawalTax(10_000, state, 49, nil, false)

	wantGain := 10_000 * 0.4 // 4000
	taxableGain := wantGain - assuranceVieAbatementSingle
	if taxableGain < 0 {
		taxableGain = 0
	}
	wantIncomeTax := taxableGain * assuranceVieRateAfter8Y
	if result.IncomeTax != wantIncomeTax {
		t.Fatalf("income tax = %v, want %v", result.IncomeTax, wantIncomeTax)
	}
}

func TestCalculateWithdrawalTaxAssuranceVieAbatementFullyAbsorbsSmallGain(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountAssuranceVie}
	state := &AccountTaxState{Account: account, Balance: 100_000, CostBasis: 96_000, OpeningAge: 40}

	result := calculateWithdrawalTax(1_000, state, 49, nil, false)

	if result.IncomeTax != 0 {
		t.Fatalf("gain below the 4,600€ abatement should owe no income tax, got %v", result.IncomeTax)
	}
}

func TestCalculateWithdrawalTaxZeroCostBasisTreatsGrossAsGain(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountCTO}
	state := &AccountTaxState{Account: account, Balance: 5_000, CostBasis: 0, OpeningAge: 40}

	result := calculateWithdrawalTax(1_000, state, 45, nil, false)

	if result.RealizedGain != 1_000 {
		t.Fatalf("zero cost basis should realize full gross as gain, got %v", result.RealizedGain)
	}
}

func TestCheckDepositLimitRejectsAtCeiling(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountPEA}

	accept, allowed := checkDepositLimit(account, 150_000, 1_000)
	if accept {
		t.Fatalf("expected deposit rejected once PEA ceiling reached")
	}
	if allowed != 0 {
		t.Fatalf("allowed amount should be 0 at ceiling, got %v", allowed)
	}
}

func TestCheckDepositLimitClampsPartialRoom(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountPEA}

	accept, allowed := checkDepositLimit(account, 149_500, 1_000)
	if !accept {
		t.Fatalf("expected deposit accepted while room remains under ceiling")
	}
	if allowed != 500 {
		t.Fatalf("allowed amount should clamp to remaining room (500), got %v", allowed)
	}
}

func TestCheckDepositLimitUnlimitedForCTO(t *testing.T) {
	account := &models.InvestmentAccount{Kind: models.AccountCTO}

	accept, allowed := checkDepositLimit(account, 1_000_000, 50_000)
	if !accept || allowed != 50_000 {
		t.Fatalf("CTO has no ceiling, expected full amount accepted, got accept=%v allowed=%v", accept, allowed)
	}
}
