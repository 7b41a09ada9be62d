package engine

import (
	"math"

	"github.com/finviz/longview/internal/models"
)

const (
	maxAbsValue         = 1e12
	solverMaxIterations = 10
)

// aberrant reports whether a solver intermediate value has run away far
// enough to abort the month (spec §4.4 edge cases): NaN, infinite,
// negative, or beyond the 10^12 guard.
func aberrant(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0) || x < 0 || math.Abs(x) > maxAbsValue
}

// withdrawalOutcome is one account's proposed withdrawal and its tax
// result, recorded by the gross-from-net solver for a single month.
type withdrawalOutcome struct {
	Withdrawal float64
	Tax        WithdrawalTaxResult
}

func sumWithdrawals(outcomes []withdrawalOutcome) float64 {
	total := 0.0
	for _, o := range outcomes {
		total += o.Withdrawal
	}
	return total
}

// solveGrossFromNet implements C4's gross-from-net iterative solver
// (spec §4.4c, hard contract steps 1-4). Per-account shares are frozen
// for the whole iteration; only estimated_gross moves between rounds.
func solveGrossFromNet(states []*AccountTaxState, requiredNet float64, currentAge float64, tmi *float64, isCouple bool) (totalGross float64, outcomes []withdrawalOutcome) {
	n := len(states)
	outcomes = make([]withdrawalOutcome, n)
	if requiredNet <= 0 {
		return 0, outcomes
	}

	totalBalance := 0.0
	for _, s := range states {
		totalBalance += s.Balance
	}
	if totalBalance <= 0 {
		return 0, outcomes
	}

	shares := make([]float64, n)
	for i, s := range states {
		shares[i] = s.Balance / totalBalance
	}

	estimatedGross := requiredNet / (1 - 0.20)
	if cap := 0.99 * totalBalance; estimatedGross > cap {
		estimatedGross = cap
	}

	for iter := 0; iter < solverMaxIterations; iter++ {
		round := make([]withdrawalOutcome, n)
		totalNet := 0.0
		for i, s := range states {
			if s.Balance <= 0 || shares[i] <= 0 {
				continue
			}
			withdrawal := shares[i] * estimatedGross
			if withdrawal > s.Balance {
				withdrawal = s.Balance
			}
			tax := calculateWithdrawalTax(withdrawal, s, currentAge, tmi, isCouple)
			round[i] = withdrawalOutcome{Withdrawal: withdrawal, Tax: tax}
			totalNet += tax.Net
		}
		outcomes = round

		effectiveRate := 0.0
		if estimatedGross > 0 {
			effectiveRate = 1 - totalNet/estimatedGross
		}
		if effectiveRate < 0 {
			effectiveRate = 0
		} else if effectiveRate > 0.5 {
			effectiveRate = 0.5
		}

		diff := requiredNet - totalNet
		if math.Abs(diff) < 0.1 {
			break
		}
		if totalNet >= requiredNet && math.Abs(diff)/requiredNet < 0.01 {
			break
		}
		if effectiveRate >= 1 {
			break
		}

		adjustment := diff / (1 - effectiveRate)
		if maxStep := 0.6 * estimatedGross; math.Abs(adjustment) > maxStep {
			adjustment = math.Copysign(maxStep, adjustment)
		}
		if maxBalanceStep := 0.2 * totalBalance; math.Abs(adjustment) > maxBalanceStep {
			adjustment = math.Copysign(maxBalanceStep, adjustment)
		}

		estimatedGross += adjustment
		if estimatedGross <= 0 {
			estimatedGross = 0.0001
		}
		if cap := 0.99 * totalBalance; estimatedGross > cap {
			estimatedGross = cap
		}
	}

	return sumWithdrawals(outcomes), outcomes
}

// validateDecumulationInput implements the shared horizon validation
// for the retirement path (spec §7 InvalidInput: missing adults,
// life_expectancy <= retirement_age).
func validateDecumulationInput(adults []models.AdultProfile) (models.AdultProfile, int, error) {
	if len(adults) == 0 {
		return models.AdultProfile{}, 0, ErrInvalidInput
	}
	adult := adults[0]
	if adult.LifeExpectancy == nil || *adult.LifeExpectancy <= adult.RetirementAge {
		return adult, 0, ErrInvalidInput
	}
	totalMonths := int((*adult.LifeExpectancy - adult.RetirementAge) * 12)
	if totalMonths <= 0 {
		return adult, 0, ErrInvalidInput
	}
	return adult, totalMonths, nil
}

// simulateDecumulationPath runs one month-by-month decumulation path
// (spec §4.4): required net income, gross-from-net solve, apply
// withdrawals, apply growth, record trajectories.
func simulateDecumulationPath(
	accounts []models.InvestmentAccount,
	market *models.MarketAssumptions,
	totalMonths int,
	startAge float64,
	spendingPhases []models.SpendingPhase,
	targetMonthlyIncome, statePension float64,
	additionalIncomes []models.AdditionalIncome,
	taxParams models.TaxParams,
	sample returnSampleFunc,
	warn *warnOnce,
) (finalCapital float64, monthlyTotals, monthlyNetWithdrawal, monthlyCumNetWithdrawal models.Trajectory, cumulativeTaxByKind map[models.AccountKind]models.TaxKindBreakdown) {
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		acc := accounts[i]
		states[i] = initializeAccountTaxState(&acc, startAge)
	}

	monthlyTotals = make(models.Trajectory, totalMonths)
	monthlyNetWithdrawal = make(models.Trajectory, totalMonths)
	monthlyCumNetWithdrawal = make(models.Trajectory, totalMonths)
	cumulativeTaxByKind = make(map[models.AccountKind]models.TaxKindBreakdown)
	cumNet := 0.0

	for month := 0; month < totalMonths; month++ {
		age := startAge + float64(month)/12

		ratio := models.SpendingRatioAt(spendingPhases, age)
		extras := models.ActiveIncomeAt(additionalIncomes, age)
		requiredNet := targetMonthlyIncome*ratio - statePension - extras
		if requiredNet < 0 {
			requiredNet = 0
		}

		_, outcomes := solveGrossFromNet(states, requiredNet, age, taxParams.TMI, taxParams.IsCouple)

		aborted := false
		for _, o := range outcomes {
			if aberrant(o.Withdrawal) || aberrant(o.Tax.Net) {
				aborted = true
				break
			}
		}
		if aborted {
			warn.warn("decumulation-aberrant-value", "engine: aberrant value in gross-from-net solver, withdrawal set to zero for this month")
			outcomes = make([]withdrawalOutcome, len(states))
		}

		monthNet := 0.0
		for i, s := range states {
			o := outcomes[i]
			if o.Withdrawal <= 0 {
				continue
			}
			s.updateCostBasisOnWithdrawal(o.Withdrawal)
			monthNet += o.Tax.Net

			kind := s.Account.Kind
			breakdown := cumulativeTaxByKind[kind]
			breakdown.GrossWithdrawal += o.Withdrawal
			breakdown.CapitalGain += o.Tax.RealizedGain
			breakdown.IncomeTax += o.Tax.IncomeTax
			breakdown.SocialContributions += o.Tax.SocialContrib
			breakdown.NetWithdrawal += o.Tax.Net
			cumulativeTaxByKind[kind] = breakdown
		}

		base := sample()
		for _, s := range states {
			netReturn := accountNetMonthlyReturn(s.Account, base, market)
			newBalance := s.Balance * (1 + netReturn)
			if newBalance > maxAbsValue {
				newBalance = maxAbsValue
				warn.warn("decumulation-growth-clamped", "engine: account balance clamped at 1e12 after growth")
			}
			s.Balance = newBalance
		}

		cumNet += monthNet
		total := 0.0
		for _, s := range states {
			total += s.Balance
		}
		monthlyTotals[month] = total
		monthlyNetWithdrawal[month] = monthNet
		monthlyCumNetWithdrawal[month] = cumNet
	}

	if totalMonths > 0 {
		finalCapital = monthlyTotals[totalMonths-1]
	}
	return finalCapital, monthlyTotals, monthlyNetWithdrawal, monthlyCumNetWithdrawal, cumulativeTaxByKind
}
