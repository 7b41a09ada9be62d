package engine

import "github.com/finviz/longview/internal/models"

// validateAccumulationInput implements the accumulation entry validation
// of spec §4.3: at least one adult, the first adult's retirement_age >
// current_age, and a strictly positive month count. The first adult's
// profile and the month count are returned.
func validateAccumulationInput(adults []models.AdultProfile) (models.AdultProfile, int, error) {
	if len(adults) == 0 {
		return models.AdultProfile{}, 0, ErrInvalidInput
	}
	adult := adults[0]
	if adult.RetirementAge <= adult.CurrentAge {
		return adult, 0, ErrInvalidInput
	}
	totalMonths := int((adult.RetirementAge - adult.CurrentAge) * 12)
	if totalMonths <= 0 {
		return adult, 0, ErrInvalidInput
	}
	return adult, totalMonths, nil
}

// activeMonthlyContributionTotal sums the explicit per-account monthly
// contributions. Savings phases are deliberately not consulted — see
// DESIGN.md "savings-phase semantics" and spec §9.
func activeMonthlyContributionTotal(accounts []models.InvestmentAccount) float64 {
	total := 0.0
	for i := range accounts {
		total += accounts[i].ExplicitMonthlyContribution()
	}
	return total
}

// distributeContributions implements spec §4.3 step 3: explicit
// per-account amounts (scaled down, never up, to the active total) take
// priority, then contribution-share percentages, then an equal split
// across accounts under their deposit ceiling. Every candidate passes
// through the deposit-limit check; overflow is dropped, never
// redistributed.
func distributeContributions(states []*AccountTaxState, totalContribution float64) []float64 {
	n := len(states)
	result := make([]float64, n)
	if n == 0 || totalContribution <= 0 {
		return result
	}

	explicitAmounts := make([]float64, n)
	explicitTotal := 0.0
	for i, s := range states {
		explicitAmounts[i] = s.Account.ExplicitMonthlyContribution()
		explicitTotal += explicitAmounts[i]
	}

	proposed := make([]float64, n)
	switch {
	case explicitTotal > 0:
		actualTotal := totalContribution
		if actualTotal > explicitTotal {
			actualTotal = explicitTotal
		}
		scale := actualTotal / explicitTotal
		for i := range proposed {
			proposed[i] = explicitAmounts[i] * scale
		}

	default:
		shareSum := 0.0
		for _, s := range states {
			if s.Account.MonthlyContributionShare != nil {
				shareSum += *s.Account.MonthlyContributionShare
			}
		}
		if shareSum > 0 {
			for i, s := range states {
				share := 0.0
				if s.Account.MonthlyContributionShare != nil {
					share = *s.Account.MonthlyContributionShare
				}
				proposed[i] = totalContribution * (share / shareSum)
			}
		} else {
			var eligible []int
			for i, s := range states {
				accept, _ := checkDepositLimit(s.Account, s.Balance, 1.0)
				if accept {
					eligible = append(eligible, i)
				}
			}
			if len(eligible) > 0 {
				equal := totalContribution / float64(len(eligible))
				for _, i := range eligible {
					proposed[i] = equal
				}
			}
		}
	}

	for i, s := range states {
		if explicitTotal > 0 && explicitAmounts[i] == 0 {
			continue
		}
		if proposed[i] <= 0 {
			continue
		}
		accept, allowed := checkDepositLimit(s.Account, s.Balance, proposed[i])
		if !accept {
			continue
		}
		amount := proposed[i]
		if amount > allowed {
			amount = allowed
		}
		result[i] = amount
	}
	return result
}

// returnSampleFunc produces one monthly return draw. Capitalization
// preview uses a constant deterministic sampler; Monte Carlo paths use
// a per-path random sampler.
type returnSampleFunc func() MonthlyReturns

// simulateAccumulationPath runs one month-by-month accumulation path
// (spec §4.3) and returns the final capital plus the two month-indexed
// trajectories the contract names.
func simulateAccumulationPath(accounts []models.InvestmentAccount, market *models.MarketAssumptions, totalMonths int, startAge float64, sample returnSampleFunc) (finalCapital float64, monthlyTotals, monthlyCumContribution models.Trajectory) {
	states := make([]*AccountTaxState, len(accounts))
	for i := range accounts {
		acc := accounts[i]
		states[i] = initializeAccountTaxState(&acc, startAge)
	}

	contributionTotal := activeMonthlyContributionTotal(accounts)

	monthlyTotals = make(models.Trajectory, totalMonths)
	monthlyCumContribution = make(models.Trajectory, totalMonths)
	cumContribution := 0.0

	for month := 0; month < totalMonths; month++ {
		contributions := distributeContributions(states, contributionTotal)
		for i, c := range contributions {
			if c > 0 {
				states[i].updateCostBasisOnContribution(c)
				cumContribution += c
			}
		}

		base := sample()
		for _, s := range states {
			netReturn := accountNetMonthlyReturn(s.Account, base, market)
			s.Balance *= 1 + netReturn
		}

		total := 0.0
		for _, s := range states {
			total += s.Balance
		}
		monthlyTotals[month] = total
		monthlyCumContribution[month] = cumContribution
	}

	if totalMonths > 0 {
		finalCapital = monthlyTotals[totalMonths-1]
	}
	return finalCapital, monthlyTotals, monthlyCumContribution
}

// CapitalizationPreview is entry point 1 (spec §6): a deterministic
// single-path simulation using only expected returns, no volatility and
// no random draws.
func (e *Engine) CapitalizationPreview(in models.CapitalizationInput) (models.CapitalizationResult, error) {
	adult, totalMonths, err := validateAccumulationInput(in.Adults)
	if err != nil {
		return models.CapitalizationResult{}, err
	}

	sample := func() MonthlyReturns { return expectedMonthlyReturns(in.Market) }
	finalCapital, monthlyTotals, monthlyCum := simulateAccumulationPath(in.Accounts, in.Market, totalMonths, adult.CurrentAge, sample)

	return models.CapitalizationResult{
		FinalCapital:           finalCapital,
		MonthlyTotals:          monthlyTotals,
		MonthlyCumContribution: monthlyCum,
	}, nil
}
