package engine

import (
	"math"
	"math/rand/v2"

	"github.com/finviz/longview/internal/models"
)

// MonthlyReturns is one draw of the return sampler, indexed by asset
// class.
type MonthlyReturns map[models.AssetClass]float64

// sampleMonthlyReturns implements spec §4.1: build the covariance
// matrix from the market assumptions, Cholesky-decompose it, draw a
// correlated normal vector, then subtract a single inflation shock to
// get real returns. Falls back to independent draws when the
// covariance matrix isn't positive-definite, logging once per warn
// scope (the caller passes a warnOnce scoped to one driver
// invocation, so the dedup never leaks across unrelated runs).
func sampleMonthlyReturns(market *models.MarketAssumptions, rng *rand.Rand, warn *warnOnce) MonthlyReturns {
	keys := models.AssetClassOrder
	n := len(keys)

	means := make([]float64, n)
	stds := make([]float64, n)
	for i, k := range keys {
		means[i] = market.ExpectedReturn(k) / 100 / 12
		stds[i] = market.VolatilityPercent(k) / 100 / math.Sqrt(12)
	}

	var correlations map[models.AssetClass]map[models.AssetClass]float64
	if market != nil {
		correlations = market.Correlations
	}
	covariance := buildCovarianceMatrix(stds, correlations)

	var correlated []float64
	lower, err := choleskyDecompose(covariance)
	if err != nil {
		warn.warn("covariance-ill-conditioned", "engine: covariance matrix not positive-definite, falling back to independent draws")
		correlated = make([]float64, n)
		for i := range correlated {
			correlated[i] = means[i] + stds[i]*rng.NormFloat64()
		}
	} else {
		z := make([]float64, n)
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		correlated = make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for k := 0; k <= i; k++ {
				sum += lower[i][k] * z[k]
			}
			correlated[i] = means[i] + sum
		}
	}

	var inflationMean, inflationVol float64
	if market != nil {
		inflationMean = market.InflationMean
		inflationVol = market.InflationVolatility
	}
	if inflationMean != 0 || inflationVol != 0 {
		monthlyMean := inflationMean / 100 / 12
		monthlyStd := inflationVol / 100 / math.Sqrt(12)
		shock := monthlyMean + monthlyStd*rng.NormFloat64()
		for i := range correlated {
			correlated[i] -= shock
		}
	}

	returns := make(MonthlyReturns, n)
	for i, k := range keys {
		returns[k] = correlated[i]
	}
	return returns
}

// expectedMonthlyReturns is the deterministic (no-volatility) variant
// used by capitalization_preview (spec §6 entry point 1): it returns
// the monthly means with no draw and no inflation shock subtraction
// (the preview uses expected real returns as given).
func expectedMonthlyReturns(market *models.MarketAssumptions) MonthlyReturns {
	returns := make(MonthlyReturns, len(models.AssetClassOrder))
	for _, k := range models.AssetClassOrder {
		returns[k] = market.ExpectedReturn(k) / 100 / 12
	}
	return returns
}

const growthClamp = 0.3

// clampGrowth clamps a monthly return to spec's ±30%/month guard
// (§4.4a, §4.4e).
func clampGrowth(r float64) float64 {
	if r > growthClamp {
		return growthClamp
	}
	if r < -growthClamp {
		return -growthClamp
	}
	return r
}

// accountGrossMonthlyReturn computes the account's adjusted gross
// monthly return (spec §4.4a / §4.3 step 5), given a base returns
// sample and the market assumptions it was drawn from.
func accountGrossMonthlyReturn(account *models.InvestmentAccount, base MonthlyReturns, market *models.MarketAssumptions) float64 {
	adjust := func(sample, baseMean, targetMean float64) float64 {
		return clampGrowth(sample + (targetMean - baseMean))
	}

	switch account.Kind {
	case models.AccountPEA, models.AccountCTO:
		baseMean := market.ExpectedReturn(models.AssetEquities) / 100 / 12
		target := accountTargetMonthlyReturn(account, market)
		return adjust(base[models.AssetEquities], baseMean, target)

	case models.AccountPER, models.AccountAssuranceVie:
		equities, bonds, other := account.AllocationShares()
		baseReturn := equities*base[models.AssetEquities] + bonds*base[models.AssetBonds] + other*base[models.AssetOther]
		baseMean := equities*(market.ExpectedReturn(models.AssetEquities)/100/12) +
			bonds*(market.ExpectedReturn(models.AssetBonds)/100/12) +
			other*(market.ExpectedReturn(models.AssetOther)/100/12)
		target := accountTargetMonthlyReturn(account, market)
		return adjust(baseReturn, baseMean, target)

	case models.AccountLivret:
		baseMean := market.ExpectedReturn(models.AssetLivrets) / 100 / 12
		target := accountTargetMonthlyReturn(account, market)
		return adjust(base[models.AssetLivrets], baseMean, target)

	case models.AccountCrypto:
		baseMean := market.ExpectedReturn(models.AssetCrypto) / 100 / 12
		target := accountTargetMonthlyReturn(account, market)
		return adjust(base[models.AssetCrypto], baseMean, target)

	default: // autre
		baseMean := market.ExpectedReturn(models.AssetOther) / 100 / 12
		target := accountTargetMonthlyReturn(account, market)
		return adjust(base[models.AssetOther], baseMean, target)
	}
}

// accountTargetMonthlyReturn is the account's expected monthly return
// absent any random draw: the account's own expected_performance when
// set (crypto and autre accounts only), else the relevant market mean.
func accountTargetMonthlyReturn(account *models.InvestmentAccount, market *models.MarketAssumptions) float64 {
	switch account.Kind {
	case models.AccountPEA, models.AccountCTO:
		return market.ExpectedReturn(models.AssetEquities) / 100 / 12
	case models.AccountPER, models.AccountAssuranceVie:
		equities, bonds, other := account.AllocationShares()
		return equities*(market.ExpectedReturn(models.AssetEquities)/100/12) +
			bonds*(market.ExpectedReturn(models.AssetBonds)/100/12) +
			other*(market.ExpectedReturn(models.AssetOther)/100/12)
	case models.AccountLivret:
		return market.ExpectedReturn(models.AssetLivrets) / 100 / 12
	case models.AccountCrypto:
		if account.ExpectedPerformance != nil {
			return *account.ExpectedPerformance / 100 / 12
		}
		return market.ExpectedReturn(models.AssetCrypto) / 100 / 12
	default:
		if account.ExpectedPerformance != nil {
			return *account.ExpectedPerformance / 100 / 12
		}
		return market.ExpectedReturn(models.AssetOther) / 100 / 12
	}
}

// immediateTaxDrag is the tax drag multiplier applied to growth in both
// the accumulation and decumulation phases (spec §4.4a, §9 "open question" — preserved as
// documented, not corrected, because it double-counts against the
// explicit withdrawal tax for pea/per under French tax law).
//
// TODO(product): pea/per growth shouldn't be taxed again at withdrawal
// under French law (only PS applies at exit, no IR) — flagged per
// spec §9, not fixed here.
func immediateTaxDrag(kind models.AccountKind) float64 {
	switch kind {
	case models.AccountPEA, models.AccountPER:
		return 1 - 0.172
	case models.AccountCTO, models.AccountCrypto:
		return 1 - 0.30
	default:
		return 1.0
	}
}

// accountNetMonthlyReturn applies the immediate tax drag to the gross
// return (shared by accumulation C3 and decumulation C4 growth steps).
func accountNetMonthlyReturn(account *models.InvestmentAccount, base MonthlyReturns, market *models.MarketAssumptions) float64 {
	gross := accountGrossMonthlyReturn(account, base, market)
	return gross * immediateTaxDrag(account.Kind)
}
