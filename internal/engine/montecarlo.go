package engine

import (
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/finviz/longview/internal/models"
)

// mcPathResult is what one single-path simulation contributes to the
// accumulator (spec §4.5 step 1): the final capital, the per-month
// total trajectory, and whatever auxiliary series (contributions or
// withdrawals, cumulative or not) the caller's path function produces.
type mcPathResult struct {
	FinalCapital  float64
	MonthlyTotals models.Trajectory
	Auxiliary     models.Trajectory
	AuxiliaryCum  models.Trajectory
	TaxByKind     map[models.AccountKind]models.TaxKindBreakdown
}

// pathFunc runs one simulation path with an independently-seeded RNG.
type pathFunc func(rng *rand.Rand) mcPathResult

// newPathRNG derives a per-path independent generator from the root
// seed and path index, so any single path is reproducible in isolation
// (spec §7).
func newPathRNG(rootSeed int64, pathIndex int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(rootSeed), uint64(pathIndex)))
}

func workerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// runBatchParallel runs count paths concurrently, capped at a
// worker-pool semaphore sized to the machine, grounded on the
// reference example's sync.WaitGroup + buffered-channel pattern.
func runBatchParallel(run pathFunc, rootSeed int64, offset, count int) []mcPathResult {
	results := make([]mcPathResult, count)
	var wg sync.WaitGroup
	sem := make(chan struct{}, workerCount())

	for i := 0; i < count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := newPathRNG(rootSeed, offset+i)
			results[i] = run(rng)
		}(i)
	}
	wg.Wait()
	return results
}

// mcAggregate is the raw column-major accumulator the driver builds up
// across batches; the two public result builders project it into the
// shapes entry points 2 and 3 return.
type mcAggregate struct {
	Iterations              int
	ConfidenceReached       bool
	Finals                  []float64
	MonthlyTotalsColumns    [][]float64
	AuxiliaryColumns        [][]float64
	AuxiliaryCumColumns     [][]float64
	ReferenceAuxiliary      models.Trajectory
	ReferenceAuxiliaryCum   models.Trajectory
	ReferenceTaxByKind      map[models.AccountKind]models.TaxKindBreakdown
}

// runMonteCarlo implements C5 (spec §4.5): batch the single-path
// simulations, check confidence after every batch once at least 50
// samples have accumulated, and stop at confidence or at
// max_iterations.
func runMonteCarlo(run pathFunc, rootSeed int64, cfg models.SimulationConfig, progress ProgressSink, taskID string) mcAggregate {
	agg := mcAggregate{ReferenceTaxByKind: map[models.AccountKind]models.TaxKindBreakdown{}}
	haveReference := false

	for agg.Iterations < cfg.MaxIterations {
		batchSize := cfg.BatchSize
		if remaining := cfg.MaxIterations - agg.Iterations; batchSize > remaining {
			batchSize = remaining
		}

		results := runBatchParallel(run, rootSeed, agg.Iterations, batchSize)

		for _, r := range results {
			agg.Finals = append(agg.Finals, r.FinalCapital)

			if agg.MonthlyTotalsColumns == nil {
				agg.MonthlyTotalsColumns = make([][]float64, len(r.MonthlyTotals))
				agg.AuxiliaryColumns = make([][]float64, len(r.Auxiliary))
				agg.AuxiliaryCumColumns = make([][]float64, len(r.AuxiliaryCum))
			}
			for m, v := range r.MonthlyTotals {
				agg.MonthlyTotalsColumns[m] = append(agg.MonthlyTotalsColumns[m], v)
			}
			for m, v := range r.Auxiliary {
				agg.AuxiliaryColumns[m] = append(agg.AuxiliaryColumns[m], v)
			}
			for m, v := range r.AuxiliaryCum {
				agg.AuxiliaryCumColumns[m] = append(agg.AuxiliaryCumColumns[m], v)
			}

			if !haveReference {
				agg.ReferenceAuxiliary = r.Auxiliary
				agg.ReferenceAuxiliaryCum = r.AuxiliaryCum
				for k, v := range r.TaxByKind {
					agg.ReferenceTaxByKind[k] = v
				}
				haveReference = true
			}
		}

		agg.Iterations += batchSize
		reportBatch(progress, taskID, agg.Iterations, cfg.MaxIterations)

		reached, _, _ := confidenceReached(agg.Finals, cfg.ConfidenceLevel, cfg.ToleranceRatio)
		if reached {
			agg.ConfidenceReached = true
			break
		}
	}

	return agg
}

// percentilesOf computes the five named cuts from an already-sorted
// ascending slice.
func percentilesOf(sorted []float64) models.Percentiles {
	return models.Percentiles{
		P5:  percentileNearestRank(sorted, 0.05),
		P10: percentileNearestRank(sorted, 0.10),
		P50: percentileNearestRank(sorted, 0.50),
		P90: percentileNearestRank(sorted, 0.90),
		P95: percentileNearestRank(sorted, 0.95),
	}
}

// aggregateMonthly computes filtered percentiles per month from a
// column-major [month][path] matrix.
func aggregateMonthly(columns [][]float64) []models.Percentiles {
	out := make([]models.Percentiles, len(columns))
	for m, col := range columns {
		filtered := filterFiniteCapital(col)
		sort.Float64s(filtered)
		out[m] = percentilesOf(filtered)
	}
	return out
}

// buildMonteCarloResult projects the raw aggregate into entry point 2's
// result shape (spec §3): the reference auxiliary series is the first
// path's copy, not an aggregate across paths (spec §4.5 step 1).
func buildMonteCarloResult(agg mcAggregate, cfg models.SimulationConfig) models.MonteCarloResult {
	filtered := filterFiniteCapital(agg.Finals)
	sort.Float64s(filtered)

	m := mean(filtered)
	sd := popStdev(filtered, m)

	result := models.MonteCarloResult{
		Iterations:              agg.Iterations,
		ConfidenceReached:       agg.ConfidenceReached,
		Mean:                    m,
		Stdev:                   sd,
		FinalCapital:            percentilesOf(filtered),
		MonthlyPercentiles:      aggregateMonthly(agg.MonthlyTotalsColumns),
		CumulativeContributions: agg.ReferenceAuxiliary,
	}

	if n := len(filtered); n > 0 {
		se := sd / math.Sqrt(float64(n))
		z := zValueForConfidence(cfg.ConfidenceLevel)
		result.ErrorMarginAbsolute = z * se
		if m != 0 {
			result.ErrorMarginRatio = result.ErrorMarginAbsolute / math.Abs(m)
		}
	}
	return result
}

// buildRetirementResult projects the raw aggregate into entry point 3's
// result shape: the base percentiles plus per-month net-withdrawal and
// cumulative-net-withdrawal percentile series, plus the reference
// path's per-kind cumulative tax breakdown.
func buildRetirementResult(agg mcAggregate, cfg models.SimulationConfig) models.RetirementMonteCarloResult {
	base := buildMonteCarloResult(agg, cfg)
	base.CumulativeContributions = nil // not meaningful for a decumulation path

	return models.RetirementMonteCarloResult{
		MonteCarloResult:        base,
		MonthlyNetWithdrawal:    aggregateMonthly(agg.AuxiliaryColumns),
		MonthlyCumNetWithdrawal: aggregateMonthly(agg.AuxiliaryCumColumns),
		CumulativeTaxByKind:     agg.ReferenceTaxByKind,
	}
}

// MonteCarloCapitalization is entry point 2 (spec §6): a batched
// accumulation Monte Carlo run.
func (e *Engine) MonteCarloCapitalization(in models.MonteCarloInput, progress ProgressSink) (models.MonteCarloResult, error) {
	adult, totalMonths, err := validateAccumulationInput(in.Adults)
	if err != nil {
		return models.MonteCarloResult{}, err
	}
	in.Config.ApplyDefaults()
	warn := newWarnOnce()

	run := func(rng *rand.Rand) mcPathResult {
		sample := func() MonthlyReturns { return sampleMonthlyReturns(in.Market, rng, warn) }
		finalCapital, monthlyTotals, monthlyCum := simulateAccumulationPath(in.Accounts, in.Market, totalMonths, adult.CurrentAge, sample)
		return mcPathResult{
			FinalCapital:  finalCapital,
			MonthlyTotals: monthlyTotals,
			Auxiliary:     monthlyCum,
		}
	}

	agg := runMonteCarlo(run, in.Seed, in.Config, progress, in.TaskID)
	return buildMonteCarloResult(agg, in.Config), nil
}

// MonteCarloRetirement is entry point 3 (spec §6): a batched
// decumulation Monte Carlo run.
func (e *Engine) MonteCarloRetirement(in models.RetirementMonteCarloInput, progress ProgressSink) (models.RetirementMonteCarloResult, error) {
	adult, totalMonths, err := validateDecumulationInput(in.Adults)
	if err != nil {
		return models.RetirementMonteCarloResult{}, err
	}
	in.Config.ApplyDefaults()
	warn := newWarnOnce()

	run := func(rng *rand.Rand) mcPathResult {
		sample := func() MonthlyReturns { return sampleMonthlyReturns(in.Market, rng, warn) }
		finalCapital, monthlyTotals, monthlyNet, monthlyCumNet, taxByKind := simulateDecumulationPath(
			in.Accounts, in.Market, totalMonths, adult.RetirementAge,
			in.SpendingPhases, in.TargetMonthlyIncome, in.StatePension, in.AdditionalIncomes,
			in.TaxParams, sample, warn,
		)
		return mcPathResult{
			FinalCapital:  finalCapital,
			MonthlyTotals: monthlyTotals,
			Auxiliary:     monthlyNet,
			AuxiliaryCum:  monthlyCumNet,
			TaxByKind:     taxByKind,
		}
	}

	agg := runMonteCarlo(run, in.Seed, in.Config, progress, in.TaskID)
	return buildRetirementResult(agg, in.Config), nil
}
