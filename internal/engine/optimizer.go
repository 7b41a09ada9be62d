package engine

import (
	"fmt"
	"math"

	"github.com/finviz/longview/internal/models"
)

// scaleContributions returns a copy of accounts with every explicit
// monthly contribution multiplied by scale (spec §4.6 step 2).
func scaleContributions(accounts []models.InvestmentAccount, scale float64) []models.InvestmentAccount {
	scaled := make([]models.InvestmentAccount, len(accounts))
	for i, a := range accounts {
		scaled[i] = a
		if a.MonthlyContribution != nil {
			v := *a.MonthlyContribution * scale
			scaled[i].MonthlyContribution = &v
		}
	}
	return scaled
}

// seedAccountsAtCapital rescales every account's current balance so the
// household's total balance equals targetCapital, preserving each
// account's relative share of the original mix. This is how the
// decumulation cluster in step 1/2 is seeded from an accumulation
// percentile (see DESIGN.md "decumulation seeding").
func seedAccountsAtCapital(accounts []models.InvestmentAccount, targetCapital float64) []models.InvestmentAccount {
	seeded := make([]models.InvestmentAccount, len(accounts))
	totalCurrent := 0.0
	for _, a := range accounts {
		totalCurrent += a.CurrentBalance
	}
	if totalCurrent <= 0 {
		share := targetCapital / math.Max(1, float64(len(accounts)))
		for i, a := range accounts {
			seeded[i] = a
			seeded[i].CurrentBalance = share
		}
		return seeded
	}
	scale := targetCapital / totalCurrent
	for i, a := range accounts {
		seeded[i] = a
		seeded[i].CurrentBalance = a.CurrentBalance * scale
	}
	return seeded
}

// depletionMonthsFromTrajectory scans the median decumulation trajectory
// for the first month the p50 capital reaches zero or below, returning
// the number of months remaining at that point (spec §4.6 step 2).
func depletionMonthsFromTrajectory(monthly []models.Percentiles) int {
	for i, p := range monthly {
		if p.P50 <= 0 {
			return len(monthly) - i
		}
	}
	return 0
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// adaptiveInnerMaxIterations implements spec §4.6 step 5: ~100 samples
// while the bracket is still wide, ramping linearly to the configured
// ceiling as the bracket narrows past 1%.
func adaptiveInnerMaxIterations(bracketRatio float64, configuredMax int) int {
	const (
		wideRatio    = 0.5
		narrowRatio  = 0.01
		wideSamples  = 100
	)
	switch {
	case bracketRatio > wideRatio:
		return wideSamples
	case bracketRatio < narrowRatio:
		return configuredMax
	default:
		t := (wideRatio - bracketRatio) / (wideRatio - narrowRatio)
		return int(float64(wideSamples) + t*float64(configuredMax-wideSamples))
	}
}

// optimizerEvalOutcome is one evaluate(s) probe (spec §4.6 step 2).
type optimizerEvalOutcome struct {
	step          models.OptimizationStep
	sufficient    bool
	accumulation  models.MonteCarloResult
	decumulation  []models.RetirementMonteCarloResult
}

func toleranceCapital(targetFinalCapital, toleranceRatio float64) float64 {
	return math.Max(100, math.Abs(targetFinalCapital)*toleranceRatio)
}

// evaluateScale runs one bisection probe: scale contributions, run the
// accumulation Monte Carlo, optionally run the p10/p50/p90-seeded
// decumulation cluster, and judge sufficiency (spec §4.6 step 2).
// Reports progress at the end of each scenario it runs (spec §6 entry
// point 5).
func (e *Engine) evaluateScale(in models.SavingsOptimizationInput, scale float64, innerMaxIterations int, progress ProgressSink) optimizerEvalOutcome {
	scaledAccounts := scaleContributions(in.Accounts, scale)
	totalSavings := activeMonthlyContributionTotal(scaledAccounts)

	accCfg := in.Config
	accCfg.MaxIterations = innerMaxIterations
	accResult, err := e.MonteCarloCapitalization(models.MonteCarloInput{
		Adults:   in.Adults,
		Accounts: scaledAccounts,
		Market:   in.Market,
		Config:   accCfg,
		Seed:     in.Seed,
	}, progress)
	if err != nil {
		return optimizerEvalOutcome{step: models.OptimizationStep{Scale: scale, MonthlySavings: totalSavings}}
	}
	reportScenario(progress, in.TaskID, fmt.Sprintf("accumulation probe at scale %.4f", scale))

	finalCapital := accResult.FinalCapital.P50
	depletionMonths := 0
	var decResults []models.RetirementMonteCarloResult

	if !in.Config.CapitalizationOnly {
		seeds := []float64{accResult.FinalCapital.P10, accResult.FinalCapital.P50, accResult.FinalCapital.P90}
		seedLabels := []string{"p10", "p50", "p90"}
		decCfg := in.Config
		decCfg.MaxIterations = innerMaxIterations
		for i, capital := range seeds {
			seededAccounts := seedAccountsAtCapital(in.Accounts, capital)
			decResult, decErr := e.MonteCarloRetirement(models.RetirementMonteCarloInput{
				Adults:              in.Adults,
				Accounts:            seededAccounts,
				Market:              in.Market,
				SpendingPhases:      in.SpendingPhases,
				TargetMonthlyIncome: in.TargetMonthlyIncome,
				StatePension:        in.StatePension,
				AdditionalIncomes:   in.AdditionalIncomes,
				TaxParams:           in.TaxParams,
				Config:              decCfg,
				Seed:                in.Seed,
			}, progress)
			if decErr == nil {
				decResults = append(decResults, decResult)
			}
			reportScenario(progress, in.TaskID, fmt.Sprintf("decumulation scenario seeded at %s at scale %.4f", seedLabels[i], scale))
		}
		if len(decResults) == 3 {
			median := decResults[1]
			finalCapital = median.FinalCapital.P50
			depletionMonths = depletionMonthsFromTrajectory(median.MonthlyPercentiles)
		}
	}

	base := math.Max(1, firstNonZero(in.TargetMonthlyIncome, in.StatePension, 1000))
	penalty := 0.0
	if depletionMonths > 0 {
		penalty = base * math.Max(1, float64(depletionMonths))
	}
	effectiveFinalCapital := finalCapital - penalty

	tol := toleranceCapital(in.TargetFinalCapital, in.Config.ToleranceRatio)
	sufficient := (depletionMonths == 0 || in.Config.CapitalizationOnly) &&
		(effectiveFinalCapital-in.TargetFinalCapital >= -tol)

	return optimizerEvalOutcome{
		step: models.OptimizationStep{
			Scale:                 scale,
			MonthlySavings:        totalSavings,
			FinalCapital:          finalCapital,
			EffectiveFinalCapital: effectiveFinalCapital,
			DepletionMonths:       depletionMonths,
		},
		sufficient:   sufficient,
		accumulation: accResult,
		decumulation: decResults,
	}
}

// OptimizeSavings is entry point 4, C6 (spec §4.6): bracket then bisect
// the smallest uniform contribution scale that meets target_final_capital
// without premature median depletion. Reports progress at the end of
// each bisection probe (spec §6 entry point 5); progress may be nil.
func (e *Engine) OptimizeSavings(in models.SavingsOptimizationInput, progress ProgressSink) (models.RecommendedSavingsResult, error) {
	if _, _, err := validateAccumulationInput(in.Adults); err != nil {
		return models.RecommendedSavingsResult{}, err
	}
	in.Config.ApplyDefaults()

	maxIterations := in.OptimizerMaxIterations
	if maxIterations <= 0 {
		maxIterations = 20
	}
	// Rough upper bound on total probes (baseline + zero-scale check +
	// bracket search + bisection) used only to shape a monotonic
	// progress percentage.
	estimatedProbes := maxIterations + 14
	probeIndex := 0
	probe := func(scale float64) {
		probeIndex++
		reportProbe(progress, in.TaskID, probeIndex, estimatedProbes, scale, false)
	}

	var outcomes []optimizerEvalOutcome

	baseline := e.evaluateScale(in, 1.0, in.Config.MaxIterations, progress)
	outcomes = append(outcomes, baseline)
	probe(1.0)

	zero := e.evaluateScale(in, 0.0, adaptiveInnerMaxIterations(1.0, in.Config.MaxIterations), progress)
	outcomes = append(outcomes, zero)
	probe(0.0)
	if zero.sufficient {
		reportProbe(progress, in.TaskID, probeIndex, estimatedProbes, 0.0, true)
		return finishOptimization(in, outcomes, 0.0, baseline, false), nil
	}

	low, high := 0.0, 0.0
	haveHigh := false
	s := 1.0
	attempts := 0
	for !haveHigh && s < 512 && attempts < 12 {
		outcome := e.evaluateScale(in, s, adaptiveInnerMaxIterations(1.0, in.Config.MaxIterations), progress)
		outcomes = append(outcomes, outcome)
		probe(s)
		if outcome.sufficient {
			high = s
			haveHigh = true
			break
		}
		low = s
		s *= 2
		attempts++
	}

	if !haveHigh {
		reportProbe(progress, in.TaskID, probeIndex, estimatedProbes, s, true)
		return finishOptimizationFallback(in, outcomes, baseline), nil
	}

	initialWidth := high - low
	if initialWidth <= 0 {
		initialWidth = 1
	}
	tol := toleranceCapital(in.TargetFinalCapital, in.Config.ToleranceRatio)
	bestScale := high

	for i := 0; i < maxIterations; i++ {
		if high-low < 1e-4 {
			break
		}
		ratio := (high - low) / initialWidth
		innerMax := adaptiveInnerMaxIterations(ratio, in.Config.MaxIterations)
		mid := (low + high) / 2
		outcome := e.evaluateScale(in, mid, innerMax, progress)
		outcomes = append(outcomes, outcome)
		probe(mid)

		if outcome.sufficient {
			high = mid
			bestScale = mid
			if math.Abs(outcome.step.EffectiveFinalCapital-in.TargetFinalCapital) <= tol {
				break
			}
		} else {
			low = mid
		}
	}

	reportProbe(progress, in.TaskID, probeIndex, estimatedProbes, bestScale, true)
	return finishOptimization(in, outcomes, bestScale, baseline, haveHigh), nil
}

// finishOptimization selects the cheapest sufficient probe among
// everything evaluated, falling back to chosenScale when no probe was
// sufficient. The chosen scale is not re-evaluated: the recommendation
// reports the figures of the probe as it was run, which for bisection
// probes may be at a reduced Monte Carlo budget.
func finishOptimization(in models.SavingsOptimizationInput, outcomes []optimizerEvalOutcome, chosenScale float64, baseline optimizerEvalOutcome, wasBracketed bool) models.RecommendedSavingsResult {
	var cheapest *optimizerEvalOutcome
	for i := range outcomes {
		o := &outcomes[i]
		if !o.sufficient {
			continue
		}
		if cheapest == nil || o.step.MonthlySavings < cheapest.step.MonthlySavings {
			cheapest = o
		}
	}

	finalScale := chosenScale
	if cheapest != nil {
		finalScale = cheapest.step.Scale
	}

	_ = wasBracketed
	return buildRecommendation(in, outcomes, finalScale, baseline, cheapest == nil)
}

func finishOptimizationFallback(in models.SavingsOptimizationInput, outcomes []optimizerEvalOutcome, baseline optimizerEvalOutcome) models.RecommendedSavingsResult {
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.step.DepletionMonths < best.step.DepletionMonths {
			best = o
			continue
		}
		if o.step.DepletionMonths == best.step.DepletionMonths && o.step.EffectiveFinalCapital > best.step.EffectiveFinalCapital {
			best = o
		}
	}
	return buildRecommendation(in, outcomes, best.step.Scale, baseline, true)
}

func buildRecommendation(in models.SavingsOptimizationInput, outcomes []optimizerEvalOutcome, finalScale float64, baseline optimizerEvalOutcome, saturated bool) models.RecommendedSavingsResult {
	steps := make([]models.OptimizationStep, len(outcomes))
	for i, o := range outcomes {
		steps[i] = o.step
	}

	var chosen *optimizerEvalOutcome
	for i := range outcomes {
		if outcomes[i].step.Scale == finalScale {
			chosen = &outcomes[i]
		}
	}
	if chosen == nil {
		chosen = &outcomes[len(outcomes)-1]
	}

	return models.RecommendedSavingsResult{
		Scale:                     finalScale,
		RecommendedMonthlySavings: chosen.step.MonthlySavings,
		ResidualError:             chosen.step.EffectiveFinalCapital - in.TargetFinalCapital,
		Saturated:                 saturated,
		BaselineAccumulation:      baseline.accumulation,
		BaselineDecumulation:      baseline.decumulation,
		Steps:                     steps,
	}
}
