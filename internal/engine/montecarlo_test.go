package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/finviz/longview/internal/models"
)

func TestNewPathRNGIsDeterministicPerPathIndex(t *testing.T) {
	rngA := newPathRNG(42, 7)
	rngB := newPathRNG(42, 7)

	for i := 0; i < 5; i++ {
		a, b := rngA.Float64(), rngB.Float64()
		if a != b {
			t.Fatalf("same (seed, path index) should reproduce the same draw sequence, draw %d: %v != %v", i, a, b)
		}
	}
}

func TestNewPathRNGDiffersAcrossPathIndices(t *testing.T) {
	rngA := newPathRNG(42, 1)
	rngB := newPathRNG(42, 2)

	if rngA.Float64() == rngB.Float64() {
		t.Fatalf("distinct path indices should not draw identical sequences")
	}
}

func TestRunBatchParallelRunsEveryPath(t *testing.T) {
	count := 20
	run := func(rng *rand.Rand) mcPathResult {
		return mcPathResult{FinalCapital: rng.Float64()}
	}

	results := runBatchParallel(run, 1, 0, count)
	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	for i, r := range results {
		if r.FinalCapital < 0 || r.FinalCapital >= 1 {
			t.Fatalf("result %d out of expected [0,1) range: %v", i, r.FinalCapital)
		}
	}
}

func TestRunMonteCarloStopsAtMaxIterationsWithoutConfidence(t *testing.T) {
	cfg := models.SimulationConfig{MaxIterations: 60, BatchSize: 20, ConfidenceLevel: 0.999, ToleranceRatio: 1e-9}

	i := 0
	run := func(rng *rand.Rand) mcPathResult {
		i++
		// alternate wildly so the tight tolerance is never satisfied
		if i%2 == 0 {
			return mcPathResult{FinalCapital: 0}
		}
		return mcPathResult{FinalCapital: 1_000_000}
	}

	agg := runMonteCarlo(run, 1, cfg, nil, "")
	if agg.Iterations != 60 {
		t.Fatalf("expected iterations capped at MaxIterations (60), got %d", agg.Iterations)
	}
	if agg.ConfidenceReached {
		t.Fatalf("confidence should not be reached with an impossible tolerance")
	}
}

func TestRunMonteCarloStopsEarlyOnConfidence(t *testing.T) {
	cfg := models.SimulationConfig{MaxIterations: 1000, BatchSize: 50, ConfidenceLevel: 0.9, ToleranceRatio: 0.5}

	run := func(rng *rand.Rand) mcPathResult {
		return mcPathResult{FinalCapital: 1000} // zero variance: should converge immediately at n=50
	}

	agg := runMonteCarlo(run, 1, cfg, nil, "")
	if !agg.ConfidenceReached {
		t.Fatalf("expected confidence reached quickly for a zero-variance path")
	}
	if agg.Iterations != 50 {
		t.Fatalf("expected to stop at the first batch (50), got %d", agg.Iterations)
	}
}

type recordingSink struct {
	updates []ProgressUpdate
}

func (s *recordingSink) Report(u ProgressUpdate) {
	s.updates = append(s.updates, u)
}

func TestRunMonteCarloReportsProgressPerBatch(t *testing.T) {
	cfg := models.SimulationConfig{MaxIterations: 100, BatchSize: 25, ConfidenceLevel: 0.999, ToleranceRatio: 1e-9}
	sink := &recordingSink{}

	run := func(rng *rand.Rand) mcPathResult { return mcPathResult{FinalCapital: rng.Float64()} }
	runMonteCarlo(run, 1, cfg, sink, "task-1")

	if len(sink.updates) != 4 {
		t.Fatalf("expected one progress report per batch (4), got %d", len(sink.updates))
	}
	last := sink.updates[len(sink.updates)-1]
	if !last.Done {
		t.Fatalf("expected the final progress report to be marked done")
	}
	if last.TaskID != "task-1" {
		t.Fatalf("task id = %q, want %q", last.TaskID, "task-1")
	}
}

func TestBuildMonteCarloResultFiltersAberrantFinals(t *testing.T) {
	agg := mcAggregate{
		Iterations: 3,
		Finals:     []float64{100, -50, 1e13},
	}
	cfg := models.SimulationConfig{ConfidenceLevel: 0.9}

	result := buildMonteCarloResult(agg, cfg)
	if result.FinalCapital.P50 != 100 {
		t.Fatalf("expected only the single valid value to survive filtering, got p50=%v", result.FinalCapital.P50)
	}
}

func TestMonteCarloCapitalizationInvalidInput(t *testing.T) {
	e := New()
	_, err := e.MonteCarloCapitalization(models.MonteCarloInput{}, nil)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMonteCarloRetirementInvalidInput(t *testing.T) {
	e := New()
	_, err := e.MonteCarloRetirement(models.RetirementMonteCarloInput{}, nil)
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMonteCarloCapitalizationRunsToCompletion(t *testing.T) {
	e := New()
	in := models.MonteCarloInput{
		Adults: []models.AdultProfile{{CurrentAge: 50, RetirementAge: 52}},
		Accounts: []models.InvestmentAccount{
			{Kind: models.AccountLivret, CurrentBalance: 10_000},
		},
		Market: &models.MarketAssumptions{
			AssetClasses: map[models.AssetClass]models.AssetClassAssumption{
				models.AssetLivrets: {ExpectedReturn: 2.0},
			},
		},
		Config: models.SimulationConfig{MaxIterations: 60, BatchSize: 60, ConfidenceLevel: 0.9, ToleranceRatio: 0.2},
		Seed:   99,
	}

	result, err := e.MonteCarloCapitalization(in, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Iterations != 60 {
		t.Fatalf("iterations = %d, want 60", result.Iterations)
	}
	if len(result.MonthlyPercentiles) != 24 {
		t.Fatalf("expected 24 months of percentiles, got %d", len(result.MonthlyPercentiles))
	}
}
