package engine

import (
	"math"
	"testing"
)

func TestMeanAndPopStdev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	m := mean(values)
	if m != 5 {
		t.Fatalf("mean = %v, want 5", m)
	}
	sd := popStdev(values, m)
	if math.Abs(sd-2.0) > 1e-9 {
		t.Fatalf("population stdev = %v, want 2.0", sd)
	}
}

func TestMeanOfEmptySliceIsZero(t *testing.T) {
	if got := mean(nil); got != 0 {
		t.Fatalf("mean of empty slice = %v, want 0", got)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	cases := []struct {
		p    float64
		want float64
	}{
		{0.5, 50},
		{0.1, 10},
		{0.9, 90},
		{0.95, 100},
	}
	for _, c := range cases {
		got := percentileNearestRank(sorted, c.p)
		if got != c.want {
			t.Fatalf("percentileNearestRank(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPercentileNearestRankSingleValue(t *testing.T) {
	got := percentileNearestRank([]float64{42}, 0.5)
	if got != 42 {
		t.Fatalf("percentile of single-value slice = %v, want 42", got)
	}
}

func TestFilterFiniteCapitalDropsAberrantValues(t *testing.T) {
	values := []float64{100, -1, math.NaN(), math.Inf(1), 1e12, 1e11, 500}
	got := filterFiniteCapital(values)

	want := []float64{100, 1e11, 500}
	if len(got) != len(want) {
		t.Fatalf("filtered length = %d, want %d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filtered[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInvNormCDFKnownValues(t *testing.T) {
	if math.Abs(invNormCDF(0.5)) > 1e-6 {
		t.Fatalf("invNormCDF(0.5) = %v, want ~0", invNormCDF(0.5))
	}
	// 95% two-sided confidence -> z ~= 1.95996 at p=0.975
	got := invNormCDF(0.975)
	if math.Abs(got-1.959963985) > 1e-6 {
		t.Fatalf("invNormCDF(0.975) = %v, want ~1.959964", got)
	}
}

func TestZValueForConfidence95(t *testing.T) {
	z := zValueForConfidence(0.95)
	if math.Abs(z-1.959963985) > 1e-6 {
		t.Fatalf("z for 95%% confidence = %v, want ~1.959964", z)
	}
}

func TestConfidenceReachedRequiresMinimumSamples(t *testing.T) {
	values := make([]float64, 49)
	for i := range values {
		values[i] = 100
	}
	ok, _, _ := confidenceReached(values, 0.95, 0.01)
	if ok {
		t.Fatalf("confidence should never be reached below 50 samples")
	}
}

func TestConfidenceReachedOnTightDistribution(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 1000
	}
	ok, margin, _ := confidenceReached(values, 0.95, 0.01)
	if !ok {
		t.Fatalf("expected confidence reached for a zero-variance sample, margin=%v", margin)
	}
}

func TestConfidenceReachedOnWideDistribution(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		if i%2 == 0 {
			values[i] = 0
		} else {
			values[i] = 1_000_000
		}
	}
	ok, _, ratio := confidenceReached(values, 0.95, 0.001)
	if ok {
		t.Fatalf("expected confidence not reached for a high-variance sample with tight tolerance, ratio=%v", ratio)
	}
}
