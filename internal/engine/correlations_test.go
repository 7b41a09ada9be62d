package engine

import (
	"math"
	"testing"

	"github.com/finviz/longview/internal/models"
)

func TestCorrelationValueSelfIsOne(t *testing.T) {
	got := correlationValue(models.AssetEquities, models.AssetEquities, nil)
	if got != 1.0 {
		t.Fatalf("self-correlation = %v, want 1.0", got)
	}
}

func TestCorrelationValuePrefersSuppliedOverDefault(t *testing.T) {
	supplied := map[models.AssetClass]map[models.AssetClass]float64{
		models.AssetEquities: {models.AssetBonds: 0.9},
	}
	got := correlationValue(models.AssetEquities, models.AssetBonds, supplied)
	if got != 0.9 {
		t.Fatalf("correlation = %v, want supplied value 0.9", got)
	}
}

func TestCorrelationValueSuppliedIsLookedUpEitherDirection(t *testing.T) {
	supplied := map[models.AssetClass]map[models.AssetClass]float64{
		models.AssetBonds: {models.AssetEquities: 0.9},
	}
	got := correlationValue(models.AssetEquities, models.AssetBonds, supplied)
	if got != 0.9 {
		t.Fatalf("correlation should be found reversed in the supplied table, got %v", got)
	}
}

func TestCorrelationValueFallsBackToDefaultTable(t *testing.T) {
	got := correlationValue(models.AssetEquities, models.AssetBonds, nil)
	if got != 0.3 {
		t.Fatalf("correlation = %v, want default table value 0.3", got)
	}
}

func TestBuildCovarianceMatrixDiagonalIsVariance(t *testing.T) {
	stds := []float64{0.1, 0.2, 0.05, 0.3, 0.15}
	matrix := buildCovarianceMatrix(stds, nil)
	for i, s := range stds {
		want := s * s
		if matrix[i][i] != want {
			t.Fatalf("diagonal[%d] = %v, want %v", i, matrix[i][i], want)
		}
	}
}

func TestCholeskyDecomposeReconstructsMatrix(t *testing.T) {
	stds := []float64{0.15, 0.06, 0.005, 0.8, 0.1}
	matrix := buildCovarianceMatrix(stds, nil)

	lower, err := choleskyDecompose(matrix)
	if err != nil {
		t.Fatalf("unexpected error decomposing a valid covariance matrix: %v", err)
	}

	n := len(matrix)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += lower[i][k] * lower[j][k]
			}
			if math.Abs(sum-matrix[i][j]) > 1e-9 {
				t.Fatalf("L*L^T[%d][%d] = %v, want %v", i, j, sum, matrix[i][j])
			}
		}
	}
}

func TestCholeskyDecomposeRejectsNonPositiveDefinite(t *testing.T) {
	// A matrix with a negative eigenvalue: impossible correlation of 2.0 baked in.
	matrix := [][]float64{
		{1, 2},
		{2, 1},
	}
	_, err := choleskyDecompose(matrix)
	if err != ErrCovarianceIllConditioned {
		t.Fatalf("expected ErrCovarianceIllConditioned, got %v", err)
	}
}
