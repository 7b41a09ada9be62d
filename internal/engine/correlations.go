package engine

import (
	"math"

	"github.com/finviz/longview/internal/models"
)

// defaultCorrelations is the fixed fallback table used when the caller
// doesn't supply a correlation for a given pair (spec §3, §4.1 step 2).
var defaultCorrelations = map[models.AssetClass]map[models.AssetClass]float64{
	models.AssetEquities: {models.AssetBonds: 0.3, models.AssetLivrets: 0.05, models.AssetCrypto: 0.4, models.AssetOther: 0.6},
	models.AssetBonds:    {models.AssetEquities: 0.3, models.AssetLivrets: 0.2, models.AssetCrypto: 0.1, models.AssetOther: 0.4},
	models.AssetLivrets:  {models.AssetEquities: 0.05, models.AssetBonds: 0.2, models.AssetCrypto: -0.05, models.AssetOther: 0.1},
	models.AssetCrypto:   {models.AssetEquities: 0.4, models.AssetBonds: 0.1, models.AssetLivrets: -0.05, models.AssetOther: 0.5},
	models.AssetOther:    {models.AssetEquities: 0.6, models.AssetBonds: 0.4, models.AssetLivrets: 0.1, models.AssetCrypto: 0.5},
}

// correlationValue looks up ρ(i,j): self-correlation is 1, then the
// caller-supplied table (either direction), then the default table
// (either direction), then 0.
func correlationValue(i, j models.AssetClass, supplied map[models.AssetClass]map[models.AssetClass]float64) float64 {
	if i == j {
		return 1.0
	}
	if row, ok := supplied[i]; ok {
		if v, ok := row[j]; ok {
			return v
		}
	}
	if row, ok := supplied[j]; ok {
		if v, ok := row[i]; ok {
			return v
		}
	}
	if row, ok := defaultCorrelations[i]; ok {
		if v, ok := row[j]; ok {
			return v
		}
	}
	if row, ok := defaultCorrelations[j]; ok {
		if v, ok := row[i]; ok {
			return v
		}
	}
	return 0.0
}

// buildCovarianceMatrix constructs the n×n covariance matrix
// Cov(i,j) = ρ(i,j) · σ(i) · σ(j), using the fixed AssetClassOrder.
func buildCovarianceMatrix(stds []float64, supplied map[models.AssetClass]map[models.AssetClass]float64) [][]float64 {
	keys := models.AssetClassOrder
	n := len(keys)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = stds[i] * stds[i]
			} else {
				matrix[i][j] = correlationValue(keys[i], keys[j], supplied) * stds[i] * stds[j]
			}
		}
	}
	return matrix
}

// choleskyDecompose computes the lower-triangular Cholesky factor L
// such that L·L^T = matrix. Returns ErrCovarianceIllConditioned if the
// matrix isn't positive-definite (spec §4.1 step 3).
func choleskyDecompose(matrix [][]float64) ([][]float64, error) {
	n := len(matrix)
	lower := make([][]float64, n)
	for i := range lower {
		lower[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k < j; k++ {
				sum += lower[i][k] * lower[j][k]
			}
			if i == j {
				value := matrix[i][i] - sum
				if value <= 0 {
					return nil, ErrCovarianceIllConditioned
				}
				lower[i][j] = math.Sqrt(value)
			} else {
				if lower[j][j] == 0 {
					return nil, ErrCovarianceIllConditioned
				}
				lower[i][j] = (matrix[i][j] - sum) / lower[j][j]
			}
		}
	}
	return lower, nil
}
