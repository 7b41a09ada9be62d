package engine

import "errors"

// Sentinel errors for the four kinds named in spec §7. NumericAnomaly is
// intentionally not among them: it is a recovered, logged event, never
// surfaced as a returned error (see warnlog.go).
var (
	ErrInvalidInput             = errors.New("engine: invalid input")
	ErrCovarianceIllConditioned = errors.New("engine: covariance matrix is not positive-definite")
	ErrSaturatedOptimization    = errors.New("engine: bisection did not bracket a sufficient scale")
)
