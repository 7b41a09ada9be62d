package models

// SimulationConfig carries the Monte Carlo / optimizer knobs recognized
// by the core (spec §6).
type SimulationConfig struct {
	ConfidenceLevel         float64 `json:"confidenceLevel"`         // (0.5, 0.999]
	ToleranceRatio          float64 `json:"toleranceRatio"`          // [1e-4, 0.5]
	MaxIterations           int     `json:"maxIterations"`           // >= 10
	BatchSize               int     `json:"batchSize"`               // >= 10
	CapitalizationOnly      bool    `json:"capitalizationOnly"`
	CalculateMinimumSavings bool    `json:"calculateMinimumSavings"`
}

// DefaultSimulationConfig mirrors the teacher's DefaultSimulationParams
// pattern: sensible defaults filled in by ApplyDefaults.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		ConfidenceLevel: 0.9,
		ToleranceRatio:  0.05,
		MaxIterations:   5000,
		BatchSize:       500,
	}
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *SimulationConfig) ApplyDefaults() {
	d := DefaultSimulationConfig()
	if c.ConfidenceLevel <= 0 {
		c.ConfidenceLevel = d.ConfidenceLevel
	}
	if c.ToleranceRatio <= 0 {
		c.ToleranceRatio = d.ToleranceRatio
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
}
