package models

// Trajectory is one month-indexed series of an aggregate portfolio
// metric across a single simulation path.
type Trajectory []float64

// Percentiles bundles the five cuts the driver reports at every
// aggregation point.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// CapitalizationResult is the deterministic preview's output.
type CapitalizationResult struct {
	FinalCapital          float64    `json:"finalCapital"`
	MonthlyTotals         Trajectory `json:"monthlyTotals"`
	MonthlyCumContribution Trajectory `json:"monthlyCumulativeContribution"`
}

// MonteCarloResult is entry point 2's output (spec §3).
type MonteCarloResult struct {
	Iterations             int           `json:"iterations"`
	ConfidenceReached      bool          `json:"confidenceReached"`
	Mean                   float64       `json:"mean"`
	Stdev                  float64       `json:"stdev"`
	FinalCapital           Percentiles   `json:"finalCapital"`
	MonthlyPercentiles     []Percentiles `json:"monthlyPercentiles"`
	CumulativeContributions Trajectory   `json:"cumulativeContributions"`
	ErrorMarginAbsolute    float64       `json:"errorMarginAbsolute"`
	ErrorMarginRatio       float64       `json:"errorMarginRatio"`
}

// TaxKindBreakdown is the cumulative tax detail for one account kind
// across a retirement path.
type TaxKindBreakdown struct {
	GrossWithdrawal    float64 `json:"grossWithdrawal"`
	CapitalGain        float64 `json:"capitalGain"`
	IncomeTax          float64 `json:"incomeTax"`
	SocialContributions float64 `json:"socialContributions"`
	NetWithdrawal      float64 `json:"netWithdrawal"`
}

// RetirementMonteCarloResult is entry point 3's output (spec §3).
type RetirementMonteCarloResult struct {
	MonteCarloResult
	MonthlyNetWithdrawal    []Percentiles                  `json:"monthlyNetWithdrawal"`
	MonthlyCumNetWithdrawal []Percentiles                  `json:"monthlyCumulativeNetWithdrawal"`
	CumulativeTaxByKind     map[AccountKind]TaxKindBreakdown `json:"cumulativeTaxByKind"`
}

// OptimizationStep is one bisection probe's recorded outcome (spec §3).
type OptimizationStep struct {
	Iteration             int     `json:"iteration"`
	Scale                  float64 `json:"scale"`
	MonthlySavings         float64 `json:"monthlySavings"`
	FinalCapital           float64 `json:"finalCapital"`
	EffectiveFinalCapital  float64 `json:"effectiveFinalCapital"`
	DepletionMonths        int     `json:"depletionMonths"`
}

// RecommendedSavingsResult is entry point 4's output.
type RecommendedSavingsResult struct {
	Scale                   float64            `json:"scale"`
	RecommendedMonthlySavings float64          `json:"recommendedMonthlySavings"`
	ResidualError           float64            `json:"residualError"`
	Saturated               bool               `json:"saturated"`
	BaselineAccumulation    MonteCarloResult   `json:"baselineAccumulation"`
	BaselineDecumulation    []RetirementMonteCarloResult `json:"baselineDecumulation,omitempty"` // p10/p50/p90-seeded
	Steps                   []OptimizationStep `json:"steps"`
}
