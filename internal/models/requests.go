package models

// TaxParams carries the household-level facts the taxation engine needs
// beyond the account itself.
type TaxParams struct {
	TMI      *float64 `json:"tmi,omitempty"` // marginal income tax rate, informational (see GLOSSARY)
	IsCouple bool     `json:"isCouple"`
}

// CapitalizationInput drives the deterministic single-path preview
// (entry point 1, spec §6).
type CapitalizationInput struct {
	Adults        []AdultProfile      `json:"adults"`
	Accounts      []InvestmentAccount `json:"accounts"`
	SavingsPhases []SavingsPhase      `json:"savingsPhases,omitempty"`
	Market        *MarketAssumptions  `json:"market,omitempty"`
}

// MonteCarloInput drives the accumulation Monte Carlo (entry point 2).
type MonteCarloInput struct {
	Adults        []AdultProfile      `json:"adults"`
	Accounts      []InvestmentAccount `json:"accounts"`
	SavingsPhases []SavingsPhase      `json:"savingsPhases,omitempty"`
	Market        *MarketAssumptions  `json:"market,omitempty"`
	Config        SimulationConfig    `json:"config"`
	Seed          int64               `json:"seed,omitempty"`
	TaskID        string              `json:"taskId,omitempty"`
}

// RetirementMonteCarloInput drives the decumulation Monte Carlo (entry
// point 3).
type RetirementMonteCarloInput struct {
	Adults            []AdultProfile      `json:"adults"`
	Accounts          []InvestmentAccount `json:"accounts"`
	Market            *MarketAssumptions  `json:"market,omitempty"`
	SpendingPhases    []SpendingPhase     `json:"spendingPhases,omitempty"`
	TargetMonthlyIncome float64           `json:"targetMonthlyIncome"`
	StatePension      float64             `json:"statePension"`
	AdditionalIncomes []AdditionalIncome  `json:"additionalIncomes,omitempty"`
	TaxParams         TaxParams           `json:"taxParams"`
	Config            SimulationConfig    `json:"config"`
	Seed              int64               `json:"seed,omitempty"`
	TaskID            string              `json:"taskId,omitempty"`
}

// SavingsOptimizationInput drives the bisection savings optimizer
// (entry point 4).
type SavingsOptimizationInput struct {
	Adults              []AdultProfile      `json:"adults"`
	Accounts            []InvestmentAccount `json:"accounts"`
	SavingsPhases       []SavingsPhase      `json:"savingsPhases,omitempty"`
	Market              *MarketAssumptions  `json:"market,omitempty"`
	SpendingPhases      []SpendingPhase     `json:"spendingPhases,omitempty"`
	TargetMonthlyIncome float64             `json:"targetMonthlyIncome"`
	StatePension        float64             `json:"statePension"`
	AdditionalIncomes   []AdditionalIncome  `json:"additionalIncomes,omitempty"`
	TaxParams           TaxParams           `json:"taxParams"`
	TargetFinalCapital  float64             `json:"targetFinalCapital"`
	Config              SimulationConfig    `json:"config"`
	OptimizerMaxIterations int              `json:"optimizerMaxIterations,omitempty"`
	Seed                int64               `json:"seed,omitempty"`
	TaskID              string              `json:"taskId,omitempty"`
}
