package models

// AdultProfile is one adult member of the household the projection runs
// for. Only the first adult's ages drive the simulation horizon (per
// the core's single-horizon simplification); additional adults are
// informational for the HTTP/UI layer.
type AdultProfile struct {
	CurrentAge     float64  `json:"currentAge"`
	RetirementAge  float64  `json:"retirementAge"`
	LifeExpectancy *float64 `json:"lifeExpectancy,omitempty"`
}

// SavingsPhase is an informational UI annotation of a savings plan
// window. It never feeds the core's contribution arithmetic — see
// DESIGN.md "savings-phase semantics".
type SavingsPhase struct {
	FromAge             float64 `json:"fromAge"`
	ToAge               float64 `json:"toAge"`
	MonthlyContribution float64 `json:"monthlyContribution"`
}

// Active reports whether this phase covers the given age.
func (p SavingsPhase) Active(age float64) bool {
	return p.FromAge <= age && age < p.ToAge
}

// SpendingPhase scales the target monthly retirement income over an age
// window.
type SpendingPhase struct {
	FromAge      float64 `json:"fromAge"`
	ToAge        float64 `json:"toAge"`
	SpendingRatio float64 `json:"spendingRatio"`
}

// SpendingRatioAt returns the multiplicative spending ratio in effect at
// age, 1.0 when no phase covers it.
func SpendingRatioAt(phases []SpendingPhase, age float64) float64 {
	for _, p := range phases {
		if p.FromAge <= age && age < p.ToAge {
			return p.SpendingRatio
		}
	}
	return 1.0
}

// AdditionalIncome is a recurring income stream that becomes active at
// a given age (e.g. a second pension, rental income).
type AdditionalIncome struct {
	MonthlyAmount float64 `json:"monthlyAmount"`
	StartAge      float64 `json:"startAge"`
}

// ActiveIncomeAt sums the additional income streams active at age.
func ActiveIncomeAt(streams []AdditionalIncome, age float64) float64 {
	total := 0.0
	for _, s := range streams {
		if age >= s.StartAge {
			total += s.MonthlyAmount
		}
	}
	return total
}
