package healthscore

import (
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

// Factor names.
const (
	FactorSavingsRate      = "Savings Rate"
	FactorEmergencyFund    = "Emergency Fund"
	FactorExpenseControl   = "Expense Control"
	FactorDebtManagement   = "Debt Management"
	FactorCreditHealth     = "Credit Health"
	FactorWealthGrowth     = "Wealth Growth"
	FactorBudgetDiscipline = "Budget Discipline"
)

type direction int

const (
	higherIsBetter direction = iota
	lowerIsBetter
)

type priority int

const (
	priorityHigh priority = iota
	priorityMedium
)

type tier struct {
	bound decimal.Decimal
	score int
}

type factorSpec struct {
	name     string
	weight   decimal.Decimal
	target   decimal.Decimal
	dir      direction
	tiers    []tier
	floor    int
	priority priority
	advice   string
	measure  func(metrics) metric
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// factorSpecs is ordered as reported; weights sum to 1.
var factorSpecs = []factorSpec{
	{
		name:   FactorSavingsRate,
		weight: dec("0.25"),
		target: dec("20"),
		dir:    higherIsBetter,
		tiers: []tier{
			{dec("20"), 100}, {dec("15"), 80}, {dec("10"), 60}, {dec("5"), 40},
		},
		floor:    20,
		priority: priorityHigh,
		advice:   "Increase your savings rate toward 15-20% of monthly income",
		measure:  func(m metrics) metric { return m.savingsRate },
	},
	{
		name:   FactorEmergencyFund,
		weight: dec("0.20"),
		target: dec("6"),
		dir:    higherIsBetter,
		tiers: []tier{
			{dec("6"), 100}, {dec("3"), 75}, {dec("1"), 50},
		},
		floor:    25,
		priority: priorityHigh,
		advice:   "Build an emergency fund covering 3-6 months of expenses",
		measure:  func(m metrics) metric { return m.emergencyFund },
	},
	{
		name:   FactorExpenseControl,
		weight: dec("0.15"),
		target: dec("50"),
		dir:    lowerIsBetter,
		tiers: []tier{
			{dec("50"), 100}, {dec("70"), 75}, {dec("85"), 50},
		},
		floor:    25,
		priority: priorityMedium,
		advice:   "Bring monthly expenses under 70% of income",
		measure:  func(m metrics) metric { return m.expenseRatio },
	},
	{
		name:   FactorDebtManagement,
		weight: dec("0.15"),
		target: dec("10"),
		dir:    lowerIsBetter,
		tiers: []tier{
			{dec("10"), 100}, {dec("20"), 75}, {dec("36"), 50},
		},
		floor:    25,
		priority: priorityHigh,
		advice:   "Pay down debt until payments are below 20% of income",
		measure:  func(m metrics) metric { return m.debtToIncome },
	},
	{
		name:   FactorCreditHealth,
		weight: dec("0.10"),
		target: dec("750"),
		dir:    higherIsBetter,
		tiers: []tier{
			{dec("750"), 100}, {dec("700"), 80}, {dec("650"), 60}, {dec("600"), 40},
		},
		floor:    20,
		priority: priorityMedium,
		advice:   "Improve your credit score by paying on time and keeping utilization low",
		measure:  func(m metrics) metric { return m.creditScore },
	},
	{
		name:   FactorWealthGrowth,
		weight: dec("0.10"),
		target: dec("10"),
		dir:    higherIsBetter,
		tiers: []tier{
			{dec("10"), 100}, {dec("5"), 75}, {dec("0"), 50},
		},
		floor:    25,
		priority: priorityMedium,
		advice:   "Direct surplus cash flow into savings and investments to grow net worth",
		measure:  func(m metrics) metric { return m.netWorthGrowth },
	},
	{
		name:   FactorBudgetDiscipline,
		weight: dec("0.05"),
		target: dec("90"),
		dir:    higherIsBetter,
		tiers: []tier{
			{dec("90"), 100}, {dec("80"), 75}, {dec("70"), 50},
		},
		floor:    25,
		priority: priorityMedium,
		advice:   "Track spending against your budget to stay within planned limits",
		measure:  func(m metrics) metric { return m.budgetAdherence },
	},
}

// score maps a metric onto the factor's step function.
func (f factorSpec) score(m metric) int {
	if !m.defined {
		return f.floor
	}
	for _, t := range f.tiers {
		switch f.dir {
		case higherIsBetter:
			if m.value.GreaterThanOrEqual(t.bound) {
				return t.score
			}
		case lowerIsBetter:
			if m.value.LessThanOrEqual(t.bound) {
				return t.score
			}
		}
	}
	return f.floor
}

func (f factorSpec) evaluate(m metrics) models.Factor {
	value := f.measure(m)
	sub := f.score(value)
	return models.Factor{
		Name:    f.name,
		Current: value.value.Round(2),
		Target:  f.target,
		Weight:  f.weight,
		Score:   sub,
		Status:  Classify(sub),
	}
}

func specByName(name string) (factorSpec, bool) {
	for _, f := range factorSpecs {
		if f.name == name {
			return f, true
		}
	}
	return factorSpec{}, false
}

// Classify maps a 0-100 score onto its status label.
func Classify(score int) string {
	switch {
	case score >= 80:
		return models.StatusExcellent
	case score >= 60:
		return models.StatusGood
	case score >= 40:
		return models.StatusFair
	default:
		return models.StatusNeedsWork
	}
}
