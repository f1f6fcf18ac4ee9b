package healthscore

import (
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// metric is a factor input. An undefined metric (e.g. a ratio over zero
// income) always lands in the factor's lowest tier.
type metric struct {
	value   decimal.Decimal
	defined bool
}

func definedMetric(v decimal.Decimal) metric {
	return metric{value: v, defined: true}
}

// percentOf returns num/den*100, undefined when den is zero.
func percentOf(num, den decimal.Decimal) metric {
	if den.IsZero() {
		return metric{value: decimal.Zero}
	}
	return definedMetric(num.Div(den).Mul(hundred))
}

// emergencyFundMonths divides savings by the first non-zero of target
// expenses, monthly income and 1.
func emergencyFundMonths(p models.FinancialProfile) decimal.Decimal {
	denominator := decimal.NewFromInt(1)
	switch {
	case !p.TargetExpenses.IsZero():
		denominator = p.TargetExpenses
	case !p.MonthlyIncome.IsZero():
		denominator = p.MonthlyIncome
	}
	return p.CurrentSavings.Div(denominator)
}

type metrics struct {
	savingsRate     metric
	expenseRatio    metric
	debtToIncome    metric
	emergencyFund   metric
	creditScore     metric
	netWorthGrowth  metric
	budgetAdherence metric
}

func deriveMetrics(p models.FinancialProfile, growth decimal.Decimal) metrics {
	m := metrics{
		savingsRate:     percentOf(p.CurrentSavings, p.MonthlyIncome),
		expenseRatio:    percentOf(p.TargetExpenses, p.MonthlyIncome),
		debtToIncome:    percentOf(p.MonthlyDebt, p.MonthlyIncome),
		emergencyFund:   definedMetric(emergencyFundMonths(p)),
		creditScore:     definedMetric(decimal.Zero),
		netWorthGrowth:  definedMetric(growth),
		budgetAdherence: definedMetric(decimal.Zero),
	}
	if p.CreditScore != nil {
		m.creditScore = definedMetric(decimal.NewFromInt(int64(*p.CreditScore)))
	}
	if p.BudgetAdherence != nil {
		m.budgetAdherence = definedMetric(*p.BudgetAdherence)
	}
	return m
}

// Ratios returns the derived ratios of a profile. Ratios over a zero monthly
// income are reported as 0. NetWorthGrowth is left zero; see NetWorthGrowth.
func Ratios(profile models.FinancialProfile) models.Ratios {
	p := profile.Normalize()
	return models.Ratios{
		SavingsRate:         percentOf(p.CurrentSavings, p.MonthlyIncome).value,
		ExpenseRatio:        percentOf(p.TargetExpenses, p.MonthlyIncome).value,
		DebtToIncomeRatio:   percentOf(p.MonthlyDebt, p.MonthlyIncome).value,
		EmergencyFundMonths: emergencyFundMonths(p),
	}
}
