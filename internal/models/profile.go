package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialProfile holds the user-supplied figures the health score is derived from.
// Fields are independent and never cross-validated; expenses may exceed income.
type FinancialProfile struct {
	UserID         int64           `json:"user_id,omitempty"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"`
	CurrentSavings decimal.Decimal `json:"current_savings"`
	TargetExpenses decimal.Decimal `json:"target_expenses"`
	MonthlyDebt    decimal.Decimal `json:"monthly_debt"`

	// Optional signals from outside providers. Nil means not supplied.
	CreditScore     *int             `json:"credit_score,omitempty"`
	NetWorthGrowth  *decimal.Decimal `json:"net_worth_growth,omitempty"`  // percent
	BudgetAdherence *decimal.Decimal `json:"budget_adherence,omitempty"` // percent

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Normalize clamps negative amounts to zero.
func (p FinancialProfile) Normalize() FinancialProfile {
	p.MonthlyIncome = nonNegative(p.MonthlyIncome)
	p.CurrentSavings = nonNegative(p.CurrentSavings)
	p.TargetExpenses = nonNegative(p.TargetExpenses)
	p.MonthlyDebt = nonNegative(p.MonthlyDebt)
	if p.CreditScore != nil && *p.CreditScore < 0 {
		zero := 0
		p.CreditScore = &zero
	}
	if p.BudgetAdherence != nil && p.BudgetAdherence.IsNegative() {
		zero := decimal.Zero
		p.BudgetAdherence = &zero
	}
	return p
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Bounds of the stored profile columns. Values outside them cannot be persisted.
const MaxCreditScore = 1000

var (
	maxAmount  = decimal.New(1, 16) // NUMERIC(18, 2)
	maxPercent = decimal.New(1, 7)  // NUMERIC(9, 2)
)

// AmountInRange reports whether d fits a stored money column.
func AmountInRange(d decimal.Decimal) bool {
	return d.Round(2).Abs().LessThan(maxAmount)
}

// PercentInRange reports whether d fits a stored percentage column.
func PercentInRange(d decimal.Decimal) bool {
	return d.Round(2).Abs().LessThan(maxPercent)
}

// CreditScoreInRange reports whether d rounds to a score in [0, MaxCreditScore].
func CreditScoreInRange(d decimal.Decimal) bool {
	r := d.Round(0)
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(MaxCreditScore))
}
