package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashFlow represents income and expense totals over a window
type CashFlow struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

// Ratios are the derived figures the score factors are computed from.
type Ratios struct {
	SavingsRate         decimal.Decimal `json:"savings_rate"`
	ExpenseRatio        decimal.Decimal `json:"expense_ratio"`
	DebtToIncomeRatio   decimal.Decimal `json:"debt_to_income_ratio"`
	EmergencyFundMonths decimal.Decimal `json:"emergency_fund_months"`
	NetWorthGrowth      decimal.Decimal `json:"net_worth_growth"`
}
