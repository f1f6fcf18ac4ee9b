package healthscore

import (
	"time"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

// GrowthWindowMonths is the length of the trailing window used for net-worth growth.
const GrowthWindowMonths = 6

// growthBase is the denominator used when the profile has no savings.
var growthBase = decimal.NewFromInt(10000)

// WindowStart returns the first instant of the growth window ending at now.
// The day is clamped to the end of the target month, so a window ending on
// August 31 starts on the last day of February.
func WindowStart(now time.Time) time.Time {
	year, month, day := now.Date()
	first := time.Date(year, month-GrowthWindowMonths, 1, 0, 0, 0, 0, now.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}

// CashFlowWindow sums income and expenses dated within [now-6 months, now].
// Expense amounts are counted by absolute value.
func CashFlowWindow(txs []models.Transaction, now time.Time) models.CashFlow {
	from := WindowStart(now)
	cf := models.CashFlow{
		From:    from,
		To:      now,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Date.Before(from) || tx.Date.After(now) {
			continue
		}
		switch tx.Type {
		case models.TransactionIncome:
			cf.Income = cf.Income.Add(tx.Amount)
		case models.TransactionExpense:
			cf.Expense = cf.Expense.Add(tx.Amount.Abs())
		default:
			continue
		}
		cf.Count++
	}
	cf.Net = cf.Income.Sub(cf.Expense)
	return cf
}

// NetWorthGrowth returns the percentage growth used by the Wealth Growth factor.
// An externally supplied figure wins; otherwise it is the window's net cash flow
// relative to current savings (or a base of 10,000 when savings are zero).
func NetWorthGrowth(profile models.FinancialProfile, txs []models.Transaction, now time.Time) decimal.Decimal {
	if profile.NetWorthGrowth != nil {
		return *profile.NetWorthGrowth
	}
	cf := CashFlowWindow(txs, now)
	if cf.Count == 0 {
		return decimal.Zero
	}
	base := profile.CurrentSavings
	if !base.IsPositive() {
		base = growthBase
	}
	return cf.Net.Div(base).Mul(hundred)
}
