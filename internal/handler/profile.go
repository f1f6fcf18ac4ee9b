package handler

import (
	"encoding/json"
	"strings"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

// decodeProfile reads profile fields leniently. A missing, null, non-numeric
// or out-of-range amount becomes zero; an unusable optional signal is left unset.
func decodeProfile(fields map[string]json.RawMessage) models.FinancialProfile {
	p := models.FinancialProfile{
		MonthlyIncome:   amountField(fields["monthly_income"]),
		CurrentSavings:  amountField(fields["current_savings"]),
		TargetExpenses:  amountField(fields["target_expenses"]),
		MonthlyDebt:     amountField(fields["monthly_debt"]),
		NetWorthGrowth:  percentField(fields["net_worth_growth"]),
		BudgetAdherence: percentField(fields["budget_adherence"]),
	}
	if d := optionalDecimal(fields["credit_score"]); d != nil && models.CreditScoreInRange(*d) {
		score := int(d.Round(0).IntPart())
		p.CreditScore = &score
	}
	return p
}

func amountField(raw json.RawMessage) decimal.Decimal {
	nd := lenientDecimal(raw)
	if !nd.Valid || !models.AmountInRange(nd.Decimal) {
		return decimal.Zero
	}
	return nd.Decimal
}

func percentField(raw json.RawMessage) *decimal.Decimal {
	d := optionalDecimal(raw)
	if d == nil || !models.PercentInRange(*d) {
		return nil
	}
	return d
}

func lenientDecimal(raw json.RawMessage) decimal.NullDecimal {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.NullDecimal{Decimal: decimal.Zero}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{Decimal: decimal.Zero}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func optionalDecimal(raw json.RawMessage) *decimal.Decimal {
	nd := lenientDecimal(raw)
	if !nd.Valid {
		return nil
	}
	return &nd.Decimal
}
