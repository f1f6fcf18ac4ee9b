package models

import "github.com/shopspring/decimal"

// Score status labels.
const (
	StatusExcellent = "Excellent"
	StatusGood      = "Good"
	StatusFair      = "Fair"
	StatusNeedsWork = "Needs Work"
)

// Factor is one weighted component of the health score.
type Factor struct {
	Name    string          `json:"name"`
	Current decimal.Decimal `json:"current"`
	Target  decimal.Decimal `json:"target"`
	Weight  decimal.Decimal `json:"weight"`
	Score   int             `json:"score"`
	Status  string          `json:"status"`
}

// ScoreResult is the output of a health score computation. It is recomputed on
// every call and never stored.
type ScoreResult struct {
	Score           int      `json:"score"`
	Status          string   `json:"status"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
	Ratios          Ratios   `json:"ratios"`
}

// DefaultScoreResult is returned when a computation fails.
func DefaultScoreResult() ScoreResult {
	return ScoreResult{
		Score:           0,
		Status:          StatusNeedsWork,
		Factors:         []Factor{},
		Recommendations: []string{},
	}
}
