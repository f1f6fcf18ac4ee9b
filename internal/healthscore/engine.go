package healthscore

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedTransaction is returned when a transaction has an unknown type.
	ErrMalformedTransaction = errors.New("malformed transaction")
	// ErrComputation wraps an unexpected failure inside the computation.
	ErrComputation = errors.New("health score computation failed")
)

// Compute derives the health score for a profile and its transaction history as
// of now. Missing amounts count as zero and zero denominators never fail.
//
// On a malformed transaction list or an internal failure it returns
// models.DefaultScoreResult together with a non-nil error; the result is always
// safe to render and logging the error is left to the caller.
func Compute(profile models.FinancialProfile, txs []models.Transaction, now time.Time) (result models.ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = models.DefaultScoreResult()
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()

	for i, tx := range txs {
		if !tx.Type.Valid() {
			return models.DefaultScoreResult(), fmt.Errorf("%w: transaction %d has type %q", ErrMalformedTransaction, i, tx.Type)
		}
	}

	p := profile.Normalize()
	growth := NetWorthGrowth(p, txs, now)
	m := deriveMetrics(p, growth)

	factors := make([]models.Factor, 0, len(factorSpecs))
	total := decimal.Zero
	for _, spec := range factorSpecs {
		f := spec.evaluate(m)
		total = total.Add(spec.weight.Mul(decimal.NewFromInt(int64(f.Score))))
		factors = append(factors, f)
	}

	score := int(total.Round(0).IntPart())
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	ratios := Ratios(p)
	ratios.NetWorthGrowth = growth

	return models.ScoreResult{
		Score:           score,
		Status:          Classify(score),
		Factors:         factors,
		Recommendations: Recommend(factors),
		Ratios:          roundRatios(ratios),
	}, nil
}

func roundRatios(r models.Ratios) models.Ratios {
	return models.Ratios{
		SavingsRate:         r.SavingsRate.Round(2),
		ExpenseRatio:        r.ExpenseRatio.Round(2),
		DebtToIncomeRatio:   r.DebtToIncomeRatio.Round(2),
		EmergencyFundMonths: r.EmergencyFundMonths.Round(2),
		NetWorthGrowth:      r.NetWorthGrowth.Round(2),
	}
}

// Engine computes scores against an injectable clock.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for the growth window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine using time.Now unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeScore runs Compute as of the engine's current time.
func (e *Engine) ComputeScore(profile models.FinancialProfile, txs []models.Transaction) (models.ScoreResult, error) {
	return Compute(profile, txs, e.now())
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}
