package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dan9191/finhealth-service/internal/healthscore"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/Dan9191/finhealth-service/internal/repository"
	"github.com/Dan9191/finhealth-service/internal/session"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized is returned when the context carries no session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransaction is returned for transactions that fail validation.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidStatement is returned when an uploaded statement cannot be read.
	ErrInvalidStatement = errors.New("invalid statement")
)

// Store is the persistence the service depends on
type Store interface {
	EnsureUser(ctx context.Context, user *models.User) error
	GetProfile(ctx context.Context, userID int64) (*models.FinancialProfile, error)
	UpsertProfile(ctx context.Context, p *models.FinancialProfile) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	CreateTransactions(ctx context.Context, txs []models.Transaction) (int, error)
	ListTransactionsSince(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error)
	ListReportRecipients(ctx context.Context) ([]models.User, error)
}

// Notifier delivers health reports to users
type Notifier interface {
	SendHealthReport(to, username string, result models.ScoreResult) error
}

// StatementParser turns an uploaded statement into transactions
type StatementParser interface {
	Parse(filename string, r io.Reader) ([]models.Transaction, error)
}

// ReportSummary describes one run of the report job
type ReportSummary struct {
	Recipients int
	Sent       int
	Failed     int
}

// Service handles business logic
type Service struct {
	repo     Store
	log      *logrus.Logger
	engine   *healthscore.Engine
	parser   StatementParser
	notifier Notifier
}

// NewService initializes a new service
func NewService(repo Store, log *logrus.Logger, engine *healthscore.Engine, parser StatementParser, notifier Notifier) *Service {
	return &Service{repo: repo, log: log, engine: engine, parser: parser, notifier: notifier}
}

func (s *Service) currentUser(ctx context.Context) (*models.User, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	user := &models.User{ID: sess.UserID, Email: sess.Email, Username: sess.Username}
	if err := s.repo.EnsureUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SaveProfile stores the financial profile of the authenticated user
func (s *Service) SaveProfile(ctx context.Context, p models.FinancialProfile) (*models.FinancialProfile, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	profile := p.Normalize()
	profile.UserID = user.ID
	if err := s.repo.UpsertProfile(ctx, &profile); err != nil {
		return nil, err
	}

	s.log.Infof("Profile saved for user %d", user.ID)
	return &profile, nil
}

// GetProfile returns the authenticated user's profile, or a zero profile if none was saved
func (s *Service) GetProfile(ctx context.Context) (*models.FinancialProfile, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.loadProfile(ctx, sess.UserID)
}

func (s *Service) loadProfile(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.FinancialProfile{
			UserID:         userID,
			MonthlyIncome:  decimal.Zero,
			CurrentSavings: decimal.Zero,
			TargetExpenses: decimal.Zero,
			MonthlyDebt:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func validateTransaction(tx models.Transaction) error {
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: type must be %s or %s", ErrInvalidTransaction, models.TransactionIncome, models.TransactionExpense)
	}
	if !tx.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

// AddTransaction records a single income or expense for the authenticated user
func (s *Service) AddTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tx.UserID = user.ID
	if tx.Date.IsZero() {
		tx.Date = s.engine.Now()
	}
	if err := s.repo.CreateTransaction(ctx, &tx); err != nil {
		return nil, err
	}

	s.log.Infof("Transaction %d recorded for user %d: %s %s", tx.ID, user.ID, tx.Type, tx.Amount.StringFixed(2))
	return &tx, nil
}

// ImportStatement parses a statement file and stores its transactions for the authenticated user
func (s *Service) ImportStatement(ctx context.Context, filename string, r io.Reader) (int, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return 0, err
	}

	txs, err := s.parser.Parse(filename, r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidStatement, err)
	}
	for i := range txs {
		txs[i].UserID = user.ID
		if err := validateTransaction(txs[i]); err != nil {
			return 0, fmt.Errorf("statement entry %d: %w", i, err)
		}
	}

	n, err := s.repo.CreateTransactions(ctx, txs)
	if err != nil {
		return 0, err
	}

	s.log.Infof("Imported %d transactions from %s for user %d", n, filename, user.ID)
	return n, nil
}

// HealthScore computes the financial health score of the authenticated user
func (s *Service) HealthScore(ctx context.Context) (models.ScoreResult, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return models.DefaultScoreResult(), ErrUnauthorized
	}
	return s.scoreFor(ctx, sess.UserID)
}

func (s *Service) scoreFor(ctx context.Context, userID int64) (models.ScoreResult, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return models.DefaultScoreResult(), err
	}

	now := s.engine.Now()
	txs, err := s.repo.ListTransactionsSince(ctx, userID, healthscore.WindowStart(now))
	if err != nil {
		return models.DefaultScoreResult(), err
	}

	result, err := s.engine.ComputeScore(*profile, txs)
	if err != nil {
		s.log.WithError(err).Errorf("Health score computation failed for user %d", userID)
		return result, nil
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"score":   result.Score,
		"status":  result.Status,
	}).Debug("Health score computed")
	return result, nil
}

// SendHealthReports emails every user with a profile their current score.
// Failures for a single user are logged and counted.
func (s *Service) SendHealthReports(ctx context.Context) (ReportSummary, error) {
	users, err := s.repo.ListReportRecipients(ctx)
	if err != nil {
		return ReportSummary{}, err
	}

	summary := ReportSummary{Recipients: len(users)}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.scoreFor(ctx, u.ID)
		if err != nil {
			s.log.Errorf("Failed to compute health report for user %d: %v", u.ID, err)
			summary.Failed++
			continue
		}
		if err := s.notifier.SendHealthReport(u.Email, u.Username, result); err != nil {
			s.log.Errorf("Failed to send health report to user %d: %v", u.ID, err)
			summary.Failed++
			continue
		}
		summary.Sent++
	}

	s.log.Infof("Health reports sent: %d of %d (%d failed)", summary.Sent, summary.Recipients, summary.Failed)
	return summary, nil
}
