package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/finhealth-service/internal/healthscore"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/Dan9191/finhealth-service/internal/repository"
	"github.com/Dan9191/finhealth-service/internal/session"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) GetProfile(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*models.FinancialProfile)
	return p, args.Error(1)
}

func (m *mockStore) UpsertProfile(ctx context.Context, p *models.FinancialProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockStore) CreateTransactions(ctx context.Context, txs []models.Transaction) (int, error) {
	args := m.Called(ctx, txs)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) ListTransactionsSince(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, since)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *mockStore) ListReportRecipients(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendHealthReport(to, username string, result models.ScoreResult) error {
	return m.Called(to, username, result).Error(0)
}

type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(filename string, r io.Reader) ([]models.Transaction, error) {
	args := m.Called(filename, r)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

var now = time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	store    *mockStore
	notifier *mockNotifier
	parser   *mockParser
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	f := &fixture{
		store:    &mockStore{},
		notifier: &mockNotifier{},
		parser:   &mockParser{},
		hook:     hook,
	}
	engine := healthscore.NewEngine(healthscore.WithClock(func() time.Time { return now }))
	f.svc = NewService(f.store, log, engine, f.parser, f.notifier)
	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.parser.AssertExpectations(t)
	})
	return f
}

func authed() context.Context {
	return session.WithSession(context.Background(), session.Session{UserID: 7, Email: "ann@example.com"})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHealthScore_Unauthorized(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.HealthScore(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, models.DefaultScoreResult(), result)
}

func TestHealthScore_MissingProfile(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound)
	f.store.On("ListTransactionsSince", mock.Anything, int64(7), healthscore.WindowStart(now)).Return(nil, nil)

	result, err := f.svc.HealthScore(authed())
	require.NoError(t, err)
	assert.Equal(t, 26, result.Score)
	assert.Equal(t, models.StatusNeedsWork, result.Status)
	assert.Len(t, result.Factors, 7)
}

func TestHealthScore_Profile(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(&models.FinancialProfile{
		UserID:         7,
		MonthlyIncome:  dec("415000"),
		CurrentSavings: dec("2075000"),
		TargetExpenses: dec("290000"),
		MonthlyDebt:    dec("0"),
	}, nil)
	f.store.On("ListTransactionsSince", mock.Anything, int64(7), healthscore.WindowStart(now)).Return([]models.Transaction{}, nil)

	result, err := f.svc.HealthScore(authed())
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, models.StatusExcellent, result.Status)
}

func TestHealthScore_UsesEngineClock(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound)
	f.store.On("ListTransactionsSince", mock.Anything, int64(7), healthscore.WindowStart(now)).Return([]models.Transaction{
		{UserID: 7, Amount: dec("1000"), Type: models.TransactionIncome, Date: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)},
	}, nil)

	result, err := f.svc.HealthScore(authed())
	require.NoError(t, err)
	assert.Equal(t, "10", result.Ratios.NetWorthGrowth.String())
}

func TestHealthScore_ComputationFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound)
	f.store.On("ListTransactionsSince", mock.Anything, int64(7), mock.Anything).Return([]models.Transaction{
		{UserID: 7, Amount: dec("10"), Type: "TRANSFER", Date: now},
	}, nil)

	result, err := f.svc.HealthScore(authed())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultScoreResult(), result)

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), healthscore.ErrMalformedTransaction)
}

func TestHealthScore_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(nil, errors.New("db down"))

	_, err := f.svc.HealthScore(authed())
	assert.EqualError(t, err, "db down")
}

func TestSaveProfile(t *testing.T) {
	f := newFixture(t)
	f.store.On("EnsureUser", mock.Anything, &models.User{ID: 7, Email: "ann@example.com"}).Return(nil)
	f.store.On("UpsertProfile", mock.Anything, mock.MatchedBy(func(p *models.FinancialProfile) bool {
		return p.UserID == 7 && p.MonthlyIncome.IsZero() && p.CurrentSavings.Equal(dec("500"))
	})).Return(nil)

	saved, err := f.svc.SaveProfile(authed(), models.FinancialProfile{
		UserID:         99,
		MonthlyIncome:  dec("-100"),
		CurrentSavings: dec("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.UserID)
}

func TestSaveProfile_UsesSessionUsername(t *testing.T) {
	f := newFixture(t)
	ctx := session.WithSession(context.Background(), session.Session{UserID: 7, Email: "ann@example.com", Username: "ann"})
	f.store.On("EnsureUser", mock.Anything, &models.User{ID: 7, Email: "ann@example.com", Username: "ann"}).Return(nil)
	f.store.On("UpsertProfile", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SaveProfile(ctx, models.FinancialProfile{})
	require.NoError(t, err)
}

func TestSaveProfile_Unauthorized(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SaveProfile(context.Background(), models.FinancialProfile{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetProfile_Missing(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetProfile", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound)

	p, err := f.svc.GetProfile(authed())
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.True(t, p.MonthlyIncome.IsZero())
	assert.Nil(t, p.CreditScore)
}

func TestAddTransaction(t *testing.T) {
	tests := []struct {
		name    string
		tx      models.Transaction
		wantErr bool
	}{
		{name: "income", tx: models.Transaction{Amount: dec("3000"), Type: models.TransactionIncome}},
		{name: "unknown type", tx: models.Transaction{Amount: dec("5"), Type: "REFUND"}, wantErr: true},
		{name: "zero amount", tx: models.Transaction{Amount: decimal.Zero, Type: models.TransactionExpense}, wantErr: true},
		{name: "negative amount", tx: models.Transaction{Amount: dec("-5"), Type: models.TransactionExpense}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if !tt.wantErr {
				f.store.On("EnsureUser", mock.Anything, mock.Anything).Return(nil)
				f.store.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
					return tx.UserID == 7 && tx.Date.Equal(now)
				})).Return(nil)
			}

			tx, err := f.svc.AddTransaction(authed(), tt.tx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransaction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), tx.UserID)
		})
	}
}

func TestImportStatement(t *testing.T) {
	f := newFixture(t)
	body := strings.NewReader("<statement/>")
	parsed := []models.Transaction{
		{Amount: dec("3000"), Type: models.TransactionIncome, Date: now},
		{Amount: dec("42.10"), Type: models.TransactionExpense, Date: now},
	}
	f.store.On("EnsureUser", mock.Anything, mock.Anything).Return(nil)
	f.parser.On("Parse", "jan.xml", body).Return(parsed, nil)
	f.store.On("CreateTransactions", mock.Anything, mock.MatchedBy(func(txs []models.Transaction) bool {
		return len(txs) == 2 && txs[0].UserID == 7 && txs[1].UserID == 7
	})).Return(2, nil)

	n, err := f.svc.ImportStatement(authed(), "jan.xml", body)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportStatement_ParseError(t *testing.T) {
	f := newFixture(t)
	f.store.On("EnsureUser", mock.Anything, mock.Anything).Return(nil)
	f.parser.On("Parse", "jan.csv", mock.Anything).Return(nil, errors.New("unsupported"))

	_, err := f.svc.ImportStatement(authed(), "jan.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidStatement)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestSendHealthReports(t *testing.T) {
	f := newFixture(t)
	f.store.On("ListReportRecipients", mock.Anything).Return([]models.User{
		{ID: 1, Email: "a@example.com", Username: "a"},
		{ID: 2, Email: "b@example.com", Username: "b"},
		{ID: 3, Email: "c@example.com", Username: "c"},
	}, nil)
	f.store.On("GetProfile", mock.Anything, int64(1)).Return(nil, repository.ErrNotFound)
	f.store.On("GetProfile", mock.Anything, int64(2)).Return(nil, repository.ErrNotFound)
	f.store.On("GetProfile", mock.Anything, int64(3)).Return(nil, errors.New("db down"))
	f.store.On("ListTransactionsSince", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.notifier.On("SendHealthReport", "a@example.com", "a", mock.Anything).Return(nil)
	f.notifier.On("SendHealthReport", "b@example.com", "b", mock.Anything).Return(errors.New("smtp down"))

	summary, err := f.svc.SendHealthReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReportSummary{Recipients: 3, Sent: 1, Failed: 2}, summary)
}

func TestSendHealthReports_ListError(t *testing.T) {
	f := newFixture(t)
	f.store.On("ListReportRecipients", mock.Anything).Return(nil, errors.New("db down"))

	_, err := f.svc.SendHealthReports(context.Background())
	assert.Error(t, err)
}
