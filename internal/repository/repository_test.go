package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepository(db), mock
}

var now = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestEnsureUser(t *testing.T) {
	t.Run("stores username", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO finhealth.users")).
			WithArgs(int64(7), "ann@example.com", "ann").
			WillReturnRows(sqlmock.NewRows([]string{"username", "created_at"}).AddRow("ann", now))

		user := &models.User{ID: 7, Email: "ann@example.com", Username: "ann"}
		require.NoError(t, repo.EnsureUser(context.Background(), user))
		assert.Equal(t, now, user.CreatedAt)
		assert.Equal(t, "ann", user.Username)
	})

	t.Run("keeps stored username", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("username = COALESCE(NULLIF(EXCLUDED.username, ''), finhealth.users.username)")).
			WithArgs(int64(7), "ann@example.com", "").
			WillReturnRows(sqlmock.NewRows([]string{"username", "created_at"}).AddRow("ann", now))

		user := &models.User{ID: 7, Email: "ann@example.com"}
		require.NoError(t, repo.EnsureUser(context.Background(), user))
		assert.Equal(t, "ann", user.Username)
	})
}

func TestGetProfile(t *testing.T) {
	columns := []string{"user_id", "monthly_income", "current_savings", "target_expenses", "monthly_debt",
		"credit_score", "net_worth_growth", "budget_adherence", "updated_at"}

	t.Run("with optional signals", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM finhealth.profiles")).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), "4150.00", "20750.00", "2900.00", "0.00", int64(720), "3.50", nil, now))

		p, err := repo.GetProfile(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), p.UserID)
		assert.True(t, p.MonthlyIncome.Equal(decimal.NewFromInt(4150)))
		assert.True(t, p.CurrentSavings.Equal(decimal.NewFromInt(20750)))
		require.NotNil(t, p.CreditScore)
		assert.Equal(t, 720, *p.CreditScore)
		require.NotNil(t, p.NetWorthGrowth)
		assert.Equal(t, "3.5", p.NetWorthGrowth.String())
		assert.Nil(t, p.BudgetAdherence)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM finhealth.profiles")).
			WithArgs(int64(8)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetProfile(context.Background(), 8)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM finhealth.profiles")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetProfile(context.Background(), 9)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestUpsertProfile(t *testing.T) {
	repo, mock := newMockRepo(t)
	credit := 680
	p := &models.FinancialProfile{
		UserID:         7,
		MonthlyIncome:  decimal.NewFromInt(5000),
		CurrentSavings: decimal.NewFromInt(12000),
		TargetExpenses: decimal.NewFromInt(3200),
		MonthlyDebt:    decimal.NewFromInt(400),
		CreditScore:    &credit,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO finhealth.profiles")).
		WithArgs(int64(7), p.MonthlyIncome, p.CurrentSavings, p.TargetExpenses, p.MonthlyDebt,
			int64(680), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	require.NoError(t, repo.UpsertProfile(context.Background(), p))
	assert.Equal(t, now, p.UpdatedAt)
}

func TestCreateTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := &models.Transaction{
		UserID:      7,
		Amount:      decimal.RequireFromString("120.50"),
		Type:        models.TransactionExpense,
		Description: "Groceries",
		Date:        now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO finhealth.transactions")).
		WithArgs(int64(7), tx.Amount, "EXPENSE", "Groceries", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(31), now))

	require.NoError(t, repo.CreateTransaction(context.Background(), tx))
	assert.Equal(t, int64(31), tx.ID)
}

func TestCreateTransactions(t *testing.T) {
	txs := []models.Transaction{
		{UserID: 7, Amount: decimal.NewFromInt(3000), Type: models.TransactionIncome, Date: now},
		{UserID: 7, Amount: decimal.NewFromInt(80), Type: models.TransactionExpense, Date: now},
	}

	t.Run("commits batch", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO finhealth.transactions"))
		prep.ExpectQuery().WithArgs(int64(7), txs[0].Amount, "INCOME", "", now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
		prep.ExpectQuery().WithArgs(int64(7), txs[1].Amount, "EXPENSE", "", now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), now))
		mock.ExpectCommit()

		batch := append([]models.Transaction(nil), txs...)
		n, err := repo.CreateTransactions(context.Background(), batch)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, int64(2), batch[1].ID)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO finhealth.transactions"))
		prep.ExpectQuery().WillReturnError(errors.New("check constraint"))
		mock.ExpectRollback()

		n, err := repo.CreateTransactions(context.Background(), append([]models.Transaction(nil), txs...))
		require.Error(t, err)
		assert.Zero(t, n)
	})

	t.Run("empty batch", func(t *testing.T) {
		repo, _ := newMockRepo(t)
		n, err := repo.CreateTransactions(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestListTransactionsSince(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := now.AddDate(0, -6, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM finhealth.transactions")).
		WithArgs(int64(7), since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "description", "occurred_at", "created_at"}).
			AddRow(int64(2), int64(7), "80.00", "EXPENSE", "Fuel", now, now).
			AddRow(int64(1), int64(7), "3000.00", "INCOME", "Salary", now.AddDate(0, -1, 0), now))

	txs, err := repo.ListTransactionsSince(context.Background(), 7, since)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.TransactionExpense, txs[0].Type)
	assert.Equal(t, "Fuel", txs[0].Description)
	assert.True(t, txs[1].Amount.Equal(decimal.NewFromInt(3000)))
}

func TestListReportRecipients(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN finhealth.profiles")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "created_at"}).
			AddRow(int64(7), "ann@example.com", "ann", now).
			AddRow(int64(9), "bo@example.com", "", now))

	users, err := repo.ListReportRecipients(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bo@example.com", users[1].Email)
}
