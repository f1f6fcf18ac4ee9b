package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureUser creates the user row or refreshes its email and username.
// An empty username keeps the stored one.
func (r *Repository) EnsureUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO finhealth.users (id, email, username, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			username = COALESCE(NULLIF(EXCLUDED.username, ''), finhealth.users.username)
		RETURNING username, created_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.Username).Scan(&user.Username, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetProfile retrieves the financial profile of a user
func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	query := `
		SELECT user_id, monthly_income, current_savings, target_expenses, monthly_debt,
		       credit_score, net_worth_growth, budget_adherence, updated_at
		FROM finhealth.profiles
		WHERE user_id = $1`

	var (
		p           models.FinancialProfile
		creditScore sql.NullInt64
		growth      decimal.NullDecimal
		adherence   decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.MonthlyIncome, &p.CurrentSavings, &p.TargetExpenses, &p.MonthlyDebt,
		&creditScore, &growth, &adherence, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if creditScore.Valid {
		v := int(creditScore.Int64)
		p.CreditScore = &v
	}
	if growth.Valid {
		p.NetWorthGrowth = &growth.Decimal
	}
	if adherence.Valid {
		p.BudgetAdherence = &adherence.Decimal
	}
	return &p, nil
}

// UpsertProfile creates or replaces a user's financial profile
func (r *Repository) UpsertProfile(ctx context.Context, p *models.FinancialProfile) error {
	query := `
		INSERT INTO finhealth.profiles (user_id, monthly_income, current_savings, target_expenses, monthly_debt,
		                                credit_score, net_worth_growth, budget_adherence, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			monthly_income = EXCLUDED.monthly_income,
			current_savings = EXCLUDED.current_savings,
			target_expenses = EXCLUDED.target_expenses,
			monthly_debt = EXCLUDED.monthly_debt,
			credit_score = EXCLUDED.credit_score,
			net_worth_growth = EXCLUDED.net_worth_growth,
			budget_adherence = EXCLUDED.budget_adherence,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at`

	var creditScore sql.NullInt64
	if p.CreditScore != nil {
		creditScore = sql.NullInt64{Int64: int64(*p.CreditScore), Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.MonthlyIncome, p.CurrentSavings, p.TargetExpenses, p.MonthlyDebt,
		creditScore, nullDecimal(p.NetWorthGrowth), nullDecimal(p.BudgetAdherence),
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

const insertTransaction = `
		INSERT INTO finhealth.transactions (user_id, amount, type, description, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`

// CreateTransaction stores a single transaction
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	err := r.db.QueryRowContext(ctx, insertTransaction, tx.UserID, tx.Amount, string(tx.Type), tx.Description, tx.Date).
		Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateTransactions stores a batch atomically and returns how many were written
func (r *Repository) CreateTransactions(ctx context.Context, txs []models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback() //nolint:errcheck

	stmt, err := dbTx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range txs {
		tx := &txs[i]
		if err := stmt.QueryRowContext(ctx, tx.UserID, tx.Amount, string(tx.Type), tx.Description, tx.Date).
			Scan(&tx.ID, &tx.CreatedAt); err != nil {
			return 0, fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return len(txs), nil
}

// ListTransactionsSince returns a user's transactions dated at or after since, newest first
func (r *Repository) ListTransactionsSince(ctx context.Context, userID int64, since time.Time) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, description, occurred_at, created_at
		FROM finhealth.transactions
		WHERE user_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			tx      models.Transaction
			txnType string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &txnType, &tx.Description, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = models.TransactionType(txnType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// ListReportRecipients returns users that have a profile and an email address
func (r *Repository) ListReportRecipients(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.created_at
		FROM finhealth.users u
		JOIN finhealth.profiles p ON p.user_id = u.id
		WHERE u.email <> ''
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
