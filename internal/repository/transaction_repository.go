package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, account_id, type, amount, currency, category, description, date,
			recurring_rule_id, receipt_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at`

	tx.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		tx.ID, tx.UserID, tx.AccountID, tx.Type, tx.Amount, tx.Currency, tx.Category, tx.Description, tx.Date,
		tx.RecurringRuleID, tx.ReceiptID,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	query := `SELECT * FROM transactions WHERE id = $1`
	err := r.db.GetContext(ctx, &tx, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, userID uuid.UUID, filters TransactionFilters) ([]model.Transaction, error) {
	if filters.Limit <= 0 {
		filters.Limit = 100
	}

	var transactions []model.Transaction
	query := `
		SELECT * FROM transactions
		WHERE user_id = $1
		AND ($2::uuid IS NULL OR account_id = $2)
		AND ($3::text IS NULL OR type = $3)
		AND ($4::timestamptz IS NULL OR date >= $4)
		AND ($5::timestamptz IS NULL OR date < $5)
		ORDER BY date DESC, created_at DESC
		LIMIT $6 OFFSET $7`

	err := r.db.SelectContext(ctx, &transactions, query,
		userID, filters.AccountID, filters.Type, filters.From, filters.To, filters.Limit, filters.Offset,
	)
	return transactions, err
}

// Update rewrites the user-editable fields and returns the row's account,
// type and amount as they were immediately before this write. The prior
// values are read under the row lock, so concurrent updates each see the
// previous one's result. Balance bookkeeping is the caller's job.
func (r *TransactionRepository) Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	query := `
		UPDATE transactions t
		SET account_id = $2, type = $3, amount = $4, category = $5, description = $6, date = $7, updated_at = NOW()
		FROM (
			SELECT id, account_id, type, amount FROM transactions
			WHERE id = $1 AND user_id = $8
			FOR UPDATE
		) old
		WHERE t.id = old.id
		RETURNING old.account_id, old.type, old.amount, t.updated_at`

	prior := &model.Transaction{ID: tx.ID, UserID: tx.UserID}
	err := r.db.QueryRowxContext(ctx, query,
		tx.ID, tx.AccountID, tx.Type, tx.Amount, tx.Category, tx.Description, tx.Date, tx.UserID,
	).Scan(&prior.AccountID, &prior.Type, &prior.Amount, &tx.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// Delete removes the row and returns it as it was when deleted.
func (r *TransactionRepository) Delete(ctx context.Context, id, userID uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2 RETURNING *`
	err := r.db.GetContext(ctx, &tx, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// SumExpenses totals expense amounts for the user in [from, to).
func (r *TransactionRepository) SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND date >= $2 AND date < $3`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, userID, from, to)
	return total, err
}

// ExpensesByCategory groups expenses in [from, to), largest first.
func (r *TransactionRepository) ExpensesByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.CategoryTotal, error) {
	query := `
		SELECT COALESCE(NULLIF(category, ''), 'Other') AS category, SUM(amount) AS total
		FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND date >= $2 AND date < $3
		GROUP BY 1
		ORDER BY total DESC`

	var totals []model.CategoryTotal
	err := r.db.SelectContext(ctx, &totals, query, userID, from, to)
	return totals, err
}

func (r *TransactionRepository) Totals(ctx context.Context, userID uuid.UUID, from, to time.Time) (income, expense decimal.Decimal, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0) AS expense
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3`

	var result struct {
		Income  decimal.Decimal `db:"income"`
		Expense decimal.Decimal `db:"expense"`
	}
	err = r.db.GetContext(ctx, &result, query, userID, from, to)
	return result.Income, result.Expense, err
}

// ActiveUserIDs lists users with at least one transaction in [from, to).
func (r *TransactionRepository) ActiveUserIDs(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT user_id FROM transactions WHERE date >= $1 AND date < $2`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, from, to)
	return ids, err
}

type TransactionFilters struct {
	AccountID *uuid.UUID
	Type      *string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
