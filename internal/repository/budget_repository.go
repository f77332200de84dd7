package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
)

var ErrBudgetNotFound = errors.New("budget not found")

// Threshold names one of the two alert flags on a budget.
type Threshold int

const (
	Threshold80  Threshold = 80
	Threshold100 Threshold = 100
)

type BudgetRepository struct {
	db *sqlx.DB
}

func NewBudgetRepository(db *sqlx.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Upsert creates the budget for (user, month, year) or replaces its amount.
// Changing the amount of an existing budget clears both alert flags.
func (r *BudgetRepository) Upsert(ctx context.Context, budget *model.Budget) error {
	query := `
		INSERT INTO budgets (id, user_id, month, year, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, month, year) DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			alert80_sent = CASE WHEN budgets.amount = EXCLUDED.amount THEN budgets.alert80_sent ELSE false END,
			alert100_sent = CASE WHEN budgets.amount = EXCLUDED.amount THEN budgets.alert100_sent ELSE false END,
			updated_at = NOW()
		RETURNING id, alert80_sent, alert100_sent, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		uuid.New(), budget.UserID, budget.Month, budget.Year, budget.Amount, budget.Currency,
	).Scan(&budget.ID, &budget.Alert80Sent, &budget.Alert100Sent, &budget.CreatedAt, &budget.UpdatedAt)
}

func (r *BudgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	var budget model.Budget
	query := `SELECT * FROM budgets WHERE id = $1`
	err := r.db.GetContext(ctx, &budget, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetRepository) GetForPeriod(ctx context.Context, userID uuid.UUID, month, year int) (*model.Budget, error) {
	var budget model.Budget
	query := `SELECT * FROM budgets WHERE user_id = $1 AND month = $2 AND year = $3`
	err := r.db.GetContext(ctx, &budget, query, userID, month, year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Budget, error) {
	var budgets []model.Budget
	query := `SELECT * FROM budgets WHERE user_id = $1 ORDER BY year DESC, month DESC`
	err := r.db.SelectContext(ctx, &budgets, query, userID)
	return budgets, err
}

// UpdateAmount changes the ceiling. A different amount starts a new alerting
// period, so both flags reset; the same amount leaves them untouched.
func (r *BudgetRepository) UpdateAmount(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Budget, error) {
	query := `
		UPDATE budgets
		SET alert80_sent = CASE WHEN amount = $3 THEN alert80_sent ELSE false END,
			alert100_sent = CASE WHEN amount = $3 THEN alert100_sent ELSE false END,
			amount = $3,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING *`

	var budget model.Budget
	err := r.db.QueryRowxContext(ctx, query, id, userID, amount).StructScan(&budget)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM budgets WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

// ClaimThreshold atomically sets the flag for t if it is still clear and
// reports whether this caller won it. Claiming 100 also sets the 80 flag.
func (r *BudgetRepository) ClaimThreshold(ctx context.Context, id uuid.UUID, t Threshold) (bool, error) {
	var query string
	switch t {
	case Threshold80:
		query = `UPDATE budgets SET alert80_sent = true, updated_at = NOW()
			WHERE id = $1 AND alert80_sent = false AND alert100_sent = false`
	case Threshold100:
		query = `UPDATE budgets SET alert80_sent = true, alert100_sent = true, updated_at = NOW()
			WHERE id = $1 AND alert100_sent = false`
	default:
		return false, errors.New("unknown budget threshold")
	}

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ReleaseThreshold undoes a claim whose notification could not be delivered
// on any channel, restoring the 80 flag to its value before the claim.
func (r *BudgetRepository) ReleaseThreshold(ctx context.Context, id uuid.UUID, t Threshold, prior80 bool) error {
	var err error
	switch t {
	case Threshold80:
		_, err = r.db.ExecContext(ctx,
			`UPDATE budgets SET alert80_sent = false, updated_at = NOW() WHERE id = $1 AND alert100_sent = false`, id)
	case Threshold100:
		_, err = r.db.ExecContext(ctx,
			`UPDATE budgets SET alert100_sent = false, alert80_sent = $2, updated_at = NOW() WHERE id = $1`, id, prior80)
	default:
		err = errors.New("unknown budget threshold")
	}
	return err
}
