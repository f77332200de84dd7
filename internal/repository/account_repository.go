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

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the account with its running balance seeded from the opening balance.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, type, currency, opening_balance, balance, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, NOW(), NOW())
		RETURNING balance, created_at, updated_at`

	account.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Type, account.Currency,
		account.OpeningBalance, account.IsDefault,
	).Scan(&account.Balance, &account.CreatedAt, &account.UpdatedAt)
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	query := `SELECT * FROM accounts WHERE id = $1`
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	var accounts []model.Account
	query := `SELECT * FROM accounts WHERE user_id = $1 ORDER BY is_default DESC, created_at ASC`
	err := r.db.SelectContext(ctx, &accounts, query, userID)
	return accounts, err
}

// AdjustBalance applies a signed delta in a single statement so concurrent
// writers never lose each other's updates.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}
