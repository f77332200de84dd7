package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

// AccountRepositoryInterface defines the contract for account data access.
// Implementations must be safe for concurrent use.
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
}

// TransactionRepositoryInterface defines the contract for transaction data access.
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, filters repository.TransactionFilters) ([]model.Transaction, error)
	Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*model.Transaction, error)
}

// LedgerService owns accounts and transactions. Every balance change is a
// single signed delta applied by the store, never a read-modify-write.
type LedgerService struct {
	accounts AccountRepositoryInterface
	txs      TransactionRepositoryInterface
	observer ExpenseObserver
	clock    Clock
	logger   *slog.Logger
}

func NewLedgerService(accounts AccountRepositoryInterface, txs TransactionRepositoryInterface, observer ExpenseObserver, clock Clock, logger *slog.Logger) *LedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{accounts: accounts, txs: txs, observer: observer, clock: clock, logger: logger}
}

type CreateAccountInput struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	IsDefault      bool            `json:"isDefault"`
}

func (s *LedgerService) CreateAccount(ctx context.Context, userID uuid.UUID, input CreateAccountInput) (*model.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationError("name", "name is required")
	}
	if !currency.IsValid(input.Currency) {
		return nil, apperror.ValidationError("currency", "currency must be a 3-letter code")
	}

	account := &model.Account{
		UserID:         userID,
		Name:           name,
		Type:           model.ParseAccountType(input.Type),
		Currency:       string(currency.Normalize(input.Currency)),
		OpeningBalance: input.OpeningBalance,
		IsDefault:      input.IsDefault,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return account, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	accounts, err := s.accounts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts for user %s: %w", userID, err)
	}
	return accounts, nil
}

// GetAccount returns the account if it belongs to the user.
func (s *LedgerService) GetAccount(ctx context.Context, userID, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	if account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

type CreateTransactionInput struct {
	AccountID   uuid.UUID       `json:"accountId"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        datetime.Date   `json:"date"`
	ReceiptID   *uuid.UUID      `json:"receiptId"`
}

type UpdateTransactionInput struct {
	AccountID   *uuid.UUID       `json:"accountId"`
	Type        *string          `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Date        *datetime.Date   `json:"date"`
}

type ListTransactionsInput struct {
	AccountID *uuid.UUID
	Type      *string
	Month     int // 1-12, requires Year
	Year      int
	Limit     int
	Offset    int
}

// CreateTransaction writes the transaction and applies its signed amount to
// the account. Expenses are then handed to the budget monitor.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID uuid.UUID, input CreateTransactionInput) (*model.Transaction, error) {
	txType, err := model.ParseTransactionType(input.Type)
	if err != nil {
		return nil, apperror.ValidationError("type", "type must be income or expense")
	}
	if !input.Amount.IsPositive() {
		return nil, apperror.ValidationError("amount", "amount must be greater than zero")
	}

	account, err := s.GetAccount(ctx, userID, input.AccountID)
	if err != nil {
		return nil, err
	}

	cur := input.Currency
	if cur == "" {
		cur = account.Currency
	}
	if !currency.IsValid(cur) {
		return nil, apperror.ValidationError("currency", "currency must be a 3-letter code")
	}

	date := input.Date.Time
	if date.IsZero() {
		date = s.clock.Now()
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "Other"
	}

	tx := &model.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Type:        txType,
		Amount:      input.Amount,
		Currency:    string(currency.Normalize(cur)),
		Category:    category,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		ReceiptID:   input.ReceiptID,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	if err := s.accounts.AdjustBalance(ctx, tx.AccountID, tx.SignedAmount()); err != nil {
		if _, derr := s.txs.Delete(ctx, tx.ID, userID); derr != nil {
			s.logger.Error("transaction left without balance adjustment",
				slog.String("transaction_id", tx.ID.String()),
				slog.Bool("needs_reconciliation", true),
				slog.String("error", derr.Error()),
			)
		}
		return nil, fmt.Errorf("adjusting balance of account %s: %w", tx.AccountID, err)
	}

	s.notifyExpense(ctx, tx)
	return tx, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.txs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction %s: %w", id, err)
	}
	if tx.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID uuid.UUID, input ListTransactionsInput) ([]model.Transaction, error) {
	filters := repository.TransactionFilters{
		AccountID: input.AccountID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}
	if input.Type != nil {
		t, err := model.ParseTransactionType(*input.Type)
		if err != nil {
			return nil, apperror.ValidationError("type", "type must be income or expense")
		}
		ts := string(t)
		filters.Type = &ts
	}
	if input.Month != 0 || input.Year != 0 {
		if input.Month < 1 || input.Month > 12 || input.Year == 0 {
			return nil, apperror.ValidationError("month", "month must be 1-12 and year must be set")
		}
		from, to := datetime.MonthRange(input.Year, time.Month(input.Month))
		filters.From, filters.To = &from, &to
	}

	txs, err := s.txs.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %s: %w", userID, err)
	}
	return txs, nil
}

// UpdateTransaction rewrites the transaction and moves balances by the
// difference between the signed amount the row held at the moment of the
// write and the new one.
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, input UpdateTransactionInput) (*model.Transaction, error) {
	tx, err := s.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.AccountID != nil && *input.AccountID != tx.AccountID {
		account, err := s.GetAccount(ctx, userID, *input.AccountID)
		if err != nil {
			return nil, err
		}
		tx.AccountID = account.ID
	}
	if input.Type != nil {
		t, err := model.ParseTransactionType(*input.Type)
		if err != nil {
			return nil, apperror.ValidationError("type", "type must be income or expense")
		}
		tx.Type = t
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, apperror.ValidationError("amount", "amount must be greater than zero")
		}
		tx.Amount = *input.Amount
	}
	if input.Category != nil {
		tx.Category = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		tx.Description = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil && !input.Date.IsZero() {
		tx.Date = input.Date.Time
	}

	prior, err := s.txs.Update(ctx, tx)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("updating transaction %s: %w", id, err)
	}

	oldAccount, oldSigned := prior.AccountID, prior.SignedAmount()
	newSigned := tx.SignedAmount()
	if tx.AccountID == oldAccount {
		if delta := newSigned.Sub(oldSigned); !delta.IsZero() {
			if err := s.accounts.AdjustBalance(ctx, tx.AccountID, delta); err != nil {
				return nil, s.balanceDrift(tx, err)
			}
		}
	} else {
		if err := s.accounts.AdjustBalance(ctx, oldAccount, oldSigned.Neg()); err != nil {
			return nil, s.balanceDrift(tx, err)
		}
		if err := s.accounts.AdjustBalance(ctx, tx.AccountID, newSigned); err != nil {
			return nil, s.balanceDrift(tx, err)
		}
	}

	s.notifyExpense(ctx, tx)
	return tx, nil
}

// DeleteTransaction removes the transaction and reverses the effect of the
// row as it was when deleted.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	tx, err := s.txs.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	if err := s.accounts.AdjustBalance(ctx, tx.AccountID, tx.SignedAmount().Neg()); err != nil {
		return s.balanceDrift(tx, err)
	}
	return nil
}

func (s *LedgerService) balanceDrift(tx *model.Transaction, err error) error {
	s.logger.Error("account balance out of step with transactions",
		slog.String("transaction_id", tx.ID.String()),
		slog.String("account_id", tx.AccountID.String()),
		slog.Bool("needs_reconciliation", true),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("adjusting balance of account %s: %w", tx.AccountID, err)
}

func (s *LedgerService) notifyExpense(ctx context.Context, tx *model.Transaction) {
	if s.observer != nil && tx.Type == model.TransactionTypeExpense {
		s.observer.OnExpenseTransactionPersisted(ctx, tx)
	}
}
