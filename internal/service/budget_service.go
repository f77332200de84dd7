package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

// BudgetRepositoryInterface defines the contract for budget data access.
// Implementations must be safe for concurrent use.
type BudgetRepositoryInterface interface {
	Upsert(ctx context.Context, budget *model.Budget) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Budget, error)
	GetForPeriod(ctx context.Context, userID uuid.UUID, month, year int) (*model.Budget, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Budget, error)
	UpdateAmount(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Budget, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// SpendingReader provides the month-to-date expense total for a budget.
type SpendingReader interface {
	SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// BudgetService manages monthly spending ceilings and reports spend against them.
type BudgetService struct {
	repo     BudgetRepositoryInterface
	spending SpendingReader
	loc      *time.Location
}

func NewBudgetService(repo BudgetRepositoryInterface, spending SpendingReader, loc *time.Location) *BudgetService {
	if loc == nil {
		loc = time.UTC
	}
	return &BudgetService{repo: repo, spending: spending, loc: loc}
}

type SetBudgetInput struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Set creates or replaces the budget for the given month.
func (s *BudgetService) Set(ctx context.Context, userID uuid.UUID, input SetBudgetInput) (*model.BudgetWithSpent, error) {
	if input.Month < 1 || input.Month > 12 {
		return nil, apperror.ValidationError("month", "month must be between 1 and 12")
	}
	if input.Year < 2000 || input.Year > 9999 {
		return nil, apperror.ValidationError("year", "year is out of range")
	}
	if !input.Amount.IsPositive() {
		return nil, apperror.ValidationError("amount", "amount must be greater than zero")
	}
	if !currency.IsValid(input.Currency) {
		return nil, apperror.ValidationError("currency", "currency must be a 3-letter code")
	}

	budget := &model.Budget{
		UserID:   userID,
		Month:    input.Month,
		Year:     input.Year,
		Amount:   input.Amount,
		Currency: string(currency.Normalize(input.Currency)),
	}
	if err := s.repo.Upsert(ctx, budget); err != nil {
		return nil, fmt.Errorf("saving budget: %w", err)
	}
	return s.withSpent(ctx, budget)
}

// Get returns the budget with its spend if it belongs to the user.
func (s *BudgetService) Get(ctx context.Context, userID, id uuid.UUID) (*model.BudgetWithSpent, error) {
	budget, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBudgetNotFound) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting budget %s: %w", id, err)
	}
	if budget.UserID != userID {
		return nil, ErrBudgetNotFound
	}
	return s.withSpent(ctx, budget)
}

// Current returns the budget for the month containing now.
func (s *BudgetService) Current(ctx context.Context, userID uuid.UUID, now time.Time) (*model.BudgetWithSpent, error) {
	local := now.In(s.loc)
	budget, err := s.repo.GetForPeriod(ctx, userID, int(local.Month()), local.Year())
	if errors.Is(err, repository.ErrBudgetNotFound) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting current budget: %w", err)
	}
	return s.withSpent(ctx, budget)
}

func (s *BudgetService) List(ctx context.Context, userID uuid.UUID) ([]model.BudgetWithSpent, error) {
	budgets, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing budgets for user %s: %w", userID, err)
	}

	result := make([]model.BudgetWithSpent, 0, len(budgets))
	for i := range budgets {
		bws, err := s.withSpent(ctx, &budgets[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *bws)
	}
	return result, nil
}

// UpdateAmount changes the ceiling. A new amount re-arms both alerts.
func (s *BudgetService) UpdateAmount(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*model.BudgetWithSpent, error) {
	if !amount.IsPositive() {
		return nil, apperror.ValidationError("amount", "amount must be greater than zero")
	}
	budget, err := s.repo.UpdateAmount(ctx, id, userID, amount)
	if errors.Is(err, repository.ErrBudgetNotFound) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating budget %s: %w", id, err)
	}
	return s.withSpent(ctx, budget)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrBudgetNotFound) {
		return ErrBudgetNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting budget %s: %w", id, err)
	}
	return nil
}

func (s *BudgetService) withSpent(ctx context.Context, budget *model.Budget) (*model.BudgetWithSpent, error) {
	from, to := datetime.MonthRangeIn(budget.Year, time.Month(budget.Month), s.loc)
	spent, err := s.spending.SumExpenses(ctx, budget.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("calculating spent for budget %s: %w", budget.ID, err)
	}

	var pct float64
	if budget.Amount.IsPositive() {
		pct = spent.Div(budget.Amount).Mul(hundred).Round(2).InexactFloat64()
	}
	return &model.BudgetWithSpent{
		Budget:     *budget,
		Spent:      spent,
		Remaining:  budget.Amount.Sub(spent),
		Percentage: pct,
	}, nil
}
