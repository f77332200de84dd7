package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
)

//go:generate mockery --name=AccountRepositoryInterface --output=../mocks --outpkg=mocks
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

//go:generate mockery --name=TransactionRepositoryInterface --output=../mocks --outpkg=mocks
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, filters TransactionFilters) ([]model.Transaction, error)
	Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*model.Transaction, error)
	SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	ExpensesByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.CategoryTotal, error)
	Totals(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, decimal.Decimal, error)
	ActiveUserIDs(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}

//go:generate mockery --name=RecurringRepositoryInterface --output=../mocks --outpkg=mocks
type RecurringRepositoryInterface interface {
	Create(ctx context.Context, rule *model.RecurringRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringRule, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error)
	Update(ctx context.Context, rule *model.RecurringRule, guard UpdateGuard) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListDue(ctx context.Context, now time.Time) ([]model.RecurringRule, error)
	ListReminderCandidates(ctx context.Context, dayStart time.Time) ([]model.RecurringRule, error)
	ListUpcoming(ctx context.Context, userID uuid.UUID, until time.Time, limit int) ([]model.RecurringRule, error)
	ListPendingConfirmation(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.RecurringRule, error)
	SaveExecution(ctx context.Context, rule *model.RecurringRule, expectedDue time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkNotified(ctx context.Context, id uuid.UUID, dueDate time.Time) (bool, error)
}

//go:generate mockery --name=BudgetRepositoryInterface --output=../mocks --outpkg=mocks
type BudgetRepositoryInterface interface {
	Upsert(ctx context.Context, budget *model.Budget) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Budget, error)
	GetForPeriod(ctx context.Context, userID uuid.UUID, month, year int) (*model.Budget, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Budget, error)
	UpdateAmount(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Budget, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ClaimThreshold(ctx context.Context, id uuid.UUID, t Threshold) (bool, error)
	ReleaseThreshold(ctx context.Context, id uuid.UUID, t Threshold, prior80 bool) error
}

//go:generate mockery --name=GoalRepositoryInterface --output=../mocks --outpkg=mocks
type GoalRepositoryInterface interface {
	Create(ctx context.Context, goal *model.Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	AddContribution(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Goal, error)
	ReachMilestone(ctx context.Context, goalID uuid.UUID, percentage int, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

//go:generate mockery --name=UserRepositoryInterface --output=../mocks --outpkg=mocks
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateAlertSettings(ctx context.Context, user *model.User) error
}

var (
	_ AccountRepositoryInterface     = (*AccountRepository)(nil)
	_ TransactionRepositoryInterface = (*TransactionRepository)(nil)
	_ RecurringRepositoryInterface   = (*RecurringRepository)(nil)
	_ BudgetRepositoryInterface      = (*BudgetRepository)(nil)
	_ GoalRepositoryInterface        = (*GoalRepository)(nil)
	_ UserRepositoryInterface        = (*UserRepository)(nil)
)
