package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/service"
)

// LedgerServiceInterface for handler testing
type LedgerServiceInterface interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, input service.CreateAccountInput) (*model.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
	GetAccount(ctx context.Context, userID, id uuid.UUID) (*model.Account, error)
	CreateTransaction(ctx context.Context, userID uuid.UUID, input service.CreateTransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, input service.ListTransactionsInput) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id uuid.UUID, input service.UpdateTransactionInput) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error
}

// BudgetServiceInterface for handler testing
type BudgetServiceInterface interface {
	Set(ctx context.Context, userID uuid.UUID, input service.SetBudgetInput) (*model.BudgetWithSpent, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.BudgetWithSpent, error)
	Current(ctx context.Context, userID uuid.UUID, now time.Time) (*model.BudgetWithSpent, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.BudgetWithSpent, error)
	UpdateAmount(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*model.BudgetWithSpent, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// GoalServiceInterface for handler testing
type GoalServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, input service.CreateGoalInput) (*model.Goal, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	Contribute(ctx context.Context, userID, id uuid.UUID, input service.ContributeInput) (*model.Goal, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// RecurringServiceInterface for handler testing
type RecurringServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, input service.CreateRecurringInput) (*model.RecurringRule, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error)
	Update(ctx context.Context, userID, id uuid.UUID, input service.UpdateRecurringInput) (*model.RecurringRule, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Pause(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error)
	Resume(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error)
	Toggle(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error)
	Upcoming(ctx context.Context, userID uuid.UUID) ([]model.UpcomingRecurring, error)
	PendingConfirmation(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error)
}

// RuleExecutor runs a rule on demand.
type RuleExecutor interface {
	ExecuteRuleNow(ctx context.Context, userID, ruleID uuid.UUID) (*service.ExecutionResult, error)
}

type ReportServiceInterface interface {
	Summary(ctx context.Context, userID uuid.UUID, year, month int) (*model.MonthlySummary, error)
}

type AlertServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]service.AlertView, error)
}

type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateAlertSettings(ctx context.Context, userID uuid.UUID, input service.AlertSettingsInput) (*model.User, error)
}

type PushServiceInterface interface {
	PublicKey() (string, error)
	Subscribe(ctx context.Context, userID uuid.UUID, input service.SubscribeInput) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
}
