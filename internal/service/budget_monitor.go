package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/advice"
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

var hundred = decimal.NewFromInt(100)

type ThresholdStore interface {
	GetForPeriod(ctx context.Context, userID uuid.UUID, month, year int) (*model.Budget, error)
	ClaimThreshold(ctx context.Context, id uuid.UUID, t repository.Threshold) (bool, error)
	ReleaseThreshold(ctx context.Context, id uuid.UUID, t repository.Threshold, prior80 bool) error
}

type ExpenseReader interface {
	SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	ExpensesByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.CategoryTotal, error)
}

type AlertWriter interface {
	Create(ctx context.Context, alert *model.Alert) error
}

type MonitorDeps struct {
	Budgets  ThresholdStore
	Expenses ExpenseReader
	Users    UserGetter
	Alerts   AlertWriter
	Advisor  advice.Advisor
	Notifier notify.Notifier
	Location *time.Location
	Logger   *slog.Logger
}

// BudgetMonitor raises the 80% and 100% budget alerts. Each threshold is
// claimed with a compare-and-swap on its flag before the alert goes out, so
// concurrent expenses cannot both send it. A claim whose alert reached no
// channel is released and retried on the next expense.
type BudgetMonitor struct {
	budgets  ThresholdStore
	expenses ExpenseReader
	users    UserGetter
	alerts   AlertWriter
	advisor  advice.Advisor
	notifier notify.Notifier
	loc      *time.Location
	logger   *slog.Logger
}

func NewBudgetMonitor(deps MonitorDeps) *BudgetMonitor {
	if deps.Advisor == nil {
		deps.Advisor = advice.Static{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &BudgetMonitor{
		budgets:  deps.Budgets,
		expenses: deps.Expenses,
		users:    deps.Users,
		alerts:   deps.Alerts,
		advisor:  deps.Advisor,
		notifier: deps.Notifier,
		loc:      deps.Location,
		logger:   deps.Logger,
	}
}

// OnExpenseTransactionPersisted never fails the write that triggered it;
// problems are logged.
func (m *BudgetMonitor) OnExpenseTransactionPersisted(ctx context.Context, tx *model.Transaction) {
	if tx == nil || tx.Type != model.TransactionTypeExpense {
		return
	}
	if _, err := m.Check(ctx, tx.UserID, tx.Date); err != nil {
		logger.Enrich(ctx, m.logger).Warn("budget check failed",
			slog.String("user_id", tx.UserID.String()),
			slog.String("transaction_id", tx.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Check evaluates the budget covering at and sends at most one alert. It
// returns the alert type sent, or "" when nothing was sent.
func (m *BudgetMonitor) Check(ctx context.Context, userID uuid.UUID, at time.Time) (model.AlertType, error) {
	local := at.In(m.loc)
	year, month := local.Year(), local.Month()

	budget, err := m.budgets.GetForPeriod(ctx, userID, int(month), year)
	if errors.Is(err, repository.ErrBudgetNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading budget: %w", err)
	}
	if !budget.Amount.IsPositive() || budget.Alert100Sent {
		return "", nil
	}

	from, to := datetime.MonthRangeIn(year, month, m.loc)
	spent, err := m.expenses.SumExpenses(ctx, userID, from, to)
	if err != nil {
		return "", fmt.Errorf("summing expenses: %w", err)
	}
	pct := spent.Div(budget.Amount).Mul(hundred)

	threshold, alertType, ok := crossedThreshold(budget, pct)
	if !ok {
		return "", nil
	}

	claimed, err := m.budgets.ClaimThreshold(ctx, budget.ID, threshold)
	if err != nil {
		return "", fmt.Errorf("claiming %s alert: %w", alertType, err)
	}
	if !claimed {
		return "", nil
	}

	if err := m.sendAlert(ctx, budget, alertType, spent, pct, from, to); err != nil {
		if rerr := m.budgets.ReleaseThreshold(ctx, budget.ID, threshold, budget.Alert80Sent); rerr != nil {
			return "", fmt.Errorf("%w (releasing claim: %v)", err, rerr)
		}
		return "", err
	}
	return alertType, nil
}

// crossedThreshold implements Fresh -> Warned80 -> Exceeded100. Jumping
// straight past 100% skips the 80% alert.
func crossedThreshold(b *model.Budget, pct decimal.Decimal) (repository.Threshold, model.AlertType, bool) {
	switch {
	case pct.GreaterThanOrEqual(hundred) && !b.Alert100Sent:
		return repository.Threshold100, model.AlertTypeExceeded, true
	case pct.GreaterThanOrEqual(decimal.NewFromInt(80)) && !b.Alert80Sent:
		return repository.Threshold80, model.AlertType80Percent, true
	}
	return 0, "", false
}

func (m *BudgetMonitor) sendAlert(ctx context.Context, budget *model.Budget, alertType model.AlertType, spent, pct decimal.Decimal, from, to time.Time) error {
	log := logger.Enrich(ctx, m.logger).With(slog.String("budget_id", budget.ID.String()))

	user, err := m.users.GetByID(ctx, budget.UserID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	breakdown, err := m.expenses.ExpensesByCategory(ctx, budget.UserID, from, to)
	if err != nil {
		log.Warn("category breakdown unavailable", slog.String("error", err.Error()))
	}

	cur := currency.Normalize(budget.Currency)
	tips := m.advisor.SavingTips(ctx, breakdown, budget.Amount, spent, cur)
	msg := budgetAlertMessage(alertType, spent, pct, tips, cur)

	sentVia, err := m.notifier.Notify(ctx, user, msg)
	if err != nil {
		return err
	}

	alert := &model.Alert{
		UserID:  budget.UserID,
		Type:    alertType,
		Message: msg.Body,
		SentVia: notify.JoinChannels(sentVia),
	}
	if err := m.alerts.Create(ctx, alert); err != nil {
		log.Error("failed to record alert history", slog.String("error", err.Error()))
	}

	log.Info("budget alert sent",
		slog.String("type", string(alertType)),
		slog.String("usage", pct.StringFixed(1)),
		slog.String("sent_via", alert.SentVia),
	)
	return nil
}
