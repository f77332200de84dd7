package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/recurrence"
	"github.com/wealthapp/backend/internal/repository"
)

// Trigger tells the executor who asked for a run.
type Trigger int

const (
	TriggerScheduled Trigger = iota
	TriggerManual
)

func (t Trigger) descriptionSuffix() string {
	if t == TriggerScheduled {
		return " (Auto-Recurring)"
	}
	return " (Recurring)"
}

// ExecutionRuleStore is the rule persistence used while executing.
type ExecutionRuleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringRule, error)
	SaveExecution(ctx context.Context, rule *model.RecurringRule, expectedDue time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// LedgerWriter creates and removes transaction rows. Removing a row does not
// touch the account balance.
type LedgerWriter interface {
	Create(ctx context.Context, tx *model.Transaction) error
	Delete(ctx context.Context, id, userID uuid.UUID) (*model.Transaction, error)
}

type BalanceAdjuster interface {
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
}

type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// ExpenseObserver is told about every persisted expense transaction.
type ExpenseObserver interface {
	OnExpenseTransactionPersisted(ctx context.Context, tx *model.Transaction)
}

type ExecutionResult struct {
	Transaction *model.Transaction   `json:"transaction"`
	Rule        *model.RecurringRule `json:"recurring"`
}

type ExecutorDeps struct {
	Rules    ExecutionRuleStore
	Ledger   LedgerWriter
	Accounts BalanceAdjuster
	Users    UserGetter
	Monitor  ExpenseObserver
	Notifier notify.Notifier
	Clock    Clock
	Logger   *slog.Logger
}

// RecurringExecutor materializes one occurrence of a rule: it writes the
// transaction, moves the account balance and advances the schedule. Runs of
// the same rule are serialised in-process; SaveExecution's compare-and-swap
// on next_due_date guards against writers outside this process.
type RecurringExecutor struct {
	rules    ExecutionRuleStore
	ledger   LedgerWriter
	accounts BalanceAdjuster
	users    UserGetter
	monitor  ExpenseObserver
	notifier notify.Notifier
	clock    Clock
	locks    *locker.Locker
	logger   *slog.Logger
}

func NewRecurringExecutor(deps ExecutorDeps) *RecurringExecutor {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RecurringExecutor{
		rules:    deps.Rules,
		ledger:   deps.Ledger,
		accounts: deps.Accounts,
		users:    deps.Users,
		monitor:  deps.Monitor,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		locks:    locker.New(),
		logger:   deps.Logger,
	}
}

// ExecuteRuleNow runs the user's rule immediately, whether or not it is due.
func (e *RecurringExecutor) ExecuteRuleNow(ctx context.Context, userID, ruleID uuid.UUID) (*ExecutionResult, error) {
	unlock := e.lockRule(ruleID)
	defer unlock()

	rule, err := e.load(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.UserID != userID {
		return nil, ErrRecurringNotFound
	}
	return e.execute(ctx, rule, TriggerManual, e.clock.Now())
}

// executeScheduled runs a rule selected by the due pass. The rule is re-read
// under the lock; a rule another run already advanced yields ErrNotDue.
func (e *RecurringExecutor) executeScheduled(ctx context.Context, selected *model.RecurringRule, now time.Time) (*ExecutionResult, error) {
	unlock := e.lockRule(selected.ID)
	defer unlock()

	rule, err := e.load(ctx, selected.ID)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		return nil, &ExecutionError{RuleID: rule.ID, Step: "validate", Err: ErrInactiveRule}
	}
	if !rule.AutoExecute || !recurrence.IsDue(rule, now) || !rule.NextDueDate.Equal(selected.NextDueDate) {
		return nil, ErrNotDue
	}
	return e.execute(ctx, rule, TriggerScheduled, now)
}

// lockRule blocks until no other run in this process holds id.
func (e *RecurringExecutor) lockRule(id uuid.UUID) func() {
	key := id.String()
	e.locks.Lock(key)
	return func() { _ = e.locks.Unlock(key) }
}

func (e *RecurringExecutor) load(ctx context.Context, id uuid.UUID) (*model.RecurringRule, error) {
	rule, err := e.rules.GetByID(ctx, id)
	if errors.Is(err, repository.ErrRecurringNotFound) {
		return nil, ErrRecurringNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading recurring rule %s: %w", id, err)
	}
	return rule, nil
}

// execute must be called with the rule's lock held.
func (e *RecurringExecutor) execute(ctx context.Context, rule *model.RecurringRule, trigger Trigger, now time.Time) (*ExecutionResult, error) {
	log := logger.Enrich(logger.WithRuleID(ctx, rule.ID.String()), e.logger)

	if !rule.IsActive {
		return nil, &ExecutionError{RuleID: rule.ID, Step: "validate", Err: ErrInactiveRule}
	}

	ruleID := rule.ID
	tx := &model.Transaction{
		UserID:          rule.UserID,
		AccountID:       rule.AccountID,
		Type:            rule.Type,
		Amount:          rule.Amount,
		Currency:        rule.Currency,
		Category:        rule.Category,
		Description:     rule.Description + trigger.descriptionSuffix(),
		Date:            now,
		RecurringRuleID: &ruleID,
	}

	if err := e.ledger.Create(ctx, tx); err != nil {
		e.markFailed(ctx, rule.ID, log)
		return nil, &ExecutionError{RuleID: rule.ID, Step: "create transaction", Err: err}
	}

	delta := tx.SignedAmount()
	if err := e.accounts.AdjustBalance(ctx, rule.AccountID, delta); err != nil {
		compensated := e.removeTransaction(ctx, tx, log)
		e.markFailed(ctx, rule.ID, log)
		return nil, &PartialExecutionError{
			RuleID:        rule.ID,
			TransactionID: tx.ID,
			Compensated:   compensated,
			Err:           fmt.Errorf("adjusting balance of account %s: %w", rule.AccountID, err),
		}
	}

	advanced := advance(rule, now)
	if err := e.rules.SaveExecution(ctx, advanced, rule.NextDueDate); err != nil {
		if errors.Is(err, repository.ErrStaleSchedule) {
			err = ErrConcurrentModification
		}
		undone := e.undoLedger(ctx, tx, delta, log)
		if !undone {
			e.markFailed(ctx, rule.ID, log)
			return nil, &PartialExecutionError{
				RuleID:        rule.ID,
				TransactionID: tx.ID,
				Err:           fmt.Errorf("saving schedule: %w", err),
			}
		}
		if !errors.Is(err, ErrConcurrentModification) {
			e.markFailed(ctx, rule.ID, log)
		}
		return nil, &ExecutionError{RuleID: rule.ID, Step: "save schedule", Err: err}
	}

	log.Info("recurring rule executed",
		slog.String("transaction_id", tx.ID.String()),
		slog.String("next_due_date", advanced.NextDueDate.Format(time.DateOnly)),
		slog.Bool("is_active", advanced.IsActive),
	)

	if tx.Type == model.TransactionTypeExpense && e.monitor != nil {
		e.monitor.OnExpenseTransactionPersisted(ctx, tx)
	}
	e.sendProcessedNotice(ctx, advanced, log)

	return &ExecutionResult{Transaction: tx, Rule: advanced}, nil
}

// advance returns the rule as it looks after a successful run at now.
func advance(rule *model.RecurringRule, now time.Time) *model.RecurringRule {
	next := *rule
	processed := now
	next.LastProcessedDate = &processed
	next.NextDueDate = recurrence.NextForRule(rule)
	next.TotalExecutions = rule.TotalExecutions + 1
	next.LastExecutionStatus = model.ExecutionStatusSuccess
	next.NotificationSent = false
	if recurrence.IsExpired(rule) {
		next.IsActive = false
	}
	return &next
}

func (e *RecurringExecutor) markFailed(ctx context.Context, id uuid.UUID, log *slog.Logger) {
	if err := e.rules.MarkFailed(ctx, id); err != nil {
		log.Error("failed to record failed execution", slog.String("error", err.Error()))
	}
}

func (e *RecurringExecutor) removeTransaction(ctx context.Context, tx *model.Transaction, log *slog.Logger) bool {
	if _, err := e.ledger.Delete(ctx, tx.ID, tx.UserID); err != nil {
		log.Error("failed to remove unapplied transaction",
			slog.String("transaction_id", tx.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// undoLedger reverses a fully applied transaction: balance first, then row.
func (e *RecurringExecutor) undoLedger(ctx context.Context, tx *model.Transaction, delta decimal.Decimal, log *slog.Logger) bool {
	if err := e.accounts.AdjustBalance(ctx, tx.AccountID, delta.Neg()); err != nil {
		log.Error("failed to reverse balance adjustment",
			slog.String("transaction_id", tx.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return e.removeTransaction(ctx, tx, log)
}

func (e *RecurringExecutor) sendProcessedNotice(ctx context.Context, rule *model.RecurringRule, log *slog.Logger) {
	if e.notifier == nil || e.users == nil {
		return
	}
	user, err := e.users.GetByID(ctx, rule.UserID)
	if err != nil {
		log.Warn("skipping processed notice", slog.String("error", err.Error()))
		return
	}
	if _, err := e.notifier.Notify(ctx, user, processedMessage(rule)); err != nil {
		log.Warn("processed notice not delivered", slog.String("error", err.Error()))
	}
}
