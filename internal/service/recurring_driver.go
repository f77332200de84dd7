package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/recurrence"
)

// DueRuleStore selects work for the two scheduler passes.
type DueRuleStore interface {
	ListDue(ctx context.Context, now time.Time) ([]model.RecurringRule, error)
	ListReminderCandidates(ctx context.Context, dayStart time.Time) ([]model.RecurringRule, error)
	MarkNotified(ctx context.Context, id uuid.UUID, dueDate time.Time) (bool, error)
}

// PassResult summarises one due-processing pass.
type PassResult struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
	SkippedCount int `json:"skippedCount"`
}

type DriverConfig struct {
	Concurrency           int
	HonorNotifyBeforeDays bool
}

// RecurringDriver runs the due-processing and reminder passes. Each rule is an
// independent unit of work; one failing rule never stops the batch.
type RecurringDriver struct {
	rules    DueRuleStore
	executor *RecurringExecutor
	users    UserGetter
	notifier notify.Notifier
	cfg      DriverConfig
	logger   *slog.Logger
}

func NewRecurringDriver(rules DueRuleStore, executor *RecurringExecutor, users UserGetter, notifier notify.Notifier, cfg DriverConfig, logger *slog.Logger) *RecurringDriver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringDriver{
		rules:    rules,
		executor: executor,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// ProcessDueRules executes every active auto-executing rule due at now. The
// returned error covers only the selection query.
func (d *RecurringDriver) ProcessDueRules(ctx context.Context, now time.Time) (PassResult, error) {
	log := logger.Enrich(ctx, d.logger)

	due, err := d.rules.ListDue(ctx, recurrence.Today(now))
	if err != nil {
		return PassResult{}, fmt.Errorf("selecting due rules: %w", err)
	}

	var success, failed, skipped atomic.Int64
	d.forEach(ctx, due, func(rule *model.RecurringRule) {
		if !rule.AutoExecute || !recurrence.IsDue(rule, now) {
			skipped.Add(1)
			return
		}

		_, err := d.executor.executeScheduled(ctx, rule, now)
		ruleLog := log.With(slog.String("rule_id", rule.ID.String()))

		var partial *PartialExecutionError
		switch {
		case err == nil:
			success.Add(1)
		case errors.Is(err, ErrNotDue):
			skipped.Add(1)
		case errors.Is(err, ErrInactiveRule):
			skipped.Add(1)
			ruleLog.Warn("skipping inactive rule")
		case errors.As(err, &partial):
			failed.Add(1)
			ruleLog.Error("recurring execution partially applied",
				slog.String("transaction_id", partial.TransactionID.String()),
				slog.Bool("needs_reconciliation", partial.NeedsReconciliation()),
				slog.String("error", err.Error()),
			)
		default:
			failed.Add(1)
			ruleLog.Error("recurring execution failed", slog.String("error", err.Error()))
		}
	})

	result := PassResult{
		SuccessCount: int(success.Load()),
		FailCount:    int(failed.Load()),
		SkippedCount: int(skipped.Load()),
	}
	log.Info("due-processing pass finished",
		slog.Int("selected", len(due)),
		slog.Int("success", result.SuccessCount),
		slog.Int("failed", result.FailCount),
		slog.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// SendDueReminders notifies owners of rules entering their reminder window
// and returns how many reminders were sent. A rule is only flagged as
// notified after delivery succeeded, so failures are retried next pass.
func (d *RecurringDriver) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	log := logger.Enrich(ctx, d.logger)

	candidates, err := d.rules.ListReminderCandidates(ctx, recurrence.Today(now))
	if err != nil {
		return 0, fmt.Errorf("selecting reminder candidates: %w", err)
	}

	var sent atomic.Int64
	d.forEach(ctx, candidates, func(rule *model.RecurringRule) {
		if !recurrence.NeedsReminder(rule, now, d.cfg.HonorNotifyBeforeDays) {
			return
		}
		ruleLog := log.With(slog.String("rule_id", rule.ID.String()))

		if err := d.remind(ctx, rule, now); err != nil {
			ruleLog.Warn("reminder not sent", slog.String("error", err.Error()))
			return
		}

		marked, err := d.rules.MarkNotified(ctx, rule.ID, rule.NextDueDate)
		if err != nil {
			ruleLog.Error("failed to flag reminder as sent", slog.String("error", err.Error()))
			return
		}
		if marked {
			sent.Add(1)
		}
	})

	log.Info("reminder pass finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("sent", int(sent.Load())),
	)
	return int(sent.Load()), nil
}

func (d *RecurringDriver) remind(ctx context.Context, rule *model.RecurringRule, now time.Time) error {
	if d.notifier == nil {
		return errors.New("no notifier configured")
	}
	user, err := d.users.GetByID(ctx, rule.UserID)
	if err != nil {
		return fmt.Errorf("loading owner: %w", err)
	}
	msg := reminderMessage(rule, recurrence.DaysUntil(rule.NextDueDate, now))
	_, err = d.notifier.Notify(ctx, user, msg)
	return err
}

// forEach runs fn for every rule with bounded parallelism. Rules not yet
// started when ctx ends are left for the next pass.
func (d *RecurringDriver) forEach(ctx context.Context, rules []model.RecurringRule, fn func(*model.RecurringRule)) {
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)

	for i := range rules {
		if ctx.Err() != nil {
			break
		}
		rule := &rules[i]
		g.Go(func() error {
			fn(rule)
			return nil
		})
	}
	_ = g.Wait()
}
