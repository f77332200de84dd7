package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/repository"
)

func newDriverFixture(now time.Time, cfg DriverConfig) (*executorFixture, *RecurringDriver) {
	f := newExecutorFixture(now)
	d := NewRecurringDriver(f.rules, f.exec, newMemUsers(f.user), f.notifier, cfg, discardLogger())
	return f, d
}

func TestProcessDueRules_IdempotentWithinPass(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 1).Add(10 * time.Hour)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 4})
	rules := []*model.RecurringRule{
		f.addRule(model.TransactionTypeExpense, "100", model.FrequencyDaily, day(2025, time.March, 1)),
		f.addRule(model.TransactionTypeIncome, "300", model.FrequencyWeekly, day(2025, time.March, 1)),
		f.addRule(model.TransactionTypeExpense, "50", model.FrequencyMonthly, day(2025, time.February, 28)),
	}

	first, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, PassResult{SuccessCount: 3}, first)

	second, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, PassResult{}, second)

	for _, r := range rules {
		assert.Equal(t, 1, f.rules.get(r.ID).TotalExecutions, r.Frequency)
	}
	assert.Equal(t, 3, f.txs.count())
	assert.True(t, dec("1150").Equal(f.accounts.balance(f.account.ID)))
}

func TestProcessDueRules_SchedulerZoneEastOfUTC(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	// 00:15 on Mar 2 in IST is still Mar 1 in UTC.
	now := time.Date(2025, time.March, 2, 0, 15, 0, 0, ist)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1})
	rule := f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, day(2025, time.March, 2))
	f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, day(2025, time.March, 3))

	result, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, PassResult{SuccessCount: 1}, result)
	assert.Equal(t, day(2025, time.April, 2), f.rules.get(rule.ID).NextDueDate)
	assert.Equal(t, 1, f.txs.count())
}

func TestProcessDueRules_SchedulerZoneWestOfUTC(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*3600)
	// 21:00 on Mar 1 in EST is already Mar 2 in UTC.
	now := time.Date(2025, time.March, 1, 21, 0, 0, 0, est)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1})
	f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, day(2025, time.March, 2))

	result, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, PassResult{}, result)
	assert.Zero(t, f.txs.count())
}

func TestProcessDueRules_FailureIsolation(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 1)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 2})
	var bad *model.RecurringRule
	for i := 0; i < 5; i++ {
		r := f.addRule(model.TransactionTypeExpense, "10", model.FrequencyMonthly, now)
		if i == 2 {
			bad = r
		}
	}
	f.txs.createErr = func(tx *model.Transaction) error {
		if *tx.RecurringRuleID == bad.ID {
			return errors.New("ledger unavailable")
		}
		return nil
	}

	result, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount)

	stored := f.rules.get(bad.ID)
	assert.Equal(t, now, stored.NextDueDate)
	assert.Equal(t, model.ExecutionStatusFailed, stored.LastExecutionStatus)
	assert.Equal(t, 4, f.txs.count())
}

func TestProcessDueRules_CatchUpAdvancesOnePeriodPerPass(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 20)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1})
	rule := f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, day(2025, time.January, 15))

	for _, want := range []time.Time{
		day(2025, time.February, 15),
		day(2025, time.March, 15),
		day(2025, time.April, 15),
	} {
		result, err := d.ProcessDueRules(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, want, f.rules.get(rule.ID).NextDueDate)
	}

	result, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, result.SuccessCount)
	assert.Equal(t, 3, f.rules.get(rule.ID).TotalExecutions)
}

func TestProcessDueRules_ScheduledDescriptionAndManualRulesSkipped(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 1)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1})
	auto := f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, now)
	manual := f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, now)
	f.rules.mu.Lock()
	f.rules.rules[manual.ID].AutoExecute = false
	f.rules.mu.Unlock()

	result, err := d.ProcessDueRules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	txs, err := f.txs.List(context.Background(), f.user.ID, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Rent (Auto-Recurring)", txs[0].Description)
	assert.Equal(t, auto.ID, *txs[0].RecurringRuleID)
	assert.Zero(t, f.rules.get(manual.ID).TotalExecutions)
}

func TestExecuteScheduled_SkipsRuleAdvancedElsewhere(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 1)
	f, _ := newDriverFixture(now, DriverConfig{})
	rule := f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, now)
	selected := f.rules.get(rule.ID)

	_, err := f.exec.ExecuteRuleNow(context.Background(), f.user.ID, rule.ID)
	require.NoError(t, err)

	_, err = f.exec.executeScheduled(context.Background(), &selected, now)
	assert.ErrorIs(t, err, ErrNotDue)
	assert.Equal(t, 1, f.rules.get(rule.ID).TotalExecutions)
}

func TestProcessDueRules_CancelledContextStartsNothing(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 1)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1})
	f.addRule(model.TransactionTypeExpense, "100", model.FrequencyMonthly, now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.ProcessDueRules(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, PassResult{}, result)
	assert.Zero(t, f.txs.count())
}

func TestSendDueReminders(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 10).Add(9 * time.Hour)

	tests := []struct {
		name         string
		due          time.Time
		notifyBefore int
		honor        bool
		wantSent     int
	}{
		{name: "due tomorrow", due: day(2025, time.March, 11), notifyBefore: 1, honor: true, wantSent: 1},
		{name: "due today", due: day(2025, time.March, 10), notifyBefore: 1, honor: true, wantSent: 0},
		{name: "due in two days", due: day(2025, time.March, 12), notifyBefore: 1, honor: true, wantSent: 0},
		{name: "three day lead honored", due: day(2025, time.March, 13), notifyBefore: 3, honor: true, wantSent: 1},
		{name: "three day lead ignored", due: day(2025, time.March, 13), notifyBefore: 3, honor: false, wantSent: 0},
		{name: "same day lead", due: day(2025, time.March, 10), notifyBefore: 0, honor: true, wantSent: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, d := newDriverFixture(now, DriverConfig{Concurrency: 2, HonorNotifyBeforeDays: tt.honor})
			rule := f.addRule(model.TransactionTypeExpense, "1200", model.FrequencyMonthly, tt.due)
			f.rules.mu.Lock()
			f.rules.rules[rule.ID].NotifyBeforeDays = tt.notifyBefore
			f.rules.mu.Unlock()

			sent, err := d.SendDueReminders(context.Background(), now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
			assert.Equal(t, tt.wantSent == 1, f.rules.get(rule.ID).NotificationSent)
		})
	}
}

func TestSendDueReminders_OncePerCycleAndRetriedOnFailure(t *testing.T) {
	t.Parallel()

	now := day(2025, time.March, 10)
	f, d := newDriverFixture(now, DriverConfig{Concurrency: 1, HonorNotifyBeforeDays: true})
	rule := f.addRule(model.TransactionTypeExpense, "1200", model.FrequencyMonthly, day(2025, time.March, 11))

	f.notifier.setErr(errors.New("all channels failed"))
	sent, err := d.SendDueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.False(t, f.rules.get(rule.ID).NotificationSent)

	f.notifier.setErr(nil)
	sent, err = d.SendDueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = d.SendDueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "Due Tomorrow: Mar 11, 2025")
	assert.Contains(t, msgs[0].Body, "will be processed automatically")
}
