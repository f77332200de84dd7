package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wealthapp/backend/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestNextDueDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  time.Time
		interval model.RecurringFrequency
		want     time.Time
	}{
		{"daily", day(2024, 2, 28), model.FrequencyDaily, day(2024, 2, 29)},
		{"daily year end", day(2024, 12, 31), model.FrequencyDaily, day(2025, 1, 1)},
		{"weekly", day(2024, 2, 26), model.FrequencyWeekly, day(2024, 3, 4)},
		{"biweekly", day(2024, 1, 1), model.FrequencyBiweekly, day(2024, 1, 15)},
		{"monthly plain", day(2024, 3, 15), model.FrequencyMonthly, day(2024, 4, 15)},
		{"monthly jan 31 leap", day(2024, 1, 31), model.FrequencyMonthly, day(2024, 2, 29)},
		{"monthly jan 31 common", day(2023, 1, 31), model.FrequencyMonthly, day(2023, 2, 28)},
		{"monthly mar 31 to apr 30", day(2024, 3, 31), model.FrequencyMonthly, day(2024, 4, 30)},
		{"monthly december", day(2024, 12, 10), model.FrequencyMonthly, day(2025, 1, 10)},
		{"yearly", day(2024, 6, 1), model.FrequencyYearly, day(2025, 6, 1)},
		{"yearly leap day", day(2024, 2, 29), model.FrequencyYearly, day(2025, 2, 28)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NextDueDate(tt.current, tt.interval))
		})
	}
}

func TestNextDueDate_StrictlyIncreasing(t *testing.T) {
	t.Parallel()

	intervals := []model.RecurringFrequency{
		model.FrequencyDaily,
		model.FrequencyWeekly,
		model.FrequencyBiweekly,
		model.FrequencyMonthly,
		model.FrequencyYearly,
	}
	starts := []time.Time{
		day(2024, 1, 31),
		day(2024, 2, 29),
		day(2023, 12, 31),
		time.Date(2024, 10, 27, 1, 30, 0, 0, time.UTC),
	}

	for _, interval := range intervals {
		for _, start := range starts {
			rule := &model.RecurringRule{Frequency: interval, StartDate: start, NextDueDate: start}
			prev := start
			for i := 0; i < 60; i++ {
				n := NextForRule(rule)
				assert.True(t, n.After(prev), "%s from %s step %d: %s not after %s", interval, start, i, n, prev)
				assert.False(t, n.Before(rule.StartDate))
				prev = n
				rule.NextDueDate = n
			}
		}
	}
}

func TestNextForRule_NoPermanentDrift(t *testing.T) {
	t.Parallel()

	rule := &model.RecurringRule{
		Frequency:   model.FrequencyMonthly,
		StartDate:   day(2024, 1, 31),
		NextDueDate: day(2024, 1, 31),
	}

	var got []time.Time
	for i := 0; i < 4; i++ {
		rule.NextDueDate = NextForRule(rule)
		got = append(got, rule.NextDueDate)
	}

	assert.Equal(t, []time.Time{
		day(2024, 2, 29),
		day(2024, 3, 31),
		day(2024, 4, 30),
		day(2024, 5, 31),
	}, got)
}

func TestNextDueDateAnchored(t *testing.T) {
	assert.Equal(t, day(2025, 3, 31), NextDueDateAnchored(day(2025, 2, 28), model.FrequencyMonthly, 31))
	assert.Equal(t, day(2028, 2, 29), NextDueDateAnchored(day(2027, 2, 28), model.FrequencyYearly, 29))
	assert.Equal(t, day(2025, 3, 1), NextDueDateAnchored(day(2025, 2, 28), model.FrequencyDaily, 31))
}

func TestIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 0, 0, 5, 0, time.UTC)
	tests := []struct {
		name string
		rule model.RecurringRule
		want bool
	}{
		{"due earlier", model.RecurringRule{IsActive: true, NextDueDate: day(2024, 5, 1)}, true},
		{"due exactly now", model.RecurringRule{IsActive: true, NextDueDate: now}, true},
		{"due tomorrow", model.RecurringRule{IsActive: true, NextDueDate: day(2024, 5, 11)}, false},
		{"inactive", model.RecurringRule{IsActive: false, NextDueDate: day(2024, 5, 1)}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsDue(&tt.rule, now))
		})
	}
}

func TestIsDue_LocalCalendarDay(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	est := time.FixedZone("EST", -5*3600)
	rule := model.RecurringRule{IsActive: true, NextDueDate: day(2025, 3, 2)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"first minute of the day east of UTC", time.Date(2025, 3, 2, 0, 0, 0, 0, ist), true},
		{"last minute of the previous day east of UTC", time.Date(2025, 3, 1, 23, 59, 0, 0, ist), false},
		{"evening before west of UTC", time.Date(2025, 3, 1, 20, 0, 0, 0, est), false},
		{"morning of the day west of UTC", time.Date(2025, 3, 2, 6, 0, 0, 0, est), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsDue(&rule, tt.now))
		})
	}
}

func TestIsExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule model.RecurringRule
		want bool
	}{
		{
			name: "no end date",
			rule: model.RecurringRule{Frequency: model.FrequencyDaily, StartDate: day(2024, 1, 1), NextDueDate: day(2024, 1, 1)},
			want: false,
		},
		{
			name: "following occurrence past end",
			rule: model.RecurringRule{
				Frequency:   model.FrequencyMonthly,
				StartDate:   day(2024, 1, 31),
				NextDueDate: day(2024, 1, 31),
				EndDate:     ptr(day(2024, 2, 28)),
			},
			want: true,
		},
		{
			name: "following occurrence on end date",
			rule: model.RecurringRule{
				Frequency:   model.FrequencyWeekly,
				StartDate:   day(2024, 1, 1),
				NextDueDate: day(2024, 1, 1),
				EndDate:     ptr(day(2024, 1, 8)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsExpired(&tt.rule))
		})
	}
}

func TestNeedsReminder(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	base := model.RecurringRule{IsActive: true, NotifyBeforeDays: 1}

	tests := []struct {
		name   string
		mutate func(r *model.RecurringRule)
		honor  bool
		want   bool
	}{
		{"due tomorrow morning", func(r *model.RecurringRule) { r.NextDueDate = day(2024, 5, 11) }, true, true},
		{"due tomorrow late", func(r *model.RecurringRule) { r.NextDueDate = time.Date(2024, 5, 11, 23, 0, 0, 0, time.UTC) }, true, true},
		{"due today", func(r *model.RecurringRule) { r.NextDueDate = day(2024, 5, 10) }, true, false},
		{"due in two days", func(r *model.RecurringRule) { r.NextDueDate = day(2024, 5, 12) }, true, false},
		{"already notified", func(r *model.RecurringRule) {
			r.NextDueDate = day(2024, 5, 11)
			r.NotificationSent = true
		}, true, false},
		{"inactive", func(r *model.RecurringRule) {
			r.NextDueDate = day(2024, 5, 11)
			r.IsActive = false
		}, true, false},
		{"three day lead honored", func(r *model.RecurringRule) {
			r.NextDueDate = day(2024, 5, 13)
			r.NotifyBeforeDays = 3
		}, true, true},
		{"three day lead ignored", func(r *model.RecurringRule) {
			r.NextDueDate = day(2024, 5, 13)
			r.NotifyBeforeDays = 3
		}, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := base
			tt.mutate(&r)
			assert.Equal(t, tt.want, NeedsReminder(&r, now, tt.honor))
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysUntil(day(2024, 5, 10), now))
	assert.Equal(t, 1, DaysUntil(day(2024, 5, 11), now))
	assert.Equal(t, 30, DaysUntil(day(2024, 6, 9), now))
	assert.Equal(t, -2, DaysUntil(day(2024, 5, 8), now))

	ist := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, 0, DaysUntil(day(2024, 5, 11), time.Date(2024, 5, 11, 0, 30, 0, 0, ist)))
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, 1, DaysUntil(day(2024, 5, 11), time.Date(2024, 5, 10, 21, 0, 0, 0, est)))
}

func TestNeedsReminder_LocalCalendarDay(t *testing.T) {
	t.Parallel()

	rule := model.RecurringRule{IsActive: true, NotifyBeforeDays: 1, NextDueDate: day(2024, 5, 11)}
	est := time.FixedZone("EST", -5*3600)
	ist := time.FixedZone("IST", 5*3600+1800)

	assert.True(t, NeedsReminder(&rule, time.Date(2024, 5, 10, 9, 0, 0, 0, est), true))
	assert.True(t, NeedsReminder(&rule, time.Date(2024, 5, 10, 0, 10, 0, 0, ist), true))
	assert.False(t, NeedsReminder(&rule, time.Date(2024, 5, 11, 0, 10, 0, 0, ist), true))
}
