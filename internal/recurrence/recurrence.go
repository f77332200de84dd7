// Package recurrence holds the pure schedule arithmetic for recurring rules.
// Nothing here reads the wall clock; callers pass now explicitly.
package recurrence

import (
	"math"
	"time"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/pkg/datetime"
)

// NextDueDate advances current by one interval. Month and year steps clamp
// to the last day of a shorter target month (Jan 31 + 1 month is Feb 28/29).
func NextDueDate(current time.Time, interval model.RecurringFrequency) time.Time {
	return next(current, interval, current.Day())
}

// NextDueDateAnchored is NextDueDate for month and year steps that re-anchor
// on anchorDay, so a rule started on the 31st returns to the 31st after a
// clamped February instead of drifting to the 28th forever.
func NextDueDateAnchored(current time.Time, interval model.RecurringFrequency, anchorDay int) time.Time {
	return next(current, interval, anchorDay)
}

// NextForRule computes the occurrence after rule.NextDueDate, anchored on the
// day of the rule's start date.
func NextForRule(rule *model.RecurringRule) time.Time {
	return next(rule.NextDueDate, rule.Frequency, anchorDay(rule))
}

func next(current time.Time, interval model.RecurringFrequency, anchor int) time.Time {
	switch interval {
	case model.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case model.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case model.FrequencyBiweekly:
		return current.AddDate(0, 0, 14)
	case model.FrequencyMonthly:
		return datetime.AddMonthsClamped(current, 1, anchor)
	case model.FrequencyYearly:
		return datetime.AddYearsClamped(current, 1, anchor)
	default:
		// unreachable for validated rules; monthly keeps the sequence increasing
		return datetime.AddMonthsClamped(current, 1, anchor)
	}
}

func anchorDay(rule *model.RecurringRule) int {
	if rule.StartDate.IsZero() {
		return rule.NextDueDate.Day()
	}
	return rule.StartDate.Day()
}

// Today is now's calendar day in now's location, expressed as the UTC
// midnight due dates are stored in. Compare due dates against this, never
// against now itself.
func Today(now time.Time) time.Time {
	return datetime.DateOf(now).Time
}

// IsDue reports whether the rule is active and its next due date is on or
// before now's calendar day.
func IsDue(rule *model.RecurringRule, now time.Time) bool {
	return rule.IsActive && !Today(now).Before(rule.NextDueDate)
}

// IsExpired reports whether the occurrence after the current one falls past
// the rule's end date. The current occurrence itself still executes.
func IsExpired(rule *model.RecurringRule) bool {
	if rule.EndDate == nil {
		return false
	}
	return NextForRule(rule).After(*rule.EndDate)
}

// ReminderWindow returns the half-open day [today + days, +1 day), where
// today is now's calendar day in the stored-date frame.
func ReminderWindow(now time.Time, days int) (time.Time, time.Time) {
	from := Today(now).AddDate(0, 0, days)
	return from, from.AddDate(0, 0, 1)
}

// LeadDays is the reminder lead for a rule: its notifyBeforeDays when
// honored, otherwise one day.
func LeadDays(rule *model.RecurringRule, honorNotifyBefore bool) int {
	if !honorNotifyBefore {
		return 1
	}
	return rule.NotifyBeforeDays
}

// NeedsReminder reports whether an active, not-yet-notified rule falls due
// inside its reminder window.
func NeedsReminder(rule *model.RecurringRule, now time.Time, honorNotifyBefore bool) bool {
	if !rule.IsActive || rule.NotificationSent {
		return false
	}
	from, to := ReminderWindow(now, LeadDays(rule, honorNotifyBefore))
	return !rule.NextDueDate.Before(from) && rule.NextDueDate.Before(to)
}

// DaysUntil counts whole calendar days from now's day to due's day.
func DaysUntil(due, now time.Time) int {
	d := datetime.DateOf(due.UTC()).Time
	return int(math.Round(d.Sub(Today(now)).Hours() / 24))
}
