package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

func typeLabel(t model.TransactionType) string {
	if t == model.TransactionTypeIncome {
		return "Income"
	}
	return "Expense"
}

func typeEmoji(t model.TransactionType) string {
	if t == model.TransactionTypeIncome {
		return "💰"
	}
	return "💸"
}

func processedMessage(rule *model.RecurringRule) notify.Message {
	cur := currency.Normalize(rule.Currency)
	var b strings.Builder
	fmt.Fprintf(&b, "%s Recurring Transaction Processed\n\n", typeEmoji(rule.Type))
	fmt.Fprintf(&b, "%s\n", rule.Description)
	fmt.Fprintf(&b, "Amount: %s\n", currency.Format(rule.Amount, cur))
	fmt.Fprintf(&b, "Type: %s\n", typeLabel(rule.Type))
	if rule.IsActive {
		fmt.Fprintf(&b, "Next Due: %s", rule.NextDueDate.Format(datetime.DisplayDateFormat))
	} else {
		b.WriteString("This was the last occurrence before the end date; the rule is now inactive.")
	}

	return notify.Message{
		Subject: "Recurring Transaction Processed - Wealth App",
		Body:    b.String(),
		Tag:     "recurring-" + rule.ID.String(),
	}
}

func reminderMessage(rule *model.RecurringRule, daysUntil int) notify.Message {
	cur := currency.Normalize(rule.Currency)
	when := "Due Tomorrow"
	switch {
	case daysUntil <= 0:
		when = "Due Today"
	case daysUntil > 1:
		when = fmt.Sprintf("Due in %d days", daysUntil)
	}

	action := "will be processed automatically"
	if !rule.AutoExecute {
		action = "needs to be processed manually"
	}

	var b strings.Builder
	b.WriteString("⏰ Upcoming Recurring Transaction Reminder\n\n")
	fmt.Fprintf(&b, "%s\n", rule.Description)
	fmt.Fprintf(&b, "Amount: %s\n", currency.Format(rule.Amount, cur))
	fmt.Fprintf(&b, "Type: %s %s\n", typeEmoji(rule.Type), typeLabel(rule.Type))
	fmt.Fprintf(&b, "%s: %s\n\n", when, rule.NextDueDate.Format(datetime.DisplayDateFormat))
	fmt.Fprintf(&b, "This %s transaction %s.", rule.Frequency, action)

	return notify.Message{
		Subject: "Upcoming Recurring Transaction - Wealth App",
		Body:    b.String(),
		Tag:     "reminder-" + rule.ID.String(),
	}
}

func budgetAlertMessage(alertType model.AlertType, spent, pct decimal.Decimal, tips string, cur currency.Currency) notify.Message {
	var base string
	if alertType == model.AlertTypeExceeded {
		base = fmt.Sprintf("🚨 Budget Exceeded! You have spent %s, which is %s%% of your monthly budget.",
			currency.Format(spent, cur), pct.StringFixed(0))
	} else {
		base = fmt.Sprintf("⚠️ Budget Warning! You have reached %s%% of your monthly budget (Spent %s).",
			pct.StringFixed(0), currency.Format(spent, cur))
	}

	return notify.Message{
		Subject: fmt.Sprintf("Wealth App: %s Milestone", strings.ReplaceAll(string(alertType), "_", " ")),
		Body:    base + "\n\n💡 AI Saving Tips:\n" + tips,
		Tag:     "budget",
	}
}

func milestoneMessage(goal *model.Goal, percentage int) notify.Message {
	cur := currency.Normalize(goal.Currency)
	body := fmt.Sprintf("🎉 Milestone Alert!\n\nCongratulations! You've reached %d%% of your %q goal!\n\nCurrent: %s\nTarget: %s\n\nKeep going! 💪",
		percentage, goal.Name, currency.Format(goal.CurrentAmount, cur), currency.Format(goal.TargetAmount, cur))

	return notify.Message{
		Subject: fmt.Sprintf("Wealth App: %d%% Goal Milestone Reached! 🎉", percentage),
		Body:    body,
		Tag:     "goal-" + goal.ID.String(),
	}
}

func goalCompletedMessage(goal *model.Goal) notify.Message {
	cur := currency.Normalize(goal.Currency)
	body := fmt.Sprintf("🏆 Goal Completed!\n\nYou have saved %s for %q and reached your target of %s.",
		currency.Format(goal.CurrentAmount, cur), goal.Name, currency.Format(goal.TargetAmount, cur))

	return notify.Message{
		Subject: "Wealth App: Goal Completed! 🏆",
		Body:    body,
		Tag:     "goal-" + goal.ID.String(),
	}
}

func monthlyReportMessage(summary *model.MonthlySummary, insight string, cur currency.Currency) notify.Message {
	monthName := fmt.Sprintf("%s %d", monthTime(summary).Format("January"), summary.Year)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Monthly Financial Report (%s)\n\n", monthName)
	fmt.Fprintf(&b, "💰 Total Income: %s\n", currency.Format(summary.Income, cur))
	fmt.Fprintf(&b, "📉 Total Expense: %s\n", currency.Format(summary.Expense, cur))
	fmt.Fprintf(&b, "🏦 Total Savings: %s\n\n", currency.Format(summary.Savings, cur))
	if len(summary.Categories) > 0 {
		b.WriteString("Top categories:\n")
		for i, ct := range summary.Categories {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", ct.Category, currency.Format(ct.Total, cur))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "🧠 AI Saving Suggestions:\n%s\n\n", insight)
	b.WriteString("Log in to Wealth App to see more details!")

	return notify.Message{
		Subject: "Wealth App: Monthly Review - " + monthTime(summary).Format("January"),
		Body:    b.String(),
		Tag:     "monthly-report",
	}
}
