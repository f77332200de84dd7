package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecurringFrequency string

const (
	FrequencyDaily    RecurringFrequency = "daily"
	FrequencyWeekly   RecurringFrequency = "weekly"
	FrequencyBiweekly RecurringFrequency = "biweekly"
	FrequencyMonthly  RecurringFrequency = "monthly"
	FrequencyYearly   RecurringFrequency = "yearly"
)

func ParseFrequency(s string) (RecurringFrequency, error) {
	f := RecurringFrequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("unknown interval %q", s)
	}
	return f, nil
}

func (f RecurringFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// RecurringRule is the template the scheduler materializes into transactions.
type RecurringRule struct {
	ID                  uuid.UUID          `db:"id" json:"id"`
	UserID              uuid.UUID          `db:"user_id" json:"userId"`
	AccountID           uuid.UUID          `db:"account_id" json:"accountId"`
	Type                TransactionType    `db:"type" json:"type"`
	Amount              decimal.Decimal    `db:"amount" json:"amount"`
	Currency            string             `db:"currency" json:"currency"`
	Description         string             `db:"description" json:"description"`
	Category            string             `db:"category" json:"category"`
	Frequency           RecurringFrequency `db:"frequency" json:"interval"`
	StartDate           time.Time          `db:"start_date" json:"startDate"`
	EndDate             *time.Time         `db:"end_date" json:"endDate,omitempty"`
	NextDueDate         time.Time          `db:"next_due_date" json:"nextDueDate"`
	LastProcessedDate   *time.Time         `db:"last_processed_date" json:"lastProcessedDate,omitempty"`
	IsActive            bool               `db:"is_active" json:"isActive"`
	AutoExecute         bool               `db:"auto_execute" json:"autoExecute"`
	NotifyBeforeDays    int                `db:"notify_before_days" json:"notifyBeforeDays"`
	NotificationSent    bool               `db:"notification_sent" json:"notificationSent"`
	TotalExecutions     int                `db:"total_executions" json:"totalExecutions"`
	LastExecutionStatus ExecutionStatus    `db:"last_execution_status" json:"lastExecutionStatus"`
	CreatedAt           time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updatedAt"`
}

// UpcomingRecurring is the list view returned by the upcoming endpoint.
type UpcomingRecurring struct {
	RecurringRule
	DaysUntilDue int `json:"daysUntilDue"`
}
