package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Currency      string    `db:"currency" json:"currency"`
	AlertEmail    bool      `db:"alert_email" json:"alertEmail"`
	AlertWhatsApp bool      `db:"alert_whatsapp" json:"alertWhatsApp"`
	AlertPush     bool      `db:"alert_push" json:"alertPush"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// ParseTransactionType accepts any casing ("Income", "EXPENSE") and returns
// the canonical value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, nil
	case TransactionTypeExpense:
		return TransactionTypeExpense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Signed returns amount as a balance delta: positive for income, negative for expense.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

type AccountType string

const (
	AccountTypeCash   AccountType = "cash"
	AccountTypeBank   AccountType = "bank"
	AccountTypeWallet AccountType = "wallet"
	AccountTypeCredit AccountType = "credit"
	AccountTypeOther  AccountType = "other"
)

// ParseAccountType maps legacy labels such as "Mobile Wallet" onto the canonical set.
func ParseAccountType(s string) AccountType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return AccountTypeCash
	case "bank":
		return AccountTypeBank
	case "wallet", "mobile wallet":
		return AccountTypeWallet
	case "credit":
		return AccountTypeCredit
	}
	return AccountTypeOther
}

// Account.Balance is maintained incrementally: opening balance plus the
// signed sum of every live transaction against the account.
type Account struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"userId"`
	Name           string          `db:"name" json:"name"`
	Type           AccountType     `db:"type" json:"type"`
	Currency       string          `db:"currency" json:"currency"`
	OpeningBalance decimal.Decimal `db:"opening_balance" json:"openingBalance"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	IsDefault      bool            `db:"is_default" json:"isDefault"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

type Transaction struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"userId"`
	AccountID       uuid.UUID       `db:"account_id" json:"accountId"`
	Type            TransactionType `db:"type" json:"type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	Category        string          `db:"category" json:"category"`
	Description     string          `db:"description" json:"description"`
	Date            time.Time       `db:"date" json:"date"`
	RecurringRuleID *uuid.UUID      `db:"recurring_rule_id" json:"recurringRuleId,omitempty"`
	ReceiptID       *uuid.UUID      `db:"receipt_id" json:"receiptId,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// SignedAmount is the delta this transaction contributes to its account balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Type.Signed(t.Amount)
}

// Budget is a monthly spending ceiling keyed by (user, month, year). Month is 1-12.
type Budget struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"userId"`
	Month        int             `db:"month" json:"month"`
	Year         int             `db:"year" json:"year"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	Alert80Sent  bool            `db:"alert80_sent" json:"alert80Sent"`
	Alert100Sent bool            `db:"alert100_sent" json:"alert100Sent"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

type BudgetWithSpent struct {
	Budget
	Spent      decimal.Decimal `db:"spent" json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

type AlertType string

const (
	AlertType80Percent     AlertType = "80_PERCENT"
	AlertTypeExceeded      AlertType = "EXCEEDED"
	AlertTypeMonthlyReport AlertType = "MONTHLY_REPORT"
)

// Alert is the history record of a threshold alert or monthly report.
// SentVia is stored as a comma separated list of channel names.
type Alert struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Type      AlertType `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	SentVia   string    `db:"sent_via" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (a *Alert) Channels() []string {
	if a.SentVia == "" {
		return []string{}
	}
	return strings.Split(a.SentVia, ",")
}

type PushSubscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	UserAgent string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CategoryTotal is one row of a per-category spending breakdown.
type CategoryTotal struct {
	Category string          `db:"category" json:"category"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

type MonthlySummary struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Savings    decimal.Decimal `json:"savings"`
	Categories []CategoryTotal `json:"categories"`
}

var ExpenseCategories = []string{
	"Housing",
	"Transportation",
	"Food & Dining",
	"Utilities",
	"Healthcare",
	"Insurance",
	"Entertainment",
	"Shopping",
	"Education",
	"Travel",
	"EMI",
	"Subscriptions",
	"Other",
}

var IncomeCategories = []string{
	"Salary",
	"Freelance",
	"Business",
	"Investments",
	"Rental",
	"Refunds",
	"Other",
}
