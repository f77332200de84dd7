package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusCancelled  GoalStatus = "cancelled"
)

// MilestonePercentages are seeded on every new goal.
var MilestonePercentages = []int{25, 50, 75, 100}

type Goal struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"userId"`
	AccountID     *uuid.UUID      `db:"account_id" json:"accountId,omitempty"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Category      string          `db:"category" json:"category"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"targetAmount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"currentAmount"`
	Currency      string          `db:"currency" json:"currency"`
	Deadline      *time.Time      `db:"deadline" json:"deadline,omitempty"`
	Status        GoalStatus      `db:"status" json:"status"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	Milestones []Milestone `db:"-" json:"milestones"`
}

// Progress returns currentAmount/targetAmount as a percentage capped at 100.
func (g *Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return p
}

type Milestone struct {
	GoalID     uuid.UUID  `db:"goal_id" json:"-"`
	Percentage int        `db:"percentage" json:"percentage"`
	Reached    bool       `db:"reached" json:"reached"`
	ReachedAt  *time.Time `db:"reached_at" json:"reachedAt,omitempty"`
}
