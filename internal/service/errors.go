package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInactiveRule           = errors.New("recurring rule is inactive")
	ErrRecurringNotFound      = errors.New("recurring rule not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrBudgetNotFound         = errors.New("budget not found")
	ErrGoalNotFound           = errors.New("goal not found")
	ErrGoalNotActive          = errors.New("goal is not in progress")
	ErrConcurrentModification = errors.New("recurring rule was modified concurrently")
	// ErrNotDue is returned by scheduled runs for a rule another run already advanced.
	ErrNotDue = errors.New("recurring rule is not due")
)

// ExecutionError reports the step at which a rule execution failed. The rule
// was not advanced and will be retried on the next pass.
type ExecutionError struct {
	RuleID uuid.UUID
	Step   string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing rule %s: %s: %v", e.RuleID, e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PartialExecutionError means a transaction row was written but the account
// balance was not adjusted to match. Compensated reports whether the row was
// removed again; when false the ledger needs manual reconciliation.
type PartialExecutionError struct {
	RuleID        uuid.UUID
	TransactionID uuid.UUID
	Compensated   bool
	Err           error
}

func (e *PartialExecutionError) Error() string {
	state := "transaction left in place"
	if e.Compensated {
		state = "transaction removed"
	}
	return fmt.Sprintf("partial execution of rule %s (transaction %s, %s): %v",
		e.RuleID, e.TransactionID, state, e.Err)
}

func (e *PartialExecutionError) Unwrap() error {
	return e.Err
}

// NeedsReconciliation reports whether the ledger was left inconsistent.
func (e *PartialExecutionError) NeedsReconciliation() bool {
	return !e.Compensated
}
