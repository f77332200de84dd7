package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/recurrence"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/pkg/datetime"
)

const (
	upcomingHorizonDays = 30
	upcomingLimit       = 10
)

// RecurringRepositoryInterface defines the contract for rule management.
// Implementations must be safe for concurrent use.
type RecurringRepositoryInterface interface {
	Create(ctx context.Context, rule *model.RecurringRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringRule, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error)
	Update(ctx context.Context, rule *model.RecurringRule, guard repository.UpdateGuard) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListUpcoming(ctx context.Context, userID uuid.UUID, until time.Time, limit int) ([]model.RecurringRule, error)
	ListPendingConfirmation(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.RecurringRule, error)
}

// AccountReader resolves the account a rule books against.
type AccountReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// RecurringService handles user-facing management of recurring rules.
// Execution lives in RecurringExecutor.
type RecurringService struct {
	rules    RecurringRepositoryInterface
	accounts AccountReader
	clock    Clock
	logger   *slog.Logger
}

func NewRecurringService(rules RecurringRepositoryInterface, accounts AccountReader, clock Clock, logger *slog.Logger) *RecurringService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringService{rules: rules, accounts: accounts, clock: clock, logger: logger}
}

type CreateRecurringInput struct {
	AccountID        uuid.UUID       `json:"accountId"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Category         string          `json:"category"`
	Description      string          `json:"description"`
	Interval         string          `json:"interval"`
	StartDate        datetime.Date   `json:"startDate"`
	EndDate          datetime.Date   `json:"endDate"`
	AutoExecute      *bool           `json:"autoExecute"`
	NotifyBeforeDays *int            `json:"notifyBeforeDays"`
}

type UpdateRecurringInput struct {
	Amount           *decimal.Decimal `json:"amount"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category"`
	Interval         *string          `json:"interval"`
	EndDate          *datetime.Date   `json:"endDate"`
	AutoExecute      *bool            `json:"autoExecute"`
	IsActive         *bool            `json:"isActive"`
	NotifyBeforeDays *int             `json:"notifyBeforeDays"`
}

// Create validates and stores a new rule. The first occurrence is the start date.
func (s *RecurringService) Create(ctx context.Context, userID uuid.UUID, input CreateRecurringInput) (*model.RecurringRule, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.ValidationError("amount", "amount must be greater than zero")
	}
	txType, err := model.ParseTransactionType(input.Type)
	if err != nil {
		return nil, apperror.ValidationError("type", "type must be income or expense")
	}
	interval, err := model.ParseFrequency(input.Interval)
	if err != nil {
		return nil, apperror.ValidationError("interval", "interval must be daily, weekly, biweekly, monthly or yearly")
	}
	if input.StartDate.IsZero() {
		return nil, apperror.ValidationError("startDate", "start date is required")
	}

	today := datetime.DateOf(s.clock.Now())
	if input.StartDate.Before(today.Time) {
		return nil, apperror.ValidationError("startDate", "start date cannot be in the past")
	}
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate.Time) {
		return nil, apperror.ValidationError("endDate", "end date must be on or after the start date")
	}

	notifyBefore := 1
	if input.NotifyBeforeDays != nil {
		if *input.NotifyBeforeDays < 0 {
			return nil, apperror.ValidationError("notifyBeforeDays", "notifyBeforeDays cannot be negative")
		}
		notifyBefore = *input.NotifyBeforeDays
	}
	autoExecute := true
	if input.AutoExecute != nil {
		autoExecute = *input.AutoExecute
	}

	account, err := s.accounts.GetByID(ctx, input.AccountID)
	if errors.Is(err, repository.ErrAccountNotFound) || (err == nil && account.UserID != userID) {
		return nil, apperror.ValidationError("accountId", "account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", input.AccountID, err)
	}

	cur := strings.ToUpper(strings.TrimSpace(input.Currency))
	if cur == "" {
		cur = account.Currency
	}

	rule := &model.RecurringRule{
		UserID:              userID,
		AccountID:           account.ID,
		Type:                txType,
		Amount:              input.Amount,
		Currency:            cur,
		Description:         strings.TrimSpace(input.Description),
		Category:            strings.TrimSpace(input.Category),
		Frequency:           interval,
		StartDate:           input.StartDate.Time,
		EndDate:             input.EndDate.Ptr(),
		NextDueDate:         input.StartDate.Time,
		IsActive:            true,
		AutoExecute:         autoExecute,
		NotifyBeforeDays:    notifyBefore,
		LastExecutionStatus: model.ExecutionStatusPending,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("creating recurring rule: %w", err)
	}

	s.logger.Info("recurring rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("interval", string(rule.Frequency)),
	)
	return rule, nil
}

func (s *RecurringService) List(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error) {
	rules, err := s.rules.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing recurring rules for user %s: %w", userID, err)
	}
	return rules, nil
}

// Get returns the rule if it belongs to the user.
func (s *RecurringService) Get(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if errors.Is(err, repository.ErrRecurringNotFound) {
		return nil, ErrRecurringNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting recurring rule %s: %w", id, err)
	}
	if rule.UserID != userID {
		return nil, ErrRecurringNotFound
	}
	return rule, nil
}

// Update applies user edits. A rule can be deactivated here but only Resume
// brings it back. An edit that races an execution fails with
// ErrConcurrentModification and leaves the rule as the execution wrote it.
func (s *RecurringService) Update(ctx context.Context, userID, id uuid.UUID, input UpdateRecurringInput) (*model.RecurringRule, error) {
	rule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	guard := guardOf(rule)

	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, apperror.ValidationError("amount", "amount must be greater than zero")
		}
		rule.Amount = *input.Amount
	}
	if input.Description != nil {
		rule.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		rule.Category = strings.TrimSpace(*input.Category)
	}
	if input.Interval != nil {
		interval, err := model.ParseFrequency(*input.Interval)
		if err != nil {
			return nil, apperror.ValidationError("interval", "interval must be daily, weekly, biweekly, monthly or yearly")
		}
		rule.Frequency = interval
	}
	if input.EndDate != nil {
		if !input.EndDate.IsZero() && input.EndDate.Before(rule.StartDate) {
			return nil, apperror.ValidationError("endDate", "end date must be on or after the start date")
		}
		rule.EndDate = input.EndDate.Ptr()
	}
	if input.AutoExecute != nil {
		rule.AutoExecute = *input.AutoExecute
	}
	if input.NotifyBeforeDays != nil {
		if *input.NotifyBeforeDays < 0 {
			return nil, apperror.ValidationError("notifyBeforeDays", "notifyBeforeDays cannot be negative")
		}
		if *input.NotifyBeforeDays != rule.NotifyBeforeDays {
			rule.NotificationSent = false
			guard.ResetNotification = true
		}
		rule.NotifyBeforeDays = *input.NotifyBeforeDays
	}
	if input.IsActive != nil {
		if *input.IsActive && !rule.IsActive {
			return nil, apperror.ValidationError("isActive", "use resume to reactivate a rule")
		}
		rule.IsActive = *input.IsActive
	}

	if err := s.save(ctx, rule, guard); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RecurringService) Pause(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error) {
	rule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		return rule, nil
	}
	guard := guardOf(rule)
	rule.IsActive = false
	if err := s.save(ctx, rule, guard); err != nil {
		return nil, err
	}
	return rule, nil
}

// Resume reactivates a paused rule. A rule whose next occurrence is already
// past its end date stays inactive.
func (s *RecurringService) Resume(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error) {
	rule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rule.IsActive {
		return rule, nil
	}
	if rule.EndDate != nil && rule.NextDueDate.After(*rule.EndDate) {
		return nil, apperror.ValidationError("endDate", "rule has passed its end date")
	}
	guard := guardOf(rule)
	rule.IsActive = true
	if err := s.save(ctx, rule, guard); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RecurringService) Toggle(ctx context.Context, userID, id uuid.UUID) (*model.RecurringRule, error) {
	rule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rule.IsActive {
		return s.Pause(ctx, userID, id)
	}
	return s.Resume(ctx, userID, id)
}

func (s *RecurringService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.rules.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrRecurringNotFound) {
		return ErrRecurringNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting recurring rule %s: %w", id, err)
	}
	return nil
}

// Upcoming lists active rules due within the next 30 days.
func (s *RecurringService) Upcoming(ctx context.Context, userID uuid.UUID) ([]model.UpcomingRecurring, error) {
	now := s.clock.Now()
	until := recurrence.Today(now).AddDate(0, 0, upcomingHorizonDays)

	rules, err := s.rules.ListUpcoming(ctx, userID, until, upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming rules for user %s: %w", userID, err)
	}

	upcoming := make([]model.UpcomingRecurring, 0, len(rules))
	for _, r := range rules {
		upcoming = append(upcoming, model.UpcomingRecurring{
			RecurringRule: r,
			DaysUntilDue:  recurrence.DaysUntil(r.NextDueDate, now),
		})
	}
	return upcoming, nil
}

// PendingConfirmation lists due rules that wait for a manual run.
func (s *RecurringService) PendingConfirmation(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error) {
	rules, err := s.rules.ListPendingConfirmation(ctx, userID, recurrence.Today(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("listing pending rules for user %s: %w", userID, err)
	}
	return rules, nil
}

func guardOf(rule *model.RecurringRule) repository.UpdateGuard {
	return repository.UpdateGuard{NextDueDate: rule.NextDueDate, IsActive: rule.IsActive}
}

// save writes an edit only if the schedule is still the one it was read with.
func (s *RecurringService) save(ctx context.Context, rule *model.RecurringRule, guard repository.UpdateGuard) error {
	err := s.rules.Update(ctx, rule, guard)
	if errors.Is(err, repository.ErrRecurringNotFound) {
		return ErrRecurringNotFound
	}
	if errors.Is(err, repository.ErrStaleSchedule) {
		return ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("updating recurring rule %s: %w", rule.ID, err)
	}
	return nil
}
