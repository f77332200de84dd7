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
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

// GoalRepositoryInterface defines the contract for goal data access.
// Implementations must be safe for concurrent use.
type GoalRepositoryInterface interface {
	Create(ctx context.Context, goal *model.Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	AddContribution(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Goal, error)
	ReachMilestone(ctx context.Context, goalID uuid.UUID, percentage int, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// GoalService tracks savings goals. Milestones and completion are one-way
// transitions; whichever contribution wins the transition sends the notice.
type GoalService struct {
	repo     GoalRepositoryInterface
	users    UserGetter
	notifier notify.Notifier
	clock    Clock
	logger   *slog.Logger
}

func NewGoalService(repo GoalRepositoryInterface, users UserGetter, notifier notify.Notifier, clock Clock, logger *slog.Logger) *GoalService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalService{repo: repo, users: users, notifier: notifier, clock: clock, logger: logger}
}

type CreateGoalInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	AccountID     *uuid.UUID      `json:"accountId"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Currency      string          `json:"currency"`
	Deadline      datetime.Date   `json:"deadline"`
}

type ContributeInput struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *GoalService) Create(ctx context.Context, userID uuid.UUID, input CreateGoalInput) (*model.Goal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationError("name", "name is required")
	}
	if !input.TargetAmount.IsPositive() {
		return nil, apperror.ValidationError("targetAmount", "target amount must be greater than zero")
	}
	if input.CurrentAmount.IsNegative() {
		return nil, apperror.ValidationError("currentAmount", "current amount cannot be negative")
	}
	if !currency.IsValid(input.Currency) {
		return nil, apperror.ValidationError("currency", "currency must be a 3-letter code")
	}

	now := s.clock.Now()
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "Other"
	}
	goal := &model.Goal{
		UserID:        userID,
		AccountID:     input.AccountID,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Category:      category,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		Currency:      string(currency.Normalize(input.Currency)),
		Deadline:      input.Deadline.Ptr(),
		Status:        model.GoalStatusInProgress,
	}

	progress := goal.Progress()
	goal.Milestones = make([]model.Milestone, 0, len(model.MilestonePercentages))
	for _, p := range model.MilestonePercentages {
		m := model.Milestone{Percentage: p}
		if progress.GreaterThanOrEqual(decimal.NewFromInt(int64(p))) {
			m.Reached = true
			m.ReachedAt = &now
		}
		goal.Milestones = append(goal.Milestones, m)
	}
	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = model.GoalStatusCompleted
		goal.CompletedAt = &now
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("creating goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	goals, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing goals for user %s: %w", userID, err)
	}
	return goals, nil
}

// Get returns the goal if it belongs to the user.
func (s *GoalService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting goal %s: %w", id, err)
	}
	if goal.UserID != userID {
		return nil, ErrGoalNotFound
	}
	return goal, nil
}

// Contribute adds amount to an in-progress goal, then fires any milestone
// and completion notices the new total unlocks.
func (s *GoalService) Contribute(ctx context.Context, userID, id uuid.UUID, input ContributeInput) (*model.Goal, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.ValidationError("amount", "amount must be greater than zero")
	}

	before, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if before.Status != model.GoalStatusInProgress {
		return nil, ErrGoalNotActive
	}

	updated, err := s.repo.AddContribution(ctx, id, userID, input.Amount)
	if errors.Is(err, repository.ErrGoalNotActive) {
		return nil, ErrGoalNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("adding contribution to goal %s: %w", id, err)
	}

	now := s.clock.Now()
	progress := updated.Progress()
	for _, m := range before.Milestones {
		if m.Reached || progress.LessThan(decimal.NewFromInt(int64(m.Percentage))) {
			continue
		}
		claimed, err := s.repo.ReachMilestone(ctx, id, m.Percentage, now)
		if err != nil {
			return nil, fmt.Errorf("marking milestone %d%% of goal %s: %w", m.Percentage, id, err)
		}
		if claimed {
			s.send(ctx, updated, milestoneMessage(updated, m.Percentage))
		}
	}

	if updated.CurrentAmount.GreaterThanOrEqual(updated.TargetAmount) {
		claimed, err := s.repo.MarkCompleted(ctx, id, now)
		if err != nil {
			return nil, fmt.Errorf("completing goal %s: %w", id, err)
		}
		if claimed {
			s.send(ctx, updated, goalCompletedMessage(updated))
		}
	}

	return s.Get(ctx, userID, id)
}

func (s *GoalService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return ErrGoalNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting goal %s: %w", id, err)
	}
	return nil
}

// send delivers a goal notice. Failures are logged only; the transition it
// announces has already been recorded.
func (s *GoalService) send(ctx context.Context, goal *model.Goal, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	log := logger.Enrich(ctx, s.logger).With(slog.String("goal_id", goal.ID.String()))

	user, err := s.users.GetByID(ctx, goal.UserID)
	if err != nil {
		log.Warn("goal notice skipped", slog.String("error", err.Error()))
		return
	}
	if _, err := s.notifier.Notify(ctx, user, msg); err != nil {
		log.Warn("goal notice not delivered", slog.String("error", err.Error()))
	}
}
