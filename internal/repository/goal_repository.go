package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
)

var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrGoalNotActive = errors.New("goal is not in progress")
)

type GoalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create inserts the goal and its milestones in one database transaction.
func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning goal insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	goal.ID = uuid.New()
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO goals (id, user_id, account_id, name, description, category, target_amount, current_amount,
			currency, deadline, status, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at`,
		goal.ID, goal.UserID, goal.AccountID, goal.Name, goal.Description, goal.Category, goal.TargetAmount,
		goal.CurrentAmount, goal.Currency, goal.Deadline, goal.Status, goal.CompletedAt,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range goal.Milestones {
		m := &goal.Milestones[i]
		m.GoalID = goal.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goal_milestones (goal_id, percentage, reached, reached_at) VALUES ($1, $2, $3, $4)`,
			m.GoalID, m.Percentage, m.Reached, m.ReachedAt,
		); err != nil {
			return fmt.Errorf("inserting milestone %d: %w", m.Percentage, err)
		}
	}

	return tx.Commit()
}

func (r *GoalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	var goal model.Goal
	err := r.db.GetContext(ctx, &goal, `SELECT * FROM goals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &goal.Milestones,
		`SELECT * FROM goal_milestones WHERE goal_id = $1 ORDER BY percentage`, id)
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.SelectContext(ctx, &goals,
		`SELECT * FROM goals WHERE user_id = $1 ORDER BY status, deadline ASC NULLS LAST, created_at`, userID)
	if err != nil || len(goals) == 0 {
		return goals, err
	}

	ids := make([]string, len(goals))
	index := make(map[uuid.UUID]int, len(goals))
	for i, g := range goals {
		ids[i] = g.ID.String()
		index[g.ID] = i
	}

	var milestones []model.Milestone
	err = r.db.SelectContext(ctx, &milestones,
		`SELECT * FROM goal_milestones WHERE goal_id = ANY($1::uuid[]) ORDER BY goal_id, percentage`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		i := index[m.GoalID]
		goals[i].Milestones = append(goals[i].Milestones, m)
	}
	return goals, nil
}

// AddContribution atomically increments current_amount of an in-progress goal
// and returns the updated row without milestones.
func (r *GoalRepository) AddContribution(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Goal, error) {
	query := `
		UPDATE goals SET current_amount = current_amount + $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'in_progress'
		RETURNING *`

	var goal model.Goal
	err := r.db.QueryRowxContext(ctx, query, id, userID, amount).StructScan(&goal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotActive
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// ReachMilestone marks the milestone reached and reports whether this call
// made the transition.
func (r *GoalRepository) ReachMilestone(ctx context.Context, goalID uuid.UUID, percentage int, at time.Time) (bool, error) {
	query := `
		UPDATE goal_milestones SET reached = true, reached_at = $3
		WHERE goal_id = $1 AND percentage = $2 AND reached = false`
	return execClaimed(ctx, r.db, query, goalID, percentage, at)
}

// MarkCompleted moves an in-progress goal to completed exactly once.
func (r *GoalRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE goals SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'`
	return execClaimed(ctx, r.db, query, id, at)
}

func (r *GoalRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func execClaimed(ctx context.Context, db *sqlx.DB, query string, args ...any) (bool, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
