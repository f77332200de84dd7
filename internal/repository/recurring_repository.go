package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wealthapp/backend/internal/model"
)

var (
	ErrRecurringNotFound = errors.New("recurring rule not found")

	// ErrStaleSchedule is returned when a rule's next_due_date or is_active moved between
	// the read and the write, e.g. another execution already advanced it.
	ErrStaleSchedule = errors.New("recurring rule schedule changed concurrently")
)

type RecurringRepository struct {
	db *sqlx.DB
}

func NewRecurringRepository(db *sqlx.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, rule *model.RecurringRule) error {
	query := `
		INSERT INTO recurring_rules (id, user_id, account_id, type, amount, currency, description, category,
			frequency, start_date, end_date, next_due_date, is_active, auto_execute, notify_before_days,
			notification_sent, total_executions, last_execution_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING created_at, updated_at`

	rule.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		rule.ID, rule.UserID, rule.AccountID, rule.Type, rule.Amount, rule.Currency, rule.Description, rule.Category,
		rule.Frequency, rule.StartDate, rule.EndDate, rule.NextDueDate, rule.IsActive, rule.AutoExecute,
		rule.NotifyBeforeDays, rule.NotificationSent, rule.TotalExecutions, rule.LastExecutionStatus,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
}

func (r *RecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringRule, error) {
	var rule model.RecurringRule
	query := `SELECT * FROM recurring_rules WHERE id = $1`
	err := r.db.GetContext(ctx, &rule, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecurringNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RecurringRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	query := `SELECT * FROM recurring_rules WHERE user_id = $1 ORDER BY is_active DESC, next_due_date ASC`
	err := r.db.SelectContext(ctx, &rules, query, userID)
	return rules, err
}

// UpdateGuard pins an edit to the schedule state it was read with.
type UpdateGuard struct {
	NextDueDate time.Time
	IsActive    bool
	// ResetNotification re-arms the reminder for the current occurrence.
	ResetNotification bool
}

// Update persists user edits. It never touches execution metadata and only
// applies while next_due_date and is_active still match guard; otherwise it
// returns ErrStaleSchedule.
func (r *RecurringRepository) Update(ctx context.Context, rule *model.RecurringRule, guard UpdateGuard) error {
	query := `
		UPDATE recurring_rules
		SET amount = $2, description = $3, category = $4, frequency = $5, end_date = $6,
			is_active = $7, auto_execute = $8, notify_before_days = $9,
			notification_sent = CASE WHEN $10 THEN false ELSE notification_sent END,
			updated_at = NOW()
		WHERE id = $1 AND next_due_date = $11 AND is_active = $12
		RETURNING notification_sent, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		rule.ID, rule.Amount, rule.Description, rule.Category, rule.Frequency, rule.EndDate,
		rule.IsActive, rule.AutoExecute, rule.NotifyBeforeDays, guard.ResetNotification,
		guard.NextDueDate, guard.IsActive,
	).Scan(&rule.NotificationSent, &rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missingOrStale(ctx, rule.ID)
	}
	return err
}

func (r *RecurringRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM recurring_rules WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return ErrRecurringNotFound
	}
	return ErrStaleSchedule
}

func (r *RecurringRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM recurring_rules WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecurringNotFound
	}
	return nil
}

// ListDue returns auto-executing active rules whose next occurrence has
// arrived and still lies within the rule's end date.
func (r *RecurringRepository) ListDue(ctx context.Context, now time.Time) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	query := `
		SELECT * FROM recurring_rules
		WHERE is_active = true
			AND auto_execute = true
			AND next_due_date <= $1
			AND (end_date IS NULL OR next_due_date <= end_date)
		ORDER BY next_due_date ASC`
	err := r.db.SelectContext(ctx, &rules, query, now)
	return rules, err
}

// ListReminderCandidates returns active, not yet notified rules due between
// dayStart and a few days past each rule's lead time. Callers narrow the
// result with the exact reminder window.
func (r *RecurringRepository) ListReminderCandidates(ctx context.Context, dayStart time.Time) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	query := `
		SELECT * FROM recurring_rules
		WHERE is_active = true
			AND notification_sent = false
			AND next_due_date >= $1
			AND next_due_date < $1 + make_interval(days => GREATEST(notify_before_days, 1) + 2)
		ORDER BY next_due_date ASC`
	err := r.db.SelectContext(ctx, &rules, query, dayStart)
	return rules, err
}

// ListUpcoming returns the user's active rules due on or before until.
func (r *RecurringRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, until time.Time, limit int) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	query := `
		SELECT * FROM recurring_rules
		WHERE user_id = $1 AND is_active = true AND next_due_date <= $2
		ORDER BY next_due_date ASC
		LIMIT $3`
	err := r.db.SelectContext(ctx, &rules, query, userID, until, limit)
	return rules, err
}

// ListPendingConfirmation returns due rules that wait for a manual run.
func (r *RecurringRepository) ListPendingConfirmation(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	query := `
		SELECT * FROM recurring_rules
		WHERE user_id = $1 AND is_active = true AND auto_execute = false AND next_due_date <= $2
		ORDER BY next_due_date ASC`
	err := r.db.SelectContext(ctx, &rules, query, userID, now)
	return rules, err
}

// SaveExecution records a successful run. The write only applies while
// next_due_date still equals expectedDue; otherwise ErrStaleSchedule.
func (r *RecurringRepository) SaveExecution(ctx context.Context, rule *model.RecurringRule, expectedDue time.Time) error {
	query := `
		UPDATE recurring_rules
		SET next_due_date = $3, last_processed_date = $4, total_executions = $5,
			last_execution_status = $6, notification_sent = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1 AND next_due_date = $2
		RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		rule.ID, expectedDue, rule.NextDueDate, rule.LastProcessedDate, rule.TotalExecutions,
		rule.LastExecutionStatus, rule.NotificationSent, rule.IsActive,
	).Scan(&rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStaleSchedule
	}
	return err
}

// MarkFailed sets last_execution_status without touching the schedule.
func (r *RecurringRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE recurring_rules SET last_execution_status = 'failed', updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecurringNotFound
	}
	return nil
}

// MarkNotified flags the reminder for the occurrence at dueDate as sent.
// It reports false when the rule has since moved to another cycle.
func (r *RecurringRepository) MarkNotified(ctx context.Context, id uuid.UUID, dueDate time.Time) (bool, error) {
	query := `
		UPDATE recurring_rules SET notification_sent = true, updated_at = NOW()
		WHERE id = $1 AND next_due_date = $2 AND notification_sent = false`
	result, err := r.db.ExecContext(ctx, query, id, dueDate)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
