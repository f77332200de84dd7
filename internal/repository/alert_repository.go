package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wealthapp/backend/internal/model"
)

// AlertRepository stores the history of threshold alerts and monthly reports.
type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, type, message, sent_via, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`

	alert.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.UserID, alert.Type, alert.Message, alert.SentVia,
	).Scan(&alert.CreatedAt)
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []model.Alert
	query := `SELECT * FROM alerts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	err := r.db.SelectContext(ctx, &alerts, query, userID, limit)
	return alerts, err
}
