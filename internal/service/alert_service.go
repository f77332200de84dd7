package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/model"
)

const maxAlertHistory = 100

type AlertRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Alert, error)
}

// AlertView is an alert history entry with its delivery channels expanded.
type AlertView struct {
	ID        uuid.UUID       `json:"id"`
	Type      model.AlertType `json:"type"`
	Message   string          `json:"message"`
	SentVia   []string        `json:"sentVia"`
	CreatedAt time.Time       `json:"createdAt"`
}

type AlertService struct {
	repo AlertRepositoryInterface
}

func NewAlertService(repo AlertRepositoryInterface) *AlertService {
	return &AlertService{repo: repo}
}

// List returns the user's most recent alerts, newest first.
func (s *AlertService) List(ctx context.Context, userID uuid.UUID, limit int) ([]AlertView, error) {
	if limit <= 0 || limit > maxAlertHistory {
		limit = maxAlertHistory
	}
	alerts, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing alerts for user %s: %w", userID, err)
	}

	views := make([]AlertView, 0, len(alerts))
	for i := range alerts {
		a := &alerts[i]
		views = append(views, AlertView{
			ID:        a.ID,
			Type:      a.Type,
			Message:   a.Message,
			SentVia:   a.Channels(),
			CreatedAt: a.CreatedAt,
		})
	}
	return views, nil
}
