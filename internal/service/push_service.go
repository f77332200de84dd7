package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/model"
)

var ErrVAPIDNotConfigured = errors.New("VAPID keys not configured")

type PushRepositoryInterface interface {
	Save(ctx context.Context, sub *model.PushSubscription) error
	Delete(ctx context.Context, userID uuid.UUID, endpoint string) error
}

type PushService struct {
	repo      PushRepositoryInterface
	publicKey string
}

// NewPushService takes the VAPID public key handed to browsers. An empty key
// disables subscription.
func NewPushService(repo PushRepositoryInterface, publicKey string) *PushService {
	return &PushService{repo: repo, publicKey: publicKey}
}

type SubscribeInput struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	UserAgent string `json:"userAgent"`
}

func (s *PushService) PublicKey() (string, error) {
	if s.publicKey == "" {
		return "", ErrVAPIDNotConfigured
	}
	return s.publicKey, nil
}

// Subscribe creates or refreshes a browser subscription.
func (s *PushService) Subscribe(ctx context.Context, userID uuid.UUID, input SubscribeInput) (*model.PushSubscription, error) {
	if s.publicKey == "" {
		return nil, ErrVAPIDNotConfigured
	}
	endpoint := strings.TrimSpace(input.Endpoint)
	if u, err := url.Parse(endpoint); err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, apperror.ValidationError("endpoint", "endpoint must be an https URL")
	}
	if input.Keys.P256dh == "" || input.Keys.Auth == "" {
		return nil, apperror.ValidationError("keys", "p256dh and auth keys are required")
	}

	sub := &model.PushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    input.Keys.P256dh,
		Auth:      input.Keys.Auth,
		UserAgent: input.UserAgent,
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("saving push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperror.ValidationError("endpoint", "endpoint is required")
	}
	if err := s.repo.Delete(ctx, userID, endpoint); err != nil {
		return fmt.Errorf("deleting push subscription: %w", err)
	}
	return nil
}
