package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepositoryInterface defines the contract for user data access.
// Implementations must be safe for concurrent use.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateAlertSettings(ctx context.Context, user *model.User) error
}

// UserService exposes the profile and the per-channel alert opt-outs.
// Accounts are issued elsewhere; this service only reads and edits them.
type UserService struct {
	repo               UserRepositoryInterface
	defaultCountryCode string
}

func NewUserService(repo UserRepositoryInterface, defaultCountryCode string) *UserService {
	return &UserService{repo: repo, defaultCountryCode: defaultCountryCode}
}

type AlertSettingsInput struct {
	Phone         *string `json:"phone"`
	AlertEmail    *bool   `json:"alertEmail"`
	AlertWhatsApp *bool   `json:"alertWhatsApp"`
	AlertPush     *bool   `json:"alertPush"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateAlertSettings stores the opt-outs. The phone number is normalised to
// E.164 and is required before WhatsApp alerts can be switched on.
func (s *UserService) UpdateAlertSettings(ctx context.Context, userID uuid.UUID, input AlertSettingsInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Phone != nil {
		raw := strings.TrimSpace(*input.Phone)
		if raw == "" {
			user.Phone = nil
		} else {
			phone := notify.NormalizePhone(raw, s.defaultCountryCode)
			if len(phone) < 9 {
				return nil, apperror.ValidationError("phone", "phone number is too short")
			}
			user.Phone = &phone
		}
	}
	if input.AlertEmail != nil {
		user.AlertEmail = *input.AlertEmail
	}
	if input.AlertWhatsApp != nil {
		user.AlertWhatsApp = *input.AlertWhatsApp
	}
	if input.AlertPush != nil {
		user.AlertPush = *input.AlertPush
	}
	if user.AlertWhatsApp && (user.Phone == nil || *user.Phone == "") {
		return nil, apperror.ValidationError("phone", "a phone number is required for WhatsApp alerts")
	}

	if err := s.repo.UpdateAlertSettings(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating alert settings for user %s: %w", userID, err)
	}
	return user, nil
}
