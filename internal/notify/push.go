package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/model"
)

// SubscriptionStore is the slice of the push repository the sender needs.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// PushSender delivers Web Push notifications to every browser the user
// subscribed. Subscriptions the push service reports as gone are removed.
type PushSender struct {
	cfg    config.VAPIDConfig
	store  SubscriptionStore
	client webpush.HTTPClient
	logger *slog.Logger
}

func NewPushSender(cfg config.VAPIDConfig, store SubscriptionStore, logger *slog.Logger) *PushSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSender{cfg: cfg, store: store, client: http.DefaultClient, logger: logger}
}

func (s *PushSender) Channel() Channel { return ChannelPush }

func (s *PushSender) IsConfigured() bool {
	return s.cfg.PublicKey != "" && s.cfg.PrivateKey != ""
}

// PublicKey is handed to browsers when they subscribe.
func (s *PushSender) PublicKey() string {
	return s.cfg.PublicKey
}

func (s *PushSender) Send(ctx context.Context, user *model.User, msg Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	subs, err := s.store.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return ErrNoRecipient
	}

	payload, err := json.Marshal(pushPayload{Title: msg.Subject, Body: msg.Body, Tag: msg.Tag})
	if err != nil {
		return Permanent(err)
	}

	delivered := 0
	var errs []error
	for _, sub := range subs {
		ok, err := s.sendOne(ctx, payload, sub)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			delivered++
		}
	}

	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		// Every subscription was stale and has been removed.
		return ErrNoRecipient
	}
	return errors.Join(errs...)
}

func (s *PushSender) sendOne(ctx context.Context, payload []byte, sub model.PushSubscription) (bool, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             86400,
	})
	if err != nil {
		return false, fmt.Errorf("push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if err := s.store.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
			s.logger.Warn("failed to remove stale push subscription",
				slog.String("endpoint", sub.Endpoint),
				slog.String("error", err.Error()),
			)
		}
		return false, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("push to %s: status %d", sub.Endpoint, resp.StatusCode)
	}
	return true, nil
}
