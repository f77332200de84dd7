// Package notify delivers alert text to users over email, WhatsApp and web
// push. Callers hand a user and a message to a Dispatcher; opt-out settings on
// the user decide which channels are attempted.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/wealthapp/backend/internal/model"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPush     Channel = "push"
)

var (
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrNoRecipient means the user has no address for a channel (no phone,
	// no push subscription). The channel is skipped rather than failed.
	ErrNoRecipient   = errors.New("no recipient for channel")
	ErrNotConfigured = errors.New("channel not configured")
)

type Message struct {
	Subject string
	Body    string
	// Tag groups push notifications on the device, e.g. "budget-<id>".
	Tag string
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, user *model.User, msg Message) error
}

// DeliveryError is returned when every attempted channel failed.
type DeliveryError struct {
	Failures map[Channel]error
}

func (e *DeliveryError) Error() string {
	channels := make([]string, 0, len(e.Failures))
	for ch := range e.Failures {
		channels = append(channels, string(ch))
	}
	sort.Strings(channels)

	parts := make([]string, 0, len(channels))
	for _, ch := range channels {
		parts = append(parts, fmt.Sprintf("%s: %v", ch, e.Failures[Channel(ch)]))
	}
	return fmt.Sprintf("%v (%s)", ErrDeliveryFailed, strings.Join(parts, "; "))
}

func (e *DeliveryError) Unwrap() error {
	return ErrDeliveryFailed
}

// Notifier is what the services depend on.
type Notifier interface {
	Notify(ctx context.Context, user *model.User, msg Message) ([]Channel, error)
}

type Dispatcher struct {
	senders []Sender
	timeout time.Duration
	retry   RetryConfig
	logger  *slog.Logger
}

type DispatcherConfig struct {
	Timeout     time.Duration // per channel, covering all retries
	MaxAttempts int
}

func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	retry := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Dispatcher{
		senders: senders,
		timeout: cfg.Timeout,
		retry:   retry,
		logger:  logger,
	}
}

// Notify sends msg on every channel the user has opted into and returns the
// channels that accepted it. An error is returned only when at least one
// channel was attempted and all of them failed.
func (d *Dispatcher) Notify(ctx context.Context, user *model.User, msg Message) ([]Channel, error) {
	sent := []Channel{}
	failures := map[Channel]error{}

	for _, s := range d.senders {
		ch := s.Channel()
		if !OptedIn(user, ch) {
			continue
		}

		err := d.sendOne(ctx, s, user, msg)
		switch {
		case err == nil:
			sent = append(sent, ch)
		case errors.Is(err, ErrNoRecipient), errors.Is(err, ErrNotConfigured):
			d.logger.Debug("channel skipped",
				slog.String("channel", string(ch)),
				slog.String("user_id", user.ID.String()),
				slog.String("reason", err.Error()),
			)
		default:
			failures[ch] = err
			d.logger.Warn("notification delivery failed",
				slog.String("channel", string(ch)),
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(sent) == 0 && len(failures) > 0 {
		return sent, &DeliveryError{Failures: failures}
	}
	return sent, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, s Sender, user *model.User, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return WithRetry(ctx, d.retry, d.logger, func() error {
		return s.Send(ctx, user, msg)
	})
}

// OptedIn reports whether the user accepts alerts on ch.
func OptedIn(user *model.User, ch Channel) bool {
	if user == nil {
		return false
	}
	switch ch {
	case ChannelEmail:
		return user.AlertEmail && user.Email != ""
	case ChannelWhatsApp:
		return user.AlertWhatsApp && user.Phone != nil && *user.Phone != ""
	case ChannelPush:
		return user.AlertPush
	}
	return false
}

// JoinChannels renders channels the way alert history stores them.
func JoinChannels(chs []Channel) string {
	parts := make([]string, len(chs))
	for i, ch := range chs {
		parts[i] = string(ch)
	}
	return strings.Join(parts, ",")
}
