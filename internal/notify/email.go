package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/model"
)

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type EmailSender struct {
	cfg       config.SMTPConfig
	newClient func() (mailClient, error)
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	s := &EmailSender{cfg: cfg}
	s.newClient = s.dialer
	return s
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

// dialer upgrades to TLS when the server offers it and authenticates only
// when a user is configured.
func (s *EmailSender) dialer() (mailClient, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

func (s *EmailSender) Send(ctx context.Context, user *model.User, msg Message) error {
	if s.cfg.Host == "" {
		return ErrNotConfigured
	}
	if user.Email == "" {
		return ErrNoRecipient
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return Permanent(fmt.Errorf("sender address: %w", err))
	}
	if err := m.To(user.Email); err != nil {
		return Permanent(fmt.Errorf("recipient address: %w", err))
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := s.newClient()
	if err != nil {
		return Permanent(fmt.Errorf("smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
