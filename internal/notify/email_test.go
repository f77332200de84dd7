package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/model"
)

type captureMail struct {
	msgs []*mail.Msg
	err  error
}

func (c *captureMail) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	c.msgs = append(c.msgs, messages...)
	return c.err
}

func newCapturingEmailSender(cfg config.SMTPConfig, sendErr error) (*EmailSender, *captureMail) {
	capture := &captureMail{err: sendErr}
	s := NewEmailSender(cfg)
	s.newClient = func() (mailClient, error) { return capture, nil }
	return s, capture
}

func TestEmailSender_Send(t *testing.T) {
	t.Parallel()

	s, capture := newCapturingEmailSender(config.SMTPConfig{
		Host: "smtp.example.com", Port: 587, User: "u", Password: "p", From: "alerts@wealthapp.local",
	}, nil)

	err := s.Send(context.Background(), testUser(), Message{Subject: "Wealth App: 50% Milestone", Body: "line one\nline two"})
	require.NoError(t, err)
	require.Len(t, capture.msgs, 1)

	var buf bytes.Buffer
	_, err = capture.msgs[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "From: <alerts@wealthapp.local>")
	assert.Contains(t, raw, "To: <asha@example.com>")
	assert.Contains(t, raw, "Subject: Wealth App: 50% Milestone")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "line one")
	assert.Contains(t, raw, "line two")
}

func TestEmailSender_DialerBuildsClient(t *testing.T) {
	t.Parallel()

	s := NewEmailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 2525, User: "u", Password: "p"})
	client, err := s.dialer()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestEmailSender_NotConfigured(t *testing.T) {
	t.Parallel()

	s := NewEmailSender(config.SMTPConfig{})
	assert.ErrorIs(t, s.Send(context.Background(), testUser(), Message{}), ErrNotConfigured)

	s = NewEmailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 25})
	assert.ErrorIs(t, s.Send(context.Background(), &model.User{}, Message{}), ErrNoRecipient)
}

func TestEmailSender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		from          string
		sendErr       error
		wantRetryable bool
		wantSent      bool
	}{
		{name: "server unavailable", from: "alerts@wealthapp.local", sendErr: errors.New("421 service not available"), wantRetryable: true, wantSent: true},
		{name: "malformed sender", from: "not an address", wantRetryable: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, capture := newCapturingEmailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 25, From: tt.from}, tt.sendErr)

			err := s.Send(context.Background(), testUser(), Message{Subject: "x", Body: "y"})
			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, IsRetryable(err))
			assert.Equal(t, tt.wantSent, len(capture.msgs) == 1)
		})
	}
}
