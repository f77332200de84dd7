package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/model"
)

// WhatsAppSender delivers messages through the Twilio Messages API.
type WhatsAppSender struct {
	cfg                config.TwilioConfig
	defaultCountryCode string
	api                *openapi.ApiService
}

func NewWhatsAppSender(cfg config.TwilioConfig, defaultCountryCode string) *WhatsAppSender {
	return newWhatsAppSender(cfg, defaultCountryCode, &http.Client{Timeout: 15 * time.Second})
}

func newWhatsAppSender(cfg config.TwilioConfig, defaultCountryCode string, httpClient *http.Client) *WhatsAppSender {
	c := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(cfg.AccountSID)

	return &WhatsAppSender{
		cfg:                cfg,
		defaultCountryCode: defaultCountryCode,
		api:                twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}).Api,
	}
}

func (s *WhatsAppSender) Channel() Channel { return ChannelWhatsApp }

func (s *WhatsAppSender) Send(ctx context.Context, user *model.User, msg Message) error {
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" || s.cfg.WhatsAppFrom == "" {
		return ErrNotConfigured
	}
	if user.Phone == nil {
		return ErrNoRecipient
	}
	to := NormalizePhone(*user.Phone, s.defaultCountryCode)
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(withWhatsAppPrefix(s.cfg.WhatsAppFrom))
	params.SetTo("whatsapp:" + to)
	params.SetBody(msg.Body)

	if _, err := s.api.CreateMessage(params); err != nil {
		return classifyTwilioError(err)
	}
	return nil
}

// classifyTwilioError keeps 429 and 5xx retryable. Any other 4xx fails the
// same way again and is marked permanent.
func classifyTwilioError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("twilio request: %w", err)
	}
	wrapped := fmt.Errorf("twilio status %d: code %d: %s", restErr.Status, restErr.Code, restErr.Message)
	if restErr.Status == http.StatusTooManyRequests || restErr.Status >= 500 {
		return wrapped
	}
	return Permanent(wrapped)
}

func withWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
