package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// ErrTwilioNotConfigured is returned when credentials are missing.
var ErrTwilioNotConfigured = errors.New("missing Twilio credentials")

// TwilioConfig holds the Twilio account used for outbound messages.
type TwilioConfig struct {
	AccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	WhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"` // whatsapp:+14155238886
}

// Configured reports whether every credential is present.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.WhatsAppFrom != ""
}

// messageCreator is the part of the Twilio REST API we use.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService sends WhatsApp messages through the Twilio Messages API.
type TwilioService struct {
	api  messageCreator
	from string
	log  *slog.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg TwilioConfig, log *slog.Logger) (*TwilioService, error) {
	if !cfg.Configured() {
		return nil, ErrTwilioNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioService(client.Api, cfg.WhatsAppFrom, log), nil
}

func newTwilioService(api messageCreator, from string, log *slog.Logger) *TwilioService {
	if log == nil {
		log = logger.Discard()
	}
	return &TwilioService{api: api, from: whatsAppAddress(from), log: log.With(logger.Component("twilio"))}
}

// SendText sends a free-form WhatsApp message.
func (t *TwilioService) SendText(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	return t.create(ctx, to, params)
}

// SendTemplate sends a Content API template. vars are keyed by position ("1", "2", ...).
func (t *TwilioService) SendTemplate(ctx context.Context, to, contentSID string, vars map[string]string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetContentSid(contentSID)

	// SetContentVariables expects a JSON string
	if len(vars) > 0 {
		variablesJSON, err := json.Marshal(vars)
		if err != nil {
			return fmt.Errorf("failed to marshal content variables: %w", err)
		}
		params.SetContentVariables(string(variablesJSON))
	}
	return t.create(ctx, to, params)
}

func (t *TwilioService) create(ctx context.Context, to string, params *twilioApi.CreateMessageParams) error {
	// the SDK call takes no context; do not start a send for a finished request
	if err := ctx.Err(); err != nil {
		return err
	}
	params.SetFrom(t.from)
	params.SetTo(whatsAppAddress(to))

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Debug("whatsapp message sent", slog.String("sid", sid), logger.Identity(to))
	return nil
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
