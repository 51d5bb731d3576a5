package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cataloguebot/whatsapp-gate/internal/dispatcher"
	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// TwiMLAck is the empty TwiML document returned for every handled event.
const TwiMLAck = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev gate.Event) (dispatcher.Outcome, error)
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	dispatcher eventDispatcher
	log        *slog.Logger
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(d eventDispatcher, log *slog.Logger) *WhatsAppHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &WhatsAppHandler{dispatcher: d, log: log.With(logger.Component("webhook"))}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio.
// The json names are accepted for direct (non-Twilio) callers.
type TwilioWebhookPayload struct {
	MessageSid    string `form:"MessageSid" json:"message_sid"`
	From          string `form:"From" json:"from"` // whatsapp:+919876543210
	To            string `form:"To" json:"to"`
	Body          string `form:"Body" json:"body"`
	MessageType   string `form:"MessageType" json:"message_type"`
	ButtonPayload string `form:"ButtonPayload" json:"button_payload"`
	ButtonText    string `form:"ButtonText" json:"button_text"`
}

// raw copies every field: BodyParser strings point into the request buffer,
// which fiber reuses once the handler returns.
func (p TwilioWebhookPayload) raw() dispatcher.RawEvent {
	return dispatcher.RawEvent{
		MessageSid:    strings.Clone(p.MessageSid),
		From:          strings.Clone(p.From),
		Body:          strings.Clone(p.Body),
		MessageType:   strings.Clone(p.MessageType),
		ButtonPayload: strings.Clone(p.ButtonPayload),
		ButtonText:    strings.Clone(p.ButtonText),
	}
}

// parse never fails; an unreadable body is handled as an empty event.
func (h *WhatsAppHandler) parse(c *fiber.Ctx) dispatcher.RawEvent {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.log.Warn("unparseable webhook payload", logger.Error(err))
		return dispatcher.RawEvent{}
	}
	return payload.raw()
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	raw := h.parse(c)
	ev := dispatcher.Normalize(raw)
	ctx := dispatcher.WithEventID(c.UserContext(), raw.EventID())

	if _, err := h.dispatcher.Dispatch(ctx, ev); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session store unavailable")
	}

	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.SendString(TwiMLAck)
}

// HandleTestWebhook runs an event and returns the outcome as JSON (development only).
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	raw := h.parse(c)
	ev := dispatcher.Normalize(raw)

	out, err := h.dispatcher.Dispatch(dispatcher.WithEventID(c.UserContext(), raw.EventID()), ev)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session store unavailable")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"identity": ev.Identity,
		"rule":     out.Rule,
		"state":    out.State,
		"sent":     out.Sent,
		"searched": out.Searched,
		"failures": out.Failures,
	})
}
