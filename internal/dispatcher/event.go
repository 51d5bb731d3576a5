package dispatcher

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

// UnknownIdentity replaces a missing sender.
const UnknownIdentity = "unknown"

// RawEvent is an inbound webhook payload before normalisation.
type RawEvent struct {
	MessageSid    string
	From          string
	Body          string
	MessageType   string
	ButtonPayload string
	ButtonText    string
}

// Normalize turns a raw payload into a gate event. It never fails: a missing
// sender becomes UnknownIdentity and a missing body the empty string.
func Normalize(raw RawEvent) gate.Event {
	identity := strings.TrimSpace(raw.From)
	identity = strings.TrimPrefix(identity, "whatsapp:")
	if identity == "" {
		identity = UnknownIdentity
	}

	ev := gate.Event{
		Identity: identity,
		Text:     strings.TrimSpace(raw.Body),
	}

	payload := strings.TrimSpace(raw.ButtonPayload)
	if payload == "" {
		payload = strings.TrimSpace(raw.ButtonText)
	}
	if isInteractiveType(raw.MessageType) || raw.ButtonPayload != "" {
		ev.Interactive = true
		ev.Action = gate.NormalizeAction(payload)
	}
	return ev
}

func isInteractiveType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "interactive", "button":
		return true
	}
	return false
}

// EventID returns the provider message id, or a fresh uuid when absent.
func (r RawEvent) EventID() string {
	if id := strings.TrimSpace(r.MessageSid); id != "" {
		return id
	}
	return uuid.NewString()
}

type eventIDKey struct{}

// WithEventID attaches a correlation id that Dispatch adds to its log records.
func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventIDKey{}, id)
}

func eventIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(eventIDKey{}).(string)
	return id
}
