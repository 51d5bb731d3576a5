package dispatcher_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cataloguebot/whatsapp-gate/internal/dispatcher"
	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  dispatcher.RawEvent
		want gate.Event
	}{
		{
			name: "empty payload",
			raw:  dispatcher.RawEvent{},
			want: gate.Event{Identity: dispatcher.UnknownIdentity},
		},
		{
			name: "text message",
			raw:  dispatcher.RawEvent{From: "whatsapp:+15550001", Body: "  brake pads "},
			want: gate.Event{Identity: "+15550001", Text: "brake pads"},
		},
		{
			name: "button payload",
			raw:  dispatcher.RawEvent{From: "+15550001", Body: "Pause forever", MessageType: "button", ButtonPayload: "PAUSE_FOREVER"},
			want: gate.Event{Identity: "+15550001", Text: "Pause forever", Interactive: true, Action: gate.ActionPauseForever},
		},
		{
			name: "button text fallback",
			raw:  dispatcher.RawEvent{From: "+15550001", MessageType: "interactive", ButtonText: "Start search"},
			want: gate.Event{Identity: "+15550001", Interactive: true, Action: gate.ActionStartSearch},
		},
		{
			name: "payload without type",
			raw:  dispatcher.RawEvent{From: "+15550001", ButtonPayload: "resume"},
			want: gate.Event{Identity: "+15550001", Interactive: true, Action: gate.ActionResume},
		},
		{
			name: "whitespace sender",
			raw:  dispatcher.RawEvent{From: "   ", Body: "hi"},
			want: gate.Event{Identity: dispatcher.UnknownIdentity, Text: "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dispatcher.Normalize(tt.raw))
		})
	}
}

func TestRawEvent_EventID(t *testing.T) {
	assert.Equal(t, "SM42", dispatcher.RawEvent{MessageSid: "SM42"}.EventID())

	_, err := uuid.Parse(dispatcher.RawEvent{}.EventID())
	assert.NoError(t, err)
}
