package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeAPI struct {
	params []*twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	sid := "SM0001"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioService_SendText(t *testing.T) {
	api := &fakeAPI{}
	svc := newTwilioService(api, "+14155238886", nil)

	require.NoError(t, svc.SendText(context.Background(), "+15550001", "hello"))

	require.Len(t, api.params, 1)
	p := api.params[0]
	assert.Equal(t, "whatsapp:+14155238886", *p.From)
	assert.Equal(t, "whatsapp:+15550001", *p.To)
	assert.Equal(t, "hello", *p.Body)
	assert.Nil(t, p.ContentSid)
}

func TestTwilioService_SendTemplate(t *testing.T) {
	api := &fakeAPI{}
	svc := newTwilioService(api, "whatsapp:+14155238886", nil)

	err := svc.SendTemplate(context.Background(), "whatsapp:+15550001", "HX123", map[string]string{"1": "Hi"})
	require.NoError(t, err)

	p := api.params[0]
	assert.Equal(t, "whatsapp:+15550001", *p.To)
	assert.Equal(t, "HX123", *p.ContentSid)
	assert.JSONEq(t, `{"1":"Hi"}`, *p.ContentVariables)
	assert.Nil(t, p.Body)
}

func TestTwilioService_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		svc := newTwilioService(&fakeAPI{err: errors.New("timeout")}, "+1", nil)
		assert.ErrorContains(t, svc.SendText(context.Background(), "+2", "x"), "timeout")
	})

	t.Run("error code in response", func(t *testing.T) {
		code, msg := 63016, "outside the allowed window"
		svc := newTwilioService(&fakeAPI{resp: &twilioApi.ApiV2010Message{ErrorCode: &code, ErrorMessage: &msg}}, "+1", nil)
		assert.ErrorContains(t, svc.SendText(context.Background(), "+2", "x"), "twilio error 63016")
	})

	t.Run("cancelled context", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTwilioService(api, "+1", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, svc.SendText(ctx, "+2", "x"), context.Canceled)
		assert.Empty(t, api.params)
	})
}

func TestNewTwilioService_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioService(TwilioConfig{AccountSID: "AC1"}, nil)
	assert.ErrorIs(t, err, ErrTwilioNotConfigured)

	svc, err := NewTwilioService(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", WhatsAppFrom: "+1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+1", svc.from)
}
