package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "12345"

// sign computes the X-Twilio-Signature value for a form POST.
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := fullURL
	for _, k := range keys {
		data += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newApp(cfg SignatureConfig) *fiber.App {
	app := fiber.New()
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func post(t *testing.T, app *fiber.App, target string, form url.Values, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestValidateTwilioSignature(t *testing.T) {
	form := url.Values{"From": {"whatsapp:+15550001"}, "Body": {"brake pads"}, "MessageSid": {"SM1"}}

	t.Run("valid signature", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken})
		sig := sign(testToken, "http://example.com/webhook/whatsapp", form)

		resp := post(t, app, "http://example.com/webhook/whatsapp", form, sig)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "ok", string(body))
	})

	t.Run("public base url", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken, PublicBaseURL: "https://bot.example.com/"})
		sig := sign(testToken, "https://bot.example.com/webhook/whatsapp", form)

		resp := post(t, app, "http://10.0.0.5:8080/webhook/whatsapp", form, sig)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("query string is signed", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken})
		sig := sign(testToken, "http://example.com/webhook/whatsapp?tenant=north", form)

		resp := post(t, app, "http://example.com/webhook/whatsapp?tenant=north", form, sig)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = post(t, app, "http://example.com/webhook/whatsapp?tenant=south", form, sig)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("origin-form target", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken})
		sig := sign(testToken, "http://bot.internal/webhook/whatsapp", form)

		req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
		req.Host = "bot.internal"
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Twilio-Signature", sig)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("tampered body", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken})
		sig := sign(testToken, "http://example.com/webhook/whatsapp", form)

		tampered := url.Values{"From": {"whatsapp:+15550001"}, "Body": {"pause forever"}, "MessageSid": {"SM1"}}
		resp := post(t, app, "http://example.com/webhook/whatsapp", tampered, sig)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing signature", func(t *testing.T) {
		app := newApp(SignatureConfig{AuthToken: testToken})

		resp := post(t, app, "http://example.com/webhook/whatsapp", form, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		app := newApp(SignatureConfig{})

		resp := post(t, app, "http://example.com/webhook/whatsapp", form, "c2lnbmF0dXJl")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}
