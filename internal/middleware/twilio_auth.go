package middleware

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/client"

	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// SignatureConfig configures Twilio webhook validation.
type SignatureConfig struct {
	AuthToken string
	// PublicBaseURL replaces scheme and host when the service sits behind a proxy,
	// e.g. https://bot.example.com
	PublicBaseURL string
	Logger        *slog.Logger
}

// ValidateTwilioSignature validates that the webhook request is from Twilio
func ValidateTwilioSignature(cfg SignatureConfig) fiber.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	validator := client.NewRequestValidator(cfg.AuthToken)

	return func(c *fiber.Ctx) error {
		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		if cfg.AuthToken == "" {
			// Log error but don't expose to client
			log.Error("TWILIO_AUTH_TOKEN not set, cannot validate webhook")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		fullURL := getFullURL(c, cfg.PublicBaseURL)
		if !validator.Validate(fullURL, formParams, twilioSignature) {
			log.Warn("rejected webhook with invalid signature", slog.String("url", fullURL))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL rebuilds the URL Twilio signed, including the query string.
// The request-URI may be absolute-form, so only its path and query are used.
func getFullURL(c *fiber.Ctx, publicBaseURL string) string {
	requestURI := c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		requestURI += "?" + string(q)
	}
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + requestURI
	}
	return fmt.Sprintf("%s://%s%s", c.Protocol(), c.Hostname(), requestURI)
}
