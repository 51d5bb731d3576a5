package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cataloguebot/whatsapp-gate/internal/handlers"
)

// Handlers are the endpoints mounted by SetupRoutes. Nil handlers are not mounted.
type Handlers struct {
	Version  string
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler
	Sessions *handlers.SessionsHandler
	// Signature validates webhooks; nil disables validation.
	Signature fiber.Handler
	// TestEndpoints mounts /test/whatsapp.
	TestEndpoints bool
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/", func(c *fiber.Ctx) error {
		endpoints := fiber.Map{
			"health":  "/health",
			"webhook": "/webhook/whatsapp",
		}
		if h.Sessions != nil {
			endpoints["sessions"] = "/admin/sessions/:identity"
		}
		if h.TestEndpoints {
			endpoints["test_whatsapp"] = "/test/whatsapp"
		}
		return c.JSON(fiber.Map{
			"service":   "whatsapp-gate",
			"version":   h.Version,
			"endpoints": endpoints,
		})
	})

	if h.Health != nil {
		app.Get("/health", h.Health.Check)
	}

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if h.Signature != nil {
		webhooks.Post("/whatsapp", h.Signature, h.WhatsApp.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if h.TestEndpoints {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	if h.Sessions != nil {
		admin := app.Group("/admin")
		admin.Get("/sessions/:identity", h.Sessions.Get)
	}
}
