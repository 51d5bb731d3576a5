package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

// SessionsHandler exposes read-only session inspection for operators.
type SessionsHandler struct {
	store  storage.SessionReader
	policy gate.Policy
	now    func() time.Time
}

// NewSessionsHandler creates a new session inspection handler
func NewSessionsHandler(store storage.SessionReader, policy gate.Policy) *SessionsHandler {
	return &SessionsHandler{store: store, policy: policy, now: time.Now}
}

// Get returns the session as the gate would see it now. Expired search mode
// and elapsed timed pauses are shown repaired; nothing is written back.
// An identity with no session answers 404.
func (h *SessionsHandler) Get(c *fiber.Ctx) error {
	identity := strings.Clone(c.Params("identity"))
	if identity == "" {
		return fiber.NewError(fiber.StatusBadRequest, "identity is required")
	}

	s, err := h.store.Get(c.UserContext(), identity)
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if err != nil {
		return errors.Join(fiber.ErrInternalServerError, err)
	}

	now := h.now()
	repaired := s.ReadRepair(now, h.policy.TTL())
	state := repaired.State(now)

	return c.JSON(fiber.Map{
		"success": true,
		"session": repaired,
		"state":   state,
		"paused":  state.IsPausedState(),
	})
}
