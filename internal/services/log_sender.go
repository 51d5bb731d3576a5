package services

import (
	"context"
	"log/slog"

	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// LogSender stands in for Twilio when no credentials are configured.
// Messages are written to the log instead of being delivered.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{log: log.With(logger.Component("log_sender"))}
}

// SendText logs a plain text message.
func (l *LogSender) SendText(_ context.Context, to, body string) error {
	l.log.Info("outbound message (not sent)", logger.Identity(to), slog.String("body", body))
	return nil
}

// SendTemplate logs a content template send with its variables.
func (l *LogSender) SendTemplate(_ context.Context, to, contentSID string, vars map[string]string) error {
	l.log.Info("outbound template (not sent)",
		logger.Identity(to),
		slog.String("content_sid", contentSID),
		slog.Any("variables", vars),
	)
	return nil
}
