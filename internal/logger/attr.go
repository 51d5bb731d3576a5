package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags records with the subsystem that emitted them.
func Component(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("component", name)
}

// Identity is the customer's channel identity (phone number).
func Identity(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("identity", id)
}

// EventID correlates every record of one inbound event.
func EventID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("event_id", id)
}

func Action(action string) slog.Attr {
	if action == "" {
		return slog.Attr{}
	}
	return slog.String("action", action)
}

func Rule(rule string) slog.Attr {
	if rule == "" {
		return slog.Attr{}
	}
	return slog.String("rule", rule)
}

// Kind is the outbound prompt kind.
func Kind(kind string) slog.Attr {
	if kind == "" {
		return slog.Attr{}
	}
	return slog.String("kind", kind)
}

func State(state string) slog.Attr {
	if state == "" {
		return slog.Attr{}
	}
	return slog.String("state", state)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed logs the time since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
