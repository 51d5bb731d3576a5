package storage

import (
	"context"
	"errors"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

var (
	// ErrStore wraps every failure to read or persist a session.
	ErrStore = errors.New("session store failure")
	// ErrBackend is returned for an unknown SESSION_BACKEND value.
	ErrBackend = errors.New("unknown session backend")
	// ErrNotFound is returned by Get for an identity with no stored session.
	ErrNotFound = errors.New("session not found")
)

// Backend names accepted by SESSION_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBolt     = "bolt"
)

// SessionStore defines the persistence contract for conversation sessions.
//
// There is no locking or versioning: two concurrent read-modify-write cycles
// for the same identity resolve as last Save wins.
type SessionStore interface {
	// GetOrCreate returns the stored session or persists and returns a
	// default one. An unseen identity is not an error.
	GetOrCreate(ctx context.Context, identity string) (gate.Session, error)
	// Save writes every mutable field. Saving an unchanged session is allowed.
	Save(ctx context.Context, s gate.Session) error
}

// SessionReader is implemented by stores that can look a session up without
// creating it.
type SessionReader interface {
	Get(ctx context.Context, identity string) (gate.Session, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidBackend reports whether name is a supported backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendMemory, BackendPostgres, BackendRedis, BackendBolt:
		return true
	}
	return false
}
