package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

// encode and decode are shared by the key-value backends (redis, bolt).
func encode(s gate.Session) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "storage.encode")
	}
	return b, nil
}

func decode(identity string, b []byte) (gate.Session, error) {
	var s gate.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return gate.Session{}, errors.Wrap(err, "storage.decode")
	}
	// the key is authoritative
	s.Identity = identity
	return s, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// storeErr marks err as a store failure so callers can match it with errors.Is.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
