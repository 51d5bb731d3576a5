package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

var sessionsBucket = []byte("sessions")

// BoltStore keeps sessions in a single bbolt file, one JSON value per identity.
// Suitable for a single instance; the file lock prevents sharing it.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "OpenBoltStore.MkdirAll")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "OpenBoltStore.Open")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "OpenBoltStore.CreateBucket")
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(_ context.Context, identity string) (gate.Session, error) {
	var s gate.Session
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(identity))
		if v == nil {
			return ErrNotFound
		}
		var err error
		s, err = decode(identity, v)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return gate.Session{}, ErrNotFound
	}
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "BoltStore.Get"))
	}
	return s, nil
}

func (b *BoltStore) GetOrCreate(_ context.Context, identity string) (gate.Session, error) {
	var s gate.Session
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		if v := bucket.Get([]byte(identity)); v != nil {
			var err error
			s, err = decode(identity, v)
			return err
		}
		s = gate.NewSession(identity)
		v, err := encode(s)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(identity), v)
	})
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "BoltStore.GetOrCreate"))
	}
	return s, nil
}

func (b *BoltStore) Save(_ context.Context, s gate.Session) error {
	v, err := encode(s)
	if err != nil {
		return storeErr(err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(s.Identity), v)
	})
	if err != nil {
		return storeErr(errors.Wrap(err, "BoltStore.Save"))
	}
	return nil
}

func (b *BoltStore) Ping(context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionsBucket) == nil {
			return storeErr(errors.New("sessions bucket missing"))
		}
		return nil
	})
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
