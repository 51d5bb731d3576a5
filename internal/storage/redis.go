package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

// RedisConfig configures the redis backend.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"wa:session:"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// RedisStore keeps one JSON document per identity. Keys never expire;
// retention is handled outside this service.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// ConnectRedis parses the connection URL and verifies the server answers.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, errors.New("empty redis connection URL")
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis connection string")
	}
	client := redis.NewClient(opts)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis did not become ready")
	}
	return client, nil
}

// NewRedisStore creates a session store on client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(identity string) string {
	return r.prefix + identity
}

func (r *RedisStore) Get(ctx context.Context, identity string) (gate.Session, error) {
	b, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gate.Session{}, ErrNotFound
	}
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "RedisStore.Get"))
	}
	s, err := decode(identity, b)
	if err != nil {
		return gate.Session{}, storeErr(err)
	}
	return s, nil
}

func (r *RedisStore) GetOrCreate(ctx context.Context, identity string) (gate.Session, error) {
	b, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if err == nil {
		s, err := decode(identity, b)
		if err != nil {
			return gate.Session{}, storeErr(err)
		}
		return s, nil
	}
	if !errors.Is(err, redis.Nil) {
		return gate.Session{}, storeErr(errors.Wrap(err, "RedisStore.GetOrCreate.Get"))
	}

	s := gate.NewSession(identity)
	b, err = encode(s)
	if err != nil {
		return gate.Session{}, storeErr(err)
	}
	created, err := r.client.SetNX(ctx, r.key(identity), b, 0).Result()
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "RedisStore.GetOrCreate.SetNX"))
	}
	if created {
		return s, nil
	}

	// another request created the record between Get and SetNX
	b, err = r.client.Get(ctx, r.key(identity)).Bytes()
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "RedisStore.GetOrCreate.Reload"))
	}
	if s, err = decode(identity, b); err != nil {
		return gate.Session{}, storeErr(err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s gate.Session) error {
	b, err := encode(s)
	if err != nil {
		return storeErr(err)
	}
	if err := r.client.Set(ctx, r.key(s.Identity), b, 0).Err(); err != nil {
		return storeErr(errors.Wrap(err, "RedisStore.Save.Set"))
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
