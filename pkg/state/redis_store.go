package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	ffopts "github.com/goliatone/go-ffoptions"
)

// DefaultRedisPrefix namespaces snapshot keys.
const DefaultRedisPrefix = "ffopts"

// RedisConfig describes how to reach the Redis server.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	// TTL expires snapshots; zero keeps them forever.
	TTL time.Duration
}

// RedisStore shares snapshots between processes through Redis. Each snapshot
// is stored as one JSON value under "<prefix>:<identifier>".
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type redisRecord struct {
	Options *ffopts.Store `json:"options"`
	Meta    Meta          `json:"meta"`
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("state: connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// Key returns the Redis key used for ref.
func (s *RedisStore) Key(ref Ref) (string, error) {
	id, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + id, nil
}

func (s *RedisStore) Load(ctx context.Context, ref Ref) (*ffopts.Store, Meta, bool, error) {
	key, err := s.Key(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, Meta{}, false, nil
		}
		return nil, Meta{}, false, fmt.Errorf("state: redis get %q: %w", key, err)
	}
	record := redisRecord{Options: ffopts.New()}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return record.Options, record.Meta, true, nil
}

func (s *RedisStore) Save(ctx context.Context, ref Ref, snapshot *ffopts.Store, meta Meta) (Meta, error) {
	key, err := s.Key(ref)
	if err != nil {
		return Meta{}, err
	}
	if snapshot == nil {
		snapshot = ffopts.New()
	}
	stored := stampMeta(meta, s.now())
	data, err := json.Marshal(redisRecord{Options: snapshot, Meta: stored})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return Meta{}, fmt.Errorf("state: redis set %q: %w", key, err)
	}
	return cloneMeta(stored), nil
}

func (s *RedisStore) SaveIf(ctx context.Context, ref Ref, expected string, snapshot *ffopts.Store, meta Meta) (Meta, error) {
	key, err := s.Key(ref)
	if err != nil {
		return Meta{}, err
	}
	if snapshot == nil {
		snapshot = ffopts.New()
	}
	stored := stampMeta(meta, s.now())
	data, err := json.Marshal(redisRecord{Options: snapshot, Meta: stored})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", key, err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.currentETag(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return etagConflict(key, expected, current)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return cloneMeta(stored), nil
	case errors.Is(err, redis.TxFailedErr):
		return Meta{}, fmt.Errorf("%w: %s changed during save", ErrETagMismatch, key)
	case errors.Is(err, ErrETagMismatch):
		return Meta{}, err
	default:
		return Meta{}, fmt.Errorf("state: redis conditional set %q: %w", key, err)
	}
}

func (s *RedisStore) currentETag(ctx context.Context, tx *redis.Tx, key string) (string, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: redis get %q: %w", key, err)
	}
	var record struct {
		Meta Meta `json:"meta"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("state: decode %q: %w", key, err)
	}
	return record.Meta.ETag, nil
}

// Delete removes the snapshot for ref.
func (s *RedisStore) Delete(ctx context.Context, ref Ref) error {
	key, err := s.Key(ref)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("state: redis del %q: %w", key, err)
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
