package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const pendingMarker = "pending"

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore shares idempotency keys across instances through Redis.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store on client. Keys are namespaced under
// "idempotent-key:".
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: "idempotent-key:", ttl: ttl}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// Begin implements Store.
func (s *RedisStore) Begin(ctx context.Context, key string) (Response, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return Response{}, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return Response{}, false, nil
	}
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get; try once more
		return s.reserveAgain(ctx, key)
	}
	if err != nil {
		return Response{}, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return Response{}, false, ErrInFlight
	}
	var resp Response
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return Response{}, false, fmt.Errorf("decode idempotency key: %w", err)
	}
	return resp, true, nil
}

func (s *RedisStore) reserveAgain(ctx context.Context, key string) (Response, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return Response{}, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if !ok {
		return Response{}, false, ErrInFlight
	}
	return Response{}, false, nil
}

// Complete implements Store.
func (s *RedisStore) Complete(ctx context.Context, key string, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), b, s.ttl).Err()
}

// Release implements Store.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
