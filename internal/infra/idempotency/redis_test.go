package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeRedis mimics the four commands the store issues.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	fail error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return redis.NewBoolResult(false, f.fail)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := value.([]byte); ok {
		f.data[key] = string(b)
	} else {
		f.data[key] = fmt.Sprint(value)
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	exerciseStore(t, NewRedisStore(fake, time.Hour))
	if _, ok := fake.data["idempotent-key:k1"]; !ok {
		t.Fatalf("expected namespaced key, got %v", fake.data)
	}
	if fake.ttls["idempotent-key:k1"] != time.Hour {
		t.Fatalf("expected ttl applied, got %v", fake.ttls)
	}
}

func TestRedisStoreErrors(t *testing.T) {
	fake := newFakeRedis()
	s := NewRedisStore(fake, 0)
	fake.data["idempotent-key:bad"] = "{not json"
	if _, _, err := s.Begin(context.Background(), "bad"); err == nil || errors.Is(err, ErrInFlight) {
		t.Fatalf("expected decode error, got %v", err)
	}
	fake.fail = errors.New("connection refused")
	if _, _, err := s.Begin(context.Background(), "k"); err == nil {
		t.Fatalf("expected redis failure")
	}
}
