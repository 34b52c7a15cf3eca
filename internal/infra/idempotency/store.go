// Package idempotency remembers the outcome of requests that carry an
// Idempotency-Key so retries replay the first response instead of repeating
// the side effect.
package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInFlight reports a key whose first request has not finished yet.
var ErrInFlight = errors.New("idempotency: request with this key is still in flight")

// DefaultTTL bounds how long a key is remembered.
const DefaultTTL = 24 * time.Hour

// Response is the stored outcome of a completed request.
type Response struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Store reserves keys and records their responses. Begin returns the stored
// response with replay=true when the key already completed, ErrInFlight when
// it is reserved, and replay=false after reserving it for the caller. The
// caller then either completes or releases the key.
type Store interface {
	Begin(ctx context.Context, key string) (resp Response, replay bool, err error)
	Complete(ctx context.Context, key string, resp Response) error
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	resp      *Response
	expiresAt time.Time
}

// sweepInterval caps how often Begin scans for expired keys.
const sweepInterval = time.Minute

// MemoryStore keeps keys in process memory. Expired keys are evicted by a
// sweep that Begin runs at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	nextSweep time.Time
}

// NewMemoryStore returns a store remembering keys for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Begin implements Store.
func (s *MemoryStore) Begin(_ context.Context, key string) (Response, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !now.Before(s.nextSweep) {
		s.evictExpired(now)
		s.nextSweep = now.Add(min(s.ttl, sweepInterval))
	}
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.resp == nil {
			return Response{}, false, ErrInFlight
		}
		return *e.resp, true, nil
	}
	s.entries[key] = memoryEntry{expiresAt: now.Add(s.ttl)}
	return Response{}, false, nil
}

func (s *MemoryStore) evictExpired(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// Complete implements Store.
func (s *MemoryStore) Complete(_ context.Context, key string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{resp: &resp, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
