package memory

import (
	"context"
	"sync"
	"time"

	"hr-backend/application/ports"
)

type claim struct {
	done    bool
	expires time.Time
}

// IdempotencyStore is a process-local ports.IdempotencyStore.
type IdempotencyStore struct {
	mu      sync.Mutex
	claimed map[string]claim
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{claimed: make(map[string]claim), now: time.Now}
}

// SetClock replaces the time source.
func (s *IdempotencyStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *IdempotencyStore) Claim(_ context.Context, key string, lease time.Duration) (ports.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, ok := s.claimed[key]; ok && now.Before(c.expires) {
		if c.done {
			return ports.ClaimDone, nil
		}
		return ports.ClaimInProgress, nil
	}
	s.claimed[key] = claim{expires: now.Add(lease)}
	return ports.ClaimAcquired, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed[key] = claim{done: true, expires: s.now().Add(retention)}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claimed[key]; ok && !c.done {
		delete(s.claimed, key)
	}
	return nil
}
