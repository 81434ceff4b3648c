package challenge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/pkg/id"
)

// MemoryStore is an in-process TTL map. Suitable for development and tests;
// records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*domain.VerificationChallenge
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*domain.VerificationChallenge),
		now:     time.Now,
	}
}

func (s *MemoryStore) Set(ctx context.Context, handle string, ch *domain.VerificationChallenge) (string, error) {
	if handle == "" {
		handle = id.New()
	}
	cp := *ch
	s.mu.Lock()
	s.entries[handle] = &cp
	s.mu.Unlock()
	return handle, nil
}

func (s *MemoryStore) Get(ctx context.Context, handle string) (*domain.VerificationChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.entries[handle]
	if !ok {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	// Lazy expiry: hard-expired records (past the TTL a real backend would
	// enforce) are evicted on read. Records inside the window are returned
	// even when past ExpiresAt so the orchestrator can report expiry.
	if s.now().After(ch.ExpiresAt.Add(ttlGrace)) {
		delete(s.entries, handle)
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	cp := *ch
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	delete(s.entries, handle)
	s.mu.Unlock()
	return nil
}

// ttlGrace keeps an expired record readable briefly so expiry surfaces as a
// distinct error instead of "session expired".
const ttlGrace = time.Minute

var _ Store = (*MemoryStore)(nil)
