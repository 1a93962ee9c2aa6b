package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/credit/internal/domain/shared"
)

const defaultCleanupInterval = 5 * time.Minute

type claim struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps claimed event IDs in a process-local map.
// It is the store for single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	mu              sync.RWMutex
	claims          map[string]claim
	cleanupInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithCleanupInterval changes how often expired claims are swept
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper goroutine
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		claims:          make(map[string]claim),
		cleanupInterval: defaultCleanupInterval,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed claims eventID for ttl.
// Returns false when a live claim already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if c, exists := s.claims[eventID]; exists && now.Before(c.expiresAt) {
		return false, nil
	}
	s.claims[eventID] = claim{expiresAt: now.Add(ttl)}
	return true, nil
}

// Unmark drops the claim so a redelivered event is processed again
func (s *InMemoryIdempotencyStore) Unmark(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.claims, eventID)
	s.mu.Unlock()
	return nil
}

// IsProcessed reports whether eventID holds a live claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.claims[eventID]
	if !exists {
		return false, nil
	}
	return time.Now().Before(c.expiresAt), nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, c := range s.claims {
		if !now.Before(c.expiresAt) {
			delete(s.claims, eventID)
		}
	}
}

// Size returns the number of claims held, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
