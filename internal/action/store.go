package action

import (
	"context"
	"sync"
)

// Store is the acted-on set shared by the state machine (read/write) and the
// query orchestrator (read). Writes are last-writer-wins per
// (userID, listingID) key; only one action can be pending per key at a time,
// so no concurrent-write conflict arises.
type Store interface {
	// Get returns the status for one key; StatusNotActed when unknown.
	Get(ctx context.Context, userID, listingID string) (Status, error)
	// Set records the status for one key.
	Set(ctx context.Context, userID, listingID string, status Status) error
	// List returns every known (listingID → status) pair for a user.
	List(ctx context.Context, userID string) (map[string]Status, error)
}

// ─── Memory store ────────────────────────────────────────────────────────────

// MemoryStore is the in-process Store used in tests and as the default when
// no backing services are configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]Status // userID → listingID → status
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]Status)}
}

func (s *MemoryStore) Get(_ context.Context, userID, listingID string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.records[userID][listingID]; ok {
		return st, nil
	}
	return StatusNotActed, nil
}

func (s *MemoryStore) Set(_ context.Context, userID, listingID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]Status)
	}
	s.records[userID][listingID] = status
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) (map[string]Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Status, len(s.records[userID]))
	for id, st := range s.records[userID] {
		out[id] = st
	}
	return out, nil
}

// ─── Layered store ───────────────────────────────────────────────────────────

// LayeredStore reads through a fast cache before hitting the primary store
// and writes to both. It mirrors the original client's local-storage seed: on
// load, cached state answers before any server truth arrives.
type LayeredStore struct {
	Cache   Store
	Primary Store
}

func (s *LayeredStore) Get(ctx context.Context, userID, listingID string) (Status, error) {
	if st, err := s.Cache.Get(ctx, userID, listingID); err == nil && st != StatusNotActed {
		return st, nil
	}
	return s.Primary.Get(ctx, userID, listingID)
}

func (s *LayeredStore) Set(ctx context.Context, userID, listingID string, status Status) error {
	// Cache write failure is tolerable; the primary is the record of truth.
	cacheErr := s.Cache.Set(ctx, userID, listingID, status)
	if err := s.Primary.Set(ctx, userID, listingID, status); err != nil {
		return err
	}
	return cacheErr
}

func (s *LayeredStore) List(ctx context.Context, userID string) (map[string]Status, error) {
	primary, err := s.Primary.List(ctx, userID)
	if err != nil {
		// Degrade to the cache rather than fail the whole view.
		return s.Cache.List(ctx, userID)
	}
	cached, err := s.Cache.List(ctx, userID)
	if err != nil {
		return primary, nil
	}
	// Cache entries win: they carry the freshest optimistic state.
	for id, st := range cached {
		primary[id] = st
	}
	return primary, nil
}
