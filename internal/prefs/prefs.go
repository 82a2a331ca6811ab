// Package prefs persists the last-applied filter state per user, so a
// returning user's first paint starts from their previous search.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"careersetu/listing-service/internal/query"
)

// Store saves and loads one FilterState per user.
type Store interface {
	Save(ctx context.Context, userID string, f query.FilterState) error
	// Load returns (state, true) when a saved state exists.
	Load(ctx context.Context, userID string) (query.FilterState, bool, error)
}

// ─── Redis store ─────────────────────────────────────────────────────────────

// RedisStore keeps filter states as JSON values under one key per user.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func prefsKey(userID string) string {
	return "filters:" + userID
}

func (s *RedisStore) Save(ctx context.Context, userID string, f query.FilterState) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, prefsKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save filter state: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (query.FilterState, bool, error) {
	payload, err := s.rdb.Get(ctx, prefsKey(userID)).Bytes()
	if err == redis.Nil {
		return query.FilterState{}, false, nil
	}
	if err != nil {
		return query.FilterState{}, false, fmt.Errorf("load filter state: %w", err)
	}
	var f query.FilterState
	if err := json.Unmarshal(payload, &f); err != nil {
		return query.FilterState{}, false, fmt.Errorf("decode filter state: %w", err)
	}
	return f, true, nil
}

// ─── Memory store ────────────────────────────────────────────────────────────

// MemoryStore is the in-process fake used in tests and single-node setups.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]query.FilterState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]query.FilterState)}
}

func (s *MemoryStore) Save(_ context.Context, userID string, f query.FilterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = f
	return nil
}

func (s *MemoryStore) Load(_ context.Context, userID string) (query.FilterState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.states[userID]
	return f, ok, nil
}
