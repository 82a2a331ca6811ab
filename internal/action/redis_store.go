package action

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the acted-on set in one hash per user. It is the cache
// layer of a LayeredStore in the full deployment: cheap to read on every
// view, seeded before any server confirmation arrives.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func actionsKey(userID string) string {
	return "actions:" + userID
}

func (s *RedisStore) Get(ctx context.Context, userID, listingID string) (Status, error) {
	v, err := s.rdb.HGet(ctx, actionsKey(userID), listingID).Result()
	if err == redis.Nil {
		return StatusNotActed, nil
	}
	if err != nil {
		return StatusNotActed, fmt.Errorf("hget action: %w", err)
	}
	st, err := ParseStatus(v)
	if err != nil {
		return StatusNotActed, err
	}
	return st, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, listingID string, status Status) error {
	if err := s.rdb.HSet(ctx, actionsKey(userID), listingID, string(status)).Err(); err != nil {
		return fmt.Errorf("hset action: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string) (map[string]Status, error) {
	vals, err := s.rdb.HGetAll(ctx, actionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall actions: %w", err)
	}
	out := make(map[string]Status, len(vals))
	for id, v := range vals {
		st, err := ParseStatus(v)
		if err != nil {
			continue // unreadable entry, skip rather than fail the view
		}
		out[id] = st
	}
	return out, nil
}
