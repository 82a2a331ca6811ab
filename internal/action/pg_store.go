package action

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the durable acted-on set. One row per (user, listing) pair,
// last write wins.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the listing_actions table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS listing_actions (
		   user_id    TEXT        NOT NULL,
		   listing_id TEXT        NOT NULL,
		   status     TEXT        NOT NULL,
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		   PRIMARY KEY (user_id, listing_id)
		 )`)
	if err != nil {
		return fmt.Errorf("ensure listing_actions schema: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, userID, listingID string) (Status, error) {
	var v string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM listing_actions WHERE user_id = $1 AND listing_id = $2`,
		userID, listingID,
	).Scan(&v)
	if err == pgx.ErrNoRows {
		return StatusNotActed, nil
	}
	if err != nil {
		return StatusNotActed, fmt.Errorf("select action: %w", err)
	}
	st, err := ParseStatus(v)
	if err != nil {
		return StatusNotActed, err
	}
	return st, nil
}

func (s *PGStore) Set(ctx context.Context, userID, listingID string, status Status) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listing_actions (user_id, listing_id, status, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, listing_id)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		userID, listingID, string(status),
	)
	if err != nil {
		return fmt.Errorf("upsert action: %w", err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, userID string) (map[string]Status, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT listing_id, status FROM listing_actions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Status)
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		st, err := ParseStatus(v)
		if err != nil {
			continue
		}
		out[id] = st
	}
	return out, rows.Err()
}
