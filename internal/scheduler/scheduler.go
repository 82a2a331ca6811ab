// Package scheduler wires up the cron job that periodically refreshes the
// listing snapshot from the upstream collections.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"careersetu/listing-service/internal/engine"
)

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	spec   string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(e *engine.Engine, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		engine: e,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so screens have data without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runRefresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runRefresh(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	log.Println("[scheduler] Refresh cycle started")
	if err := s.engine.Refresh(ctx); err != nil {
		log.Printf("[scheduler] Refresh error: %v", err)
		return
	}
	log.Println("[scheduler] Refresh cycle complete")
}
