// careersetu-listing-service
//
// Faceted listing engine for the job portal. One pipeline serves the job,
// government-exam, candidate and college screens:
//   - GET /listings              — normalize → filter → sort → paginate view
//   - POST /listings/{id}/apply  — optimistic apply state machine
//   - GET /actions               — the user's acted-on set
//
// The acted-on set lives in PostgreSQL with a Redis cache in front; user
// notifications are published to Redis for Gateway SSE forwarding; a cron job
// refreshes the listing snapshot from the upstream collection endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"careersetu/listing-service/internal/action"
	"careersetu/listing-service/internal/config"
	"careersetu/listing-service/internal/db"
	"careersetu/listing-service/internal/engine"
	"careersetu/listing-service/internal/fetch"
	"careersetu/listing-service/internal/httpserver"
	"careersetu/listing-service/internal/normalize"
	"careersetu/listing-service/internal/notify"
	"careersetu/listing-service/internal/prefs"
	"careersetu/listing-service/internal/scheduler"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[listing-service] No .env file — using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[listing-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[listing-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[listing-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[listing-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[listing-service] Redis connected ✓")

	// ── Stores, machine, engine ──────────────────────────────────────────────
	pgStore := action.NewPGStore(pool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("[listing-service] Schema: %v", err)
	}
	store := &action.LayeredStore{
		Cache:   action.NewRedisStore(rdb),
		Primary: pgStore,
	}

	sink := notify.NewRedisSink(rdb)
	machine := action.NewMachine(store, action.NewHTTPConfirmClient(cfg.ApplyEndpointURL), sink)

	eng := engine.New(buildSources(cfg), store, sink, cfg.PageSize)

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(eng, cfg.RefreshIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[listing-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(eng))

	h := httpserver.NewHandler(eng, machine, prefs.NewRedisStore(rdb))
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[listing-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[listing-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[listing-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[listing-service] Shutdown error: %v", err)
	}
	log.Println("[listing-service] Stopped.")
}

// buildSources maps the configured collection endpoints onto engine sources.
// The government exam feed shares the job schema — it is the same record
// shape published by a different backend.
func buildSources(cfg *config.Config) []engine.Source {
	sources := []engine.Source{
		{Name: "jobs", Schema: normalize.JobSchema, Fetcher: fetch.NewClient(cfg.JobSourceURL)},
	}
	if cfg.GovExamSourceURL != "" {
		sources = append(sources, engine.Source{
			Name: "gov-exams", Schema: normalize.JobSchema, Fetcher: fetch.NewClient(cfg.GovExamSourceURL),
		})
	}
	if cfg.CandidateSourceURL != "" {
		sources = append(sources, engine.Source{
			Name: "candidates", Schema: normalize.CandidateSchema, Fetcher: fetch.NewClient(cfg.CandidateSourceURL),
		})
	}
	if cfg.CollegeSourceURL != "" {
		sources = append(sources, engine.Source{
			Name: "colleges", Schema: normalize.CollegeSchema, Fetcher: fetch.NewClient(cfg.CollegeSourceURL),
		})
	}
	return sources
}

func healthHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, loaded := eng.Size()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"service":  "listing-service",
			"version":  version,
			"listings": n,
			"loaded":   loaded,
		})
	}
}
