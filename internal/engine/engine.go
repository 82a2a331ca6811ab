// Package engine wires the normalize → filter → sort → paginate pipeline into
// one orchestrator, re-run synchronously whenever listings, filters, sort or
// page change.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sync"

	"careersetu/listing-service/internal/action"
	"careersetu/listing-service/internal/model"
	"careersetu/listing-service/internal/normalize"
	"careersetu/listing-service/internal/notify"
	"careersetu/listing-service/internal/query"
)

// ErrNoSnapshot distinguishes "couldn't load listings" from "zero results
// matched your filters": it is returned while no fetch has ever succeeded.
var ErrNoSnapshot = errors.New("listing snapshot unavailable")

// CollectionFetcher retrieves one raw listing collection.
type CollectionFetcher interface {
	FetchAll(ctx context.Context) ([]model.RawRecord, error)
}

// Source pairs a fetcher with the normalization schema for its category.
type Source struct {
	Name    string
	Schema  normalize.Schema
	Fetcher CollectionFetcher
}

// Item is one listing annotated with the viewing user's action status, for
// rendering "Apply" vs "Applied" buttons. The engine only reads the status —
// the record is owned by the action machine.
type Item struct {
	model.Listing
	ActionStatus action.Status `json:"actionStatus"`
}

// View is the page shown to the caller plus facet counts over the whole
// filtered set.
type View struct {
	Items      []Item            `json:"items"`
	PageNumber int               `json:"pageNumber"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	TotalCount int               `json:"totalCount"`
	Facets     query.FacetCounts `json:"facets"`
}

// Engine holds the current normalized snapshot and composes the pipeline.
type Engine struct {
	sources  []Source
	store    action.Store
	sink     notify.Sink
	pageSize int

	mu         sync.RWMutex
	listings   []model.Listing
	bySource   map[string][]model.Listing
	hasLoaded  bool
	refreshing bool
}

// New returns an Engine. store may be nil when no user state is wired, in
// which case every item renders as NOT_ACTED.
func New(sources []Source, store action.Store, sink notify.Sink, pageSize int) *Engine {
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}
	return &Engine{
		sources:  sources,
		store:    store,
		sink:     sink,
		pageSize: pageSize,
	}
}

// SetListings replaces the snapshot directly. Used by tests and by callers
// that already hold a normalized set.
func (e *Engine) SetListings(listings []model.Listing) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listings = listings
	e.hasLoaded = true
}

// Refresh re-fetches every source and swaps in a new snapshot. A failing
// source publishes a "couldn't load" notification and keeps its previously
// loaded records — a transient outage of one source never drops what it had
// already contributed. A refresh is not started while one is in flight.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.refreshing {
		e.mu.Unlock()
		log.Println("[engine] refresh already in flight — skipping")
		return nil
	}
	e.refreshing = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.refreshing = false
		e.mu.Unlock()
	}()

	var (
		fresh    = make(map[string][]model.Listing, len(e.sources))
		failed   int
		firstErr error
	)
	for _, src := range e.sources {
		raws, err := src.Fetcher.FetchAll(ctx)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("source %s: %w", src.Name, err)
			}
			slog.Warn("listing fetch failed", "source", src.Name, "err", err)
			if e.sink != nil {
				_ = e.sink.Publish(ctx, notify.Message{
					Text: fmt.Sprintf("couldn't load %s listings", src.Name),
					Kind: notify.KindError,
				})
			}
			continue
		}
		fresh[src.Name] = normalize.NormalizeAll(ctx, raws, src.Schema, e.sink)
	}

	if failed == len(e.sources) && len(e.sources) > 0 {
		// Every source failed: keep whatever snapshot we had.
		return firstErr
	}

	e.mu.Lock()
	if e.bySource == nil {
		e.bySource = make(map[string][]model.Listing, len(e.sources))
	}
	for name, listings := range fresh {
		e.bySource[name] = listings
	}
	var combined []model.Listing
	for _, src := range e.sources {
		combined = append(combined, e.bySource[src.Name]...)
	}
	e.listings = combined
	e.hasLoaded = true
	e.mu.Unlock()
	log.Printf("[engine] snapshot refreshed — %d listings (%d source(s) failed)", len(combined), failed)
	return firstErr
}

// View composes the pipeline over the current snapshot for one user.
// It is referentially consistent: identical snapshot, filter, page and store
// contents produce an equal View. A missing snapshot yields an empty view
// plus ErrNoSnapshot so callers can render "couldn't load" instead of
// "no results".
func (e *Engine) View(ctx context.Context, userID string, f query.FilterState, pageNumber int) (View, error) {
	e.mu.RLock()
	snapshot := e.listings
	loaded := e.hasLoaded
	e.mu.RUnlock()

	statuses := e.userStatuses(ctx, userID)
	v := Compose(snapshot, f, pageNumber, e.pageSize, statuses)

	if !loaded {
		return v, ErrNoSnapshot
	}
	return v, nil
}

// Compose is the pure pipeline: filter → sort → paginate → annotate. Exposed
// so the composition can be exercised without an Engine.
func Compose(listings []model.Listing, f query.FilterState, pageNumber, pageSize int, statuses map[string]action.Status) View {
	filtered := query.ApplyAll(listings, f)
	sorted := query.Sort(filtered, f.SortBy)
	page := query.Paginate(sorted, pageNumber, pageSize)

	items := make([]Item, len(page.Items))
	for i, l := range page.Items {
		st, ok := statuses[l.ID]
		if !ok {
			st = action.StatusNotActed
		}
		items[i] = Item{Listing: l, ActionStatus: st}
	}

	return View{
		Items:      items,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		TotalCount: page.TotalCount,
		Facets:     query.CountFacets(filtered),
	}
}

// userStatuses reads the acted-on set once per view; failures degrade to an
// empty map so the page still renders.
func (e *Engine) userStatuses(ctx context.Context, userID string) map[string]action.Status {
	if e.store == nil || userID == "" {
		return nil
	}
	statuses, err := e.store.List(ctx, userID)
	if err != nil {
		slog.Warn("acted-on read failed, rendering without statuses", "userId", userID, "err", err)
		return nil
	}
	return statuses
}

// Size reports how many listings the current snapshot holds and whether any
// fetch has succeeded yet. Used by the health endpoint.
func (e *Engine) Size() (n int, loaded bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listings), e.hasLoaded
}
