// Package httpserver implements the HTTP handlers for the listing service.
//
// All authenticated routes expect an x-user-id header forwarded by the
// Gateway; /listings/{id}/apply additionally carries the user's Bearer token,
// passed through opaque to the portal's apply endpoint.
//
// Routes:
//
//	GET  /listings              → filtered, sorted, paginated view
//	POST /listings/{id}/apply   → optimistic apply via the action machine
//	GET  /actions               → the user's acted-on map
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"careersetu/listing-service/internal/action"
	"careersetu/listing-service/internal/engine"
	"careersetu/listing-service/internal/prefs"
	"careersetu/listing-service/internal/query"
)

// Handler holds shared dependencies.
type Handler struct {
	engine  *engine.Engine
	machine *action.Machine
	prefs   prefs.Store
}

// NewHandler returns a configured Handler. prefsStore may be nil, disabling
// filter-state persistence.
func NewHandler(e *engine.Engine, m *action.Machine, prefsStore prefs.Store) *Handler {
	return &Handler{engine: e, machine: m, prefs: prefsStore}
}

// RegisterRoutes mounts all listing-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/listings", h.handleListings)
	mux.HandleFunc("/listings/", h.handleListingAction)
	mux.HandleFunc("/actions", h.handleActions)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listListings(w, r)
}

// handleListingAction handles POST /listings/{id}/apply
func (h *Handler) handleListingAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	listingID := parts[1]
	verb := parts[2]

	switch verb {
	case "apply":
		h.applyListing(w, r, listingID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", verb), http.StatusNotFound)
	}
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listActions(w, r)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id") // optional: anonymous browsing is allowed

	f, explicit, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A request with no filter params resumes the user's saved search;
	// an explicit one becomes the new saved search.
	if h.prefs != nil && userID != "" {
		if !explicit {
			if saved, ok, err := h.prefs.Load(r.Context(), userID); err == nil && ok {
				f = saved
			}
		} else if err := h.prefs.Save(r.Context(), userID, f); err != nil {
			log.Printf("[listing] saving filter state failed: %v", err)
		}
	}

	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			page = v
		}
	}

	view, err := h.engine.View(r.Context(), userID, f, page)
	if err != nil {
		if errors.Is(err, engine.ErrNoSnapshot) {
			// Distinguishable from "zero results matched your filters".
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"error": "couldn't load listings",
				"view":  view,
			})
			return
		}
		log.Printf("[listing] view error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, view)
}

func (h *Handler) applyListing(w http.ResponseWriter, r *http.Request, listingID string) {
	sess := action.Session{
		UserID: r.Header.Get("x-user-id"),
		Token:  bearerToken(r),
	}

	outcome, err := h.machine.Act(r.Context(), sess, listingID)
	if err != nil {
		if errors.Is(err, action.ErrNotAuthenticated) {
			jsonError(w, "please login to apply", http.StatusUnauthorized)
			return
		}
		log.Printf("[listing] apply error for %s: %v", listingID, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, outcome)
}

func (h *Handler) listActions(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	acted, err := h.machine.ActedOn(r.Context(), userID)
	if err != nil {
		log.Printf("[listing] listActions error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, acted)
}

// ─── Request parsing ─────────────────────────────────────────────────────────

// filterFromQuery builds a FilterState from query parameters. Multi-value
// facets accept comma-separated lists. explicit reports whether any filter
// parameter was present at all.
func filterFromQuery(r *http.Request) (f query.FilterState, explicit bool, err error) {
	q := r.URL.Query()

	f.Keyword = strings.TrimSpace(q.Get("keyword"))
	explicit = f.Keyword != ""

	for _, facet := range []string{
		query.FacetState, query.FacetCity, query.FacetJobType, query.FacetWorkMode,
		query.FacetSkill, query.FacetCourse, query.FacetBranch, query.FacetDegree,
	} {
		values := splitCSV(q.Get(facet))
		if len(values) == 0 {
			continue
		}
		if f.Terms == nil {
			f.Terms = make(map[string][]string)
		}
		f.Terms[facet] = values
		explicit = true
	}

	if buckets := splitCSV(q.Get("salary")); len(buckets) > 0 {
		f.SalaryBuckets = buckets
		explicit = true
	}

	for _, rf := range []struct {
		param string
		dst   *float64
	}{
		{"minExperience", &f.MinExperience},
		{"minSalary", &f.MinSalary},
		{"minRating", &f.MinRating},
	} {
		s := q.Get(rf.param)
		if s == "" {
			continue
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil || v < 0 {
			return f, explicit, fmt.Errorf("%s must be a non-negative number, got %q", rf.param, s)
		}
		*rf.dst = v
		explicit = true
	}

	sortBy, err := query.ParseSortCriterion(q.Get("sortBy"))
	if err != nil {
		return f, explicit, err
	}
	f.SortBy = sortBy
	if q.Get("sortBy") != "" {
		explicit = true
	}

	return f, explicit, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
