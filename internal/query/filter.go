// Package query contains the pure filter/sort/paginate pipeline shared by
// every listing screen. No I/O happens here.
package query

import (
	"strconv"
	"strings"

	"careersetu/listing-service/internal/model"
)

// Facet names accepted in FilterState.Terms.
//
// state and city match by normalised substring containment on the listing
// location; the rest match by membership in the listing's tag set.
const (
	FacetState    = "state"
	FacetCity     = "city"
	FacetJobType  = "jobType"
	FacetWorkMode = "workMode"
	FacetSkill    = "skill"
	FacetCourse   = "course"
	FacetBranch   = "branch"
	FacetDegree   = "degree"
)

var locationFacets = map[string]bool{
	FacetState: true,
	FacetCity:  true,
}

// FilterState is the full multi-facet filter a screen holds. An empty set,
// empty string or zero threshold means the facet is inactive — no constraint,
// never "match nothing".
type FilterState struct {
	Keyword string              `json:"keyword,omitempty"`
	Terms   map[string][]string `json:"terms,omitempty"`

	// SalaryBuckets are the discrete UI buckets, e.g. "25000-50000" or
	// "200000+". A listing matches when its salary interval overlaps the
	// bucket (open buckets match when the listing minimum meets the floor).
	SalaryBuckets []string `json:"salaryBuckets,omitempty"`

	MinExperience float64 `json:"minExperience,omitempty"`
	MinSalary     float64 `json:"minSalary,omitempty"`
	MinRating     float64 `json:"minRating,omitempty"`

	SortBy SortCriterion `json:"sortBy,omitempty"`
}

// Matches evaluates listing against every active facet. The overall predicate
// is a conjunction across facets; values within one facet are a disjunction.
func Matches(l *model.Listing, f FilterState) bool {
	if f.Keyword != "" && !matchesKeyword(l, f.Keyword) {
		return false
	}

	for facet, values := range f.Terms {
		if len(values) == 0 {
			continue
		}
		if locationFacets[facet] {
			if !matchesLocation(l, values) {
				return false
			}
			continue
		}
		if !matchesAnyTag(l, values) {
			return false
		}
	}

	if len(f.SalaryBuckets) > 0 && !matchesSalaryBucket(l, f.SalaryBuckets) {
		return false
	}

	if f.MinExperience > 0 && !meetsThreshold(l.Numeric, "experience", f.MinExperience) {
		return false
	}
	if f.MinRating > 0 && !meetsThreshold(l.Numeric, "rating", f.MinRating) {
		return false
	}
	if f.MinSalary > 0 {
		floor, ok := l.SalaryFloor()
		if !ok || floor < f.MinSalary {
			return false
		}
	}

	return true
}

// ApplyAll returns the listings that satisfy f, preserving input order.
func ApplyAll(listings []model.Listing, f FilterState) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for i := range listings {
		if Matches(&listings[i], f) {
			out = append(out, listings[i])
		}
	}
	return out
}

// matchesKeyword is a case-insensitive substring match OR'd across title,
// organization and description.
func matchesKeyword(l *model.Listing, keyword string) bool {
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(l.Title), kw) ||
		strings.Contains(strings.ToLower(l.Organization), kw) ||
		strings.Contains(strings.ToLower(l.Description), kw)
}

// matchesLocation checks normalised substring containment of any selected
// value in the listing location. Containment is literal — no alias mapping
// between place-name spellings.
func matchesLocation(l *model.Listing, values []string) bool {
	loc := normalizeText(l.Location)
	for _, v := range values {
		if v == "" {
			continue
		}
		if strings.Contains(loc, normalizeText(v)) {
			return true
		}
	}
	return false
}

func matchesAnyTag(l *model.Listing, values []string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		if l.HasTag(v) {
			return true
		}
	}
	return false
}

// matchesSalaryBucket reports whether the listing's salary interval overlaps
// any requested bucket. Listings without a salary never match a salary bucket.
func matchesSalaryBucket(l *model.Listing, buckets []string) bool {
	floor, ok := l.SalaryFloor()
	if !ok {
		return false
	}
	ceil, _ := l.SalaryCeiling()

	for _, bucket := range buckets {
		lo, hi, open, ok := parseBucket(bucket)
		if !ok {
			continue
		}
		if open {
			if floor >= lo {
				return true
			}
			continue
		}
		if floor <= hi && ceil >= lo {
			return true
		}
	}
	return false
}

// parseBucket parses "25000-50000" or "200000+". open is true for the latter
// form, in which case hi is meaningless.
func parseBucket(bucket string) (lo, hi float64, open, ok bool) {
	bucket = strings.TrimSpace(bucket)
	if strings.HasSuffix(bucket, "+") {
		v, err := strconv.ParseFloat(stripNonDigits(bucket), 64)
		if err != nil {
			return 0, 0, false, false
		}
		return v, 0, true, true
	}

	parts := strings.SplitN(bucket, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false, false
	}
	l, err1 := strconv.ParseFloat(stripNonDigits(parts[0]), 64)
	h, err2 := strconv.ParseFloat(stripNonDigits(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false, false
	}
	return l, h, false, true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func meetsThreshold(numeric map[string]float64, facet string, threshold float64) bool {
	v, ok := numeric[facet]
	return ok && v >= threshold
}

// normalizeText lowercases, drops commas and collapses whitespace, mirroring
// how locations like "Chennai, Tamil Nadu" are matched against "chennai".
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), " ")
}

// ─── Facet counts ────────────────────────────────────────────────────────────

// FacetCounts aggregates how often each tag and location value occurs in a
// listing set. The orchestrator exposes these alongside the current page so
// sidebars can show per-value counts.
type FacetCounts struct {
	Tags      map[string]int `json:"tags"`
	Locations map[string]int `json:"locations"`
}

// CountFacets tallies tag and location occurrences across listings.
func CountFacets(listings []model.Listing) FacetCounts {
	fc := FacetCounts{
		Tags:      make(map[string]int),
		Locations: make(map[string]int),
	}
	for i := range listings {
		for _, t := range listings[i].Tags {
			fc.Tags[t]++
		}
		if loc := strings.TrimSpace(listings[i].Location); loc != "" {
			fc.Locations[loc]++
		}
	}
	return fc
}
