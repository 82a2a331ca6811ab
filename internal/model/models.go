// Package model defines the canonical data structures shared across the
// listing service.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Category tags a listing with the screen family it belongs to.
type Category string

const (
	CategoryJob       Category = "job"
	CategoryCandidate Category = "candidate"
	CategoryCollege   Category = "college"
)

// RawRecord is an arbitrary key-value record as fetched from an upstream
// source, before normalization.
type RawRecord map[string]any

// SalaryRange is the canonical salary facet. Max is nil for open-ended
// postings ("50000+"); Min is nil when only an upper bound is known.
type SalaryRange struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency,omitempty"`
}

// Listing is the normalised record every screen filters, sorts and paginates.
// ID is stable across re-fetches of the same upstream entity — normalization
// never derives a new ID for an entity it has seen before.
type Listing struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Category     Category           `json:"category"`
	Organization string             `json:"organization,omitempty"`
	Description  string             `json:"description,omitempty"`
	Location     string             `json:"location,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Salary       *SalaryRange       `json:"salary,omitempty"`
	Numeric      map[string]float64 `json:"numeric,omitempty"`
	PostedAt     *time.Time         `json:"postedAt,omitempty"`
	DeadlineAt   *time.Time         `json:"deadlineAt,omitempty"`
	Raw          json.RawMessage    `json:"raw,omitempty"`
}

// HasTag reports whether the listing carries tag, compared case-insensitively.
func (l *Listing) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SalaryFloor returns the listing's salary lower bound, falling back to the
// upper bound when only that is known. ok is false when no salary is present.
func (l *Listing) SalaryFloor() (v float64, ok bool) {
	if l.Salary == nil {
		return 0, false
	}
	if l.Salary.Min != nil {
		return *l.Salary.Min, true
	}
	if l.Salary.Max != nil {
		return *l.Salary.Max, true
	}
	return 0, false
}

// SalaryCeiling returns the listing's salary upper bound, falling back to the
// lower bound for open-ended ranges. ok is false when no salary is present.
func (l *Listing) SalaryCeiling() (v float64, ok bool) {
	if l.Salary == nil {
		return 0, false
	}
	if l.Salary.Max != nil {
		return *l.Salary.Max, true
	}
	if l.Salary.Min != nil {
		return *l.Salary.Min, true
	}
	return 0, false
}
