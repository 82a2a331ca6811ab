package query

import (
	"fmt"
	"sort"
	"time"

	"careersetu/listing-service/internal/model"
)

// SortCriterion selects the ordering applied after filtering.
type SortCriterion string

const (
	SortLatest     SortCriterion = "latest"
	SortOldest     SortCriterion = "oldest"
	SortSalaryHigh SortCriterion = "salary-high"
	SortSalaryLow  SortCriterion = "salary-low"
	SortDeadline   SortCriterion = "deadline"
	SortRelevance  SortCriterion = "relevance"
)

// ParseSortCriterion converts a raw string to a SortCriterion, returning an
// error for unknown values. The empty string maps to relevance.
func ParseSortCriterion(s string) (SortCriterion, error) {
	if s == "" {
		return SortRelevance, nil
	}
	c := SortCriterion(s)
	switch c {
	case SortLatest, SortOldest, SortSalaryHigh, SortSalaryLow, SortDeadline, SortRelevance:
		return c, nil
	}
	return "", fmt.Errorf("unknown sort criterion %q", s)
}

// Sort orders listings by criterion using a stable sort: equal keys keep
// their original relative order. Listings missing the sort key always sort
// last, in both directions — a missing deadline is "infinitely far", a
// missing salary never floats to the top of a descending sort.
// Relevance preserves the input order.
func Sort(listings []model.Listing, criterion SortCriterion) []model.Listing {
	out := make([]model.Listing, len(listings))
	copy(out, listings)

	if criterion == SortRelevance || criterion == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(&out[i], &out[j], criterion)
	})
	return out
}

// less compares two listings under criterion. A listing without the key is
// never "less" than one that has it, so key-less listings sink to the end.
func less(a, b *model.Listing, criterion SortCriterion) bool {
	switch criterion {
	case SortLatest:
		at, aok := timeKey(a.PostedAt)
		bt, bok := timeKey(b.PostedAt)
		if !aok || !bok {
			return aok
		}
		return at.After(bt)
	case SortOldest:
		at, aok := timeKey(a.PostedAt)
		bt, bok := timeKey(b.PostedAt)
		if !aok || !bok {
			return aok
		}
		return at.Before(bt)
	case SortDeadline:
		at, aok := timeKey(a.DeadlineAt)
		bt, bok := timeKey(b.DeadlineAt)
		if !aok || !bok {
			return aok
		}
		return at.Before(bt)
	case SortSalaryHigh:
		av, aok := a.SalaryCeiling()
		bv, bok := b.SalaryCeiling()
		if !aok || !bok {
			return aok
		}
		return av > bv
	case SortSalaryLow:
		av, aok := a.SalaryFloor()
		bv, bok := b.SalaryFloor()
		if !aok || !bok {
			return aok
		}
		return av < bv
	}
	return false
}

func timeKey(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}
