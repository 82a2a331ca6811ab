// Package normalize converts heterogeneous raw listing records into the
// canonical Listing shape. Upstream feeds disagree on field names, casing and
// salary encoding; everything downstream of this package sees one shape.
package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"careersetu/listing-service/internal/model"
	"careersetu/listing-service/internal/notify"
)

// Validation drop reasons. A record failing these is excluded from the batch,
// never fatal to it.
var (
	ErrMissingID    = errors.New("record has no id")
	ErrMissingTitle = errors.New("record has no title")
)

// Normalize maps one raw record onto a canonical Listing using schema.
// Missing optional fields become zero values, never errors; only an absent
// id or title fails the record.
func Normalize(raw model.RawRecord, schema Schema) (model.Listing, error) {
	id := firstString(raw, schema.IDKeys)
	if id == "" {
		return model.Listing{}, ErrMissingID
	}
	title := firstString(raw, schema.TitleKeys)
	if title == "" {
		return model.Listing{}, ErrMissingTitle
	}

	l := model.Listing{
		ID:           id,
		Title:        title,
		Category:     schema.Category,
		Organization: firstString(raw, schema.OrgKeys),
		Description:  firstString(raw, schema.DescriptionKeys),
		Location:     firstString(raw, schema.LocationKeys),
		Tags:         collectTags(raw, schema.TagKeys),
		Salary:       parseSalary(raw, schema),
		PostedAt:     firstTime(raw, schema.PostedKeys),
		DeadlineAt:   firstTime(raw, schema.DeadlineKeys),
	}

	for facet, keys := range schema.NumericKeys {
		if v, ok := firstNumber(raw, keys); ok {
			if l.Numeric == nil {
				l.Numeric = make(map[string]float64)
			}
			l.Numeric[facet] = v
		}
	}

	// Retain the original record for display.
	if b, err := json.Marshal(raw); err == nil {
		l.Raw = b
	}

	return l, nil
}

// NormalizeAll normalizes a batch, dropping records that fail validation.
// Each drop is reported once to the sink as a warning and the batch
// continues.
func NormalizeAll(ctx context.Context, raws []model.RawRecord, schema Schema, sink notify.Sink) []model.Listing {
	out := make([]model.Listing, 0, len(raws))
	for _, raw := range raws {
		l, err := Normalize(raw, schema)
		if err != nil {
			if sink != nil {
				_ = sink.Publish(ctx, notify.Message{
					Text: fmt.Sprintf("dropped %s record: %v", schema.Category, err),
					Kind: notify.KindWarning,
				})
			}
			continue
		}
		out = append(out, l)
	}
	return out
}

// ─── Field extraction ────────────────────────────────────────────────────────

// firstString returns the first non-empty string (or stringified number)
// among keys.
func firstString(raw model.RawRecord, keys []string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// firstNumber returns the first numeric value among keys, accepting raw
// numbers and digit strings.
func firstNumber(raw model.RawRecord, keys []string) (float64, bool) {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstTime parses the first parseable timestamp among keys. RFC 3339 and
// bare dates are accepted; display strings are not.
func firstTime(raw model.RawRecord, keys []string) *time.Time {
	for _, k := range keys {
		s, ok := raw[k].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

// collectTags folds array and scalar fields into one flat tag set,
// deduplicated case-insensitively.
func collectTags(raw model.RawRecord, keys []string) []string {
	var tags []string
	seen := make(map[string]bool)

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, s)
	}

	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			add(v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case []string:
			for _, s := range v {
				add(s)
			}
		}
	}
	return tags
}

// ─── Salary parsing ──────────────────────────────────────────────────────────

// parseSalary builds the canonical salary facet. Explicit numeric min/max
// fields win; otherwise a combined string like "50000-100000" is split on the
// separator with non-digits stripped from each side, and "50000+" becomes an
// open-ended range.
func parseSalary(raw model.RawRecord, schema Schema) *model.SalaryRange {
	currency := firstString(raw, schema.CurrencyKeys)
	if currency == "" {
		currency = "INR"
	}

	minV, minOK := firstNumber(raw, schema.MinSalaryKeys)
	maxV, maxOK := firstNumber(raw, schema.MaxSalaryKeys)
	if minOK || maxOK {
		s := &model.SalaryRange{Currency: currency}
		if minOK {
			s.Min = &minV
		}
		if maxOK {
			s.Max = &maxV
		}
		return s
	}

	combined := firstString(raw, schema.CombinedSalaryKeys)
	if combined == "" {
		return nil
	}
	return parseSalaryString(combined, currency)
}

func parseSalaryString(s, currency string) *model.SalaryRange {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasSuffix(s, "+") {
		v, err := strconv.ParseFloat(digitsOf(s), 64)
		if err != nil {
			return nil
		}
		return &model.SalaryRange{Min: &v, Currency: currency}
	}

	if lo, hi, ok := strings.Cut(s, "-"); ok {
		minV, err1 := strconv.ParseFloat(digitsOf(lo), 64)
		maxV, err2 := strconv.ParseFloat(digitsOf(hi), 64)
		if err1 != nil && err2 != nil {
			return nil
		}
		out := &model.SalaryRange{Currency: currency}
		if err1 == nil {
			out.Min = &minV
		}
		if err2 == nil {
			out.Max = &maxV
		}
		return out
	}

	v, err := strconv.ParseFloat(digitsOf(s), 64)
	if err != nil {
		return nil
	}
	return &model.SalaryRange{Min: &v, Max: &v, Currency: currency}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
