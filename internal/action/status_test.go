package action_test

import (
	"testing"

	"careersetu/listing-service/internal/action"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"NOT_ACTED", "PENDING", "CONFIRMED", "FAILED_LOCALLY_CONFIRMED"}
	for _, s := range valid {
		got, err := action.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"UNKNOWN", "", "confirmed", " PENDING"} {
		if _, err := action.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

// ── IsTransitionAllowed — valid (forward) transitions ─────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from action.Status
		to   action.Status
	}{
		{action.StatusNotActed, action.StatusPending},
		{action.StatusPending, action.StatusConfirmed},
		{action.StatusPending, action.StatusFailedLocallyConfirmed},
	}
	for _, c := range cases {
		if !action.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — terminal states have no outgoing transitions ─────

func TestIsTransitionAllowed_FromTerminal(t *testing.T) {
	terminals := []action.Status{action.StatusConfirmed, action.StatusFailedLocallyConfirmed}
	targets := []action.Status{
		action.StatusNotActed,
		action.StatusPending,
		action.StatusConfirmed,
		action.StatusFailedLocallyConfirmed,
	}
	for _, from := range terminals {
		for _, to := range targets {
			if action.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false (terminal state)", from, to)
			}
		}
	}
}

// ── IsTransitionAllowed — no shortcuts, no rollback ───────────────────────

func TestIsTransitionAllowed_Forbidden(t *testing.T) {
	cases := []struct {
		from action.Status
		to   action.Status
	}{
		{action.StatusNotActed, action.StatusConfirmed},              // skip PENDING
		{action.StatusNotActed, action.StatusFailedLocallyConfirmed}, // skip PENDING
		{action.StatusPending, action.StatusNotActed},                // rollback is never automatic
	}
	for _, c := range cases {
		if action.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_Self(t *testing.T) {
	all := []action.Status{
		action.StatusNotActed, action.StatusPending,
		action.StatusConfirmed, action.StatusFailedLocallyConfirmed,
	}
	for _, s := range all {
		if action.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	if !action.IsTerminal(action.StatusConfirmed) {
		t.Error("IsTerminal(CONFIRMED) should be true")
	}
	if !action.IsTerminal(action.StatusFailedLocallyConfirmed) {
		t.Error("IsTerminal(FAILED_LOCALLY_CONFIRMED) should be true")
	}
	for _, s := range []action.Status{action.StatusNotActed, action.StatusPending} {
		if action.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should be false", s)
		}
	}
}
