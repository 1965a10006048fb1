package lifecycle_test

import (
	"testing"

	"jobmate/matching-service/internal/lifecycle"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"NEW", "VIEWED", "APPLIED", "DISMISSED", "LIKED"}
	for _, s := range valid {
		got, err := lifecycle.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := lifecycle.ParseStatus("UNKNOWN")
	if err == nil {
		t.Error("ParseStatus(\"UNKNOWN\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := lifecycle.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ParseStatus must be case-sensitive — lowercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	lowercase := []string{"new", "viewed", "applied", "dismissed", "liked"}
	for _, s := range lowercase {
		_, err := lifecycle.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject lowercase value, got nil error", s)
		}
	}
}

// ── IsTransitionAllowed — valid forward transitions ───────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusNew, lifecycle.StatusViewed},
		{lifecycle.StatusViewed, lifecycle.StatusApplied},
		{lifecycle.StatusViewed, lifecycle.StatusLiked},
		{lifecycle.StatusLiked, lifecycle.StatusApplied},
	}
	for _, c := range cases {
		if !lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — dismissal is allowed from every live state ──────

func TestIsTransitionAllowed_ToDismissed(t *testing.T) {
	nonTerminals := []lifecycle.Status{
		lifecycle.StatusNew,
		lifecycle.StatusViewed,
		lifecycle.StatusApplied,
		lifecycle.StatusLiked,
	}
	for _, from := range nonTerminals {
		if !lifecycle.IsTransitionAllowed(from, lifecycle.StatusDismissed) {
			t.Errorf("IsTransitionAllowed(%s → DISMISSED) should be true", from)
		}
	}
}

// ── IsTransitionAllowed — DISMISSED is terminal ───────────────────────────

func TestIsTransitionAllowed_FromDismissed(t *testing.T) {
	targets := []lifecycle.Status{
		lifecycle.StatusNew,
		lifecycle.StatusViewed,
		lifecycle.StatusApplied,
		lifecycle.StatusDismissed,
		lifecycle.StatusLiked,
	}
	for _, to := range targets {
		if lifecycle.IsTransitionAllowed(lifecycle.StatusDismissed, to) {
			t.Errorf("IsTransitionAllowed(DISMISSED → %s) should be false (terminal state)", to)
		}
	}
}

// ── IsTransitionAllowed — skipping VIEWED is forbidden ────────────────────

func TestIsTransitionAllowed_SkipLevel(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusNew, lifecycle.StatusApplied}, // skip VIEWED
		{lifecycle.StatusNew, lifecycle.StatusLiked},   // skip VIEWED
	}
	for _, c := range cases {
		if lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (skip-level)", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — backwards movements are forbidden ───────────────

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusViewed, lifecycle.StatusNew},
		{lifecycle.StatusApplied, lifecycle.StatusViewed},
		{lifecycle.StatusLiked, lifecycle.StatusViewed},
		{lifecycle.StatusApplied, lifecycle.StatusNew},
	}
	for _, c := range cases {
		if lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — self-transitions are forbidden ──────────────────

func TestIsTransitionAllowed_Self(t *testing.T) {
	all := []lifecycle.Status{
		lifecycle.StatusNew, lifecycle.StatusViewed, lifecycle.StatusApplied,
		lifecycle.StatusDismissed, lifecycle.StatusLiked,
	}
	for _, s := range all {
		if lifecycle.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── Predicate helpers ──────────────────────────────────────────────────────

func TestIsApplied(t *testing.T) {
	if !lifecycle.IsApplied(lifecycle.StatusApplied) {
		t.Error("IsApplied(APPLIED) should return true")
	}
	for _, s := range []lifecycle.Status{
		lifecycle.StatusNew, lifecycle.StatusViewed,
		lifecycle.StatusDismissed, lifecycle.StatusLiked,
	} {
		if lifecycle.IsApplied(s) {
			t.Errorf("IsApplied(%s) should return false", s)
		}
	}
}

func TestIsDismissed(t *testing.T) {
	if !lifecycle.IsDismissed(lifecycle.StatusDismissed) {
		t.Error("IsDismissed(DISMISSED) should return true")
	}
	for _, s := range []lifecycle.Status{
		lifecycle.StatusNew, lifecycle.StatusViewed,
		lifecycle.StatusApplied, lifecycle.StatusLiked,
	} {
		if lifecycle.IsDismissed(s) {
			t.Errorf("IsDismissed(%s) should return false", s)
		}
	}
}

// NEW is the mandatory initial state for any persisted posting.
// Verify it is never reachable through a user transition.
func TestIsTransitionAllowed_NewIsNeverReachable(t *testing.T) {
	sources := []lifecycle.Status{
		lifecycle.StatusViewed,
		lifecycle.StatusApplied,
		lifecycle.StatusDismissed,
		lifecycle.StatusLiked,
	}
	for _, from := range sources {
		if lifecycle.IsTransitionAllowed(from, lifecycle.StatusNew) {
			t.Errorf("IsTransitionAllowed(%s → NEW) must be false: NEW is only an initial state", from)
		}
	}
}
