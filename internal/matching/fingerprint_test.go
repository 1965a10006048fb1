package matching_test

import (
	"testing"

	"jobmate/matching-service/internal/matching"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := matching.Fingerprint("Senior Backend Engineer", "Acme Bank")
	b := matching.Fingerprint("Senior Backend Engineer", "Acme Bank")
	if a != b {
		t.Errorf("fingerprint is not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprint_NormalisesCaseAndWhitespace(t *testing.T) {
	base := matching.Fingerprint("Senior Backend Engineer", "Acme Bank")
	variants := []struct {
		title, company string
	}{
		{"senior backend engineer", "acme bank"},
		{"  Senior   Backend Engineer  ", "Acme  Bank"},
		{"SENIOR BACKEND ENGINEER", "ACME BANK"},
	}
	for _, v := range variants {
		if got := matching.Fingerprint(v.title, v.company); got != base {
			t.Errorf("Fingerprint(%q, %q) differs from the normalised base", v.title, v.company)
		}
	}
}

func TestFingerprint_DistinguishesPostings(t *testing.T) {
	a := matching.Fingerprint("Backend Engineer", "Acme Bank")
	b := matching.Fingerprint("Backend Engineer", "Globex")
	c := matching.Fingerprint("Frontend Engineer", "Acme Bank")
	if a == b || a == c {
		t.Error("fingerprints for different postings must differ")
	}
}

// Title and company must not bleed into each other across the separator.
func TestFingerprint_FieldBoundary(t *testing.T) {
	a := matching.Fingerprint("engineer acme", "bank")
	b := matching.Fingerprint("engineer", "acme bank")
	if a == b {
		t.Error("field boundary lost: distinct (title, company) pairs collide")
	}
}
