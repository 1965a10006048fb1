// Package lifecycle owns the job-posting status state machine and the
// time-based cleanup policies.
//
// Valid status graph:
//
//	NEW ──► VIEWED ──► APPLIED
//	           │
//	           └─────► LIKED ──► APPLIED
//
// Every state may additionally transition to DISMISSED. DISMISSED is
// terminal; APPLIED is terminal with respect to matching (only a later
// dismissal may follow it).
package lifecycle

import "fmt"

// Status values mirror the posting_status enum in PostgreSQL.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusViewed    Status = "VIEWED"
	StatusApplied   Status = "APPLIED"
	StatusDismissed Status = "DISMISSED"
	StatusLiked     Status = "LIKED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusNew:     {StatusViewed, StatusDismissed},
	StatusViewed:  {StatusApplied, StatusLiked, StatusDismissed},
	StatusLiked:   {StatusApplied, StatusDismissed},
	StatusApplied: {StatusDismissed},
	// DISMISSED is terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNew, StatusViewed, StatusApplied, StatusDismissed, StatusLiked:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by
// the state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsApplied returns true when status is APPLIED (triggers application
// record creation and linking).
func IsApplied(s Status) bool { return s == StatusApplied }

// IsDismissed returns true when status is DISMISSED (starts the
// discard-until purge clock).
func IsDismissed(s Status) bool { return s == StatusDismissed }
