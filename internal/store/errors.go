// Package store implements the relational persistence layer on
// PostgreSQL via pgxpool. All expected failure modes are surfaced as
// typed sentinel errors so callers can distinguish a duplicate insert
// (non-fatal, skip) from a real storage failure.
package store

import "errors"

// ErrDuplicate is returned by InsertPosting when the (candidate,
// fingerprint) pair already exists. Expected during re-discovery; not
// logged as an error by callers.
var ErrDuplicate = errors.New("posting already exists for this candidate")

// ErrNotFound is returned when a row is missing or does not belong to
// the requesting candidate.
var ErrNotFound = errors.New("not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
