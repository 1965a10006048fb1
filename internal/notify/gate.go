// Package notify decides, per candidate and cadence, whether a digest
// is due, and dispatches it through the email collaborator.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/model"
)

// Capability is the strategy answering whether digests are currently
// allowed for this candidate (subscription state, kill switch). It is
// passed in, never read from global state.
type Capability func(candidateID string) bool

// AllowAll is the default capability when no external gating applies.
func AllowAll(string) bool { return true }

// DigestSender is the external email-digest collaborator.
type DigestSender interface {
	SendDigest(ctx context.Context, candidateID string, cadence model.NotificationCadence, matchCount int) (bool, error)
}

// DigestRecorder stamps the last-sent timestamp after a dispatch.
type DigestRecorder interface {
	RecordDigest(ctx context.Context, candidateID string, sentAt time.Time) error
}

// Due reports whether the cadence window has elapsed since the last
// digest. A candidate who has never received one is always due.
// Unknown cadence values fall back to weekly.
func Due(cadence model.NotificationCadence, lastSentAt *time.Time, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	var window time.Duration
	switch cadence {
	case model.CadenceDaily:
		window = 24 * time.Hour
	case model.CadenceMonthly:
		window = 30 * 24 * time.Hour
	default:
		window = 7 * 24 * time.Hour
	}
	return now.Sub(*lastSentAt) >= window
}

// Gate evaluates digest eligibility and dispatches.
type Gate struct {
	sender   DigestSender
	recorder DigestRecorder
	logger   *zap.Logger
}

// NewGate returns a Gate.
func NewGate(sender DigestSender, recorder DigestRecorder, logger *zap.Logger) *Gate {
	return &Gate{sender: sender, recorder: recorder, logger: logger}
}

// Evaluate sends a digest when the candidate's cadence is due, at least
// one match was newly promoted in this run, and the capability allows
// it. A send failure is logged and reported as not-sent; it never
// aborts the caller's batch.
func (g *Gate) Evaluate(ctx context.Context, prefs *model.JobSearchPreferences, promoted int, capable Capability, now time.Time) bool {
	if promoted < 1 {
		return false // zero-match runs never trigger a digest
	}
	if capable != nil && !capable(prefs.CandidateID) {
		g.logger.Debug("digest suppressed by capability check",
			zap.String("candidate_id", prefs.CandidateID),
		)
		return false
	}
	if !Due(prefs.Cadence, prefs.LastDigestAt, now) {
		return false
	}

	sent, err := g.sender.SendDigest(ctx, prefs.CandidateID, prefs.Cadence, promoted)
	if err != nil {
		g.logger.Error("digest dispatch failed",
			zap.String("candidate_id", prefs.CandidateID),
			zap.Error(err),
		)
		return false
	}
	if !sent {
		return false
	}

	if err := g.recorder.RecordDigest(ctx, prefs.CandidateID, now); err != nil {
		// The digest went out; a missing timestamp only risks an early
		// repeat next window.
		g.logger.Warn("digest timestamp write failed",
			zap.String("candidate_id", prefs.CandidateID),
			zap.Error(err),
		)
	}
	return true
}
