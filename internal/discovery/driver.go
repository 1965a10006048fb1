// Package discovery orchestrates the daily batch: per-candidate
// discovery, scoring, ingestion, bookkeeping and the notification gate,
// followed by one cleanup pass.
package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/ingest"
	"jobmate/matching-service/internal/lifecycle"
	"jobmate/matching-service/internal/matching"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/notify"
)

// Source is the external discovery collaborator.
type Source interface {
	Discover(ctx context.Context, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) ([]model.RawPosting, error)
}

// PreferencesStore is the slice of the preferences store the driver needs.
type PreferencesStore interface {
	ListActiveCandidates(ctx context.Context) ([]string, error)
	GetOrCreate(ctx context.Context, candidateID string) (*model.JobSearchPreferences, error)
	RecordSearch(ctx context.Context, candidateID string, searchedAt time.Time, zeroMatchDays int) error
}

// ProfileGetter reads candidate profiles.
type ProfileGetter interface {
	Get(ctx context.Context, candidateID string) (*model.CandidateProfile, error)
}

// FeedbackSource feeds the scorer's behavioral component.
type FeedbackSource interface {
	FeedbackCompanies(ctx context.Context, candidateID string) (liked, disliked []string, err error)
}

// Ingestor persists a candidate's scored batch.
type Ingestor interface {
	Ingest(ctx context.Context, candidateID string, batch []ingest.ScoredPosting, discoveredAt time.Time) ingest.Result
}

// Cleaner runs the purge policies after the candidate loop.
type Cleaner interface {
	Run(ctx context.Context, now time.Time) lifecycle.CleanupResult
}

// Gate evaluates digest eligibility per candidate.
type Gate interface {
	Evaluate(ctx context.Context, prefs *model.JobSearchPreferences, promoted int, capable notify.Capability, now time.Time) bool
}

// SearchDuePolicy decides whether a candidate is due for discovery
// today. The policy lives outside this core; DefaultSearchPolicy is a
// reasonable once-a-day implementation.
type SearchDuePolicy func(prefs *model.JobSearchPreferences, now time.Time) bool

// DefaultSearchPolicy runs a candidate at most once per ~day.
func DefaultSearchPolicy(prefs *model.JobSearchPreferences, now time.Time) bool {
	if prefs.LastSearchAt == nil {
		return true
	}
	return now.Sub(*prefs.LastSearchAt) >= 20*time.Hour
}

// BatchReport aggregates counts over one daily run.
type BatchReport struct {
	Candidates  int
	Processed   int
	Skipped     int
	Discovered  int
	Matched     int
	Borderline  int
	DigestsSent int
	Cleanup     lifecycle.CleanupResult
}

// Driver sequences the daily batch. Candidates run strictly
// sequentially: one failure is logged and the loop moves on.
type Driver struct {
	source     Source
	prefs      PreferencesStore
	profiles   ProfileGetter
	feedback   FeedbackSource
	scorer     *matching.Scorer
	ingestor   Ingestor
	cleaner    Cleaner
	gate       Gate
	capability notify.Capability
	duePolicy  SearchDuePolicy
	logger     *zap.Logger
	now        func() time.Time
}

// Config wires a Driver.
type Config struct {
	Source     Source
	Prefs      PreferencesStore
	Profiles   ProfileGetter
	Feedback   FeedbackSource
	Scorer     *matching.Scorer
	Ingestor   Ingestor
	Cleaner    Cleaner
	Gate       Gate
	Capability notify.Capability
	DuePolicy  SearchDuePolicy
	Logger     *zap.Logger
}

// New returns a Driver. Nil Capability allows everyone; nil DuePolicy
// falls back to DefaultSearchPolicy.
func New(cfg Config) *Driver {
	if cfg.Capability == nil {
		cfg.Capability = notify.AllowAll
	}
	if cfg.DuePolicy == nil {
		cfg.DuePolicy = DefaultSearchPolicy
	}
	return &Driver{
		source:     cfg.Source,
		prefs:      cfg.Prefs,
		profiles:   cfg.Profiles,
		feedback:   cfg.Feedback,
		scorer:     cfg.Scorer,
		ingestor:   cfg.Ingestor,
		cleaner:    cfg.Cleaner,
		gate:       cfg.Gate,
		capability: cfg.Capability,
		duePolicy:  cfg.DuePolicy,
		logger:     cfg.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the driver clock. Test hook.
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// RunDaily processes every active candidate once, then runs cleanup.
// Safe to invoke more than once per day: fingerprint de-duplication
// makes repeated ingestion a no-op.
func (d *Driver) RunDaily(ctx context.Context) BatchReport {
	var report BatchReport
	start := d.now()

	candidates, err := d.prefs.ListActiveCandidates(ctx)
	if err != nil {
		d.logger.Error("candidate listing failed, batch aborted", zap.Error(err))
		return report
	}
	report.Candidates = len(candidates)
	d.logger.Info("daily discovery batch started", zap.Int("candidates", len(candidates)))

	for _, candidateID := range candidates {
		processed, err := d.runCandidate(ctx, candidateID, &report)
		if err != nil {
			report.Skipped++
			d.logger.Error("candidate processing failed, continuing batch",
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
			continue
		}
		if processed {
			report.Processed++
		} else {
			report.Skipped++
		}
	}

	report.Cleanup = d.cleaner.Run(ctx, d.now())

	d.logger.Info("daily discovery batch complete",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("discovered", report.Discovered),
		zap.Int("matched", report.Matched),
		zap.Int("borderline", report.Borderline),
		zap.Int("digests_sent", report.DigestsSent),
		zap.Duration("elapsed", d.now().Sub(start)),
	)
	return report
}

// runCandidate handles one candidate end to end. The bool result
// distinguishes "processed" from "skipped by policy"; an error means
// the candidate was skipped for operator-visible reasons.
func (d *Driver) runCandidate(ctx context.Context, candidateID string, report *BatchReport) (bool, error) {
	now := d.now()

	prefs, err := d.prefs.GetOrCreate(ctx, candidateID)
	if err != nil {
		return false, err
	}
	if !d.duePolicy(prefs, now) {
		return false, nil
	}

	profile, err := d.profiles.Get(ctx, candidateID)
	if err != nil {
		return false, err
	}

	raws, err := d.source.Discover(ctx, profile, prefs)
	if err != nil {
		// Discovery being down is not a candidate error: zero
		// discovered today, try again tomorrow.
		d.logger.Warn("discovery unavailable for candidate",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
		return false, nil
	}
	report.Discovered += len(raws)

	history := d.loadHistory(ctx, candidateID)

	batch := make([]ingest.ScoredPosting, 0, len(raws))
	matched, borderline := 0, 0
	for _, raw := range raws {
		result := d.scorer.Score(raw, profile, prefs, history)
		switch {
		case matching.IsMatch(result.Score):
			matched++
		case matching.IsBorderline(result.Score):
			borderline++
		}
		batch = append(batch, ingest.ScoredPosting{Raw: raw, Match: result})
	}
	report.Matched += matched
	report.Borderline += borderline

	res := d.ingestor.Ingest(ctx, candidateID, batch, now)

	zeroDays := 0
	if matched == 0 {
		zeroDays = prefs.ZeroMatchDays + 1
	}
	if err := d.prefs.RecordSearch(ctx, candidateID, now, zeroDays); err != nil {
		d.logger.Error("search bookkeeping failed",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
	}

	if d.gate.Evaluate(ctx, prefs, res.Matched, d.capability, now) {
		report.DigestsSent++
	}

	d.logger.Info("candidate processed",
		zap.String("candidate_id", candidateID),
		zap.Int("discovered", len(raws)),
		zap.Int("matched", matched),
		zap.Int("borderline", borderline),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
	)
	return true, nil
}

// loadHistory fetches feedback companies; failures degrade to no
// behavioral signal.
func (d *Driver) loadHistory(ctx context.Context, candidateID string) *matching.FeedbackHistory {
	liked, disliked, err := d.feedback.FeedbackCompanies(ctx, candidateID)
	if err != nil {
		d.logger.Debug("feedback history unavailable",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
		return nil
	}
	if len(liked) == 0 && len(disliked) == 0 {
		return nil
	}
	history := &matching.FeedbackHistory{
		LikedCompanies:    make(map[string]bool, len(liked)),
		DislikedCompanies: make(map[string]bool, len(disliked)),
	}
	for _, c := range liked {
		history.LikedCompanies[normaliseCompany(c)] = true
	}
	for _, c := range disliked {
		history.DislikedCompanies[normaliseCompany(c)] = true
	}
	return history
}
