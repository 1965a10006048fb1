// Package rescoring re-evaluates borderline postings after a
// preference update and promotes the ones that now score as matches.
package rescoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/lifecycle"
	"jobmate/matching-service/internal/matching"
	"jobmate/matching-service/internal/model"
)

// Touches reports whether the update changes one of the significant
// fields that warrant rescoring: preferred titles, locations, required
// skills, the salary-minimum override, remote policies, company sizes
// or the avoid-companies list. A cadence-only update, for example,
// does not.
func Touches(update model.PreferencesUpdate) bool {
	return update.Titles != nil ||
		update.Locations != nil ||
		update.Skills != nil ||
		update.SalaryMin != nil ||
		update.RemotePolicies != nil ||
		update.CompanySizes != nil ||
		update.AvoidCompanies != nil
}

// ProfileGetter reads the candidate's CV-derived profile.
type ProfileGetter interface {
	Get(ctx context.Context, candidateID string) (*model.CandidateProfile, error)
}

// BorderlineStore is the slice of the posting store rescoring needs.
type BorderlineStore interface {
	ListBorderline(ctx context.Context, candidateID string, minScore, maxScore int, since time.Time) ([]model.JobPosting, error)
	UpdateMatch(ctx context.Context, postingID string, result model.MatchResult, status string) error
}

// PromotionPublisher announces promotions downstream. Failures are
// non-fatal.
type PromotionPublisher interface {
	PublishPromotion(ctx context.Context, candidateID, postingID string, score int) error
}

// Rescorer runs the re-evaluation protocol.
type Rescorer struct {
	profiles ProfileGetter
	postings BorderlineStore
	scorer   *matching.Scorer
	events   PromotionPublisher
	logger   *zap.Logger
}

// New returns a Rescorer.
func New(profiles ProfileGetter, postings BorderlineStore, scorer *matching.Scorer, events PromotionPublisher, logger *zap.Logger) *Rescorer {
	return &Rescorer{
		profiles: profiles,
		postings: postings,
		scorer:   scorer,
		events:   events,
		logger:   logger,
	}
}

// Rescore re-runs the scorer over the candidate's borderline postings
// discovered within the retention window, using newPrefs. Postings
// whose recomputed score reaches the match threshold get their stored
// score, breakdown and reasons replaced and their status reset to NEW.
// Returns the promoted count.
//
// A missing profile degrades to no rescoring (0, nil) so the caller's
// preference update never fails on this step.
func (r *Rescorer) Rescore(ctx context.Context, candidateID string, newPrefs *model.JobSearchPreferences) (int, error) {
	profile, err := r.profiles.Get(ctx, candidateID)
	if err != nil {
		r.logger.Warn("profile unavailable, skipping rescoring",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
		return 0, nil
	}

	since := time.Now().UTC().Add(-lifecycle.BorderlineTTL)
	borderline, err := r.postings.ListBorderline(ctx, candidateID, matching.MinPersistScore, matching.MatchScore, since)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for i := range borderline {
		posting := &borderline[i]

		result := r.scorer.Score(posting.Raw(), profile, newPrefs, nil)
		if !matching.IsMatch(result.Score) {
			continue // still borderline — left untouched
		}

		if err := r.postings.UpdateMatch(ctx, posting.ID, result, string(lifecycle.StatusNew)); err != nil {
			r.logger.Error("promotion update failed",
				zap.String("candidate_id", candidateID),
				zap.String("posting_id", posting.ID),
				zap.Error(err),
			)
			continue
		}
		promoted++

		if err := r.events.PublishPromotion(ctx, candidateID, posting.ID, result.Score); err != nil {
			r.logger.Warn("promotion event publish failed",
				zap.String("posting_id", posting.ID),
				zap.Error(err),
			)
		}
	}

	if promoted > 0 {
		r.logger.Info("rescoring promoted postings",
			zap.String("candidate_id", candidateID),
			zap.Int("promoted", promoted),
			zap.Int("rescored", len(borderline)),
		)
	}
	return promoted, nil
}
