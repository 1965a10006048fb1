// Package insights manages the time-boxed cache of AI-generated search
// guidance and its regeneration through the AI collaborator.
package insights

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/model"
)

// FreshnessWindow is how long a generated insight set is served from
// cache before regeneration.
const FreshnessWindow = 7 * 24 * time.Hour

// contextPostings caps how many recent postings are sent to the AI
// collaborator as context.
const contextPostings = 20

// Generator is the AI-insight collaborator: slow and occasionally
// unavailable.
type Generator interface {
	Generate(ctx context.Context, profile *model.CandidateProfile, prefs *model.JobSearchPreferences, recent []model.JobPosting) (*model.SearchInsights, error)
}

// PreferencesStore is the slice of the preferences store this service needs.
type PreferencesStore interface {
	GetOrCreate(ctx context.Context, candidateID string) (*model.JobSearchPreferences, error)
	SaveInsights(ctx context.Context, candidateID string, insights *model.SearchInsights) error
}

// ProfileGetter reads the candidate profile for generation context.
type ProfileGetter interface {
	Get(ctx context.Context, candidateID string) (*model.CandidateProfile, error)
}

// RecentPostings lists a candidate's latest discoveries for context.
type RecentPostings interface {
	ListRecent(ctx context.Context, candidateID string, limit int) ([]model.JobPosting, error)
}

// Result carries the insights plus whether they came from the cache.
type Result struct {
	Insights *model.SearchInsights
	Cached   bool
}

// Service serves and refreshes the insight cache.
type Service struct {
	prefs     PreferencesStore
	profiles  ProfileGetter
	postings  RecentPostings
	generator Generator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService returns a Service using the wall clock.
func NewService(prefs PreferencesStore, profiles ProfileGetter, postings RecentPostings, generator Generator, logger *zap.Logger) *Service {
	return &Service{
		prefs:     prefs,
		profiles:  profiles,
		postings:  postings,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns search insights for the candidate. A cache younger than
// FreshnessWindow is returned unchanged unless forceRefresh is set.
// Regeneration persists the new cache wholesale; the write is
// best-effort and a failed write still returns the fresh insights.
// When regeneration itself fails, any stale cache is returned instead
// of an error.
func (s *Service) Get(ctx context.Context, candidateID string, forceRefresh bool) (*Result, error) {
	prefs, err := s.prefs.GetOrCreate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cached := prefs.Insights
	if !forceRefresh && cached != nil && prefs.AILastAnalysisAt != nil &&
		now.Sub(*prefs.AILastAnalysisAt) < FreshnessWindow {
		return &Result{Insights: cached, Cached: true}, nil
	}

	fresh, err := s.regenerate(ctx, candidateID, prefs, now)
	if err != nil {
		if cached != nil {
			s.logger.Warn("insight regeneration failed, serving stale cache",
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
			return &Result{Insights: cached, Cached: true}, nil
		}
		return nil, err
	}

	if err := s.prefs.SaveInsights(ctx, candidateID, fresh); err != nil {
		s.logger.Warn("insight cache write failed, returning unpersisted insights",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
	}

	return &Result{Insights: fresh, Cached: false}, nil
}

func (s *Service) regenerate(ctx context.Context, candidateID string, prefs *model.JobSearchPreferences, now time.Time) (*model.SearchInsights, error) {
	if s.generator == nil {
		return nil, errors.New("no insight generator configured")
	}

	profile, err := s.profiles.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	recent, err := s.postings.ListRecent(ctx, candidateID, contextPostings)
	if err != nil {
		// Context only — generation still works without it.
		s.logger.Warn("recent postings unavailable for insight context",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
		recent = nil
	}

	insights, err := s.generator.Generate(ctx, profile, prefs, recent)
	if err != nil {
		return nil, err
	}
	insights.GeneratedAt = now
	return insights, nil
}
