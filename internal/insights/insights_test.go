package insights_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/insights"
	"jobmate/matching-service/internal/model"
)

type fakePrefsStore struct {
	prefs   *model.JobSearchPreferences
	saveErr error
	saved   *model.SearchInsights
}

func (f *fakePrefsStore) GetOrCreate(context.Context, string) (*model.JobSearchPreferences, error) {
	return f.prefs, nil
}

func (f *fakePrefsStore) SaveInsights(_ context.Context, _ string, in *model.SearchInsights) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = in
	return nil
}

type fakeProfiles struct{ err error }

func (f *fakeProfiles) Get(context.Context, string) (*model.CandidateProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.CandidateProfile{CandidateID: "cand-1"}, nil
}

type fakeRecent struct{}

func (fakeRecent) ListRecent(context.Context, string, int) ([]model.JobPosting, error) {
	return nil, nil
}

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) Generate(context.Context, *model.CandidateProfile, *model.JobSearchPreferences, []model.JobPosting) (*model.SearchInsights, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.SearchInsights{
		Keywords:       []string{"golang", "backend"},
		MarketInsights: "fresh",
	}, nil
}

func prefsWithCache(age time.Duration, now time.Time) *model.JobSearchPreferences {
	generatedAt := now.Add(-age)
	prefs := model.DefaultPreferences("cand-1")
	prefs.AILastAnalysisAt = &generatedAt
	prefs.Insights = &model.SearchInsights{
		Keywords:       []string{"stale"},
		MarketInsights: "stale",
		GeneratedAt:    generatedAt,
	}
	return prefs
}

func newService(prefs *fakePrefsStore, gen *fakeGenerator, now time.Time) *insights.Service {
	svc := insights.NewService(prefs, &fakeProfiles{}, fakeRecent{}, gen, zap.NewNop())
	return svc.WithClock(func() time.Time { return now })
}

func TestGet_FreshCacheServedUnchanged(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{prefs: prefsWithCache(6*24*time.Hour, now)}
	gen := &fakeGenerator{}
	svc := newService(prefs, gen, now)

	res, err := svc.Get(context.Background(), "cand-1", false)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !res.Cached {
		t.Error("6-day-old cache should be served as cached")
	}
	if res.Insights.MarketInsights != "stale" {
		t.Error("cached payload was modified")
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for a fresh cache", gen.calls)
	}
}

func TestGet_ExpiredCacheRegenerates(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{prefs: prefsWithCache(8*24*time.Hour, now)}
	gen := &fakeGenerator{}
	svc := newService(prefs, gen, now)

	res, err := svc.Get(context.Background(), "cand-1", false)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if res.Cached {
		t.Error("8-day-old cache must be regenerated")
	}
	if res.Insights.MarketInsights != "fresh" {
		t.Error("regenerated payload not returned")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
	if prefs.saved == nil {
		t.Error("regenerated insights were not persisted")
	}
	if !prefs.saved.GeneratedAt.Equal(now) {
		t.Error("persisted insights missing generation timestamp")
	}
}

func TestGet_ForceRefreshIgnoresFreshness(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{prefs: prefsWithCache(time.Hour, now)}
	gen := &fakeGenerator{}
	svc := newService(prefs, gen, now)

	res, err := svc.Get(context.Background(), "cand-1", true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if res.Cached {
		t.Error("forceRefresh must always regenerate")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestGet_CacheWriteFailureStillReturnsFresh(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{
		prefs:   prefsWithCache(8*24*time.Hour, now),
		saveErr: errors.New("connection reset"),
	}
	svc := newService(prefs, &fakeGenerator{}, now)

	res, err := svc.Get(context.Background(), "cand-1", false)
	if err != nil {
		t.Fatalf("Get must not fail on a cache-write error, got %v", err)
	}
	if res.Cached || res.Insights.MarketInsights != "fresh" {
		t.Error("fresh insights must be returned despite the failed write")
	}
}

func TestGet_GenerationFailureFallsBackToStale(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{prefs: prefsWithCache(8*24*time.Hour, now)}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	svc := newService(prefs, gen, now)

	res, err := svc.Get(context.Background(), "cand-1", false)
	if err != nil {
		t.Fatalf("Get should fall back to stale cache, got error %v", err)
	}
	if !res.Cached || res.Insights.MarketInsights != "stale" {
		t.Error("stale cache not served on regeneration failure")
	}
}

func TestGet_GenerationFailureWithoutCacheErrors(t *testing.T) {
	now := time.Now().UTC()
	prefs := &fakePrefsStore{prefs: model.DefaultPreferences("cand-1")}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	svc := newService(prefs, gen, now)

	if _, err := svc.Get(context.Background(), "cand-1", false); err == nil {
		t.Fatal("expected error when regeneration fails with no cache to fall back on")
	}
}
