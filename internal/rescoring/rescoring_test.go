package rescoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/matching"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/rescoring"
)

type fakeProfiles struct {
	profile *model.CandidateProfile
	err     error
}

func (f *fakeProfiles) Get(context.Context, string) (*model.CandidateProfile, error) {
	return f.profile, f.err
}

type fakePostings struct {
	borderline []model.JobPosting
	listErr    error
	updated    map[string]model.MatchResult
	statuses   map[string]string
}

func (f *fakePostings) ListBorderline(_ context.Context, _ string, minScore, maxScore int, _ time.Time) ([]model.JobPosting, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.JobPosting
	for _, p := range f.borderline {
		if p.Score >= minScore && p.Score < maxScore {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostings) UpdateMatch(_ context.Context, postingID string, result model.MatchResult, status string) error {
	if f.updated == nil {
		f.updated = make(map[string]model.MatchResult)
		f.statuses = make(map[string]string)
	}
	f.updated[postingID] = result
	f.statuses[postingID] = status
	return nil
}

type fakeEvents struct {
	published int
	err       error
}

func (f *fakeEvents) PublishPromotion(context.Context, string, string, int) error {
	f.published++
	return f.err
}

// profileWithSkills yields a profile whose CV skills fully cover the
// test postings' requirements, driving a high skills component.
func profileWithSkills() *model.CandidateProfile {
	return &model.CandidateProfile{
		CandidateID: "cand-1",
		City:        "Paris",
		CV: &model.CVAnalysis{
			Skills:    []string{"Go", "PostgreSQL", "Redis"},
			Seniority: "senior",
		},
	}
}

// borderlinePosting scored 70 under the old preferences; its content
// matches profileWithSkills well enough that better preferences promote it.
func borderlinePosting(id string) model.JobPosting {
	return model.JobPosting{
		ID:              id,
		CandidateID:     "cand-1",
		Title:           "Senior Backend Engineer",
		Company:         "Acme Bank",
		Description:     "Go and PostgreSQL services.",
		Location:        "Remote",
		ExperienceLevel: "senior",
		SalaryMin:       70000,
		SalaryMax:       90000,
		RequiredSkills:  []string{"Go", "PostgreSQL", "Redis"},
		Score:           70,
		Status:          "VIEWED",
		DiscoveredAt:    time.Now().Add(-24 * time.Hour),
	}
}

func raisingPrefs() *model.JobSearchPreferences {
	prefs := model.DefaultPreferences("cand-1")
	prefs.RemotePolicies = []model.RemotePolicy{model.RemoteOnly}
	prefs.SalaryMin = 60000
	return prefs
}

func newRescorer(profiles *fakeProfiles, postings *fakePostings, events *fakeEvents) *rescoring.Rescorer {
	return rescoring.New(profiles, postings, matching.NewScorer(matching.DefaultWeights()), events, zap.NewNop())
}

func TestRescore_PromotesQualifyingBorderline(t *testing.T) {
	postings := &fakePostings{borderline: []model.JobPosting{borderlinePosting("p1")}}
	events := &fakeEvents{}
	r := newRescorer(&fakeProfiles{profile: profileWithSkills()}, postings, events)

	promoted, err := r.Rescore(context.Background(), "cand-1", raisingPrefs())
	if err != nil {
		t.Fatalf("Rescore returned error: %v", err)
	}
	if promoted != 1 {
		t.Fatalf("promoted = %d, want 1", promoted)
	}

	result, ok := postings.updated["p1"]
	if !ok {
		t.Fatal("promoted posting was not updated in the store")
	}
	if !matching.IsMatch(result.Score) {
		t.Errorf("stored score %d below match threshold", result.Score)
	}
	if postings.statuses["p1"] != "NEW" {
		t.Errorf("status = %s, want NEW after promotion", postings.statuses["p1"])
	}
	if events.published != 1 {
		t.Errorf("promotion events published = %d, want 1", events.published)
	}
}

func TestRescore_StillBorderlineLeftUntouched(t *testing.T) {
	// A profile with no overlapping skills keeps the recomputed score low.
	profile := &model.CandidateProfile{
		CandidateID: "cand-1",
		CV:          &model.CVAnalysis{Skills: []string{"COBOL"}, Seniority: "junior"},
	}
	postings := &fakePostings{borderline: []model.JobPosting{borderlinePosting("p1")}}
	r := newRescorer(&fakeProfiles{profile: profile}, postings, &fakeEvents{})

	promoted, err := r.Rescore(context.Background(), "cand-1", model.DefaultPreferences("cand-1"))
	if err != nil {
		t.Fatalf("Rescore returned error: %v", err)
	}
	if promoted != 0 {
		t.Errorf("promoted = %d, want 0", promoted)
	}
	if len(postings.updated) != 0 {
		t.Errorf("%d postings updated, want 0 — non-qualifying rows must stay untouched", len(postings.updated))
	}
}

// A missing profile degrades to "no rescoring" without failing the
// caller's preference update.
func TestRescore_MissingProfileDegrades(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("profile service down")}
	postings := &fakePostings{borderline: []model.JobPosting{borderlinePosting("p1")}}
	r := newRescorer(profiles, postings, &fakeEvents{})

	promoted, err := r.Rescore(context.Background(), "cand-1", raisingPrefs())
	if err != nil {
		t.Fatalf("Rescore must not fail on a missing profile, got %v", err)
	}
	if promoted != 0 {
		t.Errorf("promoted = %d, want 0", promoted)
	}
}

func TestRescore_PublishFailureNonFatal(t *testing.T) {
	postings := &fakePostings{borderline: []model.JobPosting{borderlinePosting("p1")}}
	events := &fakeEvents{err: errors.New("redis down")}
	r := newRescorer(&fakeProfiles{profile: profileWithSkills()}, postings, events)

	promoted, err := r.Rescore(context.Background(), "cand-1", raisingPrefs())
	if err != nil {
		t.Fatalf("Rescore returned error: %v", err)
	}
	if promoted != 1 {
		t.Errorf("promoted = %d, want 1 despite publish failure", promoted)
	}
}

// ── Touches ───────────────────────────────────────────────────────────────

func TestTouches(t *testing.T) {
	titles := []string{"Backend Engineer"}
	salary := 80000
	cadence := model.CadenceDaily

	cases := []struct {
		name   string
		update model.PreferencesUpdate
		want   bool
	}{
		{"empty update", model.PreferencesUpdate{}, false},
		{"cadence only", model.PreferencesUpdate{Cadence: &cadence}, false},
		{"titles", model.PreferencesUpdate{Titles: &titles}, true},
		{"salary override", model.PreferencesUpdate{SalaryMin: &salary}, true},
		{"avoid companies", model.PreferencesUpdate{AvoidCompanies: &titles}, true},
	}
	for _, c := range cases {
		if got := rescoring.Touches(c.update); got != c.want {
			t.Errorf("%s: Touches = %v, want %v", c.name, got, c.want)
		}
	}
}
