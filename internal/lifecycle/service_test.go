package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/lifecycle"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/store"
)

// fakePostingStore keeps one candidate's postings in a map.
type fakePostingStore struct {
	postings map[string]*model.JobPosting
	linkErr  error
}

func newFakePostingStore(postings ...*model.JobPosting) *fakePostingStore {
	m := make(map[string]*model.JobPosting)
	for _, p := range postings {
		m[p.ID] = p
	}
	return &fakePostingStore{postings: m}
}

func (f *fakePostingStore) Get(_ context.Context, candidateID, postingID string) (*model.JobPosting, error) {
	p, ok := f.postings[postingID]
	if !ok || p.CandidateID != candidateID {
		return nil, store.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostingStore) UpdateStatus(_ context.Context, candidateID, postingID, status string, discardUntil *time.Time) (*model.JobPosting, error) {
	p, ok := f.postings[postingID]
	if !ok || p.CandidateID != candidateID {
		return nil, store.ErrNotFound
	}
	p.Status = status
	if discardUntil != nil {
		p.DiscardUntil = discardUntil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostingStore) SetFeedback(_ context.Context, candidateID, postingID string, kind model.FeedbackKind, reason *string) error {
	p, ok := f.postings[postingID]
	if !ok || p.CandidateID != candidateID {
		return store.ErrNotFound
	}
	p.Feedback = &kind
	p.FeedbackReason = reason
	return nil
}

func (f *fakePostingStore) LinkApplication(_ context.Context, postingID, applicationID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	p, ok := f.postings[postingID]
	if !ok {
		return store.ErrNotFound
	}
	p.ApplicationID = &applicationID
	return nil
}

type fakeAppCreator struct {
	created int
	err     error
}

func (f *fakeAppCreator) Create(_ context.Context, candidateID, postingID string) (*model.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	return &model.Application{
		ID:           "app-1",
		CandidateID:  candidateID,
		JobPostingID: postingID,
		CreatedAt:    time.Now(),
	}, nil
}

func posting(id, status string) *model.JobPosting {
	return &model.JobPosting{ID: id, CandidateID: "cand-1", Status: status, Score: 80}
}

func TestTransition_RejectsInvalidMove(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "NEW"))
	svc := lifecycle.NewService(postings, &fakeAppCreator{}, zap.NewNop())

	_, err := svc.Transition(context.Background(), "cand-1", "p1", "APPLIED")
	var verr *store.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("NEW → APPLIED should fail with ValidationError, got %v", err)
	}
	if got := postings.postings["p1"].Status; got != "NEW" {
		t.Errorf("status changed to %s on rejected transition", got)
	}
}

func TestTransition_DismissStampsDiscardUntil(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "NEW"))
	svc := lifecycle.NewService(postings, &fakeAppCreator{}, zap.NewNop())

	updated, err := svc.Transition(context.Background(), "cand-1", "p1", "DISMISSED")
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if updated.DiscardUntil == nil {
		t.Error("dismissal must stamp discard-until")
	}
}

func TestTransition_AppliedCreatesAndLinksApplication(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "VIEWED"))
	apps := &fakeAppCreator{}
	svc := lifecycle.NewService(postings, apps, zap.NewNop())

	updated, err := svc.Transition(context.Background(), "cand-1", "p1", "APPLIED")
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if apps.created != 1 {
		t.Errorf("applications created = %d, want 1", apps.created)
	}
	if updated.ApplicationID == nil || *updated.ApplicationID != "app-1" {
		t.Error("posting not linked to the created application")
	}
}

// Link failure after a successful application creation is a logged
// secondary failure: the APPLIED transition itself must stand.
func TestTransition_LinkFailureDoesNotFailApply(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "VIEWED"))
	postings.linkErr = errors.New("connection reset")
	apps := &fakeAppCreator{}
	svc := lifecycle.NewService(postings, apps, zap.NewNop())

	updated, err := svc.Transition(context.Background(), "cand-1", "p1", "APPLIED")
	if err != nil {
		t.Fatalf("apply flow failed on secondary link error: %v", err)
	}
	if updated.Status != "APPLIED" {
		t.Errorf("status = %s, want APPLIED", updated.Status)
	}
	if apps.created != 1 {
		t.Errorf("applications created = %d, want 1", apps.created)
	}
}

func TestRecordFeedback_HideDismisses(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "NEW"))
	svc := lifecycle.NewService(postings, &fakeAppCreator{}, zap.NewNop())

	updated, err := svc.RecordFeedback(context.Background(), "cand-1", "p1", model.FeedbackHide, nil)
	if err != nil {
		t.Fatalf("RecordFeedback returned error: %v", err)
	}
	if updated.Status != "DISMISSED" {
		t.Errorf("status = %s, want DISMISSED after hide", updated.Status)
	}
	if updated.Feedback == nil || *updated.Feedback != model.FeedbackHide {
		t.Error("hide feedback not recorded")
	}
}

func TestRecordFeedback_LikeKeepsStatus(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "NEW"))
	svc := lifecycle.NewService(postings, &fakeAppCreator{}, zap.NewNop())

	updated, err := svc.RecordFeedback(context.Background(), "cand-1", "p1", model.FeedbackLike, nil)
	if err != nil {
		t.Fatalf("RecordFeedback returned error: %v", err)
	}
	if updated.Status != "NEW" {
		t.Errorf("status = %s, want unchanged NEW after like", updated.Status)
	}
}

func TestRecordFeedback_UnknownKind(t *testing.T) {
	postings := newFakePostingStore(posting("p1", "NEW"))
	svc := lifecycle.NewService(postings, &fakeAppCreator{}, zap.NewNop())

	_, err := svc.RecordFeedback(context.Background(), "cand-1", "p1", model.FeedbackKind("MEH"), nil)
	var verr *store.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown feedback kind should fail with ValidationError, got %v", err)
	}
}
