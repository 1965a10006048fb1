// Status transitions and the apply flow. Transport-agnostic: used by
// the HTTP handlers in internal/api.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/store"
)

// PostingStore is the slice of the posting store the service needs.
type PostingStore interface {
	Get(ctx context.Context, candidateID, postingID string) (*model.JobPosting, error)
	UpdateStatus(ctx context.Context, candidateID, postingID, status string, discardUntil *time.Time) (*model.JobPosting, error)
	SetFeedback(ctx context.Context, candidateID, postingID string, kind model.FeedbackKind, reason *string) error
	LinkApplication(ctx context.Context, postingID, applicationID string) error
}

// ApplicationCreator creates the application record for the apply flow.
type ApplicationCreator interface {
	Create(ctx context.Context, candidateID, postingID string) (*model.Application, error)
}

// Service encapsulates posting lifecycle operations.
type Service struct {
	postings PostingStore
	apps     ApplicationCreator
	logger   *zap.Logger
}

// NewService returns a configured Service.
func NewService(postings PostingStore, apps ApplicationCreator, logger *zap.Logger) *Service {
	return &Service{postings: postings, apps: apps, logger: logger}
}

// Transition moves a posting to newStatus, enforcing the state machine.
// A transition to DISMISSED stamps discard-until with the current time,
// starting the 30-day purge clock. A transition to APPLIED creates and
// links an application record; if linking fails after the application
// was created, the failure is logged and the transition still succeeds.
func (s *Service) Transition(ctx context.Context, candidateID, postingID string, newStatusStr string) (*model.JobPosting, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &store.ValidationError{Msg: err.Error()}
	}

	current, err := s.postings.Get(ctx, candidateID, postingID)
	if err != nil {
		return nil, err
	}

	currentStatus, err := ParseStatus(current.Status)
	if err != nil {
		return nil, fmt.Errorf("stored status is invalid: %w", err)
	}
	if !IsTransitionAllowed(currentStatus, newStatus) {
		return nil, &store.ValidationError{
			Msg: fmt.Sprintf("transition %s → %s is not allowed", currentStatus, newStatus),
		}
	}

	var discardUntil *time.Time
	if IsDismissed(newStatus) {
		now := time.Now().UTC()
		discardUntil = &now
	}

	updated, err := s.postings.UpdateStatus(ctx, candidateID, postingID, string(newStatus), discardUntil)
	if err != nil {
		return nil, err
	}

	if IsApplied(newStatus) {
		app, err := s.apps.Create(ctx, candidateID, postingID)
		if err != nil {
			// The status change itself stands; the missing application
			// record is an operator problem, not a user-facing failure.
			s.logger.Error("application creation failed after APPLIED transition",
				zap.String("candidate_id", candidateID),
				zap.String("posting_id", postingID),
				zap.Error(err),
			)
			return updated, nil
		}
		if err := s.postings.LinkApplication(ctx, postingID, app.ID); err != nil {
			s.logger.Error("application link failed, application exists unlinked",
				zap.String("posting_id", postingID),
				zap.String("application_id", app.ID),
				zap.Error(err),
			)
		} else {
			updated.ApplicationID = &app.ID
		}
	}

	return updated, nil
}

// RecordFeedback stores like/dislike/hide feedback. HIDE additionally
// dismisses the posting when the state machine allows it.
func (s *Service) RecordFeedback(ctx context.Context, candidateID, postingID string, kind model.FeedbackKind, reason *string) (*model.JobPosting, error) {
	switch kind {
	case model.FeedbackLike, model.FeedbackDislike, model.FeedbackHide:
	default:
		return nil, &store.ValidationError{Msg: fmt.Sprintf("unknown feedback %q", kind)}
	}

	if err := s.postings.SetFeedback(ctx, candidateID, postingID, kind, reason); err != nil {
		return nil, err
	}

	if kind == model.FeedbackHide {
		updated, err := s.Transition(ctx, candidateID, postingID, string(StatusDismissed))
		if err == nil {
			return updated, nil
		}
		// Already dismissed or otherwise non-transitionable: the
		// feedback is recorded either way.
		s.logger.Debug("hide feedback without dismissal",
			zap.String("posting_id", postingID),
			zap.Error(err),
		)
	}

	return s.postings.Get(ctx, candidateID, postingID)
}
