package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/matching"
)

// Retention windows for the two purge policies.
const (
	// BorderlineTTL is how long a borderline-scored posting is kept
	// before deletion, regardless of status.
	BorderlineTTL = 7 * 24 * time.Hour
	// DismissedTTL is how long a dismissed posting with a discard-until
	// timestamp is kept after that timestamp.
	DismissedTTL = 30 * 24 * time.Hour
)

// PurgeStore is the slice of the posting store the cleaner needs.
type PurgeStore interface {
	PurgeBorderline(ctx context.Context, minScore, maxScore int, cutoff time.Time) (int64, error)
	PurgeDismissed(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupResult reports row counts per purge policy.
type CleanupResult struct {
	BorderlinePurged int64
	DismissedPurged  int64
}

// Cleaner runs the daily purge policies.
type Cleaner struct {
	store  PurgeStore
	logger *zap.Logger
}

// NewCleaner returns a Cleaner.
func NewCleaner(store PurgeStore, logger *zap.Logger) *Cleaner {
	return &Cleaner{store: store, logger: logger}
}

// Run executes both purge policies once. The policies are independent:
// a failure in one is logged and does not prevent the other, and
// neither failure propagates to the caller's batch.
func (c *Cleaner) Run(ctx context.Context, now time.Time) CleanupResult {
	var res CleanupResult

	borderlineCutoff := now.Add(-BorderlineTTL)
	purged, err := c.store.PurgeBorderline(ctx, matching.MinPersistScore, matching.MatchScore, borderlineCutoff)
	if err != nil {
		c.logger.Error("borderline purge failed", zap.Error(err))
	} else {
		res.BorderlinePurged = purged
	}

	dismissedCutoff := now.Add(-DismissedTTL)
	purged, err = c.store.PurgeDismissed(ctx, dismissedCutoff)
	if err != nil {
		c.logger.Error("dismissed purge failed", zap.Error(err))
	} else {
		res.DismissedPurged = purged
	}

	c.logger.Info("cleanup complete",
		zap.Int64("borderline_purged", res.BorderlinePurged),
		zap.Int64("dismissed_purged", res.DismissedPurged),
	)
	return res
}
