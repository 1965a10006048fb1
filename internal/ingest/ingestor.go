// Package ingest turns a batch of scored discoveries into persisted
// posting rows, deduplicating by content fingerprint per candidate.
package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/matching"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/store"
)

// DefaultMaxPerRun bounds how many rows one ingestion run may insert.
const DefaultMaxPerRun = 50

// PostingInserter is the slice of the posting store the ingestor needs.
type PostingInserter interface {
	Insert(ctx context.Context, p *model.JobPosting) error
}

// ScoredPosting pairs a discovered posting with its match result.
type ScoredPosting struct {
	Raw   model.RawPosting
	Match model.MatchResult
}

// Result summarises one ingestion run.
type Result struct {
	Inserted   int // new rows persisted with status NEW
	Matched    int // subset of Inserted at or above the match threshold
	Duplicates int // fingerprint conflicts, silently skipped
	Skipped    int // below the persistence threshold
}

// Ingestor persists scored postings for one candidate per run.
type Ingestor struct {
	inserter  PostingInserter
	logger    *zap.Logger
	maxPerRun int
}

// New returns an Ingestor. maxPerRun <= 0 falls back to DefaultMaxPerRun.
func New(inserter PostingInserter, logger *zap.Logger, maxPerRun int) *Ingestor {
	if maxPerRun <= 0 {
		maxPerRun = DefaultMaxPerRun
	}
	return &Ingestor{inserter: inserter, logger: logger, maxPerRun: maxPerRun}
}

// Ingest inserts the batch for candidateID. Postings scoring below the
// persistence threshold are never written. A duplicate fingerprint for
// the same candidate is an expected conflict, counted and skipped — a
// re-run with the same batch therefore inserts zero new rows. Any other
// per-row storage error aborts that row only.
func (i *Ingestor) Ingest(ctx context.Context, candidateID string, batch []ScoredPosting, discoveredAt time.Time) Result {
	var res Result

	for _, scored := range batch {
		if scored.Match.Score < matching.MinPersistScore {
			res.Skipped++
			continue
		}
		if res.Inserted >= i.maxPerRun {
			i.logger.Info("per-run insert ceiling reached",
				zap.String("candidate_id", candidateID),
				zap.Int("ceiling", i.maxPerRun),
			)
			break
		}

		fingerprint := matching.Fingerprint(scored.Raw.Title, scored.Raw.Company)
		posting := model.FromRaw(candidateID, scored.Raw, fingerprint, scored.Match, discoveredAt)

		err := i.inserter.Insert(ctx, posting)
		switch {
		case err == nil:
			res.Inserted++
			if matching.IsMatch(scored.Match.Score) {
				res.Matched++
			}
		case errors.Is(err, store.ErrDuplicate):
			res.Duplicates++
		default:
			i.logger.Error("posting insert failed",
				zap.String("candidate_id", candidateID),
				zap.String("title", scored.Raw.Title),
				zap.Error(err),
			)
		}
	}

	return res
}
