package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/matching-service/internal/model"
)

// Applications creates application records when postings reach APPLIED.
// The wider tracker owns their later lifecycle.
type Applications struct {
	pool *pgxpool.Pool
}

// NewApplications returns an Applications store.
func NewApplications(pool *pgxpool.Pool) *Applications {
	return &Applications{pool: pool}
}

// Create inserts an application for the given posting. Re-applying to
// the same posting returns the existing row instead of a duplicate.
func (s *Applications) Create(ctx context.Context, candidateID, postingID string) (*model.Application, error) {
	var a model.Application
	err := s.pool.QueryRow(ctx,
		`WITH ins AS (
		   INSERT INTO applications (id, candidate_id, job_posting_id, created_at)
		   VALUES ($1, $2, $3, NOW())
		   ON CONFLICT (candidate_id, job_posting_id) DO NOTHING
		   RETURNING id, candidate_id, job_posting_id, created_at
		 )
		 SELECT id, candidate_id, job_posting_id, created_at FROM ins
		 UNION ALL
		 SELECT id, candidate_id, job_posting_id, created_at
		 FROM applications
		 WHERE candidate_id = $2 AND job_posting_id = $3
		 LIMIT 1`,
		uuid.NewString(), candidateID, postingID,
	).Scan(&a.ID, &a.CandidateID, &a.JobPostingID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &a, nil
}
