package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/matching-service/internal/model"
)

// Postings persists job_postings rows.
type Postings struct {
	pool *pgxpool.Pool
}

// NewPostings returns a Postings store.
func NewPostings(pool *pgxpool.Pool) *Postings {
	return &Postings{pool: pool}
}

const postingColumns = `
	id, candidate_id, title, company, description, location, work_type,
	experience_level, salary_min, salary_max, salary_currency,
	required_skills, benefits, company_size, source_url, source_platform,
	posted_at, fingerprint, score, breakdown, reasons, status,
	feedback, feedback_reason, discard_until, application_id,
	discovered_at, created_at, updated_at`

// Insert persists a new posting with status NEW. The (candidate_id,
// fingerprint) unique index makes re-discovery idempotent: a conflict
// returns ErrDuplicate and leaves the existing row untouched.
func (s *Postings) Insert(ctx context.Context, p *model.JobPosting) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO job_postings (
		   id, candidate_id, title, company, description, location, work_type,
		   experience_level, salary_min, salary_max, salary_currency,
		   required_skills, benefits, company_size, source_url, source_platform,
		   posted_at, fingerprint, score, breakdown, reasons, status,
		   discovered_at, created_at, updated_at
		 )
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20::jsonb,$21,'NEW',$22,NOW(),NOW())
		 ON CONFLICT (candidate_id, fingerprint) DO NOTHING`,
		p.ID, p.CandidateID, p.Title, p.Company, p.Description, p.Location, p.WorkType,
		p.ExperienceLevel, p.SalaryMin, p.SalaryMax, p.SalaryCurrency,
		p.RequiredSkills, p.Benefits, p.CompanySize, p.SourceURL, p.SourcePlatform,
		p.PostedAt, p.Fingerprint, p.Score, string(breakdown), p.Reasons,
		p.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// Get returns one posting by ID, validating candidate ownership.
func (s *Postings) Get(ctx context.Context, candidateID, postingID string) (*model.JobPosting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE id = $1 AND candidate_id = $2`,
		postingID, candidateID,
	)
	p, err := scanPosting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return p, nil
}

// ListBorderline returns a candidate's postings in the borderline score
// band discovered at or after since.
func (s *Postings) ListBorderline(ctx context.Context, candidateID string, minScore, maxScore int, since time.Time) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE candidate_id = $1
		   AND score >= $2 AND score < $3
		   AND discovered_at >= $4
		 ORDER BY discovered_at DESC`,
		candidateID, minScore, maxScore, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list borderline postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// ListRecent returns a candidate's most recently discovered postings,
// newest first, capped at limit.
func (s *Postings) ListRecent(ctx context.Context, candidateID string, limit int) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE candidate_id = $1
		 ORDER BY discovered_at DESC
		 LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// UpdateMatch overwrites a posting's score, breakdown and reasons and
// sets its status in one statement. Used by rescoring promotion.
func (s *Postings) UpdateMatch(ctx context.Context, postingID string, result model.MatchResult, status string) error {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings
		 SET score = $1, breakdown = $2::jsonb, reasons = $3,
		     status = $4, updated_at = NOW()
		 WHERE id = $5`,
		result.Score, string(breakdown), result.Reasons, status, postingID,
	)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets a posting's lifecycle status and optional
// discard-until timestamp, validating candidate ownership.
func (s *Postings) UpdateStatus(ctx context.Context, candidateID, postingID, status string, discardUntil *time.Time) (*model.JobPosting, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE job_postings
		 SET status = $1,
		     discard_until = COALESCE($2, discard_until),
		     updated_at = NOW()
		 WHERE id = $3 AND candidate_id = $4
		 RETURNING `+postingColumns,
		status, discardUntil, postingID, candidateID,
	)
	p, err := scanPosting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return p, nil
}

// SetFeedback records like/dislike/hide feedback with an optional reason.
func (s *Postings) SetFeedback(ctx context.Context, candidateID, postingID string, kind model.FeedbackKind, reason *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings
		 SET feedback = $1, feedback_reason = $2, updated_at = NOW()
		 WHERE id = $3 AND candidate_id = $4`,
		string(kind), reason, postingID, candidateID,
	)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkApplication attaches a created application to its posting.
func (s *Postings) LinkApplication(ctx context.Context, postingID, applicationID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings SET application_id = $1, updated_at = NOW() WHERE id = $2`,
		applicationID, postingID,
	)
	if err != nil {
		return fmt.Errorf("link application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FeedbackCompanies returns the distinct companies a candidate has
// liked and disliked, feeding the scorer's behavioral component.
func (s *Postings) FeedbackCompanies(ctx context.Context, candidateID string) (liked, disliked []string, err error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT company, feedback
		 FROM job_postings
		 WHERE candidate_id = $1 AND feedback IN ('LIKE', 'DISLIKE')`,
		candidateID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("feedback companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var company, feedback string
		if err := rows.Scan(&company, &feedback); err != nil {
			return nil, nil, fmt.Errorf("feedback companies scan: %w", err)
		}
		if feedback == string(model.FeedbackLike) {
			liked = append(liked, company)
		} else {
			disliked = append(disliked, company)
		}
	}
	return liked, disliked, rows.Err()
}

// PurgeBorderline irreversibly deletes postings in the borderline score
// band discovered before cutoff, regardless of status.
func (s *Postings) PurgeBorderline(ctx context.Context, minScore, maxScore int, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM job_postings
		 WHERE score >= $1 AND score < $2 AND discovered_at < $3`,
		minScore, maxScore, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge borderline: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeDismissed irreversibly deletes dismissed postings whose
// discard_until is set and before cutoff.
func (s *Postings) PurgeDismissed(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM job_postings
		 WHERE status = 'DISMISSED'
		   AND discard_until IS NOT NULL
		   AND discard_until < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge dismissed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ─── Row scanning ────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (*model.JobPosting, error) {
	var (
		p         model.JobPosting
		breakdown []byte
		feedback  *string
	)
	err := row.Scan(
		&p.ID, &p.CandidateID, &p.Title, &p.Company, &p.Description, &p.Location, &p.WorkType,
		&p.ExperienceLevel, &p.SalaryMin, &p.SalaryMax, &p.SalaryCurrency,
		&p.RequiredSkills, &p.Benefits, &p.CompanySize, &p.SourceURL, &p.SourcePlatform,
		&p.PostedAt, &p.Fingerprint, &p.Score, &breakdown, &p.Reasons, &p.Status,
		&feedback, &p.FeedbackReason, &p.DiscardUntil, &p.ApplicationID,
		&p.DiscoveredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &p.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown: %w", err)
		}
	}
	if feedback != nil {
		kind := model.FeedbackKind(*feedback)
		p.Feedback = &kind
	}
	return &p, nil
}

func scanPostings(rows pgx.Rows) ([]model.JobPosting, error) {
	postings := make([]model.JobPosting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, rows.Err()
}
