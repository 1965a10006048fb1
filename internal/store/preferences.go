package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/matching-service/internal/model"
)

// Preferences persists job_search_preferences rows (one per candidate).
type Preferences struct {
	pool *pgxpool.Pool
}

// NewPreferences returns a Preferences store.
func NewPreferences(pool *pgxpool.Pool) *Preferences {
	return &Preferences{pool: pool}
}

const preferencesColumns = `
	candidate_id, titles, locations, skills, salary_min, remote_policies,
	company_sizes, avoid_companies, avoid_keywords,
	ai_keywords, ai_recommended_boards, ai_market_insights,
	ai_personalized_strategy, ai_last_analysis_at,
	cadence, last_digest_at, last_search_at, zero_match_days,
	created_at, updated_at`

// GetOrCreate returns the candidate's preferences row, creating the
// fixed default (empty filters, weekly cadence) on first access.
func (s *Preferences) GetOrCreate(ctx context.Context, candidateID string) (*model.JobSearchPreferences, error) {
	prefs, err := s.get(ctx, candidateID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	defaults := model.DefaultPreferences(candidateID)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO job_search_preferences (
		   candidate_id, titles, locations, skills, salary_min,
		   remote_policies, company_sizes, avoid_companies, avoid_keywords,
		   cadence, zero_match_days, created_at, updated_at
		 )
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,NOW(),NOW())
		 ON CONFLICT (candidate_id) DO NOTHING`,
		candidateID, defaults.Titles, defaults.Locations, defaults.Skills,
		defaults.SalaryMin, policiesToText(defaults.RemotePolicies),
		defaults.CompanySizes, defaults.AvoidCompanies, defaults.AvoidKeywords,
		string(defaults.Cadence),
	)
	if err != nil {
		return nil, fmt.Errorf("create default preferences: %w", err)
	}

	// Re-read: a concurrent creator may have won the conflict.
	prefs, err = s.get(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("reload preferences: %w", err)
	}
	return prefs, nil
}

// Apply merges a preference-update diff into the stored row and returns
// the updated preferences.
func (s *Preferences) Apply(ctx context.Context, candidateID string, update model.PreferencesUpdate) (*model.JobSearchPreferences, error) {
	prefs, err := s.GetOrCreate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if update.Titles != nil {
		prefs.Titles = *update.Titles
	}
	if update.Locations != nil {
		prefs.Locations = *update.Locations
	}
	if update.Skills != nil {
		prefs.Skills = *update.Skills
	}
	if update.SalaryMin != nil {
		prefs.SalaryMin = *update.SalaryMin
	}
	if update.RemotePolicies != nil {
		prefs.RemotePolicies = *update.RemotePolicies
	}
	if update.CompanySizes != nil {
		prefs.CompanySizes = *update.CompanySizes
	}
	if update.AvoidCompanies != nil {
		prefs.AvoidCompanies = *update.AvoidCompanies
	}
	if update.AvoidKeywords != nil {
		prefs.AvoidKeywords = *update.AvoidKeywords
	}
	if update.Cadence != nil {
		prefs.Cadence = *update.Cadence
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE job_search_preferences
		 SET titles = $1, locations = $2, skills = $3, salary_min = $4,
		     remote_policies = $5, company_sizes = $6,
		     avoid_companies = $7, avoid_keywords = $8,
		     cadence = $9, updated_at = NOW()
		 WHERE candidate_id = $10`,
		prefs.Titles, prefs.Locations, prefs.Skills, prefs.SalaryMin,
		policiesToText(prefs.RemotePolicies), prefs.CompanySizes,
		prefs.AvoidCompanies, prefs.AvoidKeywords,
		string(prefs.Cadence), candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("apply preferences update: %w", err)
	}
	return prefs, nil
}

// SaveInsights overwrites the AI-insight cache fields wholesale.
func (s *Preferences) SaveInsights(ctx context.Context, candidateID string, insights *model.SearchInsights) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_search_preferences
		 SET ai_keywords = $1, ai_recommended_boards = $2,
		     ai_market_insights = $3, ai_personalized_strategy = $4,
		     ai_last_analysis_at = $5, updated_at = NOW()
		 WHERE candidate_id = $6`,
		insights.Keywords, insights.RecommendedBoards,
		insights.MarketInsights, insights.PersonalizedStrategy,
		insights.GeneratedAt, candidateID,
	)
	if err != nil {
		return fmt.Errorf("save insights: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordSearch stamps the daily-driver bookkeeping after a candidate's
// run: last-search timestamp and the consecutive-zero-match counter.
func (s *Preferences) RecordSearch(ctx context.Context, candidateID string, searchedAt time.Time, zeroMatchDays int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_search_preferences
		 SET last_search_at = $1, zero_match_days = $2, updated_at = NOW()
		 WHERE candidate_id = $3`,
		searchedAt, zeroMatchDays, candidateID,
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// RecordDigest stamps the last digest-sent timestamp.
func (s *Preferences) RecordDigest(ctx context.Context, candidateID string, sentAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_search_preferences
		 SET last_digest_at = $1, updated_at = NOW()
		 WHERE candidate_id = $2`,
		sentAt, candidateID,
	)
	if err != nil {
		return fmt.Errorf("record digest: %w", err)
	}
	return nil
}

// ListActiveCandidates returns the candidate IDs of every preferences
// row, oldest-searched first, for the daily batch.
func (s *Preferences) ListActiveCandidates(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT candidate_id
		 FROM job_search_preferences
		 ORDER BY last_search_at NULLS FIRST`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list active candidates scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Preferences) get(ctx context.Context, candidateID string) (*model.JobSearchPreferences, error) {
	var (
		p        model.JobSearchPreferences
		policies []string
		keywords []string
		boards   []string
		market   *string
		strategy *string
		cadence  string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT `+preferencesColumns+` FROM job_search_preferences WHERE candidate_id = $1`,
		candidateID,
	).Scan(
		&p.CandidateID, &p.Titles, &p.Locations, &p.Skills, &p.SalaryMin, &policies,
		&p.CompanySizes, &p.AvoidCompanies, &p.AvoidKeywords,
		&keywords, &boards, &market, &strategy, &p.AILastAnalysisAt,
		&cadence, &p.LastDigestAt, &p.LastSearchAt, &p.ZeroMatchDays,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.RemotePolicies = policiesFromText(policies)
	p.Cadence = model.NotificationCadence(cadence)
	if p.AILastAnalysisAt != nil {
		insights := &model.SearchInsights{
			Keywords:          keywords,
			RecommendedBoards: boards,
			GeneratedAt:       *p.AILastAnalysisAt,
		}
		if market != nil {
			insights.MarketInsights = *market
		}
		if strategy != nil {
			insights.PersonalizedStrategy = *strategy
		}
		p.Insights = insights
	}
	return &p, nil
}

func policiesToText(policies []model.RemotePolicy) []string {
	out := make([]string, 0, len(policies))
	for _, p := range policies {
		out = append(out, string(p))
	}
	return out
}

func policiesFromText(raw []string) []model.RemotePolicy {
	out := make([]model.RemotePolicy, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.RemotePolicy(r))
	}
	return out
}
