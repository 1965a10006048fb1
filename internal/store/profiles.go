package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/matching-service/internal/model"
)

// Profiles reads candidate_profiles rows. Profiles are owned by the
// external profile-edit and CV-analysis flows; this core never writes them.
type Profiles struct {
	pool *pgxpool.Pool
}

// NewProfiles returns a Profiles store.
func NewProfiles(pool *pgxpool.Pool) *Profiles {
	return &Profiles{pool: pool}
}

// Get returns the candidate's profile, including the CV-derived analysis
// when one exists.
func (s *Profiles) Get(ctx context.Context, candidateID string) (*model.CandidateProfile, error) {
	var (
		p            model.CandidateProfile
		remotePolicy *string
		cvSkills     []string
		cvYears      *int
		cvSeniority  *string
		cvIndustries []string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT p.candidate_id, p.preferred_titles, p.industries,
		        p.salary_min, p.salary_currency, p.city, p.remote_policy,
		        p.company_sizes, p.career_goals,
		        cv.skills, cv.years_of_experience, cv.seniority, cv.industries
		 FROM candidate_profiles p
		 LEFT JOIN cv_analyses cv ON cv.candidate_id = p.candidate_id
		 WHERE p.candidate_id = $1`,
		candidateID,
	).Scan(
		&p.CandidateID, &p.PreferredTitles, &p.Industries,
		&p.SalaryMin, &p.SalaryCurrency, &p.City, &remotePolicy,
		&p.CompanySizes, &p.CareerGoals,
		&cvSkills, &cvYears, &cvSeniority, &cvIndustries,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if remotePolicy != nil {
		p.RemotePolicy = model.RemotePolicy(*remotePolicy)
	}
	// A missing cv_analyses row leaves every cv column NULL; the profile
	// is still valid, just without the CV-derived signal.
	if cvYears != nil || cvSeniority != nil || len(cvSkills) > 0 {
		cv := &model.CVAnalysis{
			Skills:     cvSkills,
			Industries: cvIndustries,
		}
		if cvYears != nil {
			cv.YearsOfExperience = *cvYears
		}
		if cvSeniority != nil {
			cv.Seniority = *cvSeniority
		}
		p.CV = cv
	}
	return &p, nil
}
