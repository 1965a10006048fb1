// Package model defines shared data structures for the matching service.
package model

import "time"

// RemotePolicy describes how a candidate or posting treats remote work.
type RemotePolicy string

const (
	RemoteOnly   RemotePolicy = "REMOTE"
	RemoteHybrid RemotePolicy = "HYBRID"
	RemoteOnSite RemotePolicy = "ON_SITE"
)

// NotificationCadence is the configured digest frequency for a candidate.
type NotificationCadence string

const (
	CadenceDaily   NotificationCadence = "DAILY"
	CadenceWeekly  NotificationCadence = "WEEKLY"
	CadenceMonthly NotificationCadence = "MONTHLY"
)

// CVAnalysis is the CV-derived view of a candidate's skills and seniority.
// It is produced by the (external) CV-analysis flow and read-only here.
type CVAnalysis struct {
	Skills            []string
	YearsOfExperience int
	Seniority         string // e.g. "junior", "mid", "senior", "lead"
	Industries        []string
}

// CandidateProfile is the normalised view of a candidate used for matching.
// Owned and mutated by external profile-edit flows; read-only to this core.
type CandidateProfile struct {
	CandidateID     string
	PreferredTitles []string // ordered, highest priority signal
	Industries      []string
	SalaryMin       int // minimum salary expectation, 0 means unset
	SalaryCurrency  string
	City            string
	RemotePolicy    RemotePolicy
	CompanySizes    []string
	CareerGoals     string // free text, lowest priority signal
	CV              *CVAnalysis
}

// SearchInsights is the AI-generated search guidance cached on a
// candidate's preferences row. Overwritten wholesale on each regeneration.
type SearchInsights struct {
	Keywords             []string  `json:"keywords"`
	RecommendedBoards    []string  `json:"recommendedBoards"`
	MarketInsights       string    `json:"marketInsights"`
	PersonalizedStrategy string    `json:"personalizedStrategy"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// JobSearchPreferences is one row per candidate: explicit filters, the
// insight cache, notification cadence and the daily-driver bookkeeping.
type JobSearchPreferences struct {
	CandidateID    string
	Titles         []string
	Locations      []string
	Skills         []string
	SalaryMin      int // overrides the profile value when > 0
	RemotePolicies []RemotePolicy
	CompanySizes   []string
	AvoidCompanies []string
	AvoidKeywords  []string

	Insights         *SearchInsights
	AILastAnalysisAt *time.Time

	Cadence       NotificationCadence
	LastDigestAt  *time.Time
	LastSearchAt  *time.Time
	ZeroMatchDays int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreferences returns the fixed default row created lazily on
// first access: empty filters, weekly cadence, inactive zero-counter.
func DefaultPreferences(candidateID string) *JobSearchPreferences {
	now := time.Now().UTC()
	return &JobSearchPreferences{
		CandidateID:    candidateID,
		Titles:         []string{},
		Locations:      []string{},
		Skills:         []string{},
		RemotePolicies: []RemotePolicy{},
		CompanySizes:   []string{},
		AvoidCompanies: []string{},
		AvoidKeywords:  []string{},
		Cadence:        CadenceWeekly,
		ZeroMatchDays:  0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PreferencesUpdate is the diff shape of a preference-update request.
// Nil fields are untouched; non-nil fields replace the stored value.
type PreferencesUpdate struct {
	Titles         *[]string
	Locations      *[]string
	Skills         *[]string
	SalaryMin      *int
	RemotePolicies *[]RemotePolicy
	CompanySizes   *[]string
	AvoidCompanies *[]string
	AvoidKeywords  *[]string
	Cadence        *NotificationCadence
}

// RawPosting is a normalised job offer as returned by a discovery source.
// It carries no score or lifecycle state; conversion to a JobPosting
// happens at the ingestion boundary.
type RawPosting struct {
	Title           string
	Company         string
	Description     string
	Location        string
	WorkType        string // e.g. "full_time", "contract"
	ExperienceLevel string
	SalaryMin       int
	SalaryMax       int
	SalaryCurrency  string
	RequiredSkills  []string
	Benefits        []string
	CompanySize     string
	SourceURL       string
	SourcePlatform  string
	PostedAt        *time.Time
}

// FeedbackKind is the user's reaction to a posting.
type FeedbackKind string

const (
	FeedbackLike    FeedbackKind = "LIKE"
	FeedbackDislike FeedbackKind = "DISLIKE"
	FeedbackHide    FeedbackKind = "HIDE"
)

// MatchResult is the ephemeral output of the scorer, later flattened
// onto a JobPosting row.
type MatchResult struct {
	Score     int            // always in [0,100]
	Breakdown map[string]int // named components, sum ≈ Score (±5)
	Reasons   []string
}

// JobPosting is one row per (candidate, discovered job).
type JobPosting struct {
	ID          string
	CandidateID string

	Title           string
	Company         string
	Description     string
	Location        string
	WorkType        string
	ExperienceLevel string
	SalaryMin       int
	SalaryMax       int
	SalaryCurrency  string
	RequiredSkills  []string
	Benefits        []string
	CompanySize     string
	SourceURL       string
	SourcePlatform  string
	PostedAt        *time.Time

	Fingerprint string
	Score       int
	Breakdown   map[string]int
	Reasons     []string

	Status         string // lifecycle status, stored as text
	Feedback       *FeedbackKind
	FeedbackReason *string
	DiscardUntil   *time.Time
	ApplicationID  *string

	DiscoveredAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FromRaw converts a discovery-shape posting into a JobPosting for the
// given candidate, stamping the score and fingerprint. Lifecycle fields
// are left at their zero values; the store sets status on insert.
func FromRaw(candidateID string, raw RawPosting, fingerprint string, match MatchResult, discoveredAt time.Time) *JobPosting {
	return &JobPosting{
		CandidateID:     candidateID,
		Title:           raw.Title,
		Company:         raw.Company,
		Description:     raw.Description,
		Location:        raw.Location,
		WorkType:        raw.WorkType,
		ExperienceLevel: raw.ExperienceLevel,
		SalaryMin:       raw.SalaryMin,
		SalaryMax:       raw.SalaryMax,
		SalaryCurrency:  raw.SalaryCurrency,
		RequiredSkills:  raw.RequiredSkills,
		Benefits:        raw.Benefits,
		CompanySize:     raw.CompanySize,
		SourceURL:       raw.SourceURL,
		SourcePlatform:  raw.SourcePlatform,
		PostedAt:        raw.PostedAt,
		Fingerprint:     fingerprint,
		Score:           match.Score,
		Breakdown:       match.Breakdown,
		Reasons:         match.Reasons,
		DiscoveredAt:    discoveredAt,
	}
}

// Raw converts a persisted posting back to its discovery shape, for
// re-running the scorer against updated preferences.
func (p *JobPosting) Raw() RawPosting {
	return RawPosting{
		Title:           p.Title,
		Company:         p.Company,
		Description:     p.Description,
		Location:        p.Location,
		WorkType:        p.WorkType,
		ExperienceLevel: p.ExperienceLevel,
		SalaryMin:       p.SalaryMin,
		SalaryMax:       p.SalaryMax,
		SalaryCurrency:  p.SalaryCurrency,
		RequiredSkills:  p.RequiredSkills,
		Benefits:        p.Benefits,
		CompanySize:     p.CompanySize,
		SourceURL:       p.SourceURL,
		SourcePlatform:  p.SourcePlatform,
		PostedAt:        p.PostedAt,
	}
}

// Application is the application record created when a posting moves to
// APPLIED. The wider tracker owns its later lifecycle; this core only
// creates and links it.
type Application struct {
	ID           string
	CandidateID  string
	JobPostingID string
	CreatedAt    time.Time
}
