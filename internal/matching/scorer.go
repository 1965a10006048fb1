// Package matching implements the weighted-rule match scorer and the
// content fingerprint used for posting de-duplication.
//
// The scorer is a pure function: no I/O, no clock, deterministic for a
// given (posting, profile, preferences) triple. Callers apply the
// persistence and notification thresholds; the scorer only computes.
package matching

import (
	"fmt"
	"strings"

	"jobmate/matching-service/internal/model"
)

// Score thresholds applied by callers, not by the scorer itself.
const (
	// MinPersistScore is the floor below which a posting is discarded
	// and never persisted.
	MinPersistScore = 65
	// MatchScore is the floor at or above which a posting counts as a
	// full match and drives notification eligibility.
	MatchScore = 75
)

// IsBorderline reports whether score falls in the persisted-but-not-
// notifiable band [MinPersistScore, MatchScore).
func IsBorderline(score int) bool {
	return score >= MinPersistScore && score < MatchScore
}

// IsMatch reports whether score makes a posting notification-eligible.
func IsMatch(score int) bool { return score >= MatchScore }

// Breakdown component names.
const (
	ComponentSkills      = "skills"
	ComponentExperience  = "experience"
	ComponentLocation    = "location"
	ComponentSalary      = "salary"
	ComponentPreferences = "preferences"
	ComponentBehavioral  = "behavioral"
)

// Weights holds the maximum points per component. The exact values are
// tuning knobs; defaults sum to 100 including the behavioral bonus.
type Weights struct {
	Skills      int
	Experience  int
	Location    int
	Salary      int
	Preferences int
	Behavioral  int
}

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		Skills:      36,
		Experience:  18,
		Location:    15,
		Salary:      15,
		Preferences: 10,
		Behavioral:  6,
	}
}

// FeedbackHistory summarises past like/dislike feedback per company,
// keyed by lowercased company name. Optional input to the scorer.
type FeedbackHistory struct {
	LikedCompanies    map[string]bool
	DislikedCompanies map[string]bool
}

// Scorer computes match scores with a fixed weight set.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer. Zero-valued weights fall back to defaults.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Score computes the match result for one posting against a candidate's
// profile and preferences. history may be nil (behavioral component 0).
// Every component is non-negative and the total is clamped to [0,100];
// the breakdown always sums to within rounding tolerance of the total.
func (s *Scorer) Score(raw model.RawPosting, profile *model.CandidateProfile, prefs *model.JobSearchPreferences, history *FeedbackHistory) model.MatchResult {
	breakdown := make(map[string]int, 6)
	var reasons []string

	add := func(name string, pts int, reason string) {
		if pts < 0 {
			pts = 0
		}
		breakdown[name] = pts
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	add(s.scoreSkills(raw, profile, prefs))
	add(s.scoreExperience(raw, profile))
	add(s.scoreLocation(raw, profile, prefs))
	add(s.scoreSalary(raw, profile, prefs))
	add(s.scorePreferences(raw, profile, prefs))
	add(s.scoreBehavioral(raw, history))

	total := 0
	for _, pts := range breakdown {
		total += pts
	}
	if total > 100 {
		total = 100
	}

	return model.MatchResult{Score: total, Breakdown: breakdown, Reasons: reasons}
}

// ─── Component scoring ───────────────────────────────────────────────────────

// scoreSkills is the highest-weight component: overlap between the
// candidate's CV skills and the posting's required skills. Without a CV
// analysis it degrades to preferred-title / industry matching only.
func (s *Scorer) scoreSkills(raw model.RawPosting, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) (string, int, string) {
	max := s.weights.Skills

	cvSkills := candidateSkills(profile, prefs)
	if len(cvSkills) == 0 {
		// Degraded path: no skills known — match on preferred titles,
		// then industries, against the posting text.
		if title, ok := matchAny(profile.PreferredTitles, raw.Title); ok {
			return ComponentSkills, max * 2 / 3, fmt.Sprintf("Role matches your preferred title %q", title)
		}
		text := raw.Title + " " + raw.Description
		if industry, ok := matchAny(profile.Industries, text); ok {
			return ComponentSkills, max / 3, fmt.Sprintf("Posting relates to your industry %q", industry)
		}
		return ComponentSkills, 0, ""
	}

	if len(raw.RequiredSkills) > 0 {
		matched := overlap(cvSkills, raw.RequiredSkills)
		pts := scale(matched, len(raw.RequiredSkills), max)
		if matched == 0 {
			return ComponentSkills, 0, ""
		}
		reason := ""
		if matched*2 >= len(raw.RequiredSkills) {
			reason = fmt.Sprintf("Strong skills overlap: %d of %d required skills", matched, len(raw.RequiredSkills))
		}
		return ComponentSkills, pts, reason
	}

	// Posting lists no explicit skills — look for the candidate's skills
	// in the free-text description instead.
	text := strings.ToLower(raw.Title + " " + raw.Description)
	found := 0
	for _, skill := range cvSkills {
		if skill != "" && strings.Contains(text, strings.ToLower(skill)) {
			found++
		}
	}
	const enough = 4 // skills found in text for full credit
	pts := scale(found, enough, max)
	reason := ""
	if found >= enough/2 {
		reason = fmt.Sprintf("Description mentions %d of your skills", found)
	}
	return ComponentSkills, pts, reason
}

// seniorityRank orders experience levels; unknown values rank 0.
var seniorityRank = map[string]int{
	"intern": 1, "entry": 1, "junior": 1,
	"mid": 2, "intermediate": 2,
	"senior": 3,
	"lead": 4, "staff": 4, "principal": 4, "executive": 4,
}

func (s *Scorer) scoreExperience(raw model.RawPosting, profile *model.CandidateProfile) (string, int, string) {
	max := s.weights.Experience

	if profile.CV == nil {
		// No CV analysis: neutral half credit, never negative.
		return ComponentExperience, max / 2, ""
	}

	want := seniorityRank[strings.ToLower(strings.TrimSpace(raw.ExperienceLevel))]
	if want == 0 {
		// Posting does not state a level — infer nothing, partial credit.
		return ComponentExperience, max * 2 / 3, ""
	}

	have := seniorityRank[strings.ToLower(strings.TrimSpace(profile.CV.Seniority))]
	if have == 0 {
		have = rankFromYears(profile.CV.YearsOfExperience)
	}

	switch diff := have - want; {
	case diff == 0:
		return ComponentExperience, max, fmt.Sprintf("Your %s experience matches the role level", profile.CV.Seniority)
	case diff == 1:
		// Slightly overqualified is still a good fit.
		return ComponentExperience, max * 3 / 4, ""
	case diff == -1:
		return ComponentExperience, max / 2, ""
	default:
		return ComponentExperience, max / 4, ""
	}
}

func rankFromYears(years int) int {
	switch {
	case years >= 8:
		return 4
	case years >= 5:
		return 3
	case years >= 2:
		return 2
	case years > 0:
		return 1
	}
	return 0
}

func (s *Scorer) scoreLocation(raw model.RawPosting, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) (string, int, string) {
	max := s.weights.Location

	policies := prefs.RemotePolicies
	if len(policies) == 0 && profile.RemotePolicy != "" {
		policies = []model.RemotePolicy{profile.RemotePolicy}
	}

	remote := postingRemoteness(raw)
	for _, p := range policies {
		if p == remote {
			if remote == model.RemoteOnly {
				return ComponentLocation, max, "Remote role fits your remote-work preference"
			}
			return ComponentLocation, max, fmt.Sprintf("Work arrangement (%s) matches your preference", strings.ToLower(string(remote)))
		}
	}

	// City match against explicit location preferences, then profile city.
	if loc, ok := matchAny(prefs.Locations, raw.Location); ok {
		return ComponentLocation, max, fmt.Sprintf("Located in %s, one of your preferred locations", loc)
	}
	if profile.City != "" && containsFold(raw.Location, profile.City) {
		return ComponentLocation, max, fmt.Sprintf("Located in your city, %s", profile.City)
	}

	// A remote posting is workable for almost anyone.
	if remote == model.RemoteOnly {
		return ComponentLocation, max * 2 / 3, ""
	}
	if len(policies) == 0 && len(prefs.Locations) == 0 && profile.City == "" {
		// No stated preference at all — location cannot disqualify.
		return ComponentLocation, max / 2, ""
	}
	return ComponentLocation, 0, ""
}

// postingRemoteness infers the posting's work arrangement from its work
// type and location text.
func postingRemoteness(raw model.RawPosting) model.RemotePolicy {
	text := strings.ToLower(raw.WorkType + " " + raw.Location)
	switch {
	case strings.Contains(text, "hybrid"):
		return model.RemoteHybrid
	case strings.Contains(text, "remote"):
		return model.RemoteOnly
	}
	return model.RemoteOnSite
}

func (s *Scorer) scoreSalary(raw model.RawPosting, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) (string, int, string) {
	max := s.weights.Salary

	// Preference override takes precedence over the profile expectation.
	floor := profile.SalaryMin
	if prefs.SalaryMin > 0 {
		floor = prefs.SalaryMin
	}
	if floor <= 0 {
		// No stated expectation — salary cannot disqualify.
		return ComponentSalary, max * 2 / 3, ""
	}

	top := raw.SalaryMax
	if top == 0 {
		top = raw.SalaryMin
	}
	if top == 0 {
		// Posting does not disclose salary.
		return ComponentSalary, max / 3, ""
	}

	switch {
	case top >= floor+floor/10:
		return ComponentSalary, max, "Salary range comfortably meets your expectations"
	case top >= floor:
		return ComponentSalary, max * 4 / 5, "Salary range meets your minimum expectation"
	case top*10 >= floor*9:
		// Within 10% below the floor — close enough to surface.
		return ComponentSalary, max / 3, ""
	}
	return ComponentSalary, 0, ""
}

func (s *Scorer) scorePreferences(raw model.RawPosting, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) (string, int, string) {
	max := s.weights.Preferences

	// Avoid-lists zero the whole component.
	for _, avoid := range prefs.AvoidCompanies {
		if avoid != "" && strings.EqualFold(strings.TrimSpace(avoid), strings.TrimSpace(raw.Company)) {
			return ComponentPreferences, 0, ""
		}
	}
	text := strings.ToLower(raw.Title + " " + raw.Company + " " + raw.Description)
	for _, kw := range prefs.AvoidKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return ComponentPreferences, 0, ""
		}
	}

	pts := max / 5 // baseline for a non-avoided posting
	var reason string

	industries := profile.Industries
	if profile.CV != nil && len(industries) == 0 {
		industries = profile.CV.Industries
	}
	if industry, ok := matchAny(industries, text); ok {
		pts += max / 2
		reason = fmt.Sprintf("Company operates in your industry (%s)", industry)
	}

	sizes := prefs.CompanySizes
	if len(sizes) == 0 {
		sizes = profile.CompanySizes
	}
	if raw.CompanySize != "" {
		for _, size := range sizes {
			if strings.EqualFold(size, raw.CompanySize) {
				pts += max * 3 / 10
				break
			}
		}
	}

	if pts > max {
		pts = max
	}
	return ComponentPreferences, pts, reason
}

func (s *Scorer) scoreBehavioral(raw model.RawPosting, history *FeedbackHistory) (string, int, string) {
	if history == nil {
		return ComponentBehavioral, 0, ""
	}
	company := strings.ToLower(strings.TrimSpace(raw.Company))
	if history.DislikedCompanies[company] {
		return ComponentBehavioral, 0, ""
	}
	if history.LikedCompanies[company] {
		return ComponentBehavioral, s.weights.Behavioral, fmt.Sprintf("You liked previous postings from %s", raw.Company)
	}
	return ComponentBehavioral, 0, ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// candidateSkills merges CV skills with explicitly preferred skills.
func candidateSkills(profile *model.CandidateProfile, prefs *model.JobSearchPreferences) []string {
	var skills []string
	if profile.CV != nil {
		skills = append(skills, profile.CV.Skills...)
	}
	skills = append(skills, prefs.Skills...)
	return skills
}

// overlap counts how many required skills appear in have (case-insensitive,
// substring in either direction so "Go" matches "Golang").
func overlap(have, required []string) int {
	matched := 0
	for _, req := range required {
		for _, h := range have {
			if req == "" || h == "" {
				continue
			}
			if containsFold(req, h) || containsFold(h, req) {
				matched++
				break
			}
		}
	}
	return matched
}

// scale maps got/outOf onto [0,max], rounding to nearest.
func scale(got, outOf, max int) int {
	if outOf <= 0 {
		return 0
	}
	if got > outOf {
		got = outOf
	}
	return (got*max + outOf/2) / outOf
}

// matchAny returns the first needle found (case-insensitive) in haystack.
func matchAny(needles []string, haystack string) (string, bool) {
	for _, n := range needles {
		if n != "" && containsFold(haystack, n) {
			return n, true
		}
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
