package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (title × location) pair
	httpTimeout    = 15 * time.Second
)

// AdzunaSource implements Source against the Adzuna public API.
// If AppID or AppKey is empty, Discover returns (nil, nil) gracefully —
// the driver simply counts zero discoveries for that candidate.
type AdzunaSource struct {
	AppID   string
	AppKey  string
	Country string // "fr", "gb", "us", …
	client  *http.Client
	logger  *zap.Logger
}

// NewAdzunaSource constructs a source with a shared HTTP client.
func NewAdzunaSource(appID, appKey, country string, logger *zap.Logger) *AdzunaSource {
	return &AdzunaSource{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		client:  &http.Client{Timeout: httpTimeout},
		logger:  logger,
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    float64        `json:"salary_min"`
	SalaryMax    float64        `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	ContractType string         `json:"contract_type"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Discover fetches offers for every (title × location) pair in the
// candidate's preferences, falling back to profile values when the
// preferences are empty. Per-pair fetch errors are logged and skipped;
// avoid-keyword hits are filtered out before scoring.
func (s *AdzunaSource) Discover(ctx context.Context, profile *model.CandidateProfile, prefs *model.JobSearchPreferences) ([]model.RawPosting, error) {
	if s.AppID == "" || s.AppKey == "" {
		s.logger.Warn("adzuna credentials not set, skipping discovery")
		return nil, nil
	}

	titles := prefs.Titles
	if len(titles) == 0 {
		titles = profile.PreferredTitles
	}
	locations := prefs.Locations
	if len(locations) == 0 && profile.City != "" {
		locations = []string{profile.City}
	}
	if len(titles) == 0 {
		return nil, nil
	}
	if len(locations) == 0 {
		locations = []string{""} // country-wide search
	}

	var results []model.RawPosting
	for _, title := range titles {
		for _, location := range locations {
			batch, err := s.fetch(ctx, title, location)
			if err != nil {
				s.logger.Warn("adzuna fetch failed, continuing",
					zap.String("title", title),
					zap.String("location", location),
					zap.Error(err),
				)
				continue
			}
			for _, raw := range batch {
				if ContainsAvoidTerm(raw.Title, raw.Company, raw.Description, prefs.AvoidKeywords) {
					continue
				}
				results = append(results, raw)
			}
		}
	}
	return results, nil
}

// fetch iterates pages for one (title, location) pair until no more
// results or adzunaMaxPages is reached.
func (s *AdzunaSource) fetch(ctx context.Context, title, location string) ([]model.RawPosting, error) {
	var results []model.RawPosting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := s.fetchPage(ctx, title, location, page)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break // No more results
		}
		results = append(results, batch...)
		if len(batch) < adzunaPageSize {
			break // Last page
		}
	}
	return results, nil
}

func (s *AdzunaSource) fetchPage(ctx context.Context, title, location string, page int) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", adzunaBaseURL, s.Country, page)

	params := url.Values{}
	params.Set("app_id", s.AppID)
	params.Set("app_key", s.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", title)
	params.Set("where", location)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	results := make([]model.RawPosting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		results = append(results, rawFromAdzuna(r))
	}
	return results, nil
}

// rawFromAdzuna is the typed conversion from the Adzuna wire shape to
// the domain shape. All mapping lives here, not at call sites.
func rawFromAdzuna(r adzunaResult) model.RawPosting {
	raw := model.RawPosting{
		Title:          r.Title,
		Company:        r.Company.DisplayName,
		Description:    r.Description,
		Location:       r.Location.DisplayName,
		WorkType:       workType(r),
		SalaryMin:      int(r.SalaryMin),
		SalaryMax:      int(r.SalaryMax),
		SourceURL:      r.RedirectURL,
		SourcePlatform: "adzuna",
	}
	if raw.SourceURL == "" {
		raw.SourceURL = "adzuna:" + r.ID
	}
	if ts, err := time.Parse(time.RFC3339, r.Created); err == nil {
		raw.PostedAt = &ts
	}
	return raw
}

func workType(r adzunaResult) string {
	switch {
	case r.ContractTime != "":
		return r.ContractTime
	case r.ContractType != "":
		return r.ContractType
	}
	return ""
}

// ContainsAvoidTerm returns true if any avoid term appears
// (case-insensitive) anywhere in the combined title + company +
// description text. Matching offers are dropped before scoring.
func ContainsAvoidTerm(title, company, description string, avoid []string) bool {
	if len(avoid) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, term := range avoid {
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// normaliseCompany keys feedback history consistently with the scorer.
func normaliseCompany(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}
