package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"jobmate/matching-service/internal/model"
)

const defaultModel = "gemini-2.5-flash"

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator creates a generator configured for the Gemini API
// backend.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultModel
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

// insightsPayload is the JSON shape requested from the model.
type insightsPayload struct {
	Keywords             []string `json:"keywords"`
	RecommendedBoards    []string `json:"recommendedBoards"`
	MarketInsights       string   `json:"marketInsights"`
	PersonalizedStrategy string   `json:"personalizedStrategy"`
}

// Generate asks Gemini for search guidance grounded in the candidate's
// profile, preferences and latest discoveries.
func (g *GeminiGenerator) Generate(ctx context.Context, profile *model.CandidateProfile, prefs *model.JobSearchPreferences, recent []model.JobPosting) (*model.SearchInsights, error) {
	prompt, err := buildPrompt(profile, prefs, recent)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := firstText(resp)
	if raw == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	var payload insightsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse insight response: %w", err)
	}

	return &model.SearchInsights{
		Keywords:             payload.Keywords,
		RecommendedBoards:    payload.RecommendedBoards,
		MarketInsights:       payload.MarketInsights,
		PersonalizedStrategy: payload.PersonalizedStrategy,
	}, nil
}

func buildPrompt(profile *model.CandidateProfile, prefs *model.JobSearchPreferences, recent []model.JobPosting) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	prefsJSON, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}

	var postingLines []string
	for _, p := range recent {
		postingLines = append(postingLines, fmt.Sprintf("- %s at %s (%s, score %d)", p.Title, p.Company, p.Location, p.Score))
	}

	var b strings.Builder
	b.WriteString("You are a career advisor. Based on the candidate profile, search preferences ")
	b.WriteString("and recently discovered postings below, produce job-search guidance as JSON with ")
	b.WriteString(`keys "keywords" (search terms), "recommendedBoards" (job boards), `)
	b.WriteString(`"marketInsights" (short market analysis) and "personalizedStrategy" (short actionable advice).`)
	b.WriteString("\n\nProfile:\n")
	b.Write(profileJSON)
	b.WriteString("\n\nPreferences:\n")
	b.Write(prefsJSON)
	if len(postingLines) > 0 {
		b.WriteString("\n\nRecent postings:\n")
		b.WriteString(strings.Join(postingLines, "\n"))
	}
	return b.String(), nil
}

// firstText concatenates the textual parts of the first useful candidates.
func firstText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}
