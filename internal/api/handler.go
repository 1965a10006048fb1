// Package api implements the HTTP handlers for the matching service.
//
// All candidate routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /health                     → service liveness
//	POST /run                        → trigger the daily discovery batch
//	GET  /postings                   → list user's recent postings
//	POST /postings/{id}/status       → lifecycle transition
//	POST /postings/{id}/feedback     → like / dislike / hide
//	GET  /preferences                → read (lazily created) preferences
//	POST /preferences                → partial update, rescoring when relevant
//	GET  /insights                   → cached AI search insights (?refresh=1)
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/discovery"
	"jobmate/matching-service/internal/insights"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/rescoring"
	"jobmate/matching-service/internal/store"
)

// ─── Dependencies ────────────────────────────────────────────────────────────

// PreferencesService is the preference surface the handler needs.
type PreferencesService interface {
	GetOrCreate(ctx context.Context, candidateID string) (*model.JobSearchPreferences, error)
	Apply(ctx context.Context, candidateID string, update model.PreferencesUpdate) (*model.JobSearchPreferences, error)
}

// Rescorer re-evaluates borderline postings after a preference change.
type Rescorer interface {
	Rescore(ctx context.Context, candidateID string, newPrefs *model.JobSearchPreferences) (int, error)
}

// InsightsService serves the AI insight cache.
type InsightsService interface {
	Get(ctx context.Context, candidateID string, forceRefresh bool) (*insights.Result, error)
}

// LifecycleService applies status transitions and feedback.
type LifecycleService interface {
	Transition(ctx context.Context, candidateID, postingID, newStatus string) (*model.JobPosting, error)
	RecordFeedback(ctx context.Context, candidateID, postingID string, kind model.FeedbackKind, reason *string) (*model.JobPosting, error)
}

// PostingLister reads a candidate's recent postings.
type PostingLister interface {
	ListRecent(ctx context.Context, candidateID string, limit int) ([]model.JobPosting, error)
}

// BatchRunner triggers the daily discovery batch on demand.
type BatchRunner interface {
	RunDaily(ctx context.Context) discovery.BatchReport
}

// ─── Response types ──────────────────────────────────────────────────────────

// Posting is the JSON shape returned to the Gateway / clients.
type Posting struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	WorkType       string         `json:"workType,omitempty"`
	SalaryMin      int            `json:"salaryMin,omitempty"`
	SalaryMax      int            `json:"salaryMax,omitempty"`
	SourceURL      string         `json:"sourceUrl"`
	SourcePlatform string         `json:"sourcePlatform"`
	Score          int            `json:"score"`
	Breakdown      map[string]int `json:"breakdown"`
	Reasons        []string       `json:"reasons"`
	Status         string         `json:"status"`
	Feedback       *string        `json:"feedback,omitempty"`
	ApplicationID  *string        `json:"applicationId,omitempty"`
	DiscoveredAt   time.Time      `json:"discoveredAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func postingJSON(p *model.JobPosting) Posting {
	out := Posting{
		ID:             p.ID,
		Title:          p.Title,
		Company:        p.Company,
		Location:       p.Location,
		WorkType:       p.WorkType,
		SalaryMin:      p.SalaryMin,
		SalaryMax:      p.SalaryMax,
		SourceURL:      p.SourceURL,
		SourcePlatform: p.SourcePlatform,
		Score:          p.Score,
		Breakdown:      p.Breakdown,
		Reasons:        p.Reasons,
		Status:         p.Status,
		ApplicationID:  p.ApplicationID,
		DiscoveredAt:   p.DiscoveredAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Feedback != nil {
		s := string(*p.Feedback)
		out.Feedback = &s
	}
	return out
}

// preferencesJSON is the outbound preference shape.
type preferencesJSON struct {
	CandidateID    string                `json:"candidateId"`
	Titles         []string              `json:"titles"`
	Locations      []string              `json:"locations"`
	Skills         []string              `json:"skills"`
	SalaryMin      int                   `json:"salaryMin,omitempty"`
	RemotePolicies []model.RemotePolicy  `json:"remotePolicies"`
	CompanySizes   []string              `json:"companySizes"`
	AvoidCompanies []string              `json:"avoidCompanies"`
	AvoidKeywords  []string              `json:"avoidKeywords"`
	Cadence        string                `json:"notificationCadence"`
	Insights       *model.SearchInsights `json:"insights,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func prefsJSON(p *model.JobSearchPreferences) preferencesJSON {
	return preferencesJSON{
		CandidateID:    p.CandidateID,
		Titles:         p.Titles,
		Locations:      p.Locations,
		Skills:         p.Skills,
		SalaryMin:      p.SalaryMin,
		RemotePolicies: p.RemotePolicies,
		CompanySizes:   p.CompanySizes,
		AvoidCompanies: p.AvoidCompanies,
		AvoidKeywords:  p.AvoidKeywords,
		Cadence:        string(p.Cadence),
		Insights:       p.Insights,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	prefs     PreferencesService
	rescorer  Rescorer
	insights  InsightsService
	lifecycle LifecycleService
	postings  PostingLister
	driver    BatchRunner
	logger    *zap.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(prefs PreferencesService, rescorer Rescorer, insightsSvc InsightsService, lifecycleSvc LifecycleService, postings PostingLister, driver BatchRunner, logger *zap.Logger) *Handler {
	return &Handler{
		prefs:     prefs,
		rescorer:  rescorer,
		insights:  insightsSvc,
		lifecycle: lifecycleSvc,
		postings:  postings,
		driver:    driver,
		logger:    logger,
	}
}

// RegisterRoutes mounts all matching-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/run", h.handleRun)
	mux.HandleFunc("/postings", h.handlePostings)
	mux.HandleFunc("/postings/", h.handlePostingAction)
	mux.HandleFunc("/preferences", h.handlePreferences)
	mux.HandleFunc("/insights", h.handleInsights)
}

// ─── Route dispatch ──────────────────────────────────────────────────────────

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

// handleRun handles POST /run. The batch is synchronous: internal
// callers (and ops) get the report back directly.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report := h.driver.RunDaily(r.Context())
	jsonOK(w, report)
}

// handlePostings handles GET /postings
func (h *Handler) handlePostings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	candidateID, ok := userID(w, r)
	if !ok {
		return
	}

	list, err := h.postings.ListRecent(r.Context(), candidateID, 100)
	if err != nil {
		h.logger.Error("listing postings failed", zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	out := make([]Posting, 0, len(list))
	for i := range list {
		out = append(out, postingJSON(&list[i]))
	}
	jsonOK(w, out)
}

// handlePostingAction handles POST /postings/{id}/status|feedback
func (h *Handler) handlePostingAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse /postings/{id}/{action}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	postingID := parts[1]
	action := parts[2]

	switch action {
	case "status":
		h.updateStatus(w, r, postingID)
	case "feedback":
		h.recordFeedback(w, r, postingID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ─────────────────────────────────────────────────────

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, postingID string) {
	candidateID, ok := userID(w, r)
	if !ok {
		return
	}

	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}

	posting, err := h.lifecycle.Transition(r.Context(), candidateID, postingID, body.NewStatus)
	if err != nil {
		writeServiceError(w, h.logger, "status transition", err)
		return
	}
	jsonOK(w, postingJSON(posting))
}

func (h *Handler) recordFeedback(w http.ResponseWriter, r *http.Request, postingID string) {
	candidateID, ok := userID(w, r)
	if !ok {
		return
	}

	var body struct {
		Kind   string  `json:"kind"`
		Reason *string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	kind := model.FeedbackKind(strings.ToUpper(body.Kind))
	switch kind {
	case model.FeedbackLike, model.FeedbackDislike, model.FeedbackHide:
	default:
		jsonError(w, fmt.Sprintf("unknown feedback kind %q", body.Kind), http.StatusBadRequest)
		return
	}

	posting, err := h.lifecycle.RecordFeedback(r.Context(), candidateID, postingID, kind, body.Reason)
	if err != nil {
		writeServiceError(w, h.logger, "feedback", err)
		return
	}
	jsonOK(w, postingJSON(posting))
}

// handlePreferences handles GET and POST /preferences.
func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := userID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		prefs, err := h.prefs.GetOrCreate(r.Context(), candidateID)
		if err != nil {
			h.logger.Error("preferences read failed", zap.Error(err))
			jsonError(w, "database error", http.StatusInternalServerError)
			return
		}
		jsonOK(w, prefsJSON(prefs))

	case http.MethodPost:
		h.updatePreferences(w, r, candidateID)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// preferencesBody is the inbound diff shape. Absent fields stay nil and
// leave the stored value untouched.
type preferencesBody struct {
	Titles         *[]string                  `json:"titles"`
	Locations      *[]string                  `json:"locations"`
	Skills         *[]string                  `json:"skills"`
	SalaryMin      *int                       `json:"salaryMin"`
	RemotePolicies *[]model.RemotePolicy      `json:"remotePolicies"`
	CompanySizes   *[]string                  `json:"companySizes"`
	AvoidCompanies *[]string                  `json:"avoidCompanies"`
	AvoidKeywords  *[]string                  `json:"avoidKeywords"`
	Cadence        *model.NotificationCadence `json:"notificationCadence"`
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request, candidateID string) {
	var body preferencesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Cadence != nil {
		switch *body.Cadence {
		case model.CadenceDaily, model.CadenceWeekly, model.CadenceMonthly:
		default:
			jsonError(w, fmt.Sprintf("unknown cadence %q", *body.Cadence), http.StatusBadRequest)
			return
		}
	}

	update := model.PreferencesUpdate{
		Titles:         body.Titles,
		Locations:      body.Locations,
		Skills:         body.Skills,
		SalaryMin:      body.SalaryMin,
		RemotePolicies: body.RemotePolicies,
		CompanySizes:   body.CompanySizes,
		AvoidCompanies: body.AvoidCompanies,
		AvoidKeywords:  body.AvoidKeywords,
		Cadence:        body.Cadence,
	}

	prefs, err := h.prefs.Apply(r.Context(), candidateID, update)
	if err != nil {
		writeServiceError(w, h.logger, "preferences update", err)
		return
	}

	// Rescoring runs synchronously so the response can carry the
	// promotion count. A rescoring failure does not fail the update.
	promoted := 0
	if rescoring.Touches(update) {
		promoted, err = h.rescorer.Rescore(r.Context(), candidateID, prefs)
		if err != nil {
			h.logger.Error("rescoring after preference update failed",
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
		}
	}

	jsonOK(w, map[string]any{
		"preferences": prefsJSON(prefs),
		"promoted":    promoted,
	})
}

// handleInsights handles GET /insights (?refresh=1 forces regeneration).
func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	candidateID, ok := userID(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("refresh") == "1"

	res, err := h.insights.Get(r.Context(), candidateID, force)
	if err != nil {
		h.logger.Error("insights generation failed",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
		jsonError(w, "insights unavailable", http.StatusBadGateway)
		return
	}
	jsonOK(w, map[string]any{
		"insights": res.Insights,
		"cached":   res.Cached,
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("x-user-id")
	if id == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "posting not found", http.StatusNotFound)
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	default:
		logger.Error(op+" failed", zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
