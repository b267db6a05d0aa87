package handlers

import (
	"net/http"
	"strconv"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// TypingResultHandler handles typing result HTTP requests
type TypingResultHandler struct {
	results *service.TypingResultService
	email   *service.EmailService
}

// NewTypingResultHandler creates a new typing result handler
func NewTypingResultHandler(results *service.TypingResultService, email *service.EmailService) *TypingResultHandler {
	return &TypingResultHandler{results: results, email: email}
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

// Save handles POST /api/typing-results
func (h *TypingResultHandler) Save(w http.ResponseWriter, r *http.Request) {
	var result models.TypingResult
	if err := decodeJSON(r, &result); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	saved, err := h.results.Save(&result)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Result saved",
		"result":  saved,
	})
}

// UserResults handles GET /api/typing-results/user/{userId}
func (h *TypingResultHandler) UserResults(w http.ResponseWriter, r *http.Request) {
	q := service.HistoryQuery{
		SessionType: r.URL.Query().Get("sessionType"),
		TodayOnly:   r.URL.Query().Get("today") == "true",
		Limit:       queryInt(r, "limit"),
	}

	results, err := h.results.UserResults(r.PathValue("userId"), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load results", err)
		return
	}
	if results == nil {
		results = []models.TypingResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// Stats handles GET /api/typing-results/user/{userId}/stats
func (h *TypingResultHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.results.Stats(r.PathValue("userId"), queryInt(r, "days"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// ByEmail handles GET /api/typing-results/by-email
func (h *TypingResultHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	q := service.HistoryQuery{
		SessionType: r.URL.Query().Get("sessionType"),
		Limit:       queryInt(r, "limit"),
	}

	results, err := h.results.ResultsByEmail(r.URL.Query().Get("email"), q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if results == nil {
		results = []models.TypingResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// EmailResult handles POST /api/typing-results/email: send a result summary
// to the student's inbox.
func (h *TypingResultHandler) EmailResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string              `json:"email"`
		Name   string              `json:"name"`
		Result models.TypingResult `json:"result"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required", nil)
		return
	}

	if !h.email.IsEnabled() {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"emailSent": false,
			"message":   "Email service is not configured",
		})
		return
	}

	if err := h.email.SendResultsEmail(r.Context(), req.Email, req.Name, &req.Result); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to send email", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"emailSent": true,
	})
}

// TopWPMMonthly handles GET /api/typing-results/top-wpm-monthly
func (h *TypingResultHandler) TopWPMMonthly(w http.ResponseWriter, r *http.Request) {
	top, err := h.results.TopWPMThisMonth(queryInt(r, "limit"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load top performers", err)
		return
	}
	if top == nil {
		top = []models.TopPerformer{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"topPerformers": top,
	})
}

// RecentActivities handles GET /api/typing-results/recent-activities
func (h *TypingResultHandler) RecentActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.results.RecentActivities(queryInt(r, "days"), queryInt(r, "limit"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load activities", err)
		return
	}
	if activities == nil {
		activities = []models.RecentActivity{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"activities": activities,
		"count":      len(activities),
	})
}
