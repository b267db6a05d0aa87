package handlers

import (
	"errors"
	"net/http"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// LiveSessionHandler handles live session HTTP requests
type LiveSessionHandler struct {
	sessions *service.LiveSessionService
}

// NewLiveSessionHandler creates a new live session handler
func NewLiveSessionHandler(sessions *service.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{sessions: sessions}
}

// Get handles GET /api/live-sessions/{roomCode}
func (h *LiveSessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.PathValue("roomCode"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "live session not found", nil)
		case errors.Is(err, service.ErrSessionExpired):
			respondError(w, http.StatusGone, "live session has expired", nil)
		default:
			respondError(w, http.StatusInternalServerError, "failed to load session", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// UpdateProgress handles POST /api/live-sessions/{roomCode}/progress
func (h *LiveSessionHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var upd models.ProgressUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.sessions.UpdateProgress(r.PathValue("roomCode"), upd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "live session not found", nil)
		case errors.Is(err, service.ErrSessionCompleted):
			respondError(w, http.StatusBadRequest, "session has already completed", nil)
		case errors.Is(err, service.ErrNotRoomMember):
			respondError(w, http.StatusForbidden, "student has not joined this room", nil)
		default:
			respondError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"status":      session.Status,
		"leaderboard": session.Leaderboard,
	})
}

// Leaderboard handles GET /api/live-sessions/{roomCode}/leaderboard
func (h *LiveSessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, visible, err := h.sessions.Leaderboard(r.PathValue("roomCode"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "live session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load leaderboard", err)
		return
	}
	if !visible {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"visible":     false,
			"leaderboard": []models.LeaderboardEntry{},
		})
		return
	}
	if board == nil {
		board = []models.LeaderboardEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"visible":     true,
		"leaderboard": board,
	})
}
