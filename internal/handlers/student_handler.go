package handlers

import (
	"errors"
	"net/http"
	"strings"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// StudentHandler handles the student-facing room endpoints
type StudentHandler struct {
	rooms    *service.RoomService
	sessions *service.LiveSessionService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(rooms *service.RoomService, sessions *service.LiveSessionService) *StudentHandler {
	return &StudentHandler{rooms: rooms, sessions: sessions}
}

type joinRequest struct {
	RoomCode string `json:"roomCode"`
	service.JoinRequest
}

// Join handles POST /api/students/join
func (h *StudentHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.RoomCode) == "" {
		respondError(w, http.StatusBadRequest, "roomCode is required", nil)
		return
	}

	// A running session controls admission: countdown admits freely, an
	// active session only with late join enabled, an expired one nobody.
	session, err := h.sessions.GetSession(req.RoomCode)
	if err == nil {
		if joinErr := h.sessions.CanJoin(session); joinErr != nil {
			status := http.StatusForbidden
			if errors.Is(joinErr, service.ErrSessionCompleted) {
				status = http.StatusConflict
			}
			respondError(w, status, joinErr.Error(), nil)
			return
		}
	} else if errors.Is(err, service.ErrSessionExpired) {
		respondError(w, http.StatusBadRequest, "session has expired", nil)
		return
	} else if !errors.Is(err, service.ErrSessionNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to check session", err)
		return
	}

	room, member, alreadyJoined, err := h.rooms.Join(req.RoomCode, req.JoinRequest)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found", nil)
		case errors.Is(err, service.ErrRoomCompleted):
			respondError(w, http.StatusConflict, "this activity has already finished", nil)
		default:
			respondError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}

	message := "Joined room successfully"
	if alreadyJoined {
		message = "Welcome back"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       message,
		"alreadyJoined": alreadyJoined,
		"room":          room,
		"student":       member,
	})
}

// UpdateProgress handles POST /api/students/progress. It is the same
// operation as the live-session progress endpoint, kept for clients that
// address progress by student rather than by session.
func (h *StudentHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode string `json:"roomCode"`
		models.ProgressUpdate
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.RoomCode) == "" {
		respondError(w, http.StatusBadRequest, "roomCode is required", nil)
		return
	}

	session, err := h.sessions.UpdateProgress(req.RoomCode, req.ProgressUpdate)
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

// Leave handles POST /api/students/leave
func (h *StudentHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode  string `json:"roomCode"`
		StudentID string `json:"studentId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.rooms.Leave(req.RoomCode, req.StudentID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found", nil)
		case errors.Is(err, service.ErrStudentNotJoined):
			respondError(w, http.StatusNotFound, "student is not in this room", nil)
		default:
			respondError(w, http.StatusInternalServerError, "failed to leave room", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Left room successfully",
	})
}

// Rooms handles GET /api/students/{studentId}/rooms
func (h *StudentHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")

	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, strings.TrimSpace(s))
		}
	}

	rooms, err := h.rooms.RoomsForStudent(studentID, statuses)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load rooms", err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rooms":   rooms,
		"count":   len(rooms),
	})
}
