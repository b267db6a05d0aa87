package handlers

import (
	"errors"
	"net/http"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// RoomHandler handles room lifecycle HTTP requests
type RoomHandler struct {
	rooms    *service.RoomService
	sessions *service.LiveSessionService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomService, sessions *service.LiveSessionService) *RoomHandler {
	return &RoomHandler{rooms: rooms, sessions: sessions}
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if teacher := GetTeacherFromContext(r.Context()); teacher != nil {
		req.TeacherID = teacher.ID
		if req.TeacherName == "" {
			req.TeacherName = teacher.Name
		}
	}

	room, err := h.rooms.CreateRoom(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Room created successfully",
		"room":     room,
		"roomCode": room.RoomCode,
	})
}

// List handles GET /api/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := r.URL.Query().Get("teacherId")
	if teacher := GetTeacherFromContext(r.Context()); teacher != nil && teacherID == "" {
		teacherID = teacher.ID
	}

	rooms, err := h.rooms.ListRooms(teacherID, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
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

// Get handles GET /api/rooms/{roomCode}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.PathValue("roomCode"))
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "room not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load room", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"room":    room,
	})
}

// UpdateStatus handles PATCH /api/rooms/{roomCode}/status
func (h *RoomHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	room, err := h.rooms.UpdateStatus(r.PathValue("roomCode"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found", nil)
		case errors.Is(err, service.ErrStatusMovesBack):
			respondError(w, http.StatusConflict, err.Error(), nil)
		default:
			respondError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"room":    room,
	})
}

// Delete handles DELETE /api/rooms/{roomCode}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teacherID := ""
	if teacher := GetTeacherFromContext(r.Context()); teacher != nil {
		teacherID = teacher.ID
	}

	err := h.rooms.DeleteRoom(r.PathValue("roomCode"), teacherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found", nil)
		case errors.Is(err, service.ErrNotRoomOwner):
			respondError(w, http.StatusForbidden, "room belongs to a different teacher", nil)
		default:
			respondError(w, http.StatusInternalServerError, "failed to delete room", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Room deleted successfully",
	})
}

// StartActivity handles POST /api/rooms/{roomCode}/start-activity
func (h *RoomHandler) StartActivity(w http.ResponseWriter, r *http.Request) {
	var req service.StartActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.sessions.StartActivity(r.PathValue("roomCode"), req)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "room not found", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Activity started",
		"session": session,
	})
}

// EndActivity handles POST /api/rooms/{roomCode}/end-activity
func (h *RoomHandler) EndActivity(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.EndActivity(r.PathValue("roomCode"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "no live session for this room", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to end activity", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Activity ended",
		"finalLeaderboard": session.Leaderboard,
	})
}
