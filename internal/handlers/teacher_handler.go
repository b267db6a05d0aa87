package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// TeacherHandler handles the teacher-facing roster and profile endpoints
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler creates a new teacher handler
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// Profile handles GET /api/teachers/profile
func (h *TeacherHandler) Profile(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())
	if teacher == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"teacher": teacher,
	})
}

// UpdateProfile handles PATCH /api/teachers/profile
func (h *TeacherHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())
	if teacher == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req service.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	// Teachers cannot deactivate themselves through the profile endpoint
	req.IsActive = nil

	updated, err := h.teachers.UpdateProfile(teacher.ID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"teacher": updated,
	})
}

// Students handles GET /api/teachers/students
func (h *TeacherHandler) Students(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	students, err := h.teachers.Students(teacher.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load students", err)
		return
	}
	if students == nil {
		students = []models.User{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}

// AddStudents handles POST /api/teachers/students
func (h *TeacherHandler) AddStudents(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req struct {
		StudentIDs []string `json:"studentIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	added, err := h.teachers.AddStudents(teacher.ID, req.StudentIDs)
	if err != nil {
		if errors.Is(err, service.ErrTeacherInactive) {
			respondError(w, http.StatusForbidden, "teacher account is deactivated", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"added":   added,
	})
}

// RemoveStudent handles DELETE /api/teachers/students/{studentId}
func (h *TeacherHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	if err := h.teachers.RemoveStudent(teacher.ID, r.PathValue("studentId")); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove student", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student removed from roster",
	})
}

// SearchStudents handles GET /api/teachers/students/search
func (h *TeacherHandler) SearchStudents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	students, err := h.teachers.SearchStudents(r.URL.Query().Get("q"), limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if students == nil {
		students = []models.User{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}
