package handlers

import (
	"errors"
	"net/http"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// AdminHandler handles administrator operations on teacher accounts
type AdminHandler struct {
	teachers *service.TeacherService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(teachers *service.TeacherService) *AdminHandler {
	return &AdminHandler{teachers: teachers}
}

// CreateTeacher handles POST /api/admin/teachers
func (h *AdminHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if claims := GetClaimsFromContext(r.Context()); claims != nil {
		req.CreatedBy = claims.Subject
	}

	result, err := h.teachers.CreateTeacher(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrTeacherExists) {
			respondError(w, http.StatusConflict, "a teacher with this email already exists", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "Teacher account created",
		"teacher":      result.Teacher,
		"tempPassword": result.TempPassword,
		"emailSent":    result.EmailSent,
		"emailError":   result.EmailError,
	})
}

// ListTeachers handles GET /api/admin/teachers
func (h *AdminHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.teachers.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load teachers", err)
		return
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"teachers": teachers,
		"count":    len(teachers),
	})
}

// GetTeacher handles GET /api/admin/teachers/{id}
func (h *AdminHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	teacher, err := h.teachers.Lookup(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrTeacherNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load teacher", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"teacher": teacher,
	})
}

// UpdateTeacher handles PATCH /api/admin/teachers/{id}
func (h *AdminHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	teacher, err := h.teachers.UpdateProfile(r.PathValue("id"), req)
	if err != nil {
		if errors.Is(err, service.ErrTeacherNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"teacher": teacher,
	})
}

// DeleteTeacher handles DELETE /api/admin/teachers/{id}
func (h *AdminHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	if err := h.teachers.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrTeacherNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete teacher", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Teacher account deleted",
	})
}
