package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"nursescript/internal/models"
	"nursescript/internal/service"
)

// ConsultationHandler handles consultation HTTP requests
type ConsultationHandler struct {
	consultations *service.ConsultationService
}

// NewConsultationHandler creates a new consultation handler
func NewConsultationHandler(consultations *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations}
}

// Save handles POST /api/consultations
func (h *ConsultationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var consultation models.Consultation
	if err := decodeJSON(r, &consultation); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	saved, err := h.consultations.Save(&consultation)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"consultation": saved,
	})
}

// Get handles GET /api/consultations/{id}
func (h *ConsultationHandler) Get(w http.ResponseWriter, r *http.Request) {
	consultation, err := h.consultations.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrConsultationNotFound) {
			respondError(w, http.StatusNotFound, "consultation not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load consultation", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"consultation": consultation,
	})
}

// History handles GET /api/consultations/student/{userId}
func (h *ConsultationHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	consultations, err := h.consultations.History(r.PathValue("userId"), limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if consultations == nil {
		consultations = []models.Consultation{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"consultations": consultations,
		"count":         len(consultations),
	})
}

// Feedback handles POST /api/consultations/{id}/feedback
func (h *ConsultationHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feedback string   `json:"feedback"`
		Score    *float64 `json:"score"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	consultation, err := h.consultations.Feedback(r.PathValue("id"), req.Feedback, req.Score)
	if err != nil {
		if errors.Is(err, service.ErrConsultationNotFound) {
			respondError(w, http.StatusNotFound, "consultation not found", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"consultation": consultation,
	})
}
