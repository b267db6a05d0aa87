package handlers

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"nursescript/internal/ai"
	"nursescript/internal/audio"
	"nursescript/internal/models"
	"nursescript/internal/ratelimit"
	"nursescript/internal/service"
)

// AIHandler handles the AI patient chat proxy
type AIHandler struct {
	client        *ai.Client
	tts           *audio.TTSService
	consultations *service.ConsultationService
	limiter       *ratelimit.Limiter
}

// NewAIHandler creates a new AI handler
func NewAIHandler(client *ai.Client, tts *audio.TTSService, consultations *service.ConsultationService, limiter *ratelimit.Limiter) *AIHandler {
	return &AIHandler{client: client, tts: tts, consultations: consultations, limiter: limiter}
}

type chatRequest struct {
	RoomCode  string               `json:"roomCode"`
	StudentID string               `json:"studentId"`
	Message   string               `json:"message"`
	History   []models.ChatMessage `json:"conversationHistory"`
}

func (req *chatRequest) validate() error {
	if strings.TrimSpace(req.RoomCode) == "" {
		return errors.New("roomCode is required")
	}
	if strings.TrimSpace(req.StudentID) == "" {
		return errors.New("studentId is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// throttle applies the per-student per-room rate limit. Returns false after
// writing the 429 when the caller must back off.
func (h *AIHandler) throttle(w http.ResponseWriter, req *chatRequest) bool {
	key := fmt.Sprintf("%s_%s", req.StudentID, req.RoomCode)
	allowed, retryAfter := h.limiter.Allow(key)
	if allowed {
		return true
	}

	seconds := int(math.Ceil(retryAfter.Seconds()))
	w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":      "Too Many Requests",
		"message":    "Please slow down",
		"retryAfter": seconds,
	})
	return false
}

// GenerateResponse handles POST /api/ai/generate-response
func (h *AIHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !h.throttle(w, &req) {
		return
	}

	reply, err := h.client.GeneratePatientResponse(r.Context(), req.RoomCode, req.StudentID, req.Message, req.History)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "AI service is not configured", nil)
			return
		}
		respondError(w, http.StatusBadGateway, "AI service is unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"response": reply,
	})
}

// ChatWithSpeech handles POST /api/ai/chat-with-speech: the same chat call
// plus a synthesized audio file. When TTS is unavailable the reply still
// succeeds and the client falls back to browser speech.
func (h *AIHandler) ChatWithSpeech(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !h.throttle(w, &req) {
		return
	}

	reply, err := h.client.GeneratePatientResponse(r.Context(), req.RoomCode, req.StudentID, req.Message, req.History)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "AI service is not configured", nil)
			return
		}
		respondError(w, http.StatusBadGateway, "AI service is unavailable", err)
		return
	}

	payload := map[string]interface{}{
		"success":  true,
		"response": reply,
	}

	filename, ttsErr := h.tts.GenerateAudioFile(r.Context(), reply)
	if ttsErr != nil {
		if !errors.Is(ttsErr, audio.ErrTTSDisabled) {
			log.Printf("TTS generation failed: %v", ttsErr)
		}
		payload["useBrowserSpeech"] = true
	} else {
		payload["audioUrl"] = "/audio/" + filename
	}

	respondJSON(w, http.StatusOK, payload)
}

// GeneratePatient handles GET /api/ai/generate-patient
func (h *AIHandler) GeneratePatient(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("roomCode")
	studentID := r.URL.Query().Get("studentId")
	if roomCode == "" || studentID == "" {
		respondError(w, http.StatusBadRequest, "roomCode and studentId are required", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": ai.GeneratePatient(roomCode, studentID),
	})
}

// SubmitAssessment handles POST /api/ai/submit-assessment
func (h *AIHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
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
		"message":      "Assessment submitted",
		"consultation": saved,
	})
}

// Status handles GET /api/ai/status
func (h *AIHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"configured": h.client.IsConfigured(),
		"model":      h.client.Model(),
		"ttsEnabled": h.tts.IsEnabled(),
	})
}

// Health handles GET /api/ai/health
func (h *AIHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.client.IsConfigured() {
		status = "unconfigured"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}
