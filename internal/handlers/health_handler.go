package handlers

import (
	"net/http"
	"time"

	"nursescript/internal/database"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	db      *database.DB
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":    status,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}
