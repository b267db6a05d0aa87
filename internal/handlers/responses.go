package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes a JSON body with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError writes a JSON error body, logging the underlying error when
// one is provided.
func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": userMsg,
	})
}

// decodeJSON parses a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
