package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Analytics endpoints answer with a uniform envelope; the CRUD endpoints
// return the entity (or an {error} object) directly.

type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *metadata `json:"metadata,omitempty"`
}

type metadata struct {
	ResponseTime int64     `json:"responseTime"` // milliseconds
	Count        *int      `json:"count,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func respondData(w http.ResponseWriter, started time.Time, data any, count *int) {
	now := time.Now()
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Data:      data,
		Timestamp: now,
		Metadata: &metadata{
			ResponseTime: now.Sub(started).Milliseconds(),
			Count:        count,
			Timestamp:    now,
		},
	})
}

func respondError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, envelope{
		Success:   false,
		Error:     msg,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// writeEntity and writeError serve the CRUD surface, which predates the
// envelope and keeps its flat shape.

func writeEntity(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, details any) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}
