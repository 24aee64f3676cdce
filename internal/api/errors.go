package api

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// sensorResponse is the body of every POST /sensor response.
type sensorResponse struct {
	Success bool   `json:"success"`
	Log     any    `json:"log,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeInternalError writes a 500 response with a generic message.
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "Internal server error",
	})
}
